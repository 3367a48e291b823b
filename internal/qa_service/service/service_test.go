package service

import (
	"strings"
	"testing"

	"docqa/internal/qa_service/rag/pipeline"
)

func TestEnhanceQuestion(t *testing.T) {
	cases := []struct {
		question string
		want     string
	}{
		{
			"What is the entry age?",
			"What is the entry age? minimum maximum entry age eligibility",
		},
		{
			"Does the policy offer a MATURITY BENEFIT?",
			"Does the policy offer a MATURITY BENEFIT? maturity benefit sum assured policy term",
		},
		{
			"Who painted the ceiling?",
			"Who painted the ceiling?",
		},
	}
	for _, tc := range cases {
		if got := enhanceQuestion(tc.question); got != tc.want {
			t.Errorf("enhanceQuestion(%q) = %q, want %q", tc.question, got, tc.want)
		}
	}
}

func TestEnhanceQuestion_FirstTopicWins(t *testing.T) {
	got := enhanceQuestion("Is there a premium rider?")
	want := "Is there a premium rider? rider add-on additional benefit"
	if got != want {
		t.Errorf("enhanceQuestion = %q, want %q", got, want)
	}
}

func TestCleanAnswer_CapsOverlongAnswers(t *testing.T) {
	sentence := "This sentence pads the answer out well past the permitted length for a concise policy reply. "
	long := strings.Repeat(sentence, 10)

	got := cleanAnswer(long)

	if len(got) >= len(strings.TrimSpace(long)) {
		t.Fatal("overlong answer was not shortened")
	}
	wantSentences := 4
	if n := strings.Count(got, "."); n != wantSentences {
		t.Errorf("capped answer has %d sentences, want %d", n, wantSentences)
	}
}

func TestCleanAnswer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  The premium is\n\n500   per year. ", "The premium is 500 per year."},
		{"ok", pipeline.NotFoundAnswer},
		{"   ", pipeline.NotFoundAnswer},
		{"A fine answer.", "A fine answer."},
	}
	for _, tc := range cases {
		if got := cleanAnswer(tc.in); got != tc.want {
			t.Errorf("cleanAnswer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
