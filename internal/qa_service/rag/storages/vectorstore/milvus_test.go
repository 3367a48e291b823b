package vectorstore

import (
	"testing"

	"docqa/internal/qa_service/rag/schema"
)

func TestRankHits_TieBreaksOnChunkSequence(t *testing.T) {
	hits := []schema.ScoredChunk{
		{Chunk: schema.Chunk{Seq: 7}, Score: 0.5},
		{Chunk: schema.Chunk{Seq: 2}, Score: 0.9},
		{Chunk: schema.Chunk{Seq: 4}, Score: 0.5},
		{Chunk: schema.Chunk{Seq: 9}, Score: 0.9},
	}

	ranked := rankHits(hits, 10)

	wantSeqs := []int{2, 9, 4, 7}
	if len(ranked) != len(wantSeqs) {
		t.Fatalf("got %d hits, want %d", len(ranked), len(wantSeqs))
	}
	for i, want := range wantSeqs {
		if ranked[i].Chunk.Seq != want {
			t.Errorf("ranked[%d].Seq = %d, want %d", i, ranked[i].Chunk.Seq, want)
		}
	}
}

func TestRankHits_TruncatesToTopK(t *testing.T) {
	hits := []schema.ScoredChunk{
		{Chunk: schema.Chunk{Seq: 0}, Score: 0.3},
		{Chunk: schema.Chunk{Seq: 1}, Score: 0.8},
		{Chunk: schema.Chunk{Seq: 2}, Score: 0.6},
	}

	ranked := rankHits(hits, 2)

	if len(ranked) != 2 {
		t.Fatalf("got %d hits, want 2", len(ranked))
	}
	if ranked[0].Chunk.Seq != 1 || ranked[1].Chunk.Seq != 2 {
		t.Errorf("top-2 seqs = [%d %d], want [1 2]", ranked[0].Chunk.Seq, ranked[1].Chunk.Seq)
	}
}

func TestSessionPartitionNameIsLegal(t *testing.T) {
	s := NewMilvusSession(nil, "3f2c9a1e-6b4d-4f8a-9c7e-2d5b8a1f0c3e")

	want := "req_3f2c9a1e_6b4d_4f8a_9c7e_2d5b8a1f0c3e"
	if s.partition != want {
		t.Errorf("partition = %q, want %q", s.partition, want)
	}
}

func TestClose_BeforeOpenIsNoop(t *testing.T) {
	// A session whose Open never succeeded has nothing to drop; Close must
	// not touch the store and must stay a no-op on repeat calls.
	s := NewMilvusSession(nil, "abc")

	if err := s.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
