package loaders

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"docqa/internal/qa_service/rag/interfaces"
	"docqa/internal/qa_service/rag/pipeline"
	"docqa/internal/qa_service/rag/schema"
)

// Some document hosts reject requests without a browser user agent.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// PdfURLLoader implements the Loader interface for PDF documents reachable
// over HTTP. The document is downloaded into a temp file, parsed page by
// page, and the temp file is removed before Load returns.
type PdfURLLoader struct {
	client *http.Client
}

// NewPdfURLLoader creates a loader whose downloads abort after the given timeout.
func NewPdfURLLoader(timeout time.Duration) *PdfURLLoader {
	return &PdfURLLoader{
		client: &http.Client{Timeout: timeout},
	}
}

// Load downloads the PDF at url and extracts the plain text of each page.
// Download failures surface as FetchError, parse failures as ExtractionError.
func (l *PdfURLLoader) Load(ctx context.Context, url string) ([]schema.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &pipeline.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &pipeline.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &pipeline.FetchError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "pdf") && !strings.HasSuffix(strings.ToLower(url), ".pdf") {
		return nil, &pipeline.FetchError{URL: url, Err: fmt.Errorf("unsupported content type %q", contentType)}
	}

	tmp, err := os.CreateTemp("", "docqa-*.pdf")
	if err != nil {
		return nil, &pipeline.FetchError{URL: url, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return nil, &pipeline.FetchError{URL: url, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &pipeline.FetchError{URL: url, Err: err}
	}

	f, r, err := pdf.Open(tmp.Name())
	if err != nil {
		return nil, &pipeline.ExtractionError{URL: url, Err: err}
	}
	defer f.Close()

	var pages []schema.Page
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}

		pages = append(pages, schema.Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, &pipeline.ExtractionError{URL: url, Err: fmt.Errorf("no readable pages")}
	}

	return pages, nil
}

// compile-time check to ensure PdfURLLoader implements the Loader interface
var _ interfaces.Loader = (*PdfURLLoader)(nil)
