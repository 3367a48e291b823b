package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"golang.org/x/sync/errgroup"

	"docqa/internal/database/milvus"
	"docqa/internal/qa_service/rag/interfaces"
	"docqa/internal/qa_service/rag/pipeline"
	"docqa/internal/qa_service/rag/schema"
)

// insertBatchSize caps how many chunks go into a single Insert call;
// upsertWorkers bounds how many batches are inserted concurrently.
const (
	insertBatchSize = 128
	upsertWorkers   = 4
)

// closeTimeout bounds partition teardown, which runs on a detached context
// so that a cancelled request still gets its partition dropped.
const closeTimeout = 30 * time.Second

// MilvusSession is an IndexSession backed by a dedicated Milvus partition.
// The partition is created by Open, populated by Upsert, and dropped by
// Close. Close is idempotent.
type MilvusSession struct {
	store     *milvus.MilvusClient
	sessionID string
	partition string

	mu     sync.Mutex
	opened bool
	closed bool
}

// NewMilvusSession creates a session scoped to the given session ID. The ID
// is sanitized into a legal Milvus partition name.
func NewMilvusSession(store *milvus.MilvusClient, sessionID string) *MilvusSession {
	return &MilvusSession{
		store:     store,
		sessionID: sessionID,
		partition: "req_" + strings.ReplaceAll(sessionID, "-", "_"),
	}
}

// Open provisions the per-session partition.
func (s *MilvusSession) Open(ctx context.Context) error {
	if err := s.store.CreatePartition(ctx, s.partition); err != nil {
		return &pipeline.IndexProvisionError{Session: s.sessionID, Err: err}
	}
	s.mu.Lock()
	s.opened = true
	s.mu.Unlock()
	return nil
}

// Upsert writes chunks and their vectors into the session partition in
// parallel batches, then flushes so the data is visible to subsequent
// queries. Batches are disjoint slices of one partition, so concurrent
// inserts do not contend.
func (s *MilvusSession) Upsert(ctx context.Context, chunks []schema.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return &pipeline.IndexProvisionError{
			Session: s.sessionID,
			Err:     fmt.Errorf("chunk count %d does not match vector count %d", len(chunks), len(vectors)),
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(upsertWorkers)

	for start := 0; start < len(chunks); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		batchVectors := vectors[start:end]

		g.Go(func() error {
			ids := make([]string, len(batch))
			seqs := make([]int64, len(batch))
			texts := make([]string, len(batch))
			pages := make([]int64, len(batch))
			for i, c := range batch {
				ids[i] = fmt.Sprintf("%s:%d", s.sessionID, c.Seq)
				seqs[i] = int64(c.Seq)
				texts[i] = c.Text
				pages[i] = int64(c.Page)
			}

			if err := s.store.InsertBatch(gctx, s.partition, ids, seqs, texts, pages, batchVectors); err != nil {
				return &pipeline.IndexProvisionError{
					Session: s.sessionID,
					Err:     fmt.Errorf("chunks %d through %d: %w", batch[0].Seq, batch[len(batch)-1].Seq, err),
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.store.Flush(ctx); err != nil {
		return &pipeline.IndexProvisionError{Session: s.sessionID, Err: err}
	}
	return nil
}

// Query runs a similarity search inside the session partition and returns
// the hits ordered by descending score. Ties break on ascending chunk
// sequence so results are deterministic.
func (s *MilvusSession) Query(ctx context.Context, vector []float32, topK int) ([]schema.ScoredChunk, error) {
	results, err := s.store.SearchPartition(ctx, s.partition, topK, vector)
	if err != nil {
		return nil, &pipeline.IndexQueryError{Session: s.sessionID, Err: err}
	}

	var hits []schema.ScoredChunk
	for _, res := range results {
		seqCol, textCol, pageCol, err := resultColumns(res)
		if err != nil {
			return nil, &pipeline.IndexQueryError{Session: s.sessionID, Err: err}
		}

		for i := 0; i < res.ResultCount; i++ {
			seq, err := seqCol.ValueByIdx(i)
			if err != nil {
				return nil, &pipeline.IndexQueryError{Session: s.sessionID, Err: err}
			}
			text, err := textCol.ValueByIdx(i)
			if err != nil {
				return nil, &pipeline.IndexQueryError{Session: s.sessionID, Err: err}
			}
			page, err := pageCol.ValueByIdx(i)
			if err != nil {
				return nil, &pipeline.IndexQueryError{Session: s.sessionID, Err: err}
			}

			hits = append(hits, schema.ScoredChunk{
				Chunk: schema.Chunk{Seq: int(seq), Text: text, Page: int(page)},
				Score: res.Scores[i],
			})
		}
	}

	return rankHits(hits, topK), nil
}

// rankHits orders hits by descending score, breaking ties on ascending
// chunk sequence, and truncates to topK.
func rankHits(hits []schema.ScoredChunk, topK int) []schema.ScoredChunk {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.Seq < hits[j].Chunk.Seq
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// resultColumns pulls the typed output columns out of one search result.
func resultColumns(res client.SearchResult) (*entity.ColumnInt64, *entity.ColumnVarChar, *entity.ColumnInt64, error) {
	seqCol, ok := res.Fields.GetColumn(milvus.FieldSeq).(*entity.ColumnInt64)
	if !ok {
		return nil, nil, nil, fmt.Errorf("unexpected type for column %q", milvus.FieldSeq)
	}
	textCol, ok := res.Fields.GetColumn(milvus.FieldText).(*entity.ColumnVarChar)
	if !ok {
		return nil, nil, nil, fmt.Errorf("unexpected type for column %q", milvus.FieldText)
	}
	pageCol, ok := res.Fields.GetColumn(milvus.FieldPage).(*entity.ColumnInt64)
	if !ok {
		return nil, nil, nil, fmt.Errorf("unexpected type for column %q", milvus.FieldPage)
	}
	return seqCol, textCol, pageCol, nil
}

// Close drops the session partition. It tolerates repeated calls and a
// partition that was never created or is already gone. The drop runs on its
// own context so request cancellation cannot leak the partition.
func (s *MilvusSession) Close() error {
	s.mu.Lock()
	if s.closed || !s.opened {
		s.closed = true
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	exists, err := s.store.HasPartition(ctx, s.partition)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return s.store.DropPartition(ctx, s.partition)
}

// compile-time check to ensure MilvusSession implements the IndexSession interface
var _ interfaces.IndexSession = (*MilvusSession)(nil)
