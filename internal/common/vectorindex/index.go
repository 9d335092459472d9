// internal/common/vectorindex/index.go
package vectorindex

import (
	"context"
	"sync"
)

// Chunk is a contiguous span of a policy document.
type Chunk struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	SourceDoc  string `json:"source_doc"`
	ChunkIndex int    `json:"chunk_index"`
}

// ScoredChunk pairs a chunk with its squared L2 distance to the query. Lower
// is closer.
type ScoredChunk struct {
	Chunk    Chunk   `json:"chunk"`
	Distance float64 `json:"distance"`
}

// DocumentSummary is one indexed document and how many chunks it has.
type DocumentSummary struct {
	Name   string `json:"name"`
	Chunks int64  `json:"chunks"`
}

// Searcher is the only capability the answer tools need.
type Searcher interface {
	SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]ScoredChunk, error)
}

// Store adds the ingestion operations used by the CLI.
type Store interface {
	Searcher
	EnsureIndex(ctx context.Context) error
	AddChunks(ctx context.Context, chunks []Chunk) error
	ListDocuments(ctx context.Context) ([]DocumentSummary, error)
	DeleteDocument(ctx context.Context, name string) (int64, error)
}

// Lazy opens its searcher on first use. A failed open is not remembered,
// so the next call tries again.
type Lazy struct {
	open func(ctx context.Context) (Searcher, error)

	mu       sync.Mutex
	searcher Searcher
}

func NewLazy(open func(ctx context.Context) (Searcher, error)) *Lazy {
	return &Lazy{open: open}
}

func (l *Lazy) get(ctx context.Context) (Searcher, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.searcher != nil {
		return l.searcher, nil
	}
	s, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	l.searcher = s
	return s, nil
}

func (l *Lazy) SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.SimilaritySearchWithScore(ctx, query, k)
}

// Reset drops the opened searcher so the next call reopens it.
func (l *Lazy) Reset() {
	l.mu.Lock()
	l.searcher = nil
	l.mu.Unlock()
}
