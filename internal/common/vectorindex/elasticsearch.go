// internal/common/vectorindex/elasticsearch.go
package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	apperrors "fep-agent/internal/common/errors"
	"fep-agent/internal/common/genai"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

const embedBatchSize = 64

// ESIndex stores chunks in an Elasticsearch dense_vector index with cosine
// similarity.
type ESIndex struct {
	client     *elasticsearch.Client
	embedder   genai.Embedder
	index      string
	dimensions int
}

func NewESIndex(client *elasticsearch.Client, embedder genai.Embedder, index string, dimensions int) *ESIndex {
	return &ESIndex{client: client, embedder: embedder, index: index, dimensions: dimensions}
}

func (e *ESIndex) mapping() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"text":        map[string]interface{}{"type": "text"},
				"source_doc":  map[string]interface{}{"type": "keyword"},
				"chunk_index": map[string]interface{}{"type": "integer"},
				"embedding": map[string]interface{}{
					"type":       "dense_vector",
					"dims":       e.dimensions,
					"index":      true,
					"similarity": "cosine",
				},
			},
		},
	}
}

// EnsureIndex creates the index with its vector mapping if it is missing.
func (e *ESIndex) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{e.index}}.Do(ctx, e.client)
	if err != nil {
		return apperrors.NewVectorIndexUnavailableError(err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	body, _ := json.Marshal(e.mapping())
	res, err = esapi.IndicesCreateRequest{Index: e.index, Body: bytes.NewReader(body)}.Do(ctx, e.client)
	if err != nil {
		return apperrors.NewVectorIndexUnavailableError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewVectorIndexUnavailableError(fmt.Errorf("create index: %s", res.String()))
	}
	return nil
}

type searchHit struct {
	Score  float64 `json:"_score"`
	Source struct {
		Text       string `json:"text"`
		SourceDoc  string `json:"source_doc"`
		ChunkIndex int    `json:"chunk_index"`
	} `json:"_source"`
	ID string `json:"_id"`
}

// SimilaritySearchWithScore embeds query and runs a kNN search. Distances
// are squared L2 between unit vectors, see ScoreToDistance.
func (e *ESIndex) SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	body, _ := json.Marshal(map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "embedding",
			"query_vector":   vectors[0],
			"k":              k,
			"num_candidates": max(100, k*10),
		},
		"_source": []string{"text", "source_doc", "chunk_index"},
		"size":    k,
	})
	res, err := esapi.SearchRequest{Index: []string{e.index}, Body: bytes.NewReader(body)}.Do(ctx, e.client)
	if err != nil {
		return nil, apperrors.NewVectorIndexUnavailableError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperrors.NewVectorIndexUnavailableError(fmt.Errorf("search failed: %s", res.String()))
	}

	var parsed struct {
		Hits struct {
			Hits []searchHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewVectorIndexUnavailableError(fmt.Errorf("decode search: %w", err))
	}

	out := make([]ScoredChunk, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, ScoredChunk{
			Chunk: Chunk{
				ID:         h.ID,
				Text:       h.Source.Text,
				SourceDoc:  h.Source.SourceDoc,
				ChunkIndex: h.Source.ChunkIndex,
			},
			Distance: ScoreToDistance(h.Score),
		})
	}
	return out, nil
}

// ScoreToDistance turns the cosine _score (1+cos)/2 into the squared L2
// distance 2-2cos of unit vectors, the scale the rag thresholds use.
func ScoreToDistance(score float64) float64 {
	return 4 - 4*score
}

// AddChunks embeds and bulk-indexes chunks. Chunks without an ID get one.
func (e *ESIndex) AddChunks(ctx context.Context, chunks []Chunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := e.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		for i, c := range batch {
			id := c.ID
			if id == "" {
				id = uuid.New().String()
			}
			meta, _ := json.Marshal(map[string]interface{}{"index": map[string]interface{}{"_id": id}})
			doc, _ := json.Marshal(map[string]interface{}{
				"text":        c.Text,
				"source_doc":  c.SourceDoc,
				"chunk_index": c.ChunkIndex,
				"embedding":   vectors[i],
			})
			buf.Write(meta)
			buf.WriteByte('\n')
			buf.Write(doc)
			buf.WriteByte('\n')
		}

		res, err := esapi.BulkRequest{Index: e.index, Body: &buf, Refresh: "true"}.Do(ctx, e.client)
		if err != nil {
			return apperrors.NewVectorIndexUnavailableError(err)
		}
		if err := bulkError(res); err != nil {
			return err
		}
	}
	return nil
}

func bulkError(res *esapi.Response) error {
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewVectorIndexUnavailableError(fmt.Errorf("bulk failed: %s", res.String()))
	}
	var parsed struct {
		Errors bool `json:"errors"`
	}
	raw, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Errors {
		return apperrors.NewVectorIndexUnavailableError(fmt.Errorf("bulk item errors: %s", truncate(string(raw), 512)))
	}
	return nil
}

// ListDocuments aggregates chunk counts per source document.
func (e *ESIndex) ListDocuments(ctx context.Context) ([]DocumentSummary, error) {
	body := `{"size":0,"aggs":{"docs":{"terms":{"field":"source_doc","size":1000,"order":{"_key":"asc"}}}}}`
	res, err := esapi.SearchRequest{Index: []string{e.index}, Body: strings.NewReader(body)}.Do(ctx, e.client)
	if err != nil {
		return nil, apperrors.NewVectorIndexUnavailableError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperrors.NewVectorIndexUnavailableError(fmt.Errorf("list failed: %s", res.String()))
	}

	var parsed struct {
		Aggregations struct {
			Docs struct {
				Buckets []struct {
					Key      string `json:"key"`
					DocCount int64  `json:"doc_count"`
				} `json:"buckets"`
			} `json:"docs"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewVectorIndexUnavailableError(fmt.Errorf("decode list: %w", err))
	}
	out := make([]DocumentSummary, 0, len(parsed.Aggregations.Docs.Buckets))
	for _, b := range parsed.Aggregations.Docs.Buckets {
		out = append(out, DocumentSummary{Name: b.Key, Chunks: b.DocCount})
	}
	return out, nil
}

// DeleteDocument removes every chunk of a document and returns how many
// were deleted.
func (e *ESIndex) DeleteDocument(ctx context.Context, name string) (int64, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{"term": map[string]interface{}{"source_doc": name}},
	})
	refresh := true
	res, err := esapi.DeleteByQueryRequest{Index: []string{e.index}, Body: bytes.NewReader(body), Refresh: &refresh}.Do(ctx, e.client)
	if err != nil {
		return 0, apperrors.NewVectorIndexUnavailableError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, apperrors.NewVectorIndexUnavailableError(fmt.Errorf("delete failed: %s", res.String()))
	}
	var parsed struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, apperrors.NewVectorIndexUnavailableError(fmt.Errorf("decode delete: %w", err))
	}
	return parsed.Deleted, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
