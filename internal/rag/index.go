package rag

import (
	"context"
	"fmt"
	"sync/atomic"

	chromem "github.com/philippgille/chromem-go"
)

// Passage is one retrieved chunk of the knowledge corpus.
type Passage struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	Similarity float32 `json:"similarity"`
}

// Index is an immutable snapshot of the vector index. Build a new one with
// Indexer.Build and publish it through a Handle; an Index is never mutated
// after construction, which is what makes the handle swap safe.
type Index struct {
	col *chromem.Collection
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	return ix.col.Count()
}

// Search returns up to k passages most similar to the query, best first.
// Returns an empty result for an empty index rather than an error.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	// chromem rejects nResults larger than the collection, so clamp.
	if count := ix.col.Count(); k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := ix.col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	passages := make([]Passage, 0, len(results))
	for _, res := range results {
		passages = append(passages, Passage{
			Content:    res.Content,
			Source:     res.Metadata["source"],
			Similarity: res.Similarity,
		})
	}
	return passages, nil
}

// Handle is the process-wide pointer to the current Index. Rebuilds replace
// the whole Index via Store; readers going through Search always observe a
// complete index.
//
// Handle satisfies the orchestrator's Retriever interface.
type Handle struct {
	ptr atomic.Pointer[Index]
}

// NewHandle creates a Handle publishing the given index.
func NewHandle(ix *Index) *Handle {
	h := &Handle{}
	h.ptr.Store(ix)
	return h
}

// Load returns the current index snapshot.
func (h *Handle) Load() *Index {
	return h.ptr.Load()
}

// Store atomically replaces the published index.
func (h *Handle) Store(ix *Index) {
	h.ptr.Store(ix)
}

// Search queries the current index snapshot.
func (h *Handle) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	return h.Load().Search(ctx, query, k)
}
