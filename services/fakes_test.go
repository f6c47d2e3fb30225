package services

import (
	"context"
	"fmt"

	"github.com/dsarkar123/ReguluS-MAS/models"
)

// fakeAI scripts generation and embedding for pipeline tests. Every
// prompt sent to GenerateText is recorded for inspection.
type fakeAI struct {
	generateFn func(prompt string) (string, error)
	embedFn    func(text string) ([]float32, error)
	prompts    []string
}

func (f *fakeAI) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.generateFn == nil {
		return "", fmt.Errorf("unexpected GenerateText call")
	}
	return f.generateFn(prompt)
}

func (f *fakeAI) EmbedText(_ context.Context, text string) ([]float32, error) {
	if f.embedFn == nil {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	return f.embedFn(text)
}

// fakeStore is an in-memory VectorStore recording upserts and id lookups.
type fakeStore struct {
	queryHits []QueryHit
	queryErr  error
	getHits   map[string]QueryHit
	getCalls  [][]string
	upserts   [][]models.IndexedItem
}

func (f *fakeStore) Upsert(_ context.Context, items []models.IndexedItem) error {
	f.upserts = append(f.upserts, items)
	return nil
}

func (f *fakeStore) Query(_ context.Context, _ []float32, n int, _ map[string]any) ([]QueryHit, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if n > len(f.queryHits) {
		n = len(f.queryHits)
	}
	return f.queryHits[:n], nil
}

func (f *fakeStore) Get(_ context.Context, ids []string) ([]QueryHit, error) {
	f.getCalls = append(f.getCalls, ids)
	var hits []QueryHit
	for _, id := range ids {
		if hit, ok := f.getHits[id]; ok {
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

func (f *fakeStore) Count(_ context.Context) (int64, error) {
	total := int64(0)
	for _, batch := range f.upserts {
		total += int64(len(batch))
	}
	return total, nil
}

func strptr(s string) *string { return &s }
