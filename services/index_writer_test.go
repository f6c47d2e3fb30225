package services

import (
	"context"
	"testing"

	"github.com/dsarkar123/ReguluS-MAS/models"
)

func TestWriteRecordsEmptyIsNoOp(t *testing.T) {
	store := &fakeStore{}
	w := NewIndexWriter(store)

	if err := w.WriteRecords(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.upserts) != 0 {
		t.Errorf("empty record list must not reach the store, got %d upserts", len(store.upserts))
	}
}

func TestWriteRecordsIndexesContentEmbedding(t *testing.T) {
	store := &fakeStore{}
	w := NewIndexWriter(store)

	record := models.EnrichedRecord{
		ID: "node_1",
		Values: models.EmbeddingSet{
			Content:  []float32{1, 2, 3},
			Summary:  []float32{4, 5, 6},
			Question: []float32{7, 8, 9},
		},
		Metadata: models.RecordMetadata{
			OriginalText: "maintain minimum cash balances",
			NoticeID:     "MAS Notice 758",
			NodeType:     models.NodeTypeParagraph,
			ParentID:     strptr(models.ParentIDSentinel),
		},
	}

	if err := w.WriteRecords(context.Background(), []models.EnrichedRecord{record}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.upserts) != 1 || len(store.upserts[0]) != 1 {
		t.Fatalf("upserts = %+v, want one batch of one item", store.upserts)
	}

	item := store.upserts[0][0]
	if item.ID != "node_1" {
		t.Errorf("item id = %q", item.ID)
	}
	if len(item.Embedding) != 3 || item.Embedding[0] != 1 {
		t.Errorf("indexed embedding = %v, want the content vector", item.Embedding)
	}
	if item.Document != "maintain minimum cash balances" {
		t.Errorf("document = %q, want the original text", item.Document)
	}
	if item.Metadata.NoticeID != "MAS Notice 758" {
		t.Errorf("metadata not carried: %+v", item.Metadata)
	}
}

func TestWriteRecordsCoercesNullParent(t *testing.T) {
	store := &fakeStore{}
	w := NewIndexWriter(store)

	records := []models.EnrichedRecord{
		{
			ID:       "node_1",
			Values:   models.EmbeddingSet{Content: []float32{0.5}},
			Metadata: models.RecordMetadata{OriginalText: "top-level", ParentID: nil},
		},
		{
			ID:       "node_2",
			Values:   models.EmbeddingSet{Content: []float32{0.6}},
			Metadata: models.RecordMetadata{OriginalText: "nested", ParentID: strptr("node_1")},
		},
	}

	if err := w.WriteRecords(context.Background(), records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := store.upserts[0]
	if items[0].Metadata.ParentID == nil || *items[0].Metadata.ParentID != models.ParentIDSentinel {
		t.Errorf("null parent_id must become %q, got %v", models.ParentIDSentinel, items[0].Metadata.ParentID)
	}
	if items[1].Metadata.ParentID == nil || *items[1].Metadata.ParentID != "node_1" {
		t.Errorf("real parent_id must be preserved, got %v", items[1].Metadata.ParentID)
	}
}
