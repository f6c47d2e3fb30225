package services

import (
	"context"
	"fmt"

	"github.com/dsarkar123/ReguluS-MAS/internal/logger"
	"github.com/dsarkar123/ReguluS-MAS/models"
)

// IndexWriter upserts enriched records into the vector index using the
// content embedding. Summary and question vectors travel only as record
// values; they are not separately indexed.
type IndexWriter struct {
	store VectorStore
}

func NewIndexWriter(store VectorStore) *IndexWriter {
	return &IndexWriter{store: store}
}

// WriteRecords coerces metadata for the index and upserts everything keyed
// by node id. An empty record list is a logged no-op, not an error.
func (w *IndexWriter) WriteRecords(ctx context.Context, records []models.EnrichedRecord) error {
	if len(records) == 0 {
		logger.Warn("No enriched records to index, skipping upsert")
		return nil
	}

	items := make([]models.IndexedItem, 0, len(records))
	for _, record := range records {
		items = append(items, models.IndexedItem{
			ID:        record.ID,
			Embedding: record.Values.Content,
			Metadata:  coerceMetadata(record.Metadata),
			Document:  record.Metadata.OriginalText,
		})
	}

	if err := w.store.Upsert(ctx, items); err != nil {
		return fmt.Errorf("index upsert failed: %w", err)
	}

	count, err := w.store.Count(ctx)
	if err != nil {
		logger.Warn("Index count unavailable after upsert", "error", err)
	} else {
		logger.Info("Indexed records", "upserted", len(items), "collection_count", count)
	}
	return nil
}

// coerceMetadata replaces a null parent_id with the sentinel string. The
// index forbids null metadata values; absence is never expressed by a
// missing key.
func coerceMetadata(meta models.RecordMetadata) models.RecordMetadata {
	if meta.ParentID == nil {
		sentinel := models.ParentIDSentinel
		meta.ParentID = &sentinel
	}
	return meta
}
