package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dsarkar123/ReguluS-MAS/internal/config"
	"github.com/dsarkar123/ReguluS-MAS/models"
)

// QueryHit is one index result: id, stored document text, flattened
// metadata, and the distance reported by the nearest-neighbor query
// (zero for direct id lookups).
type QueryHit struct {
	ID       string
	Document string
	Metadata models.RecordMetadata
	Distance float64
}

// VectorStore persists indexed nodes and supports nearest-neighbor query
// with metadata filtering plus direct id lookup.
type VectorStore interface {
	Upsert(ctx context.Context, items []models.IndexedItem) error
	Query(ctx context.Context, embedding []float32, n int, filter map[string]any) ([]QueryHit, error)
	Get(ctx context.Context, ids []string) ([]QueryHit, error)
	Count(ctx context.Context) (int64, error)
}

// MongoVectorStore keeps one document per node in a dedicated collection
// and answers similarity queries through Atlas $vectorSearch. The search
// index itself is managed on the Atlas side and referenced by name.
type MongoVectorStore struct {
	collection *mongo.Collection
	indexName  string
}

func NewMongoVectorStore(client *mongo.Client, cfg *config.Config) *MongoVectorStore {
	return &MongoVectorStore{
		collection: client.Database(cfg.DBName).Collection(cfg.CollectionName),
		indexName:  cfg.VectorIndexName,
	}
}

type storedNode struct {
	ID       string                `bson:"_id"`
	Vector   []float32             `bson:"vector,omitempty"`
	Metadata models.RecordMetadata `bson:"metadata"`
	Document string                `bson:"document"`
	Score    float64               `bson:"score,omitempty"`
}

// Upsert writes all items keyed by id; re-ingesting unchanged ids
// overwrites the prior records.
func (m *MongoVectorStore) Upsert(ctx context.Context, items []models.IndexedItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := make([]mongo.WriteModel, 0, len(items))
	for _, item := range items {
		doc := storedNode{
			ID:       item.ID,
			Vector:   item.Embedding,
			Metadata: item.Metadata,
			Document: item.Document,
		}
		batch = append(batch, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": item.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	_, err := m.collection.BulkWrite(ctx, batch, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("bulk upsert failed: %w", err)
	}
	return nil
}

// Query runs a $vectorSearch aggregation for the n nearest nodes. Filter
// keys address flattened metadata fields (e.g. "notice_id").
func (m *MongoVectorStore) Query(ctx context.Context, embedding []float32, n int, filter map[string]any) ([]QueryHit, error) {
	search := bson.D{
		{Key: "index", Value: m.indexName},
		{Key: "path", Value: "vector"},
		{Key: "queryVector", Value: embedding},
		{Key: "numCandidates", Value: n * 10},
		{Key: "limit", Value: n},
	}
	if len(filter) > 0 {
		clauses := bson.D{}
		for key, value := range filter {
			clauses = append(clauses, bson.E{Key: "metadata." + key, Value: value})
		}
		search = append(search, bson.E{Key: "filter", Value: clauses})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: search}},
		{{Key: "$project", Value: bson.D{
			{Key: "metadata", Value: 1},
			{Key: "document", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []storedNode
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	hits := make([]QueryHit, 0, len(docs))
	for _, doc := range docs {
		hits = append(hits, QueryHit{
			ID:       doc.ID,
			Document: doc.Document,
			Metadata: doc.Metadata,
			// $vectorSearch reports a similarity score in [0,1].
			Distance: 1 - doc.Score,
		})
	}
	return hits, nil
}

// Get fetches nodes by id. Result order is not guaranteed to follow ids.
func (m *MongoVectorStore) Get(ctx context.Context, ids []string) ([]QueryHit, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := m.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("id lookup failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []storedNode
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode id lookup: %w", err)
	}

	hits := make([]QueryHit, 0, len(docs))
	for _, doc := range docs {
		hits = append(hits, QueryHit{ID: doc.ID, Document: doc.Document, Metadata: doc.Metadata})
	}
	return hits, nil
}

func (m *MongoVectorStore) Count(ctx context.Context) (int64, error) {
	return m.collection.CountDocuments(ctx, bson.M{})
}
