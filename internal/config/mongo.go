package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	if err := createIndexes(client, cfg); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

// createIndexes bootstraps the filter indexes on the node collection. The
// $vectorSearch index itself is managed on the Atlas side and referenced by
// name (cfg.VectorIndexName).
func createIndexes(client *mongo.Client, cfg *Config) error {
	col := client.Database(cfg.DBName).Collection(cfg.CollectionName)

	nodeIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "metadata.notice_id", Value: 1}}},
		{Keys: bson.D{{Key: "metadata.node_type", Value: 1}}},
		{Keys: bson.D{{Key: "metadata.parent_id", Value: 1}}},
	}
	_, err := col.Indexes().CreateMany(context.Background(), nodeIndexes)
	return err
}
