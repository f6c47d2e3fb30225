package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dsarkar123/ReguluS-MAS/internal/ai"
	"github.com/dsarkar123/ReguluS-MAS/internal/config"
	"github.com/dsarkar123/ReguluS-MAS/internal/logger"
	"github.com/dsarkar123/ReguluS-MAS/internal/queue"
	"github.com/dsarkar123/ReguluS-MAS/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	logger.InitLogger(cfg)

	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required for the ingestion worker")
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	geminiClient, err := ai.NewGeminiClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client: ", err)
	}
	defer geminiClient.Close()

	store := services.NewMongoVectorStore(mongoClient, cfg)
	pipeline := services.NewIngestionPipeline(
		services.NewPDFExtractor(),
		services.NewSegmenter(),
		services.NewEnrichmentService(geminiClient, cfg.RequestDelay),
		services.NewIndexWriter(store),
		cfg.DataDir,
	)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"ingestion": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task failed: %s, error: %v", task.Type(), err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(pipeline)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestNotice, processor.ProcessIngestNotice)

	log.Println("Starting ingestion worker...")
	log.Printf("   Concurrency: %d", cfg.WorkerConcurrency)
	log.Printf("   Redis: %s", redisOpt.Addr)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker: ", err)
	}
}
