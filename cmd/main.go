package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/dsarkar123/ReguluS-MAS/internal/ai"
	"github.com/dsarkar123/ReguluS-MAS/internal/config"
	"github.com/dsarkar123/ReguluS-MAS/internal/logger"
	"github.com/dsarkar123/ReguluS-MAS/internal/telemetry"
	"github.com/dsarkar123/ReguluS-MAS/routes"
	"github.com/dsarkar123/ReguluS-MAS/services"
)

const usage = `Usage:
  regulus ingest <pdf_path>   Run the full ingestion pipeline for a PDF
  regulus query <text>        Ask a question to the RAG system
  regulus serve               Start the HTTP query API`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	logger.InitLogger(cfg)

	switch os.Args[1] {
	case "ingest":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "ingest requires a PDF path")
			os.Exit(2)
		}
		runIngest(cfg, os.Args[2])
	case "query":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "query requires a question")
			os.Exit(2)
		}
		runQuery(cfg, os.Args[2])
	case "serve":
		runServe(cfg)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

func runIngest(cfg *config.Config, pdfPath string) {
	geminiClient, err := ai.NewGeminiClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client: ", err)
	}
	defer geminiClient.Close()

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	store := services.NewMongoVectorStore(mongoClient, cfg)
	pipeline := services.NewIngestionPipeline(
		services.NewPDFExtractor(),
		services.NewSegmenter(),
		services.NewEnrichmentService(geminiClient, cfg.RequestDelay),
		services.NewIndexWriter(store),
		cfg.DataDir,
	)

	if err := pipeline.IngestPDF(context.Background(), pdfPath); err != nil {
		log.Fatal("Ingestion failed: ", err)
	}
	fmt.Println("Ingestion pipeline finished.")
}

func runQuery(cfg *config.Config, query string) {
	geminiClient, err := ai.NewGeminiClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client: ", err)
	}
	defer geminiClient.Close()

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	store := services.NewMongoVectorStore(mongoClient, cfg)
	retriever := services.NewRetriever(geminiClient, store, cfg.RequestDelay)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	answer, err := retriever.Answer(ctx, query, services.RetrievalOptions{
		NResults:   cfg.SearchResults,
		TopNRerank: cfg.RerankTopN,
	})
	if err != nil {
		log.Fatal("Query failed: ", err)
	}

	fmt.Println("--- Final Answer ---")
	fmt.Println(answer)
}

func runServe(cfg *config.Config) {
	shutdownTracer, err := telemetry.InitTracer("regulus-api")
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	} else {
		defer shutdownTracer()
	}

	geminiClient, err := ai.NewGeminiClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client: ", err)
	}
	defer geminiClient.Close()

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	store := services.NewMongoVectorStore(mongoClient, cfg)
	retriever := services.NewRetriever(geminiClient, store, cfg.RequestDelay)

	// Redis is optional: without it the answer cache is disabled and async
	// ingestion reports unavailable.
	var cache *services.AnswerCache
	var asynqClient *asynq.Client
	if cfg.RedisURL != "" {
		rdb, err := config.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Redis unavailable, continuing without cache/queue: %v", err)
		} else {
			cache = services.NewAnswerCache(rdb, cfg.AnswerCacheTTL)
			asynqClient = asynq.NewClient(asynq.RedisClientOpt{
				Addr:     cfg.RedisURL,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			defer asynqClient.Close()
		}
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("regulus-api"))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupQueryRoutes(router, cfg, retriever, cache, asynqClient)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}
}
