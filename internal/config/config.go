package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Google AI
	GeminiAPIKey    string
	GeminiModel     string
	EmbeddingsModel string
	GeminiTier      string
	RequestDelay    time.Duration
	RequestTimeout  time.Duration

	// MongoDB vector index
	MongoURI         string
	DBName           string
	CollectionName   string
	VectorIndexName  string
	VectorDimensions int

	// Redis (answer cache + async ingestion queue); optional
	RedisURL       string
	RedisPassword  string
	RedisDB        int
	AnswerCacheTTL time.Duration

	// Retrieval defaults
	SearchResults int
	RerankTopN    int

	// Ingestion artifacts
	DataDir string

	// HTTP surface
	Port        string
	GinMode     string
	CORSOrigins []string

	// Worker
	WorkerConcurrency int
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		EmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GeminiTier:      getEnv("GEMINI_TIER", "free"),
		RequestDelay:    getEnvDuration("AI_REQUEST_DELAY", time.Second),
		RequestTimeout:  getEnvDuration("AI_REQUEST_TIMEOUT", 60*time.Second),

		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017/regulus"),
		DBName:           getEnv("DB_NAME", "regulus"),
		CollectionName:   getEnv("MONGODB_COLLECTION", "notice_nodes"),
		VectorIndexName:  getEnv("MONGODB_VECTOR_INDEX", "notice_nodes_vector"),
		VectorDimensions: getEnvInt("VECTOR_DIM", 768),

		RedisURL:       getEnv("REDIS_URL", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		AnswerCacheTTL: getEnvDuration("ANSWER_CACHE_TTL", time.Hour),

		SearchResults: getEnvInt("SEARCH_RESULTS", 10),
		RerankTopN:    getEnvInt("RERANK_TOP_N", 3),

		DataDir: getEnv("DATA_DIR", "data"),

		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 5),
	}

	// The Gemini credential is a startup precondition for both the
	// ingestion path and the query path.
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
