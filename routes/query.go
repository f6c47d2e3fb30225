package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/dsarkar123/ReguluS-MAS/internal/config"
	"github.com/dsarkar123/ReguluS-MAS/internal/logger"
	"github.com/dsarkar123/ReguluS-MAS/internal/queue"
	"github.com/dsarkar123/ReguluS-MAS/middleware"
	"github.com/dsarkar123/ReguluS-MAS/services"
)

type QueryRequest struct {
	Query      string         `json:"query" binding:"required"`
	NResults   int            `json:"n_results"`
	TopNRerank int            `json:"top_n_rerank"`
	Filter     map[string]any `json:"filter"`
}

type IngestRequest struct {
	PDFPath string `json:"pdf_path" binding:"required"`
}

// SetupQueryRoutes registers the retrieval API. The asynq client is
// optional; without it the async ingest endpoint reports unavailable.
func SetupQueryRoutes(router *gin.Engine, cfg *config.Config, retriever *services.Retriever, cache *services.AnswerCache, asynqClient *asynq.Client) {
	api := router.Group("/api")
	api.Use(middleware.RequestIDMiddleware())

	api.POST("/query", func(c *gin.Context) {
		var req QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_input",
				"message":    "Invalid request data",
				"details":    gin.H{"error": err.Error()},
			})
			return
		}

		if answer, ok := cache.Get(c.Request.Context(), req.Query); ok {
			c.JSON(http.StatusOK, gin.H{"answer": answer, "cached": true})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Minute)
		defer cancel()

		answer, err := retriever.Answer(ctx, req.Query, services.RetrievalOptions{
			NResults:   req.NResults,
			TopNRerank: req.TopNRerank,
			Filter:     req.Filter,
		})
		if err != nil {
			logger.Error("Query failed", "request_id", middleware.GetRequestID(c), "error", err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error_code": "retrieval_failed",
				"message":    "Query could not be answered",
			})
			return
		}

		cache.Set(c.Request.Context(), req.Query, answer)
		c.JSON(http.StatusOK, gin.H{"answer": answer, "cached": false})
	})

	api.POST("/notices", func(c *gin.Context) {
		var req IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_input",
				"message":    "Invalid request data",
			})
			return
		}

		if asynqClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error_code": "queue_unavailable",
				"message":    "Async ingestion requires Redis to be configured",
			})
			return
		}

		task, err := queue.NewIngestNoticeTask(req.PDFPath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error_code": "internal_error",
				"message":    "Failed to build ingestion task",
			})
			return
		}

		info, err := asynqClient.EnqueueContext(c.Request.Context(), task)
		if err != nil {
			logger.Error("Enqueue failed", "pdf", req.PDFPath, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error_code": "enqueue_failed",
				"message":    "Could not enqueue ingestion",
			})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"task_id": info.ID, "queue": info.Queue})
	})
}
