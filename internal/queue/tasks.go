package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dsarkar123/ReguluS-MAS/internal/logger"
	"github.com/dsarkar123/ReguluS-MAS/services"
)

const TaskIngestNotice = "notice:ingest"

type IngestNoticePayload struct {
	PDFPath string `json:"pdf_path"`
}

// NewIngestNoticeTask enqueues a full ingestion run for one notice PDF.
func NewIngestNoticeTask(pdfPath string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestNoticePayload{PDFPath: pdfPath})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestNotice,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute),
		asynq.Queue("ingestion"),
	), nil
}

// TaskProcessor handles queued ingestion work.
type TaskProcessor struct {
	pipeline *services.IngestionPipeline
}

func NewTaskProcessor(pipeline *services.IngestionPipeline) *TaskProcessor {
	return &TaskProcessor{pipeline: pipeline}
}

func (p *TaskProcessor) ProcessIngestNotice(ctx context.Context, t *asynq.Task) error {
	var payload IngestNoticePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	logger.Info("Processing queued ingestion", "pdf", payload.PDFPath)

	if err := p.pipeline.IngestPDF(ctx, payload.PDFPath); err != nil {
		return err // transient service errors will retry
	}

	logger.Info("Queued ingestion finished", "pdf", payload.PDFPath)
	return nil
}
