package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dsarkar123/ReguluS-MAS/internal/logger"
	"github.com/dsarkar123/ReguluS-MAS/models"
)

// IngestionPipeline runs the full ingestion path for one notice PDF:
// extraction, segmentation, enrichment, and index upsert. The structured
// and enriched intermediates are persisted under dataDir so either half of
// the pipeline can be re-run independently from the JSON handoff files.
type IngestionPipeline struct {
	extractor  *PDFExtractor
	segmenter  *Segmenter
	enrichment *EnrichmentService
	writer     *IndexWriter
	dataDir    string
}

func NewIngestionPipeline(extractor *PDFExtractor, segmenter *Segmenter, enrichment *EnrichmentService, writer *IndexWriter, dataDir string) *IngestionPipeline {
	return &IngestionPipeline{
		extractor:  extractor,
		segmenter:  segmenter,
		enrichment: enrichment,
		writer:     writer,
		dataDir:    dataDir,
	}
}

// IngestPDF processes one notice PDF end to end.
func (p *IngestionPipeline) IngestPDF(ctx context.Context, pdfPath string) error {
	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("PDF file not found at %s: %w", pdfPath, err)
	}
	if err := os.MkdirAll(p.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	runID := uuid.NewString()
	filename := filepath.Base(pdfPath)
	base := strings.TrimSuffix(filename, ".pdf")

	logger.Info("Starting ingestion", "run_id", runID, "pdf", pdfPath)

	// Step 1: extraction + segmentation
	extraction, err := p.extractor.ExtractFile(ctx, pdfPath)
	if err != nil {
		return fmt.Errorf("pdf extraction failed: %w", err)
	}

	doc := p.segmenter.Segment(extraction.Text, filename)
	structuredPath := filepath.Join(p.dataDir, base+"_structured.json")
	if err := writeJSON(structuredPath, doc); err != nil {
		return err
	}
	logger.Info("Segmentation complete", "run_id", runID, "nodes", len(doc.Content), "artifact", structuredPath)

	// Step 2: enrichment
	records := p.enrichment.EnrichDocument(ctx, doc)
	enrichedPath := filepath.Join(p.dataDir, base+"_enriched.json")
	if err := writeJSON(enrichedPath, records); err != nil {
		return err
	}
	logger.Info("Enrichment artifact written", "run_id", runID, "records", len(records), "artifact", enrichedPath)

	// Step 3: index upsert
	if err := p.writer.WriteRecords(ctx, records); err != nil {
		return err
	}

	logger.Info("Ingestion finished", "run_id", runID, "pdf", pdfPath)
	return nil
}

// IngestEnrichedFile replays a previously written enriched artifact into
// the index, skipping extraction and enrichment.
func (p *IngestionPipeline) IngestEnrichedFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read enriched artifact: %w", err)
	}

	var records []models.EnrichedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("malformed enriched artifact: %w", err)
	}
	return p.writer.WriteRecords(ctx, records)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
