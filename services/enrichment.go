package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dsarkar123/ReguluS-MAS/internal/logger"
	"github.com/dsarkar123/ReguluS-MAS/models"
)

// EnrichmentService augments segmented nodes with a generated summary, a
// hypothetical compliance question, and embeddings of all three texts.
// Summary and question come back in a single structured response to keep
// the round-trip count at four calls per node.
type EnrichmentService struct {
	ai    AIClient
	delay time.Duration
}

func NewEnrichmentService(ai AIClient, delay time.Duration) *EnrichmentService {
	return &EnrichmentService{ai: ai, delay: delay}
}

// enrichmentResponse is the structured payload requested from the model.
type enrichmentResponse struct {
	Summary              string `json:"summary"`
	HypotheticalQuestion string `json:"hypothetical_question"`
}

// EnrichDocument produces one EnrichedRecord per non-empty node. A node
// whose enrichment fails is logged and skipped; the rest of the document
// still goes through, so partial success is the steady state for large
// notices.
func (es *EnrichmentService) EnrichDocument(ctx context.Context, doc models.StructuredDocument) []models.EnrichedRecord {
	records := make([]models.EnrichedRecord, 0, len(doc.Content))

	logger.Info("Starting enrichment", "nodes", len(doc.Content), "notice_id", doc.Metadata.NoticeID)

	for i, node := range doc.Content {
		if node.Text == "" {
			continue
		}

		logger.Debug("Processing node", "index", i+1, "total", len(doc.Content), "node_id", node.NodeID)

		record, err := es.enrichNode(ctx, doc.Metadata, node)
		if err != nil {
			logger.Warn("Skipping node after enrichment failure", "node_id", node.NodeID, "error", err)
			continue
		}
		records = append(records, record)

		// Fixed inter-node delay to stay inside external service quotas.
		if es.delay > 0 && i < len(doc.Content)-1 {
			select {
			case <-time.After(es.delay):
			case <-ctx.Done():
				logger.Warn("Enrichment cancelled", "processed", len(records))
				return records
			}
		}
	}

	logger.Info("Enrichment complete", "enriched", len(records), "skipped", len(doc.Content)-len(records))
	return records
}

func (es *EnrichmentService) enrichNode(ctx context.Context, meta models.DocumentMetadata, node models.Node) (models.EnrichedRecord, error) {
	prompt := buildEnrichmentPrompt(node.Text)

	raw, err := es.ai.GenerateText(ctx, prompt)
	if err != nil {
		return models.EnrichedRecord{}, fmt.Errorf("generation failed: %w", err)
	}

	parsed, err := parseEnrichmentResponse(raw)
	if err != nil {
		return models.EnrichedRecord{}, err
	}

	contentVec, err := es.ai.EmbedText(ctx, node.Text)
	if err != nil {
		return models.EnrichedRecord{}, fmt.Errorf("content embedding failed: %w", err)
	}
	summaryVec, err := es.ai.EmbedText(ctx, parsed.Summary)
	if err != nil {
		return models.EnrichedRecord{}, fmt.Errorf("summary embedding failed: %w", err)
	}
	questionVec, err := es.ai.EmbedText(ctx, parsed.HypotheticalQuestion)
	if err != nil {
		return models.EnrichedRecord{}, fmt.Errorf("question embedding failed: %w", err)
	}

	return models.EnrichedRecord{
		ID: node.NodeID,
		Values: models.EmbeddingSet{
			Content:  contentVec,
			Summary:  summaryVec,
			Question: questionVec,
		},
		Metadata: models.RecordMetadata{
			OriginalText:         node.Text,
			Summary:              parsed.Summary,
			HypotheticalQuestion: parsed.HypotheticalQuestion,
			NoticeID:             meta.NoticeID,
			PublicationDate:      meta.PublicationDate,
			EffectiveDate:        meta.EffectiveDate,
			NodeType:             node.NodeType,
			ParentID:             node.ParentID,
		},
	}, nil
}

func buildEnrichmentPrompt(text string) string {
	return fmt.Sprintf(`You are a legal expert specializing in financial regulations issued by the
Monetary Authority of Singapore (MAS).

For the following text from a MAS notice, produce:
1. "summary": a concise summary focusing on the key requirements,
   obligations, and definitions.
2. "hypothetical_question": one specific, practical question a compliance
   officer at a bank in Singapore might ask to clarify their obligations
   under this text.

Respond with a single JSON object containing exactly the keys "summary"
and "hypothetical_question". Do not add any other text.

TEXT: "%s"`, text)
}

// parseEnrichmentResponse parses the model's structured reply. Generative
// responses routinely wrap JSON in markdown code fences, so those are
// stripped before decoding. Any malformed reply is a recoverable per-node
// error, never a panic.
func parseEnrichmentResponse(raw string) (enrichmentResponse, error) {
	cleaned := stripCodeFences(raw)

	var parsed enrichmentResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return enrichmentResponse{}, fmt.Errorf("malformed enrichment response: %w", err)
	}
	if parsed.Summary == "" || parsed.HypotheticalQuestion == "" {
		return enrichmentResponse{}, fmt.Errorf("enrichment response missing required fields")
	}
	return parsed, nil
}

func stripCodeFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}
