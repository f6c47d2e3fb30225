package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dsarkar123/ReguluS-MAS/models"
)

const enrichmentReply = `{"summary": "Banks must hold minimum cash balances.", "hypothetical_question": "What is the minimum cash balance ratio for my bank?"}`

func sampleDoc(nodes ...models.Node) models.StructuredDocument {
	return models.StructuredDocument{
		Metadata: models.DocumentMetadata{
			NoticeID:        "MAS Notice 758",
			PublicationDate: "24 June 2015",
			EffectiveDate:   "1 July 2015",
		},
		Content: nodes,
	}
}

func TestEnrichDocumentBuildsFullRecord(t *testing.T) {
	ai := &fakeAI{
		generateFn: func(string) (string, error) { return enrichmentReply, nil },
		embedFn:    func(text string) ([]float32, error) { return []float32{float32(len(text))}, nil },
	}
	es := NewEnrichmentService(ai, 0)

	doc := sampleDoc(models.Node{
		NodeID:   "node_2",
		NodeType: models.NodeTypeSubParagraph,
		Text:     "maintain minimum cash balances with the Authority",
		ParentID: strptr("node_1"),
	})

	records := es.EnrichDocument(context.Background(), doc)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	rec := records[0]
	if rec.ID != "node_2" {
		t.Errorf("record id = %q, want node id node_2", rec.ID)
	}
	meta := rec.Metadata
	if meta.OriginalText != doc.Content[0].Text {
		t.Errorf("original_text = %q", meta.OriginalText)
	}
	if meta.Summary != "Banks must hold minimum cash balances." {
		t.Errorf("summary = %q", meta.Summary)
	}
	if meta.HypotheticalQuestion == "" {
		t.Error("hypothetical_question not carried over")
	}
	if meta.NoticeID != "MAS Notice 758" || meta.PublicationDate != "24 June 2015" || meta.EffectiveDate != "1 July 2015" {
		t.Errorf("document metadata not copied: %+v", meta)
	}
	if meta.NodeType != models.NodeTypeSubParagraph {
		t.Errorf("node_type = %q", meta.NodeType)
	}
	if meta.ParentID == nil || *meta.ParentID != "node_1" {
		t.Errorf("parent_id = %v, want node_1", meta.ParentID)
	}

	// Three distinct embeddings: content, summary, question.
	if len(rec.Values.Content) != 1 || len(rec.Values.Summary) != 1 || len(rec.Values.Question) != 1 {
		t.Fatalf("embedding set incomplete: %+v", rec.Values)
	}
	if rec.Values.Content[0] == rec.Values.Summary[0] {
		t.Error("content and summary embeddings computed over the same text")
	}
}

func TestEnrichDocumentSkipsEmptyNodes(t *testing.T) {
	ai := &fakeAI{
		generateFn: func(string) (string, error) { return enrichmentReply, nil },
	}
	es := NewEnrichmentService(ai, 0)

	doc := sampleDoc(
		models.Node{NodeID: "node_1", NodeType: models.NodeTypeParagraph, Text: ""},
		models.Node{NodeID: "node_2", NodeType: models.NodeTypeParagraph, Text: "real content"},
	)

	records := es.EnrichDocument(context.Background(), doc)
	if len(records) != 1 || records[0].ID != "node_2" {
		t.Fatalf("records = %+v, want only node_2", records)
	}
}

func TestEnrichDocumentSkipsFailedNodesAndContinues(t *testing.T) {
	ai := &fakeAI{
		generateFn: func(prompt string) (string, error) {
			if strings.Contains(prompt, "broken clause") {
				return "", fmt.Errorf("service unavailable")
			}
			return enrichmentReply, nil
		},
	}
	es := NewEnrichmentService(ai, 0)

	doc := sampleDoc(
		models.Node{NodeID: "node_1", NodeType: models.NodeTypeParagraph, Text: "broken clause"},
		models.Node{NodeID: "node_2", NodeType: models.NodeTypeParagraph, Text: "good clause"},
	)

	records := es.EnrichDocument(context.Background(), doc)
	if len(records) != 1 || records[0].ID != "node_2" {
		t.Fatalf("records = %+v, want failure skipped and node_2 kept", records)
	}
}

func TestParseEnrichmentResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"plain json", enrichmentReply, false},
		{"json code fence", "```json\n" + enrichmentReply + "\n```", false},
		{"bare code fence", "```\n" + enrichmentReply + "\n```", false},
		{"surrounding whitespace", "\n  " + enrichmentReply + "  \n", false},
		{"not json", "Sure! Here is the summary you asked for.", true},
		{"missing question", `{"summary": "only a summary"}`, true},
		{"missing summary", `{"hypothetical_question": "only a question?"}`, true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parseEnrichmentResponse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", parsed)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if parsed.Summary == "" || parsed.HypotheticalQuestion == "" {
				t.Errorf("incomplete parse: %+v", parsed)
			}
		})
	}
}
