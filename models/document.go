package models

// Node types produced by the segmenter.
const (
	NodeTypeParagraph    = "paragraph"
	NodeTypeSubParagraph = "sub_paragraph"
	NodeTypeFullText     = "full_text"
)

// ParentIDSentinel replaces a null parent_id when flattening metadata for
// the vector index, which rejects null values. The value matches the
// enriched-record artifacts written by earlier tooling.
const ParentIDSentinel = "None"

// Node is one addressable text unit of a segmented notice: a numbered
// paragraph, a lettered sub-paragraph, or the full-text fallback.
// Sub-paragraphs reference their enclosing paragraph by id only; the
// document owns all nodes and the reference is acyclic by construction.
type Node struct {
	NodeID   string       `json:"node_id" bson:"node_id"`
	NodeType string       `json:"node_type" bson:"node_type"`
	Text     string       `json:"text" bson:"text"`
	ParentID *string      `json:"parent_id" bson:"parent_id"`
	Metadata NodeMetadata `json:"metadata" bson:"metadata"`
}

// NodeMetadata carries positional/source data for a node.
type NodeMetadata struct {
	SourceFilename string `json:"source_filename" bson:"source_filename"`
}

// DocumentMetadata is extracted from the notice filename. Fields default
// to "Unknown" when the filename does not match the expected pattern.
type DocumentMetadata struct {
	NoticeID        string `json:"notice_id" bson:"notice_id"`
	PublicationDate string `json:"publication_date" bson:"publication_date"`
	EffectiveDate   string `json:"effective_date" bson:"effective_date"`
}

// StructuredDocument is the segmenter's output and the first persisted
// artifact of the ingestion pipeline (<base>_structured.json).
type StructuredDocument struct {
	Metadata DocumentMetadata `json:"metadata"`
	Content  []Node           `json:"content"`
}

// EmbeddingSet holds the three vectors generated per node.
type EmbeddingSet struct {
	Content  []float32 `json:"content"`
	Summary  []float32 `json:"summary"`
	Question []float32 `json:"question"`
}

// RecordMetadata is the per-node metadata carried through enrichment and
// into the index. ParentID stays null in the enriched artifact; the index
// writer substitutes ParentIDSentinel before upserting, since the index
// rejects null metadata values.
type RecordMetadata struct {
	OriginalText         string  `json:"original_text" bson:"original_text"`
	Summary              string  `json:"summary" bson:"summary"`
	HypotheticalQuestion string  `json:"hypothetical_question" bson:"hypothetical_question"`
	NoticeID             string  `json:"notice_id" bson:"notice_id"`
	PublicationDate      string  `json:"publication_date" bson:"publication_date"`
	EffectiveDate        string  `json:"effective_date" bson:"effective_date"`
	NodeType             string  `json:"node_type" bson:"node_type"`
	ParentID             *string `json:"parent_id" bson:"parent_id"`
}

// Parent returns the non-sentinel parent id, or "" when the node has none.
func (m RecordMetadata) Parent() string {
	if m.ParentID == nil || *m.ParentID == ParentIDSentinel {
		return ""
	}
	return *m.ParentID
}

// EnrichedRecord is a node augmented with generated summary, hypothetical
// question and embeddings. Second persisted artifact (<base>_enriched.json).
type EnrichedRecord struct {
	ID       string         `json:"id"`
	Values   EmbeddingSet   `json:"values"`
	Metadata RecordMetadata `json:"metadata"`
}

// IndexedItem is the form accepted by the vector index: one id, the
// content embedding, flattened metadata and the original text as document.
type IndexedItem struct {
	ID        string         `bson:"_id"`
	Embedding []float32      `bson:"vector"`
	Metadata  RecordMetadata `bson:"metadata"`
	Document  string         `bson:"document"`
}

// RetrievalCandidate is the transient unit flowing through the query
// pipeline: produced by search, augmented by expansion, scored by rerank.
type RetrievalCandidate struct {
	Metadata RecordMetadata
	Text     string
}
