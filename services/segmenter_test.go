package services

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dsarkar123/ReguluS-MAS/models"
)

func TestSegmentBasicHierarchy(t *testing.T) {
	raw := "1. First.\n(a) Sub.\n2. Second."
	doc := NewSegmenter().Segment(raw, "notice.pdf")

	if len(doc.Content) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(doc.Content))
	}

	first := doc.Content[0]
	if first.NodeType != models.NodeTypeParagraph || first.Text != "1. First." {
		t.Errorf("node 1 = %q (%s), want paragraph %q", first.Text, first.NodeType, "1. First.")
	}
	if first.ParentID != nil {
		t.Errorf("paragraph node must have nil parent, got %v", *first.ParentID)
	}

	sub := doc.Content[1]
	if sub.NodeType != models.NodeTypeSubParagraph || sub.Text != "(a) Sub." {
		t.Errorf("node 2 = %q (%s), want sub_paragraph %q", sub.Text, sub.NodeType, "(a) Sub.")
	}
	if sub.ParentID == nil || *sub.ParentID != first.NodeID {
		t.Errorf("sub-paragraph parent = %v, want %s", sub.ParentID, first.NodeID)
	}

	second := doc.Content[2]
	if second.NodeType != models.NodeTypeParagraph || second.ParentID != nil {
		t.Errorf("node 3 = %s with parent %v, want paragraph with nil parent", second.NodeType, second.ParentID)
	}
}

func TestSegmentMetadataFromFilename(t *testing.T) {
	s := NewSegmenter()

	meta := s.ExtractMetadata("MAS Notice 758_dated 18 Dec 2024_effective 26 Dec 2024.pdf")
	if meta.NoticeID != "MAS Notice 758" {
		t.Errorf("notice_id = %q", meta.NoticeID)
	}
	if meta.PublicationDate != "18 Dec 2024" {
		t.Errorf("publication_date = %q", meta.PublicationDate)
	}
	if meta.EffectiveDate != "26 Dec 2024" {
		t.Errorf("effective_date = %q", meta.EffectiveDate)
	}

	unknown := s.ExtractMetadata("random_document.pdf")
	if unknown.NoticeID != "Unknown" || unknown.PublicationDate != "Unknown" || unknown.EffectiveDate != "Unknown" {
		t.Errorf("non-matching filename must default all fields to Unknown, got %+v", unknown)
	}
}

func TestSegmentFallbackFullText(t *testing.T) {
	raw := "This notice has no numbered\nstructure at   all.\n\nJust prose."
	doc := NewSegmenter().Segment(raw, "prose.pdf")

	if len(doc.Content) != 1 {
		t.Fatalf("expected exactly 1 fallback node, got %d", len(doc.Content))
	}
	node := doc.Content[0]
	if node.NodeType != models.NodeTypeFullText {
		t.Errorf("node type = %s, want full_text", node.NodeType)
	}
	if node.Text != "This notice has no numbered structure at all. Just prose." {
		t.Errorf("fallback text not normalized: %q", node.Text)
	}
	if node.ParentID != nil {
		t.Errorf("fallback node must have nil parent")
	}
}

func TestSegmentNeverEmpty(t *testing.T) {
	for _, raw := range []string{"", "   \n  \n", "no markers here"} {
		doc := NewSegmenter().Segment(raw, "x.pdf")
		if len(doc.Content) == 0 {
			t.Errorf("Segment(%q) produced zero nodes", raw)
		}
	}
}

func TestSegmentContinuationLines(t *testing.T) {
	raw := strings.Join([]string{
		"Preamble before any marker is dropped.",
		"1. A bank shall maintain",
		"   a minimum cash balance",
		"with the Authority.",
		"2. Second rule.",
	}, "\n")

	doc := NewSegmenter().Segment(raw, "notice.pdf")
	if len(doc.Content) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(doc.Content))
	}

	want := "1. A bank shall maintain a minimum cash balance with the Authority."
	if doc.Content[0].Text != want {
		t.Errorf("accumulated text = %q, want %q", doc.Content[0].Text, want)
	}
	if strings.Contains(doc.Content[0].Text, "Preamble") {
		t.Errorf("preamble line must be dropped, got %q", doc.Content[0].Text)
	}
}

func TestSegmentConsecutiveSubParagraphsShareParent(t *testing.T) {
	raw := "3. Requirements:\n(a) first;\n(b) second;\n(c) third.\n4. Next."
	doc := NewSegmenter().Segment(raw, "notice.pdf")

	parent := doc.Content[0].NodeID
	for i := 1; i <= 3; i++ {
		node := doc.Content[i]
		if node.NodeType != models.NodeTypeSubParagraph {
			t.Fatalf("node %d type = %s", i, node.NodeType)
		}
		if node.ParentID == nil || *node.ParentID != parent {
			t.Errorf("node %d parent = %v, want %s", i, node.ParentID, parent)
		}
	}
	if doc.Content[4].ParentID != nil {
		t.Errorf("new top-level paragraph must reset parent")
	}
}

func TestSegmentSubParagraphBeforeAnyParagraph(t *testing.T) {
	doc := NewSegmenter().Segment("(a) orphan sub-paragraph.", "notice.pdf")

	if len(doc.Content) != 1 {
		t.Fatalf("expected 1 node, got %d", len(doc.Content))
	}
	node := doc.Content[0]
	if node.NodeType != models.NodeTypeSubParagraph {
		t.Errorf("type = %s, want sub_paragraph", node.NodeType)
	}
	if node.ParentID != nil {
		t.Errorf("orphan sub-paragraph has no top-level node to point at")
	}
}

func TestSegmentAlphanumericTopLevelMarker(t *testing.T) {
	raw := "12A A merchant bank shall comply.\n(a) in Singapore dollars;"
	doc := NewSegmenter().Segment(raw, "notice.pdf")

	if doc.Content[0].NodeType != models.NodeTypeParagraph {
		t.Fatalf("alphanumeric marker %q not classified as paragraph", "12A")
	}
	if doc.Content[1].ParentID == nil || *doc.Content[1].ParentID != doc.Content[0].NodeID {
		t.Errorf("sub-paragraph must attach to the 12A paragraph")
	}
}

// Parent references must always point at an earlier paragraph node.
func TestSegmentParentInvariant(t *testing.T) {
	raw := strings.Join([]string{
		"1. One.",
		"(a) one-a.",
		"continuation of one-a",
		"2. Two.",
		"(a) two-a.",
		"(b) two-b.",
		"3B Three-B.",
	}, "\n")

	doc := NewSegmenter().Segment(raw, "notice.pdf")

	byID := make(map[string]int)
	for i, node := range doc.Content {
		byID[node.NodeID] = i
	}

	for i, node := range doc.Content {
		if node.ParentID == nil {
			continue
		}
		if node.NodeType != models.NodeTypeSubParagraph {
			t.Errorf("only sub_paragraph nodes may carry a parent, %s is %s", node.NodeID, node.NodeType)
		}
		parentIdx, ok := byID[*node.ParentID]
		if !ok {
			t.Fatalf("parent %s of %s not in document", *node.ParentID, node.NodeID)
		}
		if parentIdx >= i {
			t.Errorf("parent %s must appear strictly before %s", *node.ParentID, node.NodeID)
		}
		if doc.Content[parentIdx].NodeType != models.NodeTypeParagraph {
			t.Errorf("parent %s must be a paragraph", *node.ParentID)
		}
	}
}

// The structured artifact is a handoff format; parent_id must serialize
// as an explicit null for top-level nodes.
func TestStructuredDocumentSerialization(t *testing.T) {
	doc := NewSegmenter().Segment("1. First.\n(a) Sub.", "n.pdf")

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	raw := string(data)

	for _, field := range []string{`"node_id"`, `"node_type"`, `"source_filename"`, `"notice_id"`, `"content"`} {
		if !strings.Contains(raw, field) {
			t.Errorf("artifact missing field %s", field)
		}
	}
	if !strings.Contains(raw, `"parent_id":null`) {
		t.Errorf("top-level node must serialize parent_id as null: %s", raw)
	}
}
