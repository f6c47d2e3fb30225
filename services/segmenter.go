package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dsarkar123/ReguluS-MAS/models"
)

// Segmenter converts raw extracted notice text into an ordered hierarchy of
// paragraph / sub-paragraph nodes. Numbering conventions in MAS notices are
// irregular, so classification is deliberately narrow: numeric top-level
// markers ("1.", "12A ") and single-letter sub-markers ("(a) "). A document
// with no recognizable structure collapses into one full_text node, so
// segmentation never fails and never produces an empty document.
type Segmenter struct {
	filenamePattern *regexp.Regexp
	topLevelPattern *regexp.Regexp
	subParaPattern  *regexp.Regexp
	whitespace      *regexp.Regexp
}

// NewSegmenter creates a segmenter with the compiled marker patterns.
func NewSegmenter() *Segmenter {
	return &Segmenter{
		filenamePattern: regexp.MustCompile(`MAS Notice (\w+)_dated ([\d\w\s]+)_effective ([\d\w\s]+)\.pdf`),
		topLevelPattern: regexp.MustCompile(`^(\d+[A-Z]?)\.?\s+.*`), // "1." or "1A "
		subParaPattern:  regexp.MustCompile(`^\(([a-z])\)\s+.*`),    // "(a) "
		whitespace:      regexp.MustCompile(`\s+`),
	}
}

// Segment splits rawText into hierarchical nodes and attaches filename
// metadata. It accepts malformed numbering silently; gaps and out-of-order
// markers are not validated.
func (s *Segmenter) Segment(rawText, filename string) models.StructuredDocument {
	metadata := s.ExtractMetadata(filename)

	var nodes []models.Node
	nodeCounter := 1
	lastTopLevelID := ""

	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		isNewPara := s.topLevelPattern.MatchString(line)
		isNewSubPara := s.subParaPattern.MatchString(line)

		if isNewPara || isNewSubPara {
			// A marker closes the node currently being accumulated.
			if len(nodes) > 0 {
				nodes[len(nodes)-1].Text = s.normalize(nodes[len(nodes)-1].Text)
			}

			nodeType := models.NodeTypeParagraph
			var parentID *string
			if isNewSubPara {
				nodeType = models.NodeTypeSubParagraph
				if lastTopLevelID != "" {
					id := lastTopLevelID
					parentID = &id
				}
			}

			node := models.Node{
				NodeID:   fmt.Sprintf("node_%d", nodeCounter),
				NodeType: nodeType,
				Text:     line,
				ParentID: parentID,
				Metadata: models.NodeMetadata{SourceFilename: filename},
			}
			nodes = append(nodes, node)
			nodeCounter++

			if nodeType == models.NodeTypeParagraph {
				lastTopLevelID = node.NodeID
			}
		} else if len(nodes) > 0 {
			// Continuation line; lines before the first marker have no
			// node to attach to and are dropped.
			nodes[len(nodes)-1].Text += " " + line
		}
	}

	if len(nodes) > 0 {
		nodes[len(nodes)-1].Text = s.normalize(nodes[len(nodes)-1].Text)
	}

	// Fallback keeps the document non-empty for unstructured input.
	if len(nodes) == 0 {
		nodes = append(nodes, models.Node{
			NodeID:   "node_1",
			NodeType: models.NodeTypeFullText,
			Text:     s.normalize(rawText),
			ParentID: nil,
			Metadata: models.NodeMetadata{SourceFilename: filename},
		})
	}

	return models.StructuredDocument{
		Metadata: metadata,
		Content:  nodes,
	}
}

// ExtractMetadata parses notice id and dates out of the filename. All
// fields default to "Unknown" when the filename does not match.
func (s *Segmenter) ExtractMetadata(filename string) models.DocumentMetadata {
	match := s.filenamePattern.FindStringSubmatch(filename)
	if match == nil {
		return models.DocumentMetadata{
			NoticeID:        "Unknown",
			PublicationDate: "Unknown",
			EffectiveDate:   "Unknown",
		}
	}
	return models.DocumentMetadata{
		NoticeID:        "MAS Notice " + match[1],
		PublicationDate: strings.TrimSpace(match[2]),
		EffectiveDate:   strings.TrimSpace(match[3]),
	}
}

func (s *Segmenter) normalize(text string) string {
	return strings.TrimSpace(s.whitespace.ReplaceAllString(text, " "))
}
