package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/dsarkar123/ReguluS-MAS/internal/logger"
)

// PDFExtractor pulls plain text out of notice PDFs, page by page. Pages
// are joined with newlines so the segmenter sees the document as one line
// stream.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractionResult contains the result of PDF text extraction
type ExtractionResult struct {
	Text           string
	Pages          int
	CharacterCount int
	WordCount      int
}

// ExtractFile reads and extracts a PDF from disk.
func (e *PDFExtractor) ExtractFile(ctx context.Context, filePath string) (*ExtractionResult, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF file: %w", err)
	}
	if stat.Size() > 200<<20 { // 200MB safety cap
		return nil, fmt.Errorf("pdf too large for in-memory extraction")
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF file: %w", err)
	}

	return e.Extract(ctx, content)
}

// Extract extracts text from in-memory PDF content.
func (e *PDFExtractor) Extract(ctx context.Context, content []byte) (*ExtractionResult, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) <= 0 {
			return nil, fmt.Errorf("context deadline exceeded before extraction")
		}
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("Failed to extract text from page", "page", i, "error", err)
			continue
		}

		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n")
		}
		textBuilder.WriteString(text)
	}

	extractedText := textBuilder.String()
	if len(extractedText) == 0 {
		return nil, fmt.Errorf("no text extracted from pdf")
	}

	return &ExtractionResult{
		Text:           extractedText,
		Pages:          pages,
		CharacterCount: len(extractedText),
		WordCount:      len(strings.Fields(extractedText)),
	}, nil
}
