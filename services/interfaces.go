package services

import "context"

// TextGenerator produces a free-text completion for a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Embedder converts text into a fixed-dimension vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// AIClient is the combined capability required by enrichment and retrieval.
type AIClient interface {
	TextGenerator
	Embedder
}
