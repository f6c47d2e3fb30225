package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"github.com/dsarkar123/ReguluS-MAS/internal/config"
)

// GeminiClient wraps the Google generative AI SDK behind the two
// capabilities this system needs: text generation and text embedding.
// All calls go through a shared circuit breaker and rate limiter.
type GeminiClient struct {
	client         *genai.Client
	breaker        *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	model          string
	embeddingModel string
}

type RateLimits struct {
	RPM int // Requests per minute
	TPM int // Tokens per minute
	RPD int // Requests per day
}

func NewGeminiClient(cfg *config.Config) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	limits := getRateLimits(cfg.GeminiTier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), limits.RPM/10)

	return &GeminiClient{
		client:         client,
		breaker:        breaker,
		rateLimiter:    rateLimiter,
		model:          cfg.GeminiModel,
		embeddingModel: cfg.EmbeddingsModel,
	}, nil
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "free":
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	case "tier1":
		return RateLimits{RPM: 1000, TPM: 1000000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, TPM: 4000000, RPD: 50000}
	default:
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	}
}

// GenerateText sends a single prompt and returns the concatenated text of
// the first candidate's parts.
func (gc *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate_content")
	defer span.End()

	span.SetAttributes(
		attribute.Int("gemini.prompt_chars", len(prompt)),
		attribute.String("gemini.model", gc.model),
	)

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.model)
		model.SetTemperature(0.2)
		model.SetMaxOutputTokens(2048)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			span.SetAttributes(attribute.String("gemini.error_message", err.Error()))
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return "", err
	}

	resp := result.(*genai.GenerateContentResponse)
	span.SetAttributes(attribute.Int("gemini.actual_tokens", extractTokenUsage(resp)))

	text := extractResponseText(resp)
	if text == "" {
		return "", fmt.Errorf("no candidates in response")
	}

	span.SetAttributes(attribute.Bool("gemini.success", true))
	return text, nil
}

// EmbedText returns the embedding vector for a single text.
func (gc *GeminiClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.embed_content")
	defer span.End()

	span.SetAttributes(
		attribute.Int("gemini.text_chars", len(text)),
		attribute.String("gemini.model", gc.embeddingModel),
	)

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return nil, err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.EmbeddingModel(gc.embeddingModel)
		resp, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			return nil, err
		}
		if resp.Embedding == nil {
			return nil, fmt.Errorf("no embedding returned")
		}
		return resp.Embedding.Values, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, err
	}

	span.SetAttributes(attribute.Bool("gemini.success", true))
	return result.([]float32), nil
}

// extractResponseText flattens the text parts of all candidates.
func extractResponseText(resp *genai.GenerateContentResponse) string {
	var result strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					result.WriteString(string(text))
				}
			}
		}
	}
	return result.String()
}

// extractTokenUsage reads actual usage from response metadata, falling back
// to a rough 4-characters-per-token estimate.
func extractTokenUsage(resp *genai.GenerateContentResponse) int {
	if resp.UsageMetadata != nil {
		return int(resp.UsageMetadata.TotalTokenCount)
	}

	estimated := len(extractResponseText(resp)) / 4
	if estimated < 1 {
		estimated = 1
	}
	return estimated
}

// Close the client
func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
