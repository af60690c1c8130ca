package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Config holds connection settings for an OpenAI-compatible backend.
type Config struct {
	Model          string
	Token          string
	BaseURL        string
	EmbeddingModel string
}

// New creates the LLM client.
func New(config Config) (*openai.LLM, error) {
	opts := []openai.Option{
		openai.WithModel(config.Model),
		openai.WithToken(config.Token),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}
	if config.EmbeddingModel != "" {
		opts = append(opts, openai.WithEmbeddingModel(config.EmbeddingModel))
	}
	return openai.New(opts...)
}

// NewEmbedder creates an embedder backed by the same client.
func NewEmbedder(client *openai.LLM) (embeddings.Embedder, error) {
	return embeddings.NewEmbedder(client)
}

// ErrEmptyResponse is returned when the backend answers without any content.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Complete runs a single prompt and normalizes the backend response to a
// trimmed string. This is the only place that touches the response shape;
// callers never branch on it.
func Complete(ctx context.Context, model llms.Model, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
