// Package testutil provides scripted doubles for the LLM and embedding
// backends.
package testutil

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// FakeModel is a scripted llms.Model. ReplyFn, when set, decides the
// response per prompt; otherwise Replies are consumed in order with the
// last one repeating. Every prompt is recorded.
type FakeModel struct {
	ReplyFn func(prompt string) (string, error)
	Replies []string
	Err     error

	Prompts []string
	calls   int
}

func (m *FakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	prompt := flatten(messages)
	m.Prompts = append(m.Prompts, prompt)

	if m.ReplyFn != nil {
		reply, err := m.ReplyFn(prompt)
		if err != nil {
			return nil, err
		}
		return response(reply), nil
	}
	if m.Err != nil {
		return nil, m.Err
	}

	reply := ""
	if len(m.Replies) > 0 {
		idx := m.calls
		if idx >= len(m.Replies) {
			idx = len(m.Replies) - 1
		}
		reply = m.Replies[idx]
	}
	m.calls++
	return response(reply), nil
}

func (m *FakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func response(text string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: text}},
	}
}

func flatten(messages []llms.MessageContent) string {
	var sb strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				sb.WriteString(text.Text)
			}
		}
	}
	return sb.String()
}

// FakeEmbedder maps known texts to fixed vectors. Unknown texts embed to
// Fallback (zero-length by default, which scores zero similarity).
type FakeEmbedder struct {
	Vectors  map[string][]float32
	Fallback []float32
	Err      error
}

func (e *FakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.vector(text)
	}
	return vectors, nil
}

func (e *FakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	return e.vector(text), nil
}

func (e *FakeEmbedder) vector(text string) []float32 {
	if v, ok := e.Vectors[text]; ok {
		return v
	}
	return e.Fallback
}
