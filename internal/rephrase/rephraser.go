package rephrase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"sqlchat/internal/adapter"
	"sqlchat/internal/llm"
)

const rephrasePromptTemplate = `You are a professional assistant with a friendly tone. Based on the user's question and the SQL query result, generate a summary that is:

- Clear and accurate
- Easy to understand
- Friendly yet professional in tone

Avoid overly technical terms. Speak like a helpful expert explaining to a smart non-technical colleague.

User question: "%s"

SQL query result:
%s

Professional and friendly summary:`

const fallbackSummary = "Sorry, I couldn't generate a clear explanation."

// Rephraser turns a raw SQL result into a conversational summary.
type Rephraser struct {
	model llms.Model
	log   *zap.Logger
}

// New creates a rephraser.
func New(model llms.Model, log *zap.Logger) *Rephraser {
	return &Rephraser{model: model, log: log}
}

// Rephrase summarizes the result in a friendly tone. Model failure
// degrades to a fixed apology: the caller always keeps the raw result, so
// a broken summary must never abort the turn.
func (r *Rephraser) Rephrase(ctx context.Context, result *adapter.ExecResult, question string) string {
	prompt := fmt.Sprintf(rephrasePromptTemplate, question, RenderResult(result.Data))

	summary, err := llm.Complete(ctx, r.model, prompt)
	if err != nil {
		r.log.Warn("rephrasing failed", zap.Error(err))
		return fallbackSummary
	}
	if summary == "" {
		return fallbackSummary
	}
	return summary
}

// RenderResult renders a result value for prompt embedding: scalars
// verbatim, row sequences as indented JSON.
func RenderResult(data interface{}) string {
	switch data.(type) {
	case nil:
		return "(no rows)"
	case string, bool, int, int32, int64, float32, float64:
		return fmt.Sprintf("%v", data)
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(b)
}
