package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"sqlchat/internal/llm"
)

// ErrInvalidSQL means the model produced no usable query: empty output, or
// output flagged by the error-substring heuristic.
var ErrInvalidSQL = errors.New("failed to generate a valid SQL query")

// Generator turns a composed prompt into cleaned SQL with a single model
// call. No retries: a failed generation aborts the turn.
type Generator struct {
	model     llms.Model
	tokenizer *tiktoken.Tiktoken
	log       *zap.Logger
}

// Output is one successful generation.
type Output struct {
	SQL            string
	PromptTokens   int
	ResponseTokens int
}

// New creates a generator. Token accounting uses cl100k_base; if the
// encoding is unavailable counts are reported as zero.
func New(model llms.Model, log *zap.Logger) *Generator {
	tokenizer, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		log.Warn("tokenizer unavailable, token counts disabled", zap.Error(err))
		tokenizer = nil
	}
	return &Generator{model: model, tokenizer: tokenizer, log: log}
}

// Generate runs the prompt, cleans the response and validates it.
func (g *Generator) Generate(ctx context.Context, prompt string) (*Output, error) {
	raw, err := llm.Complete(ctx, g.model, prompt)
	if err != nil {
		return nil, fmt.Errorf("sql generation call failed: %w", err)
	}

	query := CleanSQL(raw)
	// The substring heuristic is a weak signal for models that answer
	// "error: cannot..." instead of SQL. A completion API offers no
	// structured failure channel to replace it.
	if query == "" || strings.Contains(strings.ToLower(query), "error") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSQL, query)
	}

	g.log.Debug("generated sql", zap.String("query", query))

	return &Output{
		SQL:            query,
		PromptTokens:   g.countTokens(prompt),
		ResponseTokens: g.countTokens(raw),
	}, nil
}

// CleanSQL strips a surrounding triple-backtick fence, if and only if both
// the opening and closing fence are present, then trims whitespace.
// Applying it to already-clean text is a no-op.
func CleanSQL(query string) string {
	query = strings.TrimSpace(query)
	if strings.HasPrefix(query, "```") && strings.HasSuffix(query, "```") {
		lines := strings.Split(query, "\n")
		if strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
			lines = lines[1:]
		}
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
		query = strings.Join(lines, "\n")
	}
	return strings.TrimSpace(query)
}

func (g *Generator) countTokens(text string) int {
	if g.tokenizer == nil {
		return 0
	}
	return len(g.tokenizer.Encode(text, nil, nil))
}
