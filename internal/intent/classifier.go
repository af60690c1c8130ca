package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"sqlchat/internal/llm"
)

// Intent labels a user question for routing.
type Intent string

const (
	SQLRequest  Intent = "sql_request"
	GeneralChat Intent = "general_chat"
	Unclear     Intent = "unclear"

	// Unknown is the fallback when the model answers with none of the
	// three expected labels.
	Unknown Intent = "unknown"
)

const classifyPromptTemplate = `You are an AI assistant that classifies whether a user's message should be handled with a SQL query or not.

Classify the message into one of these categories:

- sql_request: the user clearly asks for structured data from a database (counts, filters, lists, totals, groupings).
- general_chat: greetings, thanks, chitchat, questions about you, jokes, etc.
- unclear: extremely vague or meaningless (e.g., "asdf", "?", "123")

Note: short valid questions like "how many users" or "list orders" ARE sql_request.

Respond with one of the following words only:
sql_request
general_chat
unclear

User: "%s"
Intent:`

// Classifier labels questions with a single model call. It is stateless:
// every call is independent of prior turns.
type Classifier struct {
	model llms.Model
	log   *zap.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(model llms.Model, log *zap.Logger) *Classifier {
	return &Classifier{model: model, log: log}
}

// Classify labels the question. Model failure degrades to Unclear and is
// never surfaced as an error; an unrecognized label maps to Unknown.
func (c *Classifier) Classify(ctx context.Context, question string) Intent {
	prompt := fmt.Sprintf(classifyPromptTemplate, strings.TrimSpace(question))

	raw, err := llm.Complete(ctx, c.model, prompt)
	if err != nil {
		c.log.Warn("intent classification failed", zap.Error(err))
		return Unclear
	}
	return Parse(raw)
}

// Parse maps raw model output to an Intent.
func Parse(raw string) Intent {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(SQLRequest):
		return SQLRequest
	case string(GeneralChat):
		return GeneralChat
	case string(Unclear):
		return Unclear
	default:
		return Unknown
	}
}
