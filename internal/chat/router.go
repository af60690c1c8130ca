// Package chat orchestrates a single question through the pipeline:
// classify, then branch into SQL generation, memory-aware chat, or a
// clarification reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"sqlchat/internal/adapter"
	"sqlchat/internal/fewshot"
	"sqlchat/internal/generator"
	"sqlchat/internal/intent"
	"sqlchat/internal/llm"
	"sqlchat/internal/memory"
	"sqlchat/internal/prompt"
	"sqlchat/internal/rephrase"
)

// ErrEmptyQuestion rejects blank input before any external call is made.
var ErrEmptyQuestion = errors.New("no question provided")

// ExecutionError reports that the database rejected the generated query.
type ExecutionError struct {
	Query   string
	Message string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("sql execution failed: %s", e.Message)
}

const (
	clarifyMessage = "I'm not sure what you're asking. Could you rephrase or provide more context?"
	unknownMessage = "Sorry, I couldn't understand your request."
)

const chatPromptTemplate = `You are a helpful assistant having a conversation with a user.

Conversation history:
%s

User: %s
Assistant:`

// Config tunes the router.
type Config struct {
	TopK         int           // few-shot examples per prompt
	LLMTimeout   time.Duration // per model call, 0 = no timeout
	QueryTimeout time.Duration // per database call, 0 = no timeout
}

// Router wires the pipeline stages together. It performs no internal
// parallelism: each request is a strictly sequential chain of calls.
type Router struct {
	model      llms.Model
	db         adapter.DBAdapter
	classifier *intent.Classifier
	selector   *fewshot.Selector
	generator  *generator.Generator
	rephraser  *rephrase.Rephraser
	log        *zap.Logger
	config     Config
}

// NewRouter creates a router.
func NewRouter(
	model llms.Model,
	db adapter.DBAdapter,
	selector *fewshot.Selector,
	log *zap.Logger,
	config Config,
) *Router {
	if config.TopK <= 0 {
		config.TopK = 3
	}
	return &Router{
		model:      model,
		db:         db,
		classifier: intent.NewClassifier(model, log),
		selector:   selector,
		generator:  generator.New(model, log),
		rephraser:  rephrase.New(model, log),
		log:        log,
		config:     config,
	}
}

// Stats counts the external work one turn performed.
type Stats struct {
	LLMCalls    int   `json:"llmCalls"`
	TotalTokens int   `json:"totalTokens"`
	ElapsedMs   int64 `json:"elapsedMs"`
}

// Response is the structured outcome of one turn. Which fields are set
// depends on the intent branch taken.
type Response struct {
	Intent   intent.Intent       `json:"intent"`
	Question string              `json:"question"`
	Query    string              `json:"query,omitempty"`
	Result   *adapter.ExecResult `json:"result,omitempty"`
	Summary  string              `json:"summary,omitempty"`
	Message  string              `json:"message,omitempty"`
	Stats    *Stats              `json:"stats,omitempty"`
}

// HandleQuery runs one turn against the given session. Memory is touched
// only after the turn succeeds; failed turns are never recorded.
func (r *Router) HandleQuery(ctx context.Context, sess *memory.Session, question string) (*Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	start := time.Now()
	label := r.classify(ctx, question)
	r.log.Info("classified question",
		zap.String("question", question),
		zap.String("intent", string(label)))

	switch label {
	case intent.SQLRequest:
		return r.handleSQLRequest(ctx, sess, question, start)
	case intent.GeneralChat:
		return r.handleChat(ctx, sess, question, start)
	case intent.Unclear:
		return &Response{Intent: label, Question: question, Message: clarifyMessage}, nil
	default:
		return &Response{Intent: intent.Unknown, Question: question, Message: unknownMessage}, nil
	}
}

func (r *Router) classify(ctx context.Context, question string) intent.Intent {
	llmCtx, cancel := withTimeout(ctx, r.config.LLMTimeout)
	defer cancel()
	return r.classifier.Classify(llmCtx, question)
}

// handleSQLRequest runs the full SQL path: schema, history, examples,
// prompt, generation, execution, rephrasing, memory update.
func (r *Router) handleSQLRequest(ctx context.Context, sess *memory.Session, question string, start time.Time) (*Response, error) {
	stats := &Stats{LLMCalls: 1} // classification already happened

	dbCtx, cancelSchema := withTimeout(ctx, r.config.QueryTimeout)
	schema, err := r.db.Schema(dbCtx)
	cancelSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schema: %w", err)
	}

	history, err := sess.LoadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	llmCtx, cancelSelect := withTimeout(ctx, r.config.LLMTimeout)
	examples, err := r.selector.Select(llmCtx, question, r.config.TopK)
	cancelSelect()
	if err != nil {
		return nil, fmt.Errorf("failed to select examples: %w", err)
	}

	promptText, err := prompt.Compose(question, history, schema.Tables, examples)
	if err != nil {
		return nil, fmt.Errorf("failed to compose prompt: %w", err)
	}

	llmCtx, cancelGen := withTimeout(ctx, r.config.LLMTimeout)
	output, err := r.generator.Generate(llmCtx, promptText)
	cancelGen()
	if err != nil {
		return nil, err
	}
	stats.LLMCalls++
	stats.TotalTokens += output.PromptTokens + output.ResponseTokens

	dbCtx, cancelExec := withTimeout(ctx, r.config.QueryTimeout)
	result := adapter.Execute(dbCtx, r.db, output.SQL)
	cancelExec()
	if result.Status == adapter.StatusError {
		return nil, &ExecutionError{Query: output.SQL, Message: result.Message}
	}

	llmCtx, cancelRephrase := withTimeout(ctx, r.config.LLMTimeout)
	summary := r.rephraser.Rephrase(llmCtx, result, question)
	cancelRephrase()
	stats.LLMCalls++

	if err := sess.AppendTurn(ctx, question, summary); err != nil {
		r.log.Warn("failed to record turn", zap.Error(err))
	}

	stats.ElapsedMs = time.Since(start).Milliseconds()
	return &Response{
		Intent:   intent.SQLRequest,
		Question: question,
		Query:    output.SQL,
		Result:   result,
		Summary:  summary,
		Stats:    stats,
	}, nil
}

// handleChat answers as a memory-aware assistant.
func (r *Router) handleChat(ctx context.Context, sess *memory.Session, question string, start time.Time) (*Response, error) {
	history, err := sess.LoadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	llmCtx, cancel := withTimeout(ctx, r.config.LLMTimeout)
	reply, err := llm.Complete(llmCtx, r.model, fmt.Sprintf(chatPromptTemplate, history, question))
	cancel()
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if err := sess.AppendTurn(ctx, question, reply); err != nil {
		r.log.Warn("failed to record turn", zap.Error(err))
	}

	return &Response{
		Intent:   intent.GeneralChat,
		Question: question,
		Message:  reply,
		Stats:    &Stats{LLMCalls: 2, ElapsedMs: time.Since(start).Milliseconds()},
	}, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
