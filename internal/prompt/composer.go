// Package prompt assembles the SQL generation prompt. Composition is pure:
// no model calls, no I/O.
package prompt

import (
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"sqlchat/internal/adapter"
	"sqlchat/internal/fewshot"
)

// The schema listing is the model's only source of valid table and column
// names, so every table and column must appear verbatim.
const sqlPromptTemplate = `You are an expert SQL generator. Based on the database schema, conversation history, and examples provided, convert the user's natural language question into a valid SQL query.

Schema:
{{.tables}}

Instructions:
- Use correct table and column names.
- Use JOINs when needed.
- Use WHERE clauses when filtering.
- Respond only with the SQL query.

Conversation history:
{{.history}}

Few-shot examples:
{{.examples}}
Now, convert the following question:
Question:
{{.question}}
SQL:`

var sqlPrompt = prompts.NewPromptTemplate(sqlPromptTemplate,
	[]string{"tables", "history", "examples", "question"})

// Compose builds the generation prompt: instructions, schema listing,
// history, few-shot examples, then the question with a completion cue.
func Compose(question, history string, tables []adapter.Table, examples []fewshot.Example) (string, error) {
	return sqlPrompt.Format(map[string]any{
		"tables":   FormatTables(tables),
		"history":  history,
		"examples": formatExamples(examples),
		"question": question,
	})
}

// FormatTables renders one "name: col, col, col" line per table.
func FormatTables(tables []adapter.Table) string {
	lines := make([]string, 0, len(tables))
	for _, t := range tables {
		lines = append(lines, t.Name+": "+strings.Join(t.Columns, ", "))
	}
	return strings.Join(lines, "\n")
}

func formatExamples(examples []fewshot.Example) string {
	var sb strings.Builder
	for _, ex := range examples {
		sb.WriteString("Question:\n")
		sb.WriteString(ex.Question)
		sb.WriteString("\nSQL:\n")
		sb.WriteString(ex.SQL)
		sb.WriteString("\n")
	}
	return sb.String()
}
