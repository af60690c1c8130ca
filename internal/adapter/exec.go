package adapter

import "context"

// Executor result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ExecResult is the wire-level execution outcome: either data or an error
// message, never both.
type ExecResult struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Execute runs a SQL string and shapes the outcome into an ExecResult.
// Execution errors are captured in the result rather than returned, so the
// caller gets a single shape to branch on.
func Execute(ctx context.Context, a DBAdapter, query string) *ExecResult {
	result, err := a.ExecuteQuery(ctx, query)
	if err != nil {
		return &ExecResult{Status: StatusError, Message: err.Error()}
	}
	return &ExecResult{Status: StatusSuccess, Data: Collapse(result)}
}

// Collapse reduces a query result to its wire shape. A single row with a
// single column collapses to the bare value (COUNT(*) and friends); a
// result with no columns reports the row count; everything else stays a
// row sequence.
func Collapse(result *QueryResult) interface{} {
	if len(result.Columns) == 0 {
		return result.RowCount
	}
	if len(result.Rows) == 1 && len(result.Rows[0]) == 1 {
		for _, v := range result.Rows[0] {
			return v
		}
	}
	if result.Rows == nil {
		return []map[string]interface{}{}
	}
	return result.Rows
}
