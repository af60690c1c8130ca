package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sqlchat/internal/adapter"
	"sqlchat/internal/chat"
	"sqlchat/internal/config"
	"sqlchat/internal/fewshot"
	"sqlchat/internal/memory"
	"sqlchat/internal/testutil"
)

func newTestServer(t *testing.T, scope string) (*Server, *testutil.FakeModel) {
	t.Helper()
	ctx := context.Background()

	db := adapter.NewSQLiteAdapter(&adapter.SQLiteConfig{FilePath: ":memory:"})
	require.NoError(t, db.Connect(ctx))
	t.Cleanup(func() { _ = db.Close() })
	for _, stmt := range []string{
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, role TEXT)",
		"INSERT INTO users (id, name, role) VALUES (1, 'alice', 'ADMIN'), (2, 'bob', 'USER'), (3, 'carol', 'ADMIN'), (4, 'dave', 'ADMIN')",
	} {
		_, err := db.ExecuteQuery(ctx, stmt)
		require.NoError(t, err)
	}

	model := &testutil.FakeModel{ReplyFn: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "classifies whether"):
			return "sql_request", nil
		case strings.Contains(prompt, "expert SQL generator"):
			return "```sql\nSELECT COUNT(*) FROM users WHERE role = 'ADMIN';\n```", nil
		case strings.Contains(prompt, "friendly tone"):
			return "You have 3 admins.", nil
		}
		return "", errors.New("unexpected prompt")
	}}

	selector, err := fewshot.NewSelector(ctx,
		&testutil.FakeEmbedder{Fallback: []float32{1, 0, 0}}, fewshot.Defaults())
	require.NoError(t, err)

	router := chat.NewRouter(model, db, selector, zap.NewNop(), chat.Config{TopK: 3})
	store := memory.NewStore(0)
	return New(router, db, store, zap.NewNop(), scope), model
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHome(t *testing.T) {
	srv, _ := newTestServer(t, config.MemoryScopeGlobal)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
}

func TestQuery_EmptyQuestion(t *testing.T) {
	srv, model := newTestServer(t, config.MemoryScopeGlobal)
	handler := srv.Routes()

	for _, q := range []string{"", "   "} {
		rec := postJSON(t, handler, "/query", map[string]string{"question": q})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "question %q", q)
	}
	assert.Empty(t, model.Prompts, "no backend call for empty questions")
}

func TestQuery_SQLRequest(t *testing.T) {
	srv, _ := newTestServer(t, config.MemoryScopeGlobal)
	rec := postJSON(t, srv.Routes(), "/query",
		map[string]string{"question": "how many users are admins?"})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Intent   string `json:"intent"`
		Question string `json:"question"`
		Query    string `json:"query"`
		Result   struct {
			Status string      `json:"status"`
			Data   interface{} `json:"data"`
		} `json:"result"`
		Summary string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "sql_request", resp.Intent)
	assert.Equal(t, "how many users are admins?", resp.Question)
	assert.Equal(t, "SELECT COUNT(*) FROM users WHERE role = 'ADMIN';", resp.Query)
	assert.Equal(t, "success", resp.Result.Status)
	assert.EqualValues(t, 3, resp.Result.Data)
	assert.Equal(t, "You have 3 admins.", resp.Summary)
}

func TestSchema(t *testing.T) {
	srv, _ := newTestServer(t, config.MemoryScopeGlobal)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schema", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var schema adapter.Schema
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	require.Len(t, schema.Tables, 1)
	assert.Equal(t, "users", schema.Tables[0].Name)
	assert.Equal(t, []string{"id", "name", "role"}, schema.Tables[0].Columns)
}

func TestExecuteSQL(t *testing.T) {
	srv, _ := newTestServer(t, config.MemoryScopeGlobal)
	handler := srv.Routes()

	rec := postJSON(t, handler, "/execute-sql",
		map[string]string{"query": "SELECT COUNT(*) FROM users"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result adapter.ExecResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, adapter.StatusSuccess, result.Status)
	assert.EqualValues(t, 4, result.Data)
}

func TestExecuteSQL_MissingQuery(t *testing.T) {
	srv, _ := newTestServer(t, config.MemoryScopeGlobal)
	rec := postJSON(t, srv.Routes(), "/execute-sql", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteSQL_BadQuery(t *testing.T) {
	srv, _ := newTestServer(t, config.MemoryScopeGlobal)
	rec := postJSON(t, srv.Routes(), "/execute-sql",
		map[string]string{"query": "SELECT * FROM missing_table"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var result adapter.ExecResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, adapter.StatusError, result.Status)
	assert.NotEmpty(t, result.Message)
}

func TestConnectDB_MissingParameters(t *testing.T) {
	srv, _ := newTestServer(t, config.MemoryScopeGlobal)
	rec := postJSON(t, srv.Routes(), "/connect-db",
		map[string]string{"db_name": "shop"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessions_MintedIDsDiffer(t *testing.T) {
	srv, _ := newTestServer(t, config.MemoryScopeSession)
	handler := srv.Routes()

	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		rec := postJSON(t, handler, "/sessions", map[string]string{})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotEmpty(t, resp["session_id"])
		ids[resp["session_id"]] = true
	}
	assert.Len(t, ids, 3)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, config.MemoryScopeGlobal)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
