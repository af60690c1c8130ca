// Package server is the thin HTTP surface. Handlers decode, delegate and
// encode; all decision logic lives in the chat router.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"sqlchat/internal/adapter"
	"sqlchat/internal/chat"
	"sqlchat/internal/config"
	"sqlchat/internal/generator"
	"sqlchat/internal/memory"
)

// Server holds the handler dependencies.
type Server struct {
	router      *chat.Router
	db          adapter.DBAdapter
	store       *memory.Store
	log         *zap.Logger
	memoryScope string
}

// New creates a server.
func New(router *chat.Router, db adapter.DBAdapter, store *memory.Store, log *zap.Logger, memoryScope string) *Server {
	return &Server{
		router:      router,
		db:          db,
		store:       store,
		log:         log,
		memoryScope: memoryScope,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Get("/healthz", s.handleHealth)
	r.Get("/schema", s.handleSchema)
	r.Post("/execute-sql", s.handleExecuteSQL)
	r.Post("/connect-db", s.handleConnectDB)
	r.Post("/sessions", s.handleNewSession)
	r.Post("/query", s.handleQuery)

	return r
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("SQL chat API is running"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSchema returns the live database structure.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.db.Schema(r.Context())
	if err != nil {
		s.log.Error("schema fetch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

type executeRequest struct {
	Query string `json:"query"`
}

// handleExecuteSQL runs a caller-supplied SQL string verbatim.
func (s *Server) handleExecuteSQL(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, &adapter.ExecResult{
			Status:  adapter.StatusError,
			Message: "No SQL query provided",
		})
		return
	}

	result := adapter.Execute(r.Context(), s.db, req.Query)
	if result.Status == adapter.StatusError {
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type connectRequest struct {
	DBType     string `json:"db_type"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBHost     string `json:"db_host"`
	DBPort     int    `json:"db_port"`
}

// handleConnectDB tests a connection with caller-supplied parameters and
// closes it immediately.
func (s *Server) handleConnectDB(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DBName == "" || req.DBUser == "" || req.DBPassword == "" || req.DBHost == "" {
		writeError(w, http.StatusBadRequest, "Missing database connection parameters")
		return
	}
	if req.DBType == "" {
		req.DBType = "mysql"
	}
	if req.DBPort == 0 {
		req.DBPort = 3306
	}

	db, err := adapter.New(&adapter.Config{
		Type:     req.DBType,
		Host:     req.DBHost,
		Port:     req.DBPort,
		Database: req.DBName,
		User:     req.DBUser,
		Password: req.DBPassword,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := db.Connect(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to connect to database")
		return
	}
	_ = db.Close()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Connected to database successfully"})
}

// handleNewSession mints a session ID for callers that want their own
// conversation scope.
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"session_id": s.store.NewSessionID()})
}

type queryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// handleQuery runs one chat turn.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.router.HandleQuery(r.Context(), s.session(req.SessionID), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyQuestion):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, generator.ErrInvalidSQL):
			writeError(w, http.StatusInternalServerError, "Failed to generate a valid SQL query")
		default:
			s.log.Error("query handling failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// session resolves the memory handle for a request. Global scope pins
// every caller to one shared conversation.
func (s *Server) session(id string) *memory.Session {
	if s.memoryScope == config.MemoryScopeGlobal {
		return s.store.Session("")
	}
	return s.store.Session(id)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
