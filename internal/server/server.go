// Package server exposes the question-answering pipeline over HTTP:
// a JSON ask endpoint, trace browsing, and a WebSocket chat channel.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/docchat/docchat/internal/trace"
)

// QueryHandler answers one user message. The orchestrator implements
// it; tests substitute fakes.
type QueryHandler interface {
	HandleQuery(ctx context.Context, userMessage string) (string, error)
}

// SessionFactory creates a fresh QueryHandler with its own
// conversation memory, one per WebSocket connection.
type SessionFactory func() QueryHandler

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server is the docchat HTTP server.
type Server struct {
	cfg        Config
	ask        QueryHandler // shared handler for stateless /api/ask
	newSession SessionFactory
	runs       *trace.Store // optional; trace routes 404 without it
	router     chi.Router
	httpServer *http.Server
	markdown   goldmark.Markdown
}

// New creates a new server. runs may be nil when no trace index is
// available.
func New(cfg Config, ask QueryHandler, newSession SessionFactory, runs *trace.Store) *Server {
	s := &Server{
		cfg:        cfg,
		ask:        ask,
		newSession: newSession,
		runs:       runs,
		markdown:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/api/ask", s.handleAsk)
	r.Get("/api/traces", s.handleListTraces)
	r.Get("/api/traces/{runID}", s.handleGetTrace)
	r.Get("/ws/chat", s.handleWebSocket)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

type askRequest struct {
	Message string `json:"message"`
}

type askResponse struct {
	Answer     string `json:"answer"`
	AnswerHTML string `json:"answer_html"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	answer, err := s.ask.HandleQuery(r.Context(), req.Message)
	if err != nil {
		log.Printf("server: ask failed: %v", err)
		s.writeError(w, http.StatusBadGateway, "query failed: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, askResponse{
		Answer:     answer,
		AnswerHTML: s.renderMarkdown(answer),
	})
}

func (s *Server) handleListTraces(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, http.StatusNotFound, "trace index not available")
		return
	}

	runs, err := s.runs.List(r.Context(), 50)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "listing traces: "+err.Error())
		return
	}
	if runs == nil {
		runs = []trace.RunSummary{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, http.StatusNotFound, "trace index not available")
		return
	}

	runID := chi.URLParam(r, "runID")
	run, err := s.runs.Get(r.Context(), runID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "looking up trace: "+err.Error())
		return
	}
	if run == nil {
		s.writeError(w, http.StatusNotFound, "no trace with run ID "+runID)
		return
	}

	qt, err := trace.Load(run.FilePath)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loading trace file: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, qt)
}

// renderMarkdown converts an answer to HTML. On render failure the
// raw text is returned so the client still sees the answer.
func (s *Server) renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &buf); err != nil {
		return text
	}
	return buf.String()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: writing response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("docchat server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
