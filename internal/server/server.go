// Package server exposes the engine over HTTP. It is glue around the core:
// routing, CORS and JSON shapes, nothing retrieval-specific.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/kataras/golog"
	"github.com/rs/cors"

	"ragserver/internal/domain"
	"ragserver/internal/generation"
)

const unavailableReply = "Investigation AI temporarily unavailable. Please try again."

// chatContextChunks is how many passages ground each chat answer.
const chatContextChunks = 2

// RAG is the retrieval surface the handlers need.
type RAG interface {
	Ready() bool
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
}

// Generator composes the final answer from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Server holds the request handlers and their collaborators.
type Server struct {
	rag RAG
	gen Generator
	log *golog.Logger
}

// New creates a Server over an engine and a generative client.
func New(rag RAG, gen Generator, logger *golog.Logger) *Server {
	if logger == nil {
		logger = golog.Default
	}
	return &Server{rag: rag, gen: gen, log: logger}
}

// Handler builds the routed handler with CORS and request logging applied.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost, http.MethodOptions)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return s.logRequests(c.Handler(r))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()[:8]
		s.log.Infof("[%s] %s %s", id, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ragStatus := "No documents loaded"
	if s.rag.Ready() {
		ragStatus = "Active"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "Detective AI Chatbot Service Active (RAG Enabled)",
		"endpoints": map[string]string{
			"/chat": "POST - Investigation assistant with RAG",
		},
		"rag_status": ragStatus,
	})
}

type detection struct {
	ClassName string `json:"class_name"`
}

type chatRequest struct {
	Question   string      `json:"question"`
	Detections []detection `json:"detections"`
}

type chatResponse struct {
	Reply   string `json:"reply"`
	RAGUsed bool   `json:"rag_used"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"reply": "invalid request body"})
		return
	}

	detections := make([]string, 0, len(req.Detections))
	for _, d := range req.Detections {
		name := d.ClassName
		if name == "" {
			name = "object"
		}
		detections = append(detections, name)
	}

	ragContext, sources := s.retrieveContext(r.Context(), req.Question)

	prompt := generation.BuildPrompt(req.Question, detections, ragContext, sources)
	reply, err := s.gen.Generate(r.Context(), prompt)
	if err != nil {
		s.log.Errorf("generation failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, chatResponse{Reply: unavailableReply})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, RAGUsed: ragContext != ""})
}

// retrieveContext pulls the grounding passages and a citation string for the
// question. It degrades to empty context on any retrieval problem so the
// chat endpoint still answers.
func (s *Server) retrieveContext(ctx context.Context, question string) (string, string) {
	if !s.rag.Ready() {
		return "", ""
	}
	results, err := s.rag.Search(ctx, question, chatContextChunks)
	if err != nil {
		s.log.Errorf("retrieval failed: %v", err)
		return "", ""
	}
	if len(results) == 0 {
		return "", ""
	}

	parts := make([]string, 0, len(results))
	seen := map[string]struct{}{}
	var names []string
	for _, res := range results {
		parts = append(parts, res.Content)
		name := sourceTitle(res.Source)
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(parts, "\n\n"), strings.Join(names, ", ")
}

// sourceTitle turns "rules_documents/firearm-act.pdf" into "Firearm Act".
func sourceTitle(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "-", " ")
	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
