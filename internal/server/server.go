// Package server exposes the pipeline over HTTP: a JSON API plus a
// server-rendered web page.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"docqna/internal/helper"
	"docqna/internal/loader"
	"docqna/internal/models"
	"docqna/internal/pipeline"
	"docqna/internal/session"
)

// Pipeline is the server-facing subset of the ingestion/chat service.
type Pipeline interface {
	Ingest(ctx context.Context, filePath, fileType, userID string, numQuestions int) (models.IngestResult, error)
	Answer(ctx context.Context, userID, question string) (models.ChatTurn, error)
}

var _ Pipeline = (*pipeline.Service)(nil)

// Server handles the upload, qna and chat endpoints.
type Server struct {
	pipeline  Pipeline
	sessions  session.Store
	uploadDir string
	addr      string
}

func New(p Pipeline, sessions session.Store, addr, uploadDir string) *Server {
	return &Server{pipeline: p, sessions: sessions, addr: addr, uploadDir: uploadDir}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/", s.handleUpload)
	mux.HandleFunc("/qna/", s.handleQnA)
	mux.HandleFunc("/chat/", s.handleChat)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/web/upload", s.handleWebUpload)
	mux.HandleFunc("/web/chat", s.handleWebChat)
	return corsMiddleware(loggingMiddleware(mux))
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", s.addr).Msg("server listening")
	return srv.ListenAndServe()
}

type uploadResponse struct {
	UserID   string           `json:"user_id"`
	Message  string           `json:"message"`
	QnA      []models.QnAPair `json:"qna"`
	Degraded bool             `json:"degraded"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res, status, err := s.processUpload(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		UserID:   res.UserID,
		Message:  "Document processed and Q&A generated.",
		QnA:      pairsOrEmpty(res.Pairs),
		Degraded: res.Degraded,
	})
}

// processUpload saves the multipart file to the scratch directory, runs the
// ingestion pipeline and removes the file again on every path.
func (s *Server) processUpload(r *http.Request) (models.IngestResult, int, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return models.IngestResult{}, http.StatusBadRequest, errors.New("file is required")
	}
	defer file.Close()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if ext != "pdf" && ext != "docx" {
		return models.IngestResult{}, http.StatusBadRequest, errors.New("Unsupported file type")
	}

	numQuestions, _ := strconv.Atoi(r.FormValue("num_questions"))

	userID := r.FormValue("user_id")
	if userID == "" {
		userID, err = helper.GenerateUUID()
		if err != nil {
			return models.IngestResult{}, http.StatusInternalServerError, err
		}
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return models.IngestResult{}, http.StatusInternalServerError, err
	}
	tmpName, err := helper.GenerateUUID()
	if err != nil {
		return models.IngestResult{}, http.StatusInternalServerError, err
	}
	tmpPath := filepath.Join(s.uploadDir, tmpName+"."+ext)

	out, err := os.Create(tmpPath)
	if err != nil {
		return models.IngestResult{}, http.StatusInternalServerError, err
	}
	defer os.Remove(tmpPath)

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		return models.IngestResult{}, http.StatusInternalServerError, err
	}
	out.Close()

	res, err := s.pipeline.Ingest(r.Context(), tmpPath, ext, userID, numQuestions)
	if err != nil {
		if errors.Is(err, loader.ErrUnsupportedFormat) {
			return models.IngestResult{}, http.StatusBadRequest, err
		}
		return models.IngestResult{}, http.StatusInternalServerError, err
	}
	return res, http.StatusOK, nil
}

func (s *Server) handleQnA(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, err := s.sessions.Get(r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "User session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.QnAPair{"qna": pairsOrEmpty(sess.QnA)})
}

type chatResponse struct {
	Question    string            `json:"question"`
	Answer      string            `json:"answer"`
	ChatHistory []models.ChatTurn `json:"chat_history"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID := r.FormValue("user_id")
	question := strings.TrimSpace(r.FormValue("question"))
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	turn, err := s.pipeline.Answer(r.Context(), userID, question)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.sessions.AppendTurn(userID, turn); err != nil {
		writeError(w, http.StatusNotFound, "User session not found")
		return
	}
	sess, err := s.sessions.Get(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "User session not found")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Question:    turn.Question,
		Answer:      turn.Answer,
		ChatHistory: sess.Chat,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pairsOrEmpty(pairs []models.QnAPair) []models.QnAPair {
	if pairs == nil {
		return []models.QnAPair{}
	}
	return pairs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("took", time.Since(start)).Msg("request")
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
