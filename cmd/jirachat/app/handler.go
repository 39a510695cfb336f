package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/domain"
	"github.com/pvelleleth/JiraChat/cmd/jirachat/app/service"
)

// Handler exposes the HTTP surface: liveness, answer, sync.
type Handler struct {
	answers *service.AnswerService
	syncs   *service.SyncService
}

func NewHandler(answers *service.AnswerService, syncs *service.SyncService) *Handler {
	return &Handler{answers: answers, syncs: syncs}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("POST /answer", h.handleAnswer)
	mux.HandleFunc("POST /sync", h.handleSync)
}

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello, World!"})
}

type answerRequest struct {
	Question string        `json:"question"`
	History  []domain.Turn `json:"conversation_history"`
	UserID   string        `json:"user_id"`
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "question and user_id are required")
		return
	}

	answer, err := h.answers.Answer(r.Context(), req.UserID, req.Question, req.History)
	if err != nil {
		slog.Error("answer failed", slog.String("user_id", req.UserID), slog.Any("error", err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(answer)); err != nil {
		slog.Warn("failed to write response", slog.Any("error", err))
	}
}

type syncRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	slog.Info("sync requested", slog.String("user_id", req.UserID))

	result, err := h.syncs.Sync(r.Context(), req.UserID)
	if err != nil {
		slog.Error("sync failed", slog.String("user_id", req.UserID), slog.Any("error", err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Successfully synced data to namespace %s", result.Namespace),
		"data":    result.Projects,
	})
}

// statusForError maps the credential taxonomy to client errors. Everything
// else is a server error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrSettingsNotFound), errors.Is(err, domain.ErrTokenNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrIncompleteSettings):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrJiraAuth):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
