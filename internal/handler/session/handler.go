package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parentpass/adminchat/backend/internal/model/chat"
	sessionservice "github.com/parentpass/adminchat/backend/internal/service/session"
	"github.com/parentpass/adminchat/backend/pkg/utils"
)

// welcomeLine opens every new conversation in the creation response. It is
// not stored: the persisted history stays append-only from the first real
// user turn.
const welcomeLine = "Hello! I'm the ParentPass administrative assistant. " +
	"How can I help you analyze the platform today?"

// Handler 会话管理的HTTP处理器
type Handler struct {
	store *sessionservice.Store
}

// New 创建会话处理器
func New(store *sessionservice.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Delete("/sessions/{sessionID}", h.handleDeleteSession)
}

type sessionResponse struct {
	SessionID string       `json:"session_id"`
	State     sessionState `json:"state"`
}

type sessionState struct {
	Messages []chat.Turn `json:"recent_messages"`
	Summary  string      `json:"summary,omitempty"`
	Welcome  string      `json:"welcome,omitempty"`
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.Create(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, sessionResponse{
		SessionID: session.ID,
		State: sessionState{
			Messages: session.Messages,
			Welcome:  welcomeLine,
		},
	})
}

// handleGetSession 查询会话
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, sessionservice.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found or has expired")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, sessionResponse{
		SessionID: session.ID,
		State: sessionState{
			Messages: session.Messages,
			Summary:  session.Summary,
		},
	})
}

// handleDeleteSession 删除会话
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	// Deleting an absent session still reports success so clients can retry
	// deletes safely.
	_ = h.store.Delete(r.Context(), sessionID)

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"deleted":    true,
		"session_id": sessionID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
