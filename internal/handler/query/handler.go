package query

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parentpass/adminchat/backend/internal/model/chat"
	chatservice "github.com/parentpass/adminchat/backend/internal/service/chat"
	sessionservice "github.com/parentpass/adminchat/backend/internal/service/session"
	"github.com/parentpass/adminchat/backend/pkg/utils"
)

// Engine is the conversation engine's single public entry point.
type Engine interface {
	ProcessMessage(ctx context.Context, sessionID, text string) (chat.Turn, error)
}

// Handler 查询处理的HTTP处理器
type Handler struct {
	engine Engine
}

// New 创建查询处理器
func New(engine Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes 注册查询相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/query", h.handleQuery)
}

type queryRequest struct {
	Message string `json:"message"`
}

type queryResponse struct {
	Response         string `json:"response"`
	SessionID        string `json:"session_id"`
	Timestamp        string `json:"timestamp"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
}

// handleQuery 处理一次用户查询
func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	sessionID := r.Header.Get("X-Session-ID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "missing X-Session-ID header")
		return
	}

	var payload queryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	turn, err := h.engine.ProcessMessage(r.Context(), sessionID, payload.Message)
	if err != nil {
		switch {
		case errors.Is(err, sessionservice.ErrNotFound):
			utils.RespondError(w, http.StatusNotFound, "session not found or has expired")
		case errors.Is(err, chatservice.ErrTransient):
			utils.RespondError(w, http.StatusServiceUnavailable, "temporarily unable to process the message, please retry")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "failed to process query")
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, queryResponse{
		Response:         turn.Content,
		SessionID:        sessionID,
		Timestamp:        turn.Timestamp.Format(time.RFC3339),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	})
}
