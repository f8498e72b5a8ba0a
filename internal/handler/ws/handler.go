package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/parentpass/adminchat/backend/internal/model/chat"
	chatservice "github.com/parentpass/adminchat/backend/internal/service/chat"
	sessionservice "github.com/parentpass/adminchat/backend/internal/service/session"
	"github.com/parentpass/adminchat/backend/pkg/utils"
)

// Engine mirrors the conversation engine entry point consumed over HTTP.
type Engine interface {
	ProcessMessage(ctx context.Context, sessionID, text string) (chat.Turn, error)
}

// Handler bridges the admin console's live chat view onto the same
// conversation engine as POST /query. One connection serves one session.
type Handler struct {
	engine   Engine
	upgrader websocket.Upgrader
}

// New 创建WebSocket聊天处理器
func New(engine Engine) *Handler {
	return &Handler{
		engine: engine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chat/{sessionID}", h.handleChat)
}

type inboundFrame struct {
	Message string `json:"message"`
}

type outboundFrame struct {
	Type      string `json:"type"`
	Response  string `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "session id is required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] chat connection opened for session=%s", sessionID)

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error for session=%s: %v", sessionID, err)
			}
			return
		}

		if frame.Message == "" {
			h.writeFrame(conn, outboundFrame{Type: "error", Error: "message is required"})
			continue
		}

		turn, err := h.engine.ProcessMessage(r.Context(), sessionID, frame.Message)
		if err != nil {
			h.writeFrame(conn, outboundFrame{Type: "error", Error: errorText(err)})
			// An expired session will fail every subsequent frame too.
			if errors.Is(err, sessionservice.ErrNotFound) {
				return
			}
			continue
		}

		h.writeFrame(conn, outboundFrame{
			Type:      "response",
			Response:  turn.Content,
			Timestamp: turn.Timestamp.Format(time.RFC3339),
		})
	}
}

func (h *Handler) writeFrame(conn *websocket.Conn, frame outboundFrame) {
	if frame.Timestamp == "" {
		frame.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("[ws] write error: %v", err)
	}
}

func errorText(err error) string {
	switch {
	case errors.Is(err, sessionservice.ErrNotFound):
		return "session not found or has expired"
	case errors.Is(err, chatservice.ErrTransient):
		return "temporarily unable to process the message, please retry"
	default:
		return "failed to process message"
	}
}
