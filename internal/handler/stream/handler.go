package stream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/chat-widget/internal/logging"
	chatService "github.com/zhouzirui/chat-widget/internal/service/chat"
	"github.com/zhouzirui/chat-widget/internal/view"
	"github.com/zhouzirui/chat-widget/pkg/utils"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Handler pushes the rendered view of a session over a websocket after every change.
type Handler struct {
	chatSvc  *chatService.Service
	renderer view.Renderer
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// New creates a new stream handler.
func New(chatSvc *chatService.Service, renderer view.Renderer, logger *zap.Logger) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		renderer: renderer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logging.OrNop(logger).Named("stream"),
	}
}

// RegisterRoutes mounts the websocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/ws", h.handleWebSocket)
}

type outgoingMessage struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId,omitempty"`
	Data      view.View `json:"data"`
	Timestamp int64     `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.logger.Debug("view stream opened", zap.String("session", session.ID()))
	h.serve(conn, session)
	h.logger.Debug("view stream closed", zap.String("session", session.ID()))
}

func (h *Handler) serve(conn *websocket.Conn, session *chatService.Session) {
	defer conn.Close()

	changes, cancel := session.Changes()
	defer cancel()

	done := make(chan struct{})
	go readPump(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	if err := h.writeView(conn, session); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case <-changes:
			if err := h.writeView(conn, session); err != nil {
				h.logger.Debug("view write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) writeView(conn *websocket.Conn, session *chatService.Session) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(outgoingMessage{
		Type:      "view",
		SessionID: session.ID(),
		Data:      h.renderer.Render(session.Snapshot()),
		Timestamp: time.Now().UnixMilli(),
	})
}

// readPump drains inbound frames so pongs and close frames are processed.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
