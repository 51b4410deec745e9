// Package endpoint serves a reference implementation of the external chat endpoint
// so a widget deployment can point CHAT_API_ENDPOINT at itself.
package endpoint

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/chat-widget/internal/logging"
	"github.com/zhouzirui/chat-widget/internal/model/chat"
	chatService "github.com/zhouzirui/chat-widget/internal/service/chat"
	"github.com/zhouzirui/chat-widget/pkg/utils"
)

// Handler answers {message, sessionId} requests with a single reply.
type Handler struct {
	responder chatService.Responder
	logger    *zap.Logger
}

// New creates the endpoint handler. A nil responder makes every request fail with 503.
func New(responder chatService.Responder, logger *zap.Logger) *Handler {
	return &Handler{
		responder: responder,
		logger:    logging.OrNop(logger).Named("endpoint"),
	}
}

// RegisterRoutes mounts the reference endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/assistant/chat", h.handleChat)
}

type replyResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.responder == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "assistant unavailable")
		return
	}

	var req chat.SessionRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.responder.Reply(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to generate reply", zap.String("sessionId", req.SessionID), zap.Error(err))
		utils.RespondError(w, http.StatusBadGateway, "failed to generate reply")
		return
	}

	utils.RespondJSON(w, http.StatusOK, replyResponse{Message: reply, SessionID: req.SessionID})
}
