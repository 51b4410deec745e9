package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatService "github.com/zhouzirui/chat-widget/internal/service/chat"
	"github.com/zhouzirui/chat-widget/internal/view"
	"github.com/zhouzirui/chat-widget/pkg/utils"
)

// Handler exposes chat sessions over HTTP.
type Handler struct {
	chatSvc  *chatService.Service
	renderer view.Renderer
}

// New creates a chat handler.
func New(chatSvc *chatService.Service, renderer view.Renderer) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		renderer: renderer,
	}
}

// RegisterRoutes mounts the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Post("/sessions/{sessionID}/messages", h.handleSubmit)
	r.Delete("/sessions/{sessionID}", h.handleCloseSession)
}

type submitResponse struct {
	Accepted bool      `json:"accepted"`
	View     view.View `json:"view"`
}

// handleCreateSession mounts a new session.
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, h.renderer.Render(session.Snapshot()))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.renderer.Render(session.Snapshot()))
}

// handleSubmit submits the text; blank text or a busy session leaves the transcript alone.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	accepted := session.Submit(payload.Text)
	if !accepted {
		// keep the rejected text in the buffer for the client to retry
		session.SetInput(payload.Text)
	}

	status := http.StatusOK
	if accepted {
		status = http.StatusAccepted
	}
	utils.RespondJSON(w, status, submitResponse{
		Accepted: accepted,
		View:     h.renderer.Render(session.Snapshot()),
	})
}

// handleCloseSession unmounts a session.
func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.CloseSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*chatService.Session, bool) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondSessionError(w, err)
		return nil, false
	}
	return session, true
}

func respondSessionError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, chatService.ErrSessionNotFound) {
		status = http.StatusNotFound
	}
	utils.RespondError(w, status, err.Error())
}
