package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/chat-widget/internal/model/profile"
	"github.com/zhouzirui/chat-widget/pkg/utils"
)

// Handler serves the widget branding.
type Handler struct {
	profile profile.Profile
}

// New creates a profile handler.
func New(p profile.Profile) *Handler {
	return &Handler{profile: p}
}

// RegisterRoutes mounts the profile route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", h.handleGetProfile)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.profile)
}
