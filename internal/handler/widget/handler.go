package widget

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/chat-widget/internal/config"
	"github.com/zhouzirui/chat-widget/internal/logging"
	"github.com/zhouzirui/chat-widget/internal/model/profile"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Handler serves the widget page for the configured deployment mode.
type Handler struct {
	cfg     config.WidgetConfig
	profile profile.Profile
	logger  *zap.Logger
}

// New creates the page handler.
func New(cfg config.WidgetConfig, p profile.Profile, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:     cfg,
		profile: p,
		logger:  logging.OrNop(logger),
	}
}

// RegisterRoutes mounts the page at the root.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handlePage)
}

type pageData struct {
	Profile  profile.Profile
	Embedded bool
	EmbedURL string
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Profile:  h.profile,
		Embedded: h.cfg.Embedded(),
		EmbedURL: h.cfg.EmbedURL,
	}

	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "page.html", data); err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
