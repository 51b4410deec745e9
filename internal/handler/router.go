package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/zhouzirui/chat-widget/internal/config"
	"github.com/zhouzirui/chat-widget/internal/handler/chat"
	"github.com/zhouzirui/chat-widget/internal/handler/endpoint"
	profileHandler "github.com/zhouzirui/chat-widget/internal/handler/profile"
	"github.com/zhouzirui/chat-widget/internal/handler/stream"
	"github.com/zhouzirui/chat-widget/internal/handler/widget"
	"github.com/zhouzirui/chat-widget/internal/logging"
	"github.com/zhouzirui/chat-widget/internal/model/profile"
	chatService "github.com/zhouzirui/chat-widget/internal/service/chat"
	"github.com/zhouzirui/chat-widget/internal/view"
	"github.com/zhouzirui/chat-widget/pkg/utils"
)

// Deps groups what the router needs. ChatSvc may be nil in embed mode;
// Assistant may be nil when no model is configured.
type Deps struct {
	Server    config.ServerConfig
	Widget    config.WidgetConfig
	Profile   profile.Profile
	ChatSvc   *chatService.Service
	Renderer  view.Renderer
	Assistant chatService.Responder
	Logger    *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := logging.OrNop(deps.Logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: deps.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"mode":   deps.Widget.Mode,
		})
	})

	widget.New(deps.Widget, deps.Profile, logger).RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		profileHandler.New(deps.Profile).RegisterRoutes(api)

		// the reference endpoint is served in both modes
		endpoint.New(deps.Assistant, logger).RegisterRoutes(api)

		// in embed mode the hosted iframe owns the conversation
		if deps.Widget.Embedded() || deps.ChatSvc == nil {
			return
		}
		chat.New(deps.ChatSvc, deps.Renderer).RegisterRoutes(api)
		stream.New(deps.ChatSvc, deps.Renderer, logger).RegisterRoutes(api)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestId", middleware.GetReqID(r.Context())))
		})
	}
}
