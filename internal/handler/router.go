package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mait-chat/backend/internal/handler/chat"
	"github.com/mait-chat/backend/internal/handler/persona"
	"github.com/mait-chat/backend/internal/handler/reply"
	"github.com/mait-chat/backend/internal/handler/stream"
	"github.com/mait-chat/backend/internal/handler/ws"
	middlewarePkg "github.com/mait-chat/backend/internal/middleware"
	personaModel "github.com/mait-chat/backend/internal/model/persona"
	chatService "github.com/mait-chat/backend/internal/service/chat"
	"github.com/mait-chat/backend/pkg/utils"
)

// Deps are the services the router exposes. Replier may be nil, in which
// case the reply endpoint is not mounted.
type Deps struct {
	Personas       personaModel.Store
	Chat           *chatService.Service
	Replier        reply.Replier
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		persona.New(deps.Personas).RegisterRoutes(api)
		chat.New(deps.Chat, logger.Named("chat")).RegisterRoutes(api)
		stream.New(deps.Chat, logger.Named("stream")).RegisterRoutes(api)
		ws.New(deps.Chat, originChecker(deps.AllowedOrigins), logger.Named("ws")).RegisterRoutes(api)

		if deps.Replier != nil {
			reply.New(deps.Replier, logger.Named("reply")).RegisterRoutes(api)
		}
	})

	return r
}

// originChecker mirrors the CORS allow list for WebSocket upgrades.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		// Same-origin pages are always fine.
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
