package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskhub/internal/platform/metrics"
	"taskhub/internal/platform/middleware"
	"taskhub/internal/transport/http/shared"
)

// Registrar mounts a handler's routes on a router.
type Registrar interface {
	Register(r chi.Router)
}

// RegistrarFunc adapts a function to the Registrar interface.
type RegistrarFunc func(r chi.Router)

func (f RegistrarFunc) Register(r chi.Router) { f(r) }

// Config carries everything the router needs from main.
type Config struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	JWTValidator middleware.JWTValidator
	CookieName   string
	// Public handlers are mounted without authentication, Protected
	// ones behind RequireAuth.
	Public    []Registrar
	Protected []Registrar
	// Health reports backing-store liveness for /healthz.
	Health func() error
}

// NewRouter assembles the full HTTP surface: operational endpoints,
// the public login route and the authenticated API.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(cfg.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(); err != nil {
				shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(public chi.Router) {
		public.Use(middleware.ContentTypeJSON)
		for _, h := range cfg.Public {
			h.Register(public)
		}
	})

	r.Group(func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		api.Use(middleware.RequireAuth(cfg.JWTValidator, cfg.CookieName, cfg.Logger))
		for _, h := range cfg.Protected {
			h.Register(api)
		}
	})

	return r
}
