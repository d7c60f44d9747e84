package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the HTTP router with global middleware and every route.
func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(RequestLogger(h.log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(Instrument(h.metrics))
	if d.RequestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(d.RequestTimeout))
	}

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		h.RegisterStudentRoutes(r)
		h.RegisterConversationRoutes(r)
		h.RegisterTeachingRoutes(r)
		h.RegisterMaterialRoutes(r)
	})

	return r
}
