// Package api exposes the tutoring services over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/abhisek/mentor/internal/conversation"
	"github.com/abhisek/mentor/internal/logger"
	"github.com/abhisek/mentor/internal/metrics"
	"github.com/abhisek/mentor/internal/rag"
	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/students"
	"github.com/abhisek/mentor/internal/teaching"
	"github.com/abhisek/mentor/internal/tutor"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Materials stores and searches teaching materials.
type Materials interface {
	StoreTeachingMaterial(ctx context.Context, id, content string, metadata map[string]string) (string, int, error)
	SearchTeachingMaterials(ctx context.Context, query, subject, level string, k int) ([]rag.MaterialHit, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the HTTP layer dispatches to.
type Deps struct {
	Students      *students.Service
	Conversations *conversation.Service
	Teaching      *teaching.Service
	Materials     Materials
	DB            Pinger
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer // served on /metrics when set
	Logger        *logger.Logger

	// RequestTimeout bounds each request; zero disables it.
	RequestTimeout time.Duration
}

// Handler holds the dependencies shared by all endpoints.
type Handler struct {
	students      *students.Service
	conversations *conversation.Service
	teaching      *teaching.Service
	materials     Materials
	db            Pinger
	metrics       *metrics.Metrics
	gatherer      prometheus.Gatherer
	log           *logger.Logger
	zlog          zerolog.Logger
}

// NewHandler creates a Handler. A nil logger discards output.
func NewHandler(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		students:      d.Students,
		conversations: d.Conversations,
		teaching:      d.Teaching,
		materials:     d.Materials,
		db:            d.DB,
		metrics:       d.Metrics,
		gatherer:      d.Gatherer,
		log:           log,
		zlog:          log.Component("api"),
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	var genErr *tutor.GenerationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, store.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.As(err, &genErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Internal errors are logged and hidden
// from the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		h.zlog.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal server error"
	case status >= http.StatusBadGateway:
		h.zlog.Warn().Err(err).Str("path", r.URL.Path).Msg("upstream failure")
	}
	Error(w, status, msg)
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", store.ErrInvalid)
		}
		return fmt.Errorf("%w: malformed request body: %v", store.ErrInvalid, err)
	}
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", store.ErrInvalid, name, raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", store.ErrInvalid, name)
	}
	return n, nil
}

// Root greets API clients.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"message": "欢迎使用教育智能体系统"})
}

// Health reports service health, including database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.zlog.Error().Err(err).Msg("health check: database unreachable")
			JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
