package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/mentor/internal/rag"
	"github.com/abhisek/mentor/internal/store"
)

const (
	defaultMaterialK = 5
	maxMaterialK     = 20
)

type materialRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Level   string `json:"level"`
	Source  string `json:"source"`
}

type materialResponse struct {
	MaterialID string `json:"material_id"`
	Chunks     int    `json:"chunks"`
}

type materialSearchResponse struct {
	Results []rag.MaterialHit `json:"results"`
	Total   int               `json:"total"`
}

// RegisterMaterialRoutes registers teaching material routes.
func (h *Handler) RegisterMaterialRoutes(r chi.Router) {
	r.Route("/materials", func(r chi.Router) {
		r.Post("/", h.AddMaterial)
		r.Get("/search", h.SearchMaterials)
	})
}

// AddMaterial indexes a teaching material.
func (h *Handler) AddMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		h.fail(w, r, fmt.Errorf("%w: content is required", store.ErrInvalid))
		return
	}

	metadata := map[string]string{}
	for k, v := range map[string]string{
		"title":   req.Title,
		"subject": req.Subject,
		"level":   req.Level,
		"source":  req.Source,
	} {
		if v != "" {
			metadata[k] = v
		}
	}

	id, chunks, err := h.materials.StoreTeachingMaterial(r.Context(), req.ID, req.Content, metadata)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.zlog.Info().Str("material_id", id).Int("chunks", chunks).Msg("teaching material stored")
	JSON(w, http.StatusCreated, materialResponse{MaterialID: id, Chunks: chunks})
}

// SearchMaterials finds material chunks similar to a query.
func (h *Handler) SearchMaterials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		h.fail(w, r, fmt.Errorf("%w: q is required", store.ErrInvalid))
		return
	}
	k, err := queryInt(r, "k", defaultMaterialK)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if k < 1 || k > maxMaterialK {
		h.fail(w, r, fmt.Errorf("%w: k must be between 1 and %d", store.ErrInvalid, maxMaterialK))
		return
	}

	hits, err := h.materials.SearchTeachingMaterials(r.Context(), query, q.Get("subject"), q.Get("level"), k)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if hits == nil {
		hits = []rag.MaterialHit{}
	}
	JSON(w, http.StatusOK, materialSearchResponse{Results: hits, Total: len(hits)})
}
