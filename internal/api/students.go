package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/students"
)

// studentRequest is the body of a create request.
type studentRequest struct {
	Name           string         `json:"name"`
	Age            *int           `json:"age"`
	Grade          string         `json:"grade"`
	Interests      []string       `json:"interests"`
	Background     string         `json:"background"`
	LearningGoals  string         `json:"learning_goals"`
	LearningStyle  string         `json:"learning_style"`
	KnowledgeLevel map[string]any `json:"knowledge_level"`
}

type searchResponse struct {
	Students []*store.Student `json:"students"`
	Total    int              `json:"total"`
}

// RegisterStudentRoutes registers student profile routes.
func (h *Handler) RegisterStudentRoutes(r chi.Router) {
	r.Route("/students", func(r chi.Router) {
		r.Post("/", h.CreateStudent)
		r.Get("/", h.ListStudents)
		r.Get("/search", h.SearchStudents)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetStudent)
			r.Put("/", h.UpdateStudent)
			r.Delete("/", h.DeleteStudent)
			r.Get("/similar", h.SimilarStudents)
			r.Get("/plans", h.StudentPlans)
		})
	})
}

// CreateStudent creates a student profile.
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	st, err := h.students.Create(r.Context(), &store.Student{
		Name:           req.Name,
		Age:            req.Age,
		Grade:          req.Grade,
		Interests:      req.Interests,
		Background:     req.Background,
		LearningGoals:  req.LearningGoals,
		LearningStyle:  req.LearningStyle,
		KnowledgeLevel: req.KnowledgeLevel,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, st)
}

// ListStudents returns a page of students.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", students.DefaultLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := h.students.List(r.Context(), skip, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, page)
}

// SearchStudents fuzzy-matches student names.
func (h *Handler) SearchStudents(w http.ResponseWriter, r *http.Request) {
	found, err := h.students.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, searchResponse{Students: found, Total: len(found)})
}

// GetStudent returns one student.
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.students.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, st)
}

// UpdateStudent applies a partial update.
func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var u store.StudentUpdate
	if err := decode(w, r, &u); err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.students.Update(r.Context(), id, u)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, st)
}

// DeleteStudent removes a student and everything that belongs to them.
func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.students.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": "学生档案已删除"})
}

// SimilarStudents returns the peers closest to a student's profile.
func (h *Handler) SimilarStudents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	k, err := queryInt(r, "k", students.DefaultSimilarK)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	similar, err := h.students.Similar(r.Context(), id, k)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, similar)
}

// StudentPlans lists a student's learning plans, newest first.
func (h *Handler) StudentPlans(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	plans, err := h.students.Plans(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"plans": plans, "total": len(plans)})
}
