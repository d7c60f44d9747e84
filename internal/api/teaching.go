package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/mentor/internal/teaching"
)

type startTeachingRequest struct {
	StudentID      int    `json:"student_id"`
	Topic          string `json:"topic"`
	LearningPlanID int    `json:"learning_plan_id"`
}

type continueTeachingRequest struct {
	SessionID           string          `json:"session_id"`
	StudentResponse     string          `json:"student_response"`
	ConversationHistory []teaching.Turn `json:"conversation_history"`
}

// RegisterTeachingRoutes registers teaching session routes.
func (h *Handler) RegisterTeachingRoutes(r chi.Router) {
	r.Route("/teaching", func(r chi.Router) {
		r.Post("/start", h.StartTeaching)
		r.Post("/continue", h.ContinueTeaching)
		r.Get("/{studentID}/recommendations", h.Recommendations)
	})
}

// StartTeaching opens a teaching session on a topic.
func (h *Handler) StartTeaching(w http.ResponseWriter, r *http.Request) {
	var req startTeachingRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	session, err := h.teaching.Start(r.Context(), req.StudentID, req.Topic, req.LearningPlanID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, session)
}

// ContinueTeaching answers a student reply within a session.
func (h *Handler) ContinueTeaching(w http.ResponseWriter, r *http.Request) {
	var req continueTeachingRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	cont, err := h.teaching.Continue(r.Context(), req.SessionID, req.StudentResponse, req.ConversationHistory)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, cont)
}

// Recommendations suggests what a student should study next.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "studentID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.teaching.Recommendations(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, rec)
}
