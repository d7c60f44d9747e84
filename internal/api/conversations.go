package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/mentor/internal/store"
)

type startConversationRequest struct {
	StudentID      int    `json:"student_id"`
	InitialMessage string `json:"initial_message"`
	Topic          string `json:"topic"`
}

type continueConversationRequest struct {
	Message string `json:"message"`
}

type conversationListResponse struct {
	Conversations []*store.Conversation `json:"conversations"`
	Total         int                   `json:"total"`
}

// RegisterConversationRoutes registers assessment dialogue routes.
func (h *Handler) RegisterConversationRoutes(r chi.Router) {
	r.Route("/conversations", func(r chi.Router) {
		r.Post("/start", h.StartConversation)
		r.Get("/student/{id}", h.StudentConversations)
		r.Post("/{id}/continue", h.ContinueConversation)
		r.Get("/{id}/history", h.ConversationHistory)
		r.Post("/{id}/archive", h.ArchiveConversation)
	})
}

// StartConversation opens an assessment dialogue.
func (h *Handler) StartConversation(w http.ResponseWriter, r *http.Request) {
	var req startConversationRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	reply, err := h.conversations.Start(r.Context(), req.StudentID, req.InitialMessage, req.Topic)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, reply)
}

// ContinueConversation records a reply and advances the dialogue.
func (h *Handler) ContinueConversation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req continueConversationRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	reply, err := h.conversations.Continue(r.Context(), id, req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, reply)
}

// ConversationHistory returns the transcript in order.
func (h *Handler) ConversationHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	history, err := h.conversations.History(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, history)
}

// ArchiveConversation closes a dialogue for good.
func (h *Handler) ArchiveConversation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	conv, err := h.conversations.Archive(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, conv)
}

// StudentConversations lists a student's conversations, newest first.
func (h *Handler) StudentConversations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	convs, err := h.conversations.ListForStudent(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, conversationListResponse{Conversations: convs, Total: len(convs)})
}
