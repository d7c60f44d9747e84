package store

import (
	"context"
	"fmt"

	"github.com/abhisek/mentor/ent"
	"github.com/abhisek/mentor/ent/conversation"
	"github.com/abhisek/mentor/ent/message"
	"github.com/abhisek/mentor/internal/tutor"
)

type conversationRepo struct {
	client *ent.Client
}

func (r *conversationRepo) Create(ctx context.Context, studentID int, topic string) (*Conversation, error) {
	row, err := r.client.Conversation.Create().
		SetStudentID(studentID).
		SetStatus(conversation.StatusActive).
		SetTopic(topic).
		Save(ctx)
	if err != nil {
		return nil, wrap("create conversation", err)
	}
	return entConversationToConversation(row), nil
}

func (r *conversationRepo) Get(ctx context.Context, id int) (*Conversation, error) {
	row, err := r.client.Conversation.Get(ctx, id)
	if err != nil {
		return nil, wrap(fmt.Sprintf("get conversation %d", id), err)
	}
	return entConversationToConversation(row), nil
}

func (r *conversationRepo) ListByStudent(ctx context.Context, studentID int) ([]*Conversation, error) {
	rows, err := r.client.Conversation.Query().
		Where(conversation.StudentID(studentID)).
		Order(ent.Desc(conversation.FieldCreatedAt), ent.Desc(conversation.FieldID)).
		All(ctx)
	if err != nil {
		return nil, wrap("list conversations", err)
	}

	out := make([]*Conversation, 0, len(rows))
	for _, row := range rows {
		out = append(out, entConversationToConversation(row))
	}
	return out, nil
}

func (r *conversationRepo) IncrementTurn(ctx context.Context, id int) (*Conversation, error) {
	row, err := r.client.Conversation.UpdateOneID(id).
		AddTurnCount(1).
		Save(ctx)
	if err != nil {
		return nil, wrap(fmt.Sprintf("increment turn for conversation %d", id), err)
	}
	return entConversationToConversation(row), nil
}

func (r *conversationRepo) SetPhase(ctx context.Context, id int, phase tutor.Phase, hasPlan bool) (*Conversation, error) {
	if !phase.Valid() {
		return nil, fmt.Errorf("set phase: %w: unknown phase %q", ErrInvalid, phase)
	}

	upd := r.client.Conversation.UpdateOneID(id).
		SetStatus(conversation.Status(phase))
	if hasPlan {
		upd.SetHasLearningPlan(true)
	}

	row, err := upd.Save(ctx)
	if err != nil {
		return nil, wrap(fmt.Sprintf("set phase for conversation %d", id), err)
	}
	return entConversationToConversation(row), nil
}

func (r *conversationRepo) SetSummary(ctx context.Context, id int, summary string) error {
	err := r.client.Conversation.UpdateOneID(id).
		SetSummary(summary).
		Exec(ctx)
	if err != nil {
		return wrap(fmt.Sprintf("set summary for conversation %d", id), err)
	}
	return nil
}

func (r *conversationRepo) AppendMessage(ctx context.Context, m *Message) (*Message, error) {
	create := r.client.Message.Create().
		SetConversationID(m.ConversationID).
		SetRole(message.Role(m.Role)).
		SetContent(m.Content)
	if m.Metadata != nil {
		create.SetMetadata(m.Metadata)
	}

	row, err := create.Save(ctx)
	if err != nil {
		return nil, wrap("append message", err)
	}
	return entMessageToMessage(row), nil
}

func (r *conversationRepo) Messages(ctx context.Context, conversationID int) ([]*Message, error) {
	rows, err := r.client.Message.Query().
		Where(message.ConversationID(conversationID)).
		Order(ent.Asc(message.FieldCreatedAt), ent.Asc(message.FieldID)).
		All(ctx)
	if err != nil {
		return nil, wrap("list messages", err)
	}

	out := make([]*Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, entMessageToMessage(row))
	}
	return out, nil
}

func entConversationToConversation(c *ent.Conversation) *Conversation {
	return &Conversation{
		ID:              c.ID,
		StudentID:       c.StudentID,
		Status:          tutor.Phase(c.Status),
		TurnCount:       c.TurnCount,
		HasLearningPlan: c.HasLearningPlan,
		Topic:           c.Topic,
		Summary:         c.Summary,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func entMessageToMessage(m *ent.Message) *Message {
	return &Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           tutor.Role(m.Role),
		Content:        m.Content,
		Metadata:       m.Metadata,
		CreatedAt:      m.CreatedAt,
	}
}
