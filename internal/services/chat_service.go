// Package services – ChatService
//
// ChatService answers messages with the scripted assistant and keeps the
// exchange history per user. Replies never fail: when no rule or FAQ entry
// applies the assistant points to support.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/planora/planora-backend/internal/chatbot"
	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repo"
)

const (
	// chatHistoryLimit caps the history returned to a client.
	chatHistoryLimit = 50
	// DefaultMaxMessageRunes caps an incoming message.
	DefaultMaxMessageRunes = 2000
)

// Replier produces the assistant's answer.
type Replier interface {
	Reply(message string) chatbot.Reply
}

// ChatService persists chat exchanges.
type ChatService struct {
	Messages       repo.DocumentStore[domain.ChatMessage]
	Bot            Replier
	MaxPromptRunes int
}

// Send answers message and stores both sides. contextType, when set by the
// client, is stored instead of the reply's own source.
func (s *ChatService) Send(ctx context.Context, userID, message, contextType string) (*domain.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, invalid("message is empty")
	}
	limit := s.MaxPromptRunes
	if limit <= 0 {
		limit = DefaultMaxMessageRunes
	}
	if utf8.RuneCountInString(message) > limit {
		return nil, invalid("message longer than %d characters", limit)
	}

	reply := s.Bot.Reply(message)
	ct := strings.TrimSpace(contextType)
	if ct == "" {
		ct = reply.ContextType
	}
	m := &domain.ChatMessage{
		UserID:      userID,
		Message:     message,
		Response:    reply.Text,
		ContextType: ct,
	}
	if _, err := s.Messages.Add(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// History returns up to the first fifty exchanges of the caller, oldest
// first.
func (s *ChatService) History(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	return s.Messages.Query(ctx, repo.Query{
		Filters: []repo.Filter{repo.Eq("user_id", userID)},
		Limit:   chatHistoryLimit,
	})
}
