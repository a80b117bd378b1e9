// Package chat answers visitor questions on the site through a hosted language model.
package chat

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/errs"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	MaxMessages      = 40
	MaxContentLength = 4000
	maxReplyTokens   = 1024
)

// DefaultSystemPrompt is used when CHAT_SYSTEM_PROMPT is unset.
const DefaultSystemPrompt = "You are the assistant of a personal portfolio site. " +
	"Answer questions about the site owner's projects, research, writing and skills. " +
	"Keep answers short and say so when you do not know."

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Chatter produces the next assistant message for a conversation. The system
// prompt is passed separately from the history.
type Chatter interface {
	Reply(ctx context.Context, system string, history []Message) (string, error)
}

type Reply struct {
	ID      string `json:"id"`
	Content string `json:"reply"`
}

type Service struct {
	chatter Chatter
	system  string
}

func NewService(chatter Chatter, systemPrompt string) *Service {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Service{chatter: chatter, system: systemPrompt}
}

// Validate checks a conversation before it is sent to the provider.
func Validate(history []Message) error {
	if len(history) == 0 {
		return errs.NewMissingRequiredFieldError("messages")
	}
	if len(history) > MaxMessages {
		return errs.NewInvalidFieldError("messages", fmt.Sprintf("at most %d messages are allowed", MaxMessages))
	}
	fields := map[string]string{}
	for i, m := range history {
		key := fmt.Sprintf("messages[%d]", i)
		switch {
		case m.Role != RoleUser && m.Role != RoleAssistant:
			fields[key] = "role must be user or assistant"
		case strings.TrimSpace(m.Content) == "":
			fields[key] = "content is required"
		case utf8.RuneCountInString(m.Content) > MaxContentLength:
			fields[key] = fmt.Sprintf("content must be at most %d characters", MaxContentLength)
		}
	}
	if len(fields) > 0 {
		return errs.NewValidationError(fields)
	}
	if history[len(history)-1].Role != RoleUser {
		return errs.NewInvalidFieldError("messages", "the last message must come from the user")
	}
	return nil
}

// Reply validates history and asks the provider for the next message.
// Provider failures surface as a 502 with a generic message.
func (s *Service) Reply(ctx context.Context, history []Message) (*Reply, error) {
	if s == nil || s.chatter == nil {
		return nil, errs.NewServiceUnavailableError("chat")
	}
	if err := Validate(history); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	content, err := s.chatter.Reply(ctx, s.system, history)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error().Err(err).Str("chatId", id).Int("messages", len(history)).Msg("chat provider failed")
		return nil, errs.NewUpstreamError("chat", err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		log.Warn().Str("chatId", id).Msg("chat provider returned an empty reply")
		return nil, errs.NewUpstreamError("chat", fmt.Errorf("empty reply"))
	}
	return &Reply{ID: id, Content: content}, nil
}
