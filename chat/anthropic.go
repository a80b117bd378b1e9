package chat

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicChatter struct {
	client anthropic.Client
	model  string
}

func NewAnthropicChatter(apiKey, model string, opts ...option.RequestOption) *AnthropicChatter {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(1)}, opts...)
	return &AnthropicChatter{client: anthropic.NewClient(opts...), model: model}
}

func (c *AnthropicChatter) Reply(ctx context.Context, system string, history []Message) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(history))
	for _, m := range history {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxReplyTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  messages,
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
