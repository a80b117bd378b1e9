package chat

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangchainChatter talks to any langchaingo model; NewOpenAIChatter wires the OpenAI one.
type LangchainChatter struct {
	llm llms.Model
}

func NewLangchainChatter(llm llms.Model) *LangchainChatter {
	return &LangchainChatter{llm: llm}
}

func NewOpenAIChatter(apiKey, model string) (*LangchainChatter, error) {
	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	return NewLangchainChatter(llm), nil
}

func (c *LangchainChatter) Reply(ctx context.Context, system string, history []Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(history)+1)
	content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, system))
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	resp, err := c.llm.GenerateContent(ctx, content, llms.WithMaxTokens(maxReplyTokens))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Content, nil
}
