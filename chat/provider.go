package chat

import (
	"fmt"

	"github.com/rpupo63/portfolio-backend/config"
)

// NewChatter builds the provider selected by CHAT_PROVIDER. It returns nil
// without an error when the provider has no API key, which disables chat.
func NewChatter(cfg *config.Config) (Chatter, error) {
	switch cfg.ChatProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, nil
		}
		return NewAnthropicChatter(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	case "openai", "":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		chatter, err := NewOpenAIChatter(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		return chatter, nil
	}
	return nil, fmt.Errorf("unknown chat provider %q", cfg.ChatProvider)
}
