package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

var defaultModels = map[string]string{
	"groq":       "llama-3.3-70b-versatile",
	"openai":     "gpt-4o-mini",
	"openrouter": "meta-llama/llama-3.3-70b-instruct",
	"anthropic":  "claude-sonnet-4-5",
	"ollama":     "llama3.2",
}

type ProviderConfig struct {
	Provider  string `env:"LLM_PROVIDER" envDefault:"groq"`
	Model     string `env:"LLM_MODEL"`
	MaxTokens int    `env:"LLM_MAX_TOKENS"`

	GroqAPIKey  string `env:"GROQ_API_KEY" secret:"true"`
	GroqBaseURL string `env:"GROQ_BASE_URL"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY" secret:"true"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY" secret:"true"`

	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY" secret:"true"`
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL"`

	OllamaBaseURL string `env:"OLLAMA_BASE_URL"`
	OllamaAPIKey  string `env:"OLLAMA_API_KEY" secret:"true"`

	CustomBaseURL string `env:"CUSTOM_OPENAI_BASE_URL"`
	CustomAPIKey  string `env:"CUSTOM_OPENAI_API_KEY" secret:"true"`
}

func ParseProviderConfig() (*ProviderConfig, error) {
	c := &ProviderConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c ProviderConfig) Validate() error {
	switch c.Provider {
	case "groq", "openai", "openrouter", "anthropic":
		if c.GetAPIKey() == "" {
			return fmt.Errorf("provider %s requires an api key", c.Provider)
		}
	case "ollama":
	case "custom":
		if c.CustomBaseURL == "" {
			return fmt.Errorf("provider custom requires CUSTOM_OPENAI_BASE_URL")
		}
		if c.Model == "" {
			return fmt.Errorf("provider custom requires LLM_MODEL")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.Provider)
	}
	return nil
}

func (c ProviderConfig) GetProvider() string {
	return c.Provider
}

func (c ProviderConfig) GetModel() string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModels[c.Provider]
}

func (c ProviderConfig) GetMaxTokens() int {
	return c.MaxTokens
}

func (c ProviderConfig) GetAPIKey() string {
	switch c.Provider {
	case "groq":
		return c.GroqAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "openrouter":
		return c.OpenRouterAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "ollama":
		return c.OllamaAPIKey
	case "custom":
		return c.CustomAPIKey
	}
	return ""
}

func (c ProviderConfig) GetBaseURL() string {
	switch c.Provider {
	case "groq":
		return c.GroqBaseURL
	case "openai":
		return c.OpenAIBaseURL
	case "anthropic":
		return c.AnthropicBaseURL
	case "ollama":
		return c.OllamaBaseURL
	case "custom":
		return c.CustomBaseURL
	}
	return ""
}
