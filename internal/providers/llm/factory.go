package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/pkg/log"
)

// NewInvoker creates the ModelInvoker named by cfg. It is called once per
// session, so sessions never share a mutable client.
func NewInvoker(ctx context.Context, cfg core.ProviderConfig) (core.ModelInvoker, error) {
	log.FromCtx(ctx).Debug().
		Str("provider", cfg.GetProvider()).
		Str("model", cfg.GetModel()).
		Msg("creating llm invoker")

	var (
		baseURL   = cfg.GetBaseURL()
		apiKey    = cfg.GetAPIKey()
		model     = cfg.GetModel()
		maxTokens = cfg.GetMaxTokens()
	)

	if model == "" {
		return nil, fmt.Errorf("no model configured for provider %q", cfg.GetProvider())
	}

	switch cfg.GetProvider() {
	case "groq", "":
		return NewGroq(baseURL, apiKey, model, maxTokens), nil
	case "openai":
		return NewOpenAI(baseURL, apiKey, model, maxTokens), nil
	case "openrouter":
		return NewOpenRouter(baseURL, apiKey, model, maxTokens), nil
	case "ollama":
		return NewOllama(baseURL, apiKey, model, maxTokens), nil
	case "custom":
		if baseURL == "" {
			return nil, fmt.Errorf("custom provider requires a base url")
		}
		return NewCustomOpenAI(baseURL, apiKey, model, maxTokens), nil
	case "anthropic":
		return NewAnthropic(baseURL, apiKey, model, maxTokens), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.GetProvider())
	}
}
