package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerConfig struct {
	provider, model, key, baseURL string
}

func (p providerConfig) GetProvider() string { return p.provider }
func (p providerConfig) GetModel() string    { return p.model }
func (p providerConfig) GetAPIKey() string   { return p.key }
func (p providerConfig) GetBaseURL() string  { return p.baseURL }
func (p providerConfig) GetMaxTokens() int   { return 0 }

func TestNewInvoker(t *testing.T) {
	tests := []struct {
		name    string
		cfg     providerConfig
		wantURL string
		wantErr bool
	}{
		{name: "groq default", cfg: providerConfig{provider: "groq", model: "llama-3.3-70b-versatile"}, wantURL: groqBaseURL},
		{name: "empty means groq", cfg: providerConfig{model: "m"}, wantURL: groqBaseURL},
		{name: "openai", cfg: providerConfig{provider: "openai", model: "gpt-4o-mini"}, wantURL: openAIBaseURL},
		{name: "openrouter", cfg: providerConfig{provider: "openrouter", model: "m"}, wantURL: openRouterBaseURL},
		{name: "ollama override", cfg: providerConfig{provider: "ollama", model: "m", baseURL: "http://gpu:11434/"}, wantURL: "http://gpu:11434"},
		{name: "custom needs url", cfg: providerConfig{provider: "custom", model: "m"}, wantErr: true},
		{name: "missing model", cfg: providerConfig{provider: "openai"}, wantErr: true},
		{name: "unknown", cfg: providerConfig{provider: "nope", model: "m"}, wantErr: true},
		{name: "anthropic", cfg: providerConfig{provider: "anthropic", model: "claude-sonnet-4-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := NewInvoker(context.Background(), tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.model, inv.Model())

			if tt.wantURL != "" {
				oc, ok := inv.(*OpenAICompatible)
				require.True(t, ok)
				assert.Equal(t, tt.wantURL, oc.baseURL)
			}
		})
	}
}

func TestOpenRouterHeaders(t *testing.T) {
	h := NewOpenRouter("", "key", "m", 0).headers()
	assert.Equal(t, "Bearer key", h["Authorization"])
	assert.NotEmpty(t, h["HTTP-Referer"])
	assert.NotEmpty(t, h["X-Title"])
}
