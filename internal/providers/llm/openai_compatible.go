package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/pkg/log"
)

// OpenAICompatible speaks the /v1/chat/completions dialect shared by Groq,
// OpenAI, OpenRouter, Ollama and most self-hosted gateways.
type OpenAICompatible struct {
	baseProvider
	authHeader   string
	authPrefix   string
	extraHeaders map[string]string
}

type OpenAICompatibleConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	MaxTokens    int
	AuthHeader   string // e.g., "Authorization"
	AuthPrefix   string // e.g., "Bearer "
	ExtraHeaders map[string]string
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	return &OpenAICompatible{
		baseProvider: newBaseProvider(strings.TrimRight(cfg.BaseURL, "/"), cfg.APIKey, cfg.Model, cfg.MaxTokens),
		authHeader:   cfg.AuthHeader,
		authPrefix:   cfg.AuthPrefix,
		extraHeaders: cfg.ExtraHeaders,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream,omitempty"`
}

// openAIRole maps history roles onto chat-completions roles. Tool turns carry
// no tool_call_id in a plain history, so they are replayed as user text.
func openAIRole(r core.Role) string {
	switch r {
	case core.RoleSystem:
		return "system"
	case core.RoleAI:
		return "assistant"
	default:
		return "user"
	}
}

func (o *OpenAICompatible) buildRequest(prompt []core.Turn, stream bool) chatRequest {
	messages := make([]chatMessage, 0, len(prompt))
	for _, t := range prompt {
		messages = append(messages, chatMessage{Role: openAIRole(t.Role), Content: t.Content})
	}
	return chatRequest{
		Model:     o.model,
		Messages:  messages,
		MaxTokens: o.maxTokens,
		Stream:    stream,
	}
}

func (o *OpenAICompatible) headers() map[string]string {
	headers := make(map[string]string, len(o.extraHeaders)+1)
	if o.authHeader != "" && o.apiKey != "" {
		headers[o.authHeader] = o.authPrefix + o.apiKey
	}
	for k, v := range o.extraHeaders {
		headers[k] = v
	}
	return headers
}

func (o *OpenAICompatible) Invoke(ctx context.Context, prompt []core.Turn) (core.Turn, error) {
	resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", o.buildRequest(prompt, false), o.headers())
	if err != nil {
		return core.Turn{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Turn{}, classifyTransport(ctx, err)
	}

	var result struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return core.Turn{}, fmt.Errorf("%w: decode: %w", core.ErrUpstreamUnavailable, err)
	}
	if len(result.Choices) == 0 {
		return core.Turn{}, fmt.Errorf("%w: empty choices: %s", core.ErrUpstreamRejected, string(data))
	}

	log.FromCtx(ctx).Debug().
		Str("model", o.model).
		Int("reply_len", len(result.Choices[0].Message.Content)).
		Msg("llm reply received")

	return core.AITurn(result.Choices[0].Message.Content), nil
}

func (o *OpenAICompatible) InvokeStreaming(ctx context.Context, prompt []core.Turn) (core.Stream, error) {
	headers := o.headers()
	headers["Accept"] = "text/event-stream"

	resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", o.buildRequest(prompt, true), headers)
	if err != nil {
		return nil, err
	}
	return newSSEStream(ctx, resp.Body), nil
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// sseStream reads "data:" lines until the [DONE] sentinel. A body that ends
// without a finish_reason or sentinel is reported as a truncated reply.
type sseStream struct {
	ctx      context.Context
	body     io.ReadCloser
	scanner  *bufio.Scanner
	fragment string
	finished bool
	done     bool
	err      error
	once     sync.Once
}

func newSSEStream(ctx context.Context, body io.ReadCloser) *sseStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseStream{ctx: ctx, body: body, scanner: scanner}
}

func (s *sseStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for s.scanner.Scan() {
		data, ok := strings.CutPrefix(strings.TrimSpace(s.scanner.Text()), "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			s.done = true
			return false
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			s.err = fmt.Errorf("%w: decode chunk: %w", core.ErrUpstreamUnavailable, err)
			return false
		}
		if chunk.Error != nil {
			s.err = fmt.Errorf("%w: %s", core.ErrUpstreamUnavailable, chunk.Error.Message)
			return false
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			s.finished = true
		}
		if choice.Delta.Content == "" {
			continue
		}
		s.fragment = choice.Delta.Content
		return true
	}

	switch {
	case s.scanner.Err() != nil:
		s.err = classifyTransport(s.ctx, s.scanner.Err())
	case s.ctx.Err() != nil:
		s.err = fmt.Errorf("%w: %w", core.ErrCancelled, s.ctx.Err())
	case s.finished:
		s.done = true
	default:
		s.err = fmt.Errorf("%w: stream ended before completion", core.ErrUpstreamUnavailable)
	}
	return false
}

func (s *sseStream) Fragment() string {
	return s.fragment
}

func (s *sseStream) Err() error {
	return s.err
}

func (s *sseStream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.body.Close()
	})
	return err
}
