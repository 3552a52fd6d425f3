package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/sandevgo/tutorbot/internal/core"
)

const anthropicDefaultMaxTokens = 4096

type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropic disables the SDK's own retries: retrying is the caller's call.
func NewAnthropic(baseURL, apiKey, model string, maxTokens int) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithHeader("User-Agent", core.TutorUserAgent),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (a *Anthropic) Model() string {
	return a.model
}

func (a *Anthropic) Invoke(ctx context.Context, prompt []core.Turn) (core.Turn, error) {
	msg, err := a.client.Messages.New(ctx, a.buildParams(prompt))
	if err != nil {
		return core.Turn{}, classifyAnthropic(ctx, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return core.AITurn(text.String()), nil
}

func (a *Anthropic) InvokeStreaming(ctx context.Context, prompt []core.Turn) (core.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrCancelled, err)
	}
	return &anthropicStream{
		ctx:    ctx,
		stream: a.client.Messages.NewStreaming(ctx, a.buildParams(prompt)),
	}, nil
}

// buildParams lifts system turns into the top-level system field; the
// Messages API has no system role. Tool turns are replayed as user text.
func (a *Anthropic) buildParams(prompt []core.Turn) anthropic.MessageNewParams {
	var system []string
	messages := make([]anthropic.MessageParam, 0, len(prompt))
	for _, t := range prompt {
		switch t.Role {
		case core.RoleSystem:
			system = append(system, t.Content)
		case core.RoleAI:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		Messages:  messages,
		MaxTokens: int64(a.maxTokens),
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{
			{Text: strings.Join(system, "\n\n")},
		}
	}
	return params
}

func classifyAnthropic(ctx context.Context, err error) error {
	var apiErr *anthropic.Error
	if ctx.Err() == nil && errors.As(err, &apiErr) {
		return classifyStatus(apiErr.StatusCode, []byte(apiErr.Error()))
	}
	return classifyTransport(ctx, err)
}

type anthropicStream struct {
	ctx      context.Context
	stream   *ssestream.Stream[anthropic.MessageStreamEventUnion]
	fragment string
	stopped  bool
	err      error
	once     sync.Once
}

func (s *anthropicStream) Next() bool {
	if s.stopped || s.err != nil {
		return false
	}

	for s.stream.Next() {
		event := s.stream.Current()
		switch event.Type {
		case "content_block_delta":
			if event.Delta.Type == "text_delta" && event.Delta.Text != "" {
				s.fragment = event.Delta.Text
				return true
			}
		case "message_stop":
			s.stopped = true
			return false
		}
	}

	if err := s.stream.Err(); err != nil {
		s.err = classifyAnthropic(s.ctx, err)
	} else {
		s.err = fmt.Errorf("%w: stream ended before message_stop", core.ErrUpstreamUnavailable)
	}
	return false
}

func (s *anthropicStream) Fragment() string {
	return s.fragment
}

func (s *anthropicStream) Err() error {
	return s.err
}

func (s *anthropicStream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.stream.Close()
	})
	return err
}
