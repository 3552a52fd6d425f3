package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/internal/storage/memory"
)

func fixedCost(n int) core.TokenCounter {
	return func(core.Turn) int { return n }
}

type convConfig struct {
	budget int
	policy string
}

func (c convConfig) GetTokenBudget() int           { return c.budget }
func (c convConfig) GetBusyPolicy() string         { return c.policy }
func (c convConfig) GetIdleTimeout() time.Duration { return time.Minute }

type staticPrompt string

func (s staticPrompt) Render() string { return string(s) }

// fakeInvoker echoes the last human turn unless reply is set.
type fakeInvoker struct {
	mu      sync.Mutex
	prompts [][]core.Turn
	reply   func(ctx context.Context, prompt []core.Turn) (core.Turn, error)
	stream  func(ctx context.Context, prompt []core.Turn) (core.Stream, error)
}

func (f *fakeInvoker) Invoke(ctx context.Context, prompt []core.Turn) (core.Turn, error) {
	f.record(prompt)
	if f.reply != nil {
		return f.reply(ctx, prompt)
	}
	return core.AITurn("re: " + prompt[len(prompt)-1].Content), nil
}

func (f *fakeInvoker) InvokeStreaming(ctx context.Context, prompt []core.Turn) (core.Stream, error) {
	f.record(prompt)
	if f.stream != nil {
		return f.stream(ctx, prompt)
	}
	return &fakeStream{fragments: []string{"re: ", prompt[len(prompt)-1].Content}}, nil
}

func (f *fakeInvoker) Model() string { return "fake-model" }

func (f *fakeInvoker) record(prompt []core.Turn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
}

func (f *fakeInvoker) lastPrompt() []core.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return nil
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeStream struct {
	fragments []string
	pos       int
	cur       string
	err       error
	closed    bool
}

func (s *fakeStream) Next() bool {
	if s.closed || s.pos >= len(s.fragments) {
		return false
	}
	s.cur = s.fragments[s.pos]
	s.pos++
	return true
}

func (s *fakeStream) Fragment() string { return s.cur }

func (s *fakeStream) Err() error {
	if s.pos >= len(s.fragments) {
		return s.err
	}
	return nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

var errBoom = errors.New("boom")

type fixture struct {
	store     *memory.Store
	invoker   *fakeInvoker
	conv      *Conversation
	factories int
	mu        sync.Mutex
}

func newFixture(budget int, policy string) *fixture {
	f := &fixture{
		store:   memory.New(),
		invoker: &fakeInvoker{},
	}
	factory := func(ctx context.Context) (core.ModelInvoker, error) {
		f.mu.Lock()
		f.factories++
		f.mu.Unlock()
		return f.invoker, nil
	}
	f.conv = New(f.store, f.store, factory, staticPrompt("sys"), fixedCost(10), convConfig{budget: budget, policy: policy})
	return f
}

func (f *fixture) history(sessionID string) []core.Turn {
	turns, _ := f.store.Read(context.Background(), sessionID)
	return turns
}
