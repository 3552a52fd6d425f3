// Package tokenizer prices history turns for the token budget.
package tokenizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/pkg/log"
)

const (
	Encoding = "cl100k_base"

	// perTurnOverhead covers the message framing tokens chat formats add
	// around every message.
	perTurnOverhead = 3
)

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once
)

func getTokenizer() (*tiktoken.Tiktoken, error) {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding(Encoding)
	})
	return tk, tkErr
}

// roleName is the wire name a turn's role is billed under.
func roleName(r core.Role) string {
	switch r {
	case core.RoleHuman:
		return "user"
	case core.RoleAI:
		return "assistant"
	default:
		return string(r)
	}
}

// NewTiktoken returns a counter backed by the cl100k_base encoding.
func NewTiktoken() (core.TokenCounter, error) {
	enc, err := getTokenizer()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", Encoding, err)
	}

	return func(t core.Turn) int {
		return perTurnOverhead +
			len(enc.Encode(roleName(t.Role), nil, nil)) +
			len(enc.Encode(t.Content, nil, nil))
	}, nil
}

// Approximate prices a turn at one token per four bytes of text. It is only
// used when the BPE ranks cannot be loaded.
func Approximate(t core.Turn) int {
	return perTurnOverhead + ceilDiv(len(roleName(t.Role)), 4) + ceilDiv(len(t.Content), 4)
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

// Default prefers tiktoken and degrades to Approximate with a warning, so
// an offline start still trims.
func Default(ctx context.Context) core.TokenCounter {
	counter, err := NewTiktoken()
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("tiktoken unavailable, using approximate token counter")
		return Approximate
	}
	return counter
}
