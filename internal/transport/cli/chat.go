package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/internal/service/conversation"
	"github.com/sandevgo/tutorbot/pkg/log"
	"github.com/sandevgo/tutorbot/pkg/retry"
)

type Conversation interface {
	Send(ctx context.Context, req conversation.Request) (conversation.Reply, error)
	SendStream(ctx context.Context, req conversation.Request) (*conversation.ReplyStream, error)
}

type Options struct {
	RuntimePath string
	UserID      string
	SessionID   string
	Stream      bool
}

// Chat is an interactive terminal session bound to one user.
type Chat struct {
	conv    Conversation
	router  core.CmdRouter
	retrier *retry.Retrier
	rl      *readline.Instance

	userID    string
	sessionID string
	stream    bool
}

func NewChat(conv Conversation, router core.CmdRouter, opts Options) (*Chat, error) {
	if err := os.MkdirAll(opts.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          UsageStyle.Render(">>> "),
		HistoryFile:     filepath.Join(opts.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	c := newChat(conv, router, opts)
	c.rl = rl
	return c, nil
}

func newChat(conv Conversation, router core.CmdRouter, opts Options) *Chat {
	cfg := retry.NewDefaultConfig()
	cfg.Retryable = core.IsRetryable

	return &Chat{
		conv:      conv,
		router:    router,
		retrier:   retry.NewRetrier(cfg),
		userID:    opts.UserID,
		sessionID: opts.SessionID,
		stream:    opts.Stream,
	}
}

// SessionID is the session the next message goes to. Empty means a new
// one is opened.
func (c *Chat) SessionID() string {
	return c.sessionID
}

func (c *Chat) Run(ctx context.Context) error {
	out := c.rl.Stdout()
	fmt.Fprintln(out, DescStyle.Render("Type /help for commands, 'exit' to quit."))

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if quit := c.Handle(ctx, line, out); quit {
			return nil
		}
	}
}

func (c *Chat) Close() error {
	if c.rl != nil {
		return c.rl.Close()
	}
	return nil
}

// Handle processes one input line and reports whether the chat should end.
func (c *Chat) Handle(ctx context.Context, line string, out io.Writer) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return false
	case "exit", "quit":
		return true
	}

	scope := core.CommandScope{UserID: c.userID, SessionID: c.sessionID}
	if res, ok := c.router.Execute(ctx, scope, line); ok {
		switch {
		case res.SessionID != "":
			c.sessionID = res.SessionID
		case res.Detach:
			c.sessionID = ""
		}
		fmt.Fprintln(out, res.Text)
		return false
	}

	var err error
	if c.stream {
		err = c.sendStream(ctx, line, out)
	} else {
		err = c.send(ctx, line, out)
	}
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("session_id", c.sessionID).Msg("turn failed")
		fmt.Fprintln(out, ErrorStyle.Render("Error: "+err.Error()))
	}
	return false
}

func (c *Chat) request(text string) conversation.Request {
	return conversation.Request{UserID: c.userID, SessionID: c.sessionID, Text: text}
}

func (c *Chat) send(ctx context.Context, text string, out io.Writer) error {
	var reply conversation.Reply
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		reply, err = c.conv.Send(ctx, c.request(text))
		c.adopt(err, out)
		return err
	})
	if err != nil {
		return err
	}

	c.switchTo(reply.SessionID, reply.Created, out)
	fmt.Fprintln(out, reply.Content)
	return nil
}

// sendStream retries only the opening of the stream. Once fragments are
// printed a failure is reported as is.
func (c *Chat) sendStream(ctx context.Context, text string, out io.Writer) error {
	var rs *conversation.ReplyStream
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		rs, err = c.conv.SendStream(ctx, c.request(text))
		c.adopt(err, out)
		return err
	})
	if err != nil {
		return err
	}
	defer rs.Close()

	c.switchTo(rs.SessionID, rs.Created, out)
	for rs.Next() {
		fmt.Fprint(out, rs.Fragment())
	}
	fmt.Fprintln(out)
	return rs.Err()
}

// adopt keeps the session a failed turn opened, so a retry or the next
// line continues it.
func (c *Chat) adopt(err error, out io.Writer) {
	if id, created, ok := conversation.SessionOf(err); ok {
		c.switchTo(id, created, out)
	}
}

func (c *Chat) switchTo(sessionID string, created bool, out io.Writer) {
	if created {
		fmt.Fprintln(out, DescStyle.Render("new session "+sessionID))
	}
	c.sessionID = sessionID
}
