package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/tutorbot/internal/core"
)

type NewCommand struct {
	sessions  Sessions
	formatter *ResponseFormatter
}

func NewNewCommand(sessions Sessions) *NewCommand {
	return &NewCommand{sessions: sessions, formatter: NewResponseFormatter()}
}

func (c *NewCommand) Name() string {
	return "new"
}

func (c *NewCommand) Description() string {
	return "Start a fresh conversation"
}

func (c *NewCommand) Execute(ctx context.Context, scope core.CommandScope, args []string) (core.CommandResult, error) {
	id, err := c.sessions.NewSession(ctx, scope.UserID)
	if err != nil {
		return core.CommandResult{}, err
	}
	return core.CommandResult{
		Text:      c.formatter.Success(fmt.Sprintf("New session `%s`", id)),
		SessionID: id,
	}, nil
}

// SessionCommand shows the active session or switches to one of the user's
// sessions.
type SessionCommand struct {
	sessions  Sessions
	formatter *ResponseFormatter
}

func NewSessionCommand(sessions Sessions) *SessionCommand {
	return &SessionCommand{sessions: sessions, formatter: NewResponseFormatter()}
}

func (c *SessionCommand) Name() string {
	return "session"
}

func (c *SessionCommand) Description() string {
	return "Show or switch the active session"
}

func (c *SessionCommand) Execute(ctx context.Context, scope core.CommandScope, args []string) (core.CommandResult, error) {
	if len(args) == 0 {
		active := scope.SessionID
		if active == "" {
			active = "none yet"
		}
		return core.CommandResult{Text: c.formatter.Combine(
			c.formatter.Label("Session", active),
			c.formatter.Usage("/session <id>"),
		)}, nil
	}

	id := args[0]
	if _, err := c.sessions.History(ctx, scope.UserID, id); err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			return core.CommandResult{}, fmt.Errorf("no session %s", id)
		}
		return core.CommandResult{}, err
	}
	return core.CommandResult{
		Text:      c.formatter.Success(fmt.Sprintf("Switched to session `%s`", id)),
		SessionID: id,
	}, nil
}

type SessionsCommand struct {
	sessions  Sessions
	formatter *ResponseFormatter
}

func NewSessionsCommand(sessions Sessions) *SessionsCommand {
	return &SessionsCommand{sessions: sessions, formatter: NewResponseFormatter()}
}

func (c *SessionsCommand) Name() string {
	return "sessions"
}

func (c *SessionsCommand) Description() string {
	return "List your sessions, newest first"
}

func (c *SessionsCommand) Execute(ctx context.Context, scope core.CommandScope, args []string) (core.CommandResult, error) {
	list, err := c.sessions.ListSessions(ctx, scope.UserID)
	if err != nil {
		return core.CommandResult{}, err
	}
	if len(list) == 0 {
		return core.CommandResult{Text: "No sessions yet. Just ask a question to start one."}, nil
	}

	items := make([]string, 0, len(list))
	for _, s := range list {
		marker := ""
		if s.ID == scope.SessionID {
			marker = " (active)"
		}
		items = append(items, fmt.Sprintf("`%s` %s%s", s.ID, s.CreatedAt.Local().Format(time.DateTime), marker))
	}
	return core.CommandResult{Text: c.formatter.Combine(
		c.formatter.Info("Sessions"),
		c.formatter.List(items),
	)}, nil
}

type DeleteCommand struct {
	sessions  Sessions
	formatter *ResponseFormatter
}

func NewDeleteCommand(sessions Sessions) *DeleteCommand {
	return &DeleteCommand{sessions: sessions, formatter: NewResponseFormatter()}
}

func (c *DeleteCommand) Name() string {
	return "delete"
}

func (c *DeleteCommand) Description() string {
	return "Delete a session and its history"
}

func (c *DeleteCommand) Execute(ctx context.Context, scope core.CommandScope, args []string) (core.CommandResult, error) {
	if len(args) != 1 {
		return core.CommandResult{Text: c.formatter.Usage("/delete <id>")}, nil
	}
	if err := c.sessions.DeleteSession(ctx, scope.UserID, args[0]); err != nil {
		return core.CommandResult{}, err
	}

	result := core.CommandResult{Text: c.formatter.Success(fmt.Sprintf("Deleted session `%s`", args[0]))}
	if args[0] == scope.SessionID {
		result.Detach = true
		result.Text += "The next message starts a new session.\n"
	}
	return result, nil
}
