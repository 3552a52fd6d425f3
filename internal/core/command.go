package core

import "context"

// CommandScope identifies who issued a slash command and in which session.
type CommandScope struct {
	UserID    string
	SessionID string
}

// CommandResult carries the reply text. A non-empty SessionID tells the
// transport to switch its active session; Detach tells it to drop the
// active session so the next message opens a new one.
type CommandResult struct {
	Text      string
	SessionID string
	Detach    bool
}

type CmdRouter interface {
	Execute(ctx context.Context, scope CommandScope, input string) (CommandResult, bool)
	ListCommands() []Command
}

type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, scope CommandScope, args []string) (CommandResult, error)
}
