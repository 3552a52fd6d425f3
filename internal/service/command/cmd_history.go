package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sandevgo/tutorbot/internal/core"
)

const defaultHistoryLimit = 10

type HistoryCommand struct {
	sessions  Sessions
	formatter *ResponseFormatter
}

func NewHistoryCommand(sessions Sessions) *HistoryCommand {
	return &HistoryCommand{sessions: sessions, formatter: NewResponseFormatter()}
}

func (c *HistoryCommand) Name() string {
	return "history"
}

func (c *HistoryCommand) Description() string {
	return "Show the last turns of the active session"
}

func (c *HistoryCommand) Execute(ctx context.Context, scope core.CommandScope, args []string) (core.CommandResult, error) {
	if scope.SessionID == "" {
		return core.CommandResult{Text: "No active session yet."}, nil
	}

	limit := defaultHistoryLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return core.CommandResult{Text: c.formatter.Usage("/history [count]")}, nil
		}
		limit = n
	}

	turns, err := c.sessions.History(ctx, scope.UserID, scope.SessionID)
	if err != nil {
		return core.CommandResult{}, err
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	var sb strings.Builder
	sb.WriteString(c.formatter.Info(fmt.Sprintf("Last %d turns", len(turns))))
	for _, t := range turns {
		sb.WriteString(fmt.Sprintf("\n**#%d %s**\n%s\n", t.Seq, t.Role, t.Content))
	}
	return core.CommandResult{Text: sb.String()}, nil
}
