package command

import (
	"context"

	"github.com/sandevgo/tutorbot/internal/core"
)

// Sessions is the slice of the conversation service commands operate on.
type Sessions interface {
	NewSession(ctx context.Context, userID string) (string, error)
	ListSessions(ctx context.Context, userID string) ([]core.Session, error)
	History(ctx context.Context, userID, sessionID string) ([]core.Turn, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error
}

func NewCommands(sessions Sessions, provider core.ProviderConfig) []core.Command {
	return []core.Command{
		NewNewCommand(sessions),
		NewSessionCommand(sessions),
		NewSessionsCommand(sessions),
		NewDeleteCommand(sessions),
		NewHistoryCommand(sessions),
		NewModelCommand(provider),
	}
}
