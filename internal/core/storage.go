package core

import "context"

// HistoryStore is the durable, append-only turn log of every session.
type HistoryStore interface {
	// Read returns the full history oldest first. Unknown sessions yield an
	// empty slice and no error.
	Read(ctx context.Context, sessionID string) ([]Turn, error)
	// Append records all turns in order or none of them, returning the
	// stored turns with their assigned sequence indexes.
	Append(ctx context.Context, sessionID string, turns ...Turn) ([]Turn, error)
}

type SessionDirectory interface {
	SessionExists(ctx context.Context, sessionID, userID string) (bool, error)
	CreateSession(ctx context.Context, userID string) (string, error)
	ListSessions(ctx context.Context, userID string) ([]Session, error)
	DeleteSession(ctx context.Context, sessionID, userID string) error
}

// Storage bundles both store contracts; every backend implements it.
type Storage interface {
	HistoryStore
	SessionDirectory
	Close() error
}
