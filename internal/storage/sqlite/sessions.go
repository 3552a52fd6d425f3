package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/tutorbot/internal/core"
)

type SessionsRepo struct {
	db *sql.DB
}

func NewSessionsRepo(db *sql.DB) *SessionsRepo {
	return &SessionsRepo{db: db}
}

func (r *SessionsRepo) CreateSession(ctx context.Context, userID string) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, created_at) VALUES (?, ?, ?)`,
		id, userID, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create session: %w", core.ErrStorageUnavailable, err)
	}
	return id, nil
}

func (r *SessionsRepo) SessionExists(ctx context.Context, sessionID, userID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM sessions WHERE id = ? AND user_id = ?`,
		sessionID, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to look up session: %w", core.ErrStorageUnavailable, err)
	}
	return true, nil
}

// ListSessions returns the user's sessions, most recent first.
func (r *SessionsRepo) ListSessions(ctx context.Context, userID string) ([]core.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, created_at FROM sessions WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list sessions: %w", core.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var sessions []core.Session
	for rows.Next() {
		var s core.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan session: %w", core.ErrStorageUnavailable, err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	return sessions, nil
}

// DeleteSession removes the session and its whole history atomically.
func (r *SessionsRepo) DeleteSession(ctx context.Context, sessionID, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin tx: %w", core.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ? AND user_id = ?`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("%w: failed to delete session: %w", core.ErrStorageUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, sessionID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_histories WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("%w: failed to delete history: %w", core.ErrStorageUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit: %w", core.ErrStorageUnavailable, err)
	}
	return nil
}
