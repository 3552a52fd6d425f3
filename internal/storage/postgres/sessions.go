package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sandevgo/tutorbot/internal/core"
)

type SessionsRepo struct {
	pool *pgxpool.Pool
}

func NewSessionsRepo(pool *pgxpool.Pool) *SessionsRepo {
	return &SessionsRepo{pool: pool}
}

func (r *SessionsRepo) CreateSession(ctx context.Context, userID string) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()
	if _, err := r.pool.Exec(ctx, `INSERT INTO sessions (id, user_id) VALUES ($1, $2)`, id, userID); err != nil {
		return "", fmt.Errorf("%w: failed to create session: %w", core.ErrStorageUnavailable, err)
	}
	return id, nil
}

func (r *SessionsRepo) SessionExists(ctx context.Context, sessionID, userID string) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM sessions WHERE id = $1 AND user_id = $2`, sessionID, userID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to look up session: %w", core.ErrStorageUnavailable, err)
	}
	return true, nil
}

func (r *SessionsRepo) ListSessions(ctx context.Context, userID string) ([]core.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, created_at FROM sessions WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list sessions: %w", core.ErrStorageUnavailable, err)
	}

	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Session, error) {
		var s core.Session
		err := row.Scan(&s.ID, &s.UserID, &s.CreatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	return sessions, nil
}

func (r *SessionsRepo) DeleteSession(ctx context.Context, sessionID, userID string) error {
	var notFound bool
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id = $1 AND user_id = $2`, sessionID, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			notFound = true
			return nil
		}
		_, err = tx.Exec(ctx, `DELETE FROM chat_histories WHERE session_id = $1`, sessionID)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete session: %w", core.ErrStorageUnavailable, err)
	}
	if notFound {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, sessionID)
	}
	return nil
}
