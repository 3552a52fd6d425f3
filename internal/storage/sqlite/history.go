package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/internal/storage"
	"github.com/sandevgo/tutorbot/pkg/log"
)

type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

func (h *HistoryRepo) Read(ctx context.Context, sessionID string) ([]core.Turn, error) {
	query := `SELECT seq, history FROM chat_histories WHERE session_id = ? ORDER BY seq ASC`

	rows, err := h.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query history: %w", core.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	turns := make([]core.Turn, 0)
	for rows.Next() {
		var (
			seq     int64
			payload string
		)
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, fmt.Errorf("%w: failed to scan history row: %w", core.ErrStorageUnavailable, err)
		}

		turn, err := storage.DecodeTurn(payload, seq)
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}

	log.FromCtx(ctx).Debug().Str("session_id", sessionID).Int("count", len(turns)).Msg("loaded history")
	return turns, nil
}

func (h *HistoryRepo) Append(ctx context.Context, sessionID string, turns ...core.Turn) ([]core.Turn, error) {
	if len(turns) == 0 {
		return nil, nil
	}

	payloads, err := storage.EncodeTurns(turns)
	if err != nil {
		return nil, err
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin tx: %w", core.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	var last sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT MAX(seq) FROM chat_histories WHERE session_id = ?`, sessionID).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read last seq: %w", core.ErrStorageUnavailable, err)
	}

	stored := make([]core.Turn, len(turns))
	next := last.Int64 + 1
	for i, payload := range payloads {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chat_histories (session_id, seq, history) VALUES (?, ?, ?)`,
			sessionID, next, payload,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to insert turn: %w", core.ErrStorageUnavailable, err)
		}
		stored[i] = core.Turn{Role: turns[i].Role, Content: turns[i].Content, Seq: next}
		next++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit: %w", core.ErrStorageUnavailable, err)
	}
	return stored, nil
}
