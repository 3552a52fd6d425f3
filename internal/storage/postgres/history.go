package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/internal/storage"
	"github.com/sandevgo/tutorbot/pkg/log"
)

type HistoryRepo struct {
	pool *pgxpool.Pool
}

func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

func (h *HistoryRepo) Read(ctx context.Context, sessionID string) ([]core.Turn, error) {
	rows, err := h.pool.Query(ctx,
		`SELECT seq, history::text FROM chat_histories WHERE session_id = $1 ORDER BY seq ASC`,
		sessionID,
	)
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

// Append takes a transaction-scoped advisory lock on the session so that
// processes sharing the database cannot interleave sequence numbers.
func (h *HistoryRepo) Append(ctx context.Context, sessionID string, turns ...core.Turn) ([]core.Turn, error) {
	if len(turns) == 0 {
		return nil, nil
	}

	payloads, err := storage.EncodeTurns(turns)
	if err != nil {
		return nil, err
	}

	stored := make([]core.Turn, len(turns))
	err = pgx.BeginFunc(ctx, h.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sessionID); err != nil {
			return fmt.Errorf("failed to lock session: %w", err)
		}

		var next int64
		err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_histories WHERE session_id = $1`,
			sessionID,
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("failed to read last seq: %w", err)
		}

		batch := &pgx.Batch{}
		for i, payload := range payloads {
			seq := next + int64(i)
			batch.Queue(
				`INSERT INTO chat_histories (session_id, seq, history) VALUES ($1, $2, $3::jsonb)`,
				sessionID, seq, payload,
			)
			stored[i] = core.Turn{Role: turns[i].Role, Content: turns[i].Content, Seq: seq}
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	return stored, nil
}
