// Package storage holds the record format shared by every history backend.
//
// Each stored turn is a JSON envelope of the form
//
//	{"type": "human", "data": {"content": "..."}}
//
// which keeps the persisted layout readable by other chat-history tooling.
package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/tutorbot/internal/core"
)

type envelope struct {
	Type string       `json:"type"`
	Data envelopeData `json:"data"`
}

type envelopeData struct {
	Content string `json:"content"`
}

// EncodeTurn validates a turn and serializes it into its stored form.
func EncodeTurn(t core.Turn) (string, error) {
	if !t.Role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", core.ErrInvalidTurn, t.Role)
	}
	if !utf8.ValidString(t.Content) {
		return "", fmt.Errorf("%w: content is not valid UTF-8", core.ErrInvalidTurn)
	}
	// jsonb cannot hold \u0000, so no backend accepts it.
	if strings.ContainsRune(t.Content, 0) {
		return "", fmt.Errorf("%w: content contains a NUL character", core.ErrInvalidTurn)
	}

	data, err := json.Marshal(envelope{Type: string(t.Role), Data: envelopeData{Content: t.Content}})
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrInvalidTurn, err)
	}
	return string(data), nil
}

// EncodeTurns encodes the whole batch up front so that an invalid turn
// aborts the append before any write happens.
func EncodeTurns(turns []core.Turn) ([]string, error) {
	payloads := make([]string, 0, len(turns))
	for i, t := range turns {
		p, err := EncodeTurn(t)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		payloads = append(payloads, p)
	}
	return payloads, nil
}

func DecodeTurn(payload string, seq int64) (core.Turn, error) {
	var e envelope
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return core.Turn{}, fmt.Errorf("%w: decode record %d: %w", core.ErrInvalidTurn, seq, err)
	}

	role := core.Role(e.Type)
	if !role.Valid() {
		return core.Turn{}, fmt.Errorf("%w: record %d has unknown type %q", core.ErrInvalidTurn, seq, e.Type)
	}
	return core.Turn{Role: role, Content: e.Data.Content, Seq: seq}, nil
}
