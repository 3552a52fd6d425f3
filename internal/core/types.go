package core

import (
	"fmt"
	"time"
)

const (
	TutorName          = "TutorBot"
	TutorUserAgent     = "TutorBot/0.1"
	TutorRepositoryURL = "https://github.com/sandevgo/tutorbot"
	TutorVersion       = "0.1.0"
)

type Role string

const (
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleTool   Role = "tool"
	RoleSystem Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleHuman, RoleAI, RoleTool, RoleSystem:
		return true
	}
	return false
}

// Turn is one role-tagged message in a session history.
// Seq is assigned by the HistoryStore on append and is zero for turns that
// were never stored (system instruction, pending user input).
type Turn struct {
	Role    Role   `json:"type"`
	Content string `json:"content"`
	Seq     int64  `json:"seq,omitempty"`
}

func HumanTurn(content string) Turn {
	return Turn{Role: RoleHuman, Content: content}
}

func AITurn(content string) Turn {
	return Turn{Role: RoleAI, Content: content}
}

func SystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

func (t Turn) String() string {
	return fmt.Sprintf("%s: %s", t.Role, t.Content)
}

type Session struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenCounter returns the cost of a single turn. Implementations must be
// deterministic: the same turn always costs the same.
type TokenCounter func(Turn) int
