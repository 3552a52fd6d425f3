package conversation

import "github.com/sandevgo/tutorbot/internal/core"

// Trim returns the longest suffix of turns whose total cost fits budget and
// that starts on a human turn and ends on a human or tool turn. A turn is
// either kept whole or dropped. Trim is pure and never fails; when no valid
// window exists it returns an empty slice.
func Trim(turns []core.Turn, budget int, counter core.TokenCounter) []core.Turn {
	// A dangling ai tail is not a valid place to hand the model the floor.
	end := len(turns)
	for end > 0 && !endsWindow(turns[end-1].Role) {
		end--
	}
	if end == 0 {
		return []core.Turn{}
	}

	start := end
	used := 0
	for start > 0 {
		cost := counter(turns[start-1])
		if used+cost > budget {
			break
		}
		used += cost
		start--
	}

	for start < end && turns[start].Role != core.RoleHuman {
		start++
	}
	if start == end {
		return []core.Turn{}
	}

	window := make([]core.Turn, end-start)
	copy(window, turns[start:end])
	return window
}

func endsWindow(r core.Role) bool {
	return r == core.RoleHuman || r == core.RoleTool
}

// Cost sums counter over turns.
func Cost(turns []core.Turn, counter core.TokenCounter) int {
	total := 0
	for _, t := range turns {
		total += counter(t)
	}
	return total
}
