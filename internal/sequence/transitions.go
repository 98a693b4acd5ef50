package sequence

import "github.com/jonathan/blueprint-engine/internal/db"

// clientTransitions is the exhaustive table of prompt status transitions a
// client may request. pending is absent on purpose: pending -> unlocked
// happens only automatically, when the preceding prompt completes or is
// skipped. completed -> unlocked is the allowed undo.
var clientTransitions = map[db.PromptStatus]map[db.PromptStatus]bool{
	db.PromptStatusUnlocked: {
		db.PromptStatusInProgress: true,
		db.PromptStatusCompleted:  true,
		db.PromptStatusSkipped:    true,
	},
	db.PromptStatusInProgress: {
		db.PromptStatusCompleted: true,
		db.PromptStatusSkipped:   true,
	},
	db.PromptStatusCompleted: {
		db.PromptStatusUnlocked: true,
	},
}

// CanTransition reports whether a client may move a prompt from one status
// to another.
func CanTransition(from, to db.PromptStatus) bool {
	return clientTransitions[from][to]
}
