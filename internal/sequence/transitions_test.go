package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/blueprint-engine/internal/db"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from db.PromptStatus
		to   db.PromptStatus
		want bool
	}{
		{db.PromptStatusUnlocked, db.PromptStatusInProgress, true},
		{db.PromptStatusUnlocked, db.PromptStatusCompleted, true},
		{db.PromptStatusUnlocked, db.PromptStatusSkipped, true},
		{db.PromptStatusInProgress, db.PromptStatusCompleted, true},
		{db.PromptStatusInProgress, db.PromptStatusSkipped, true},
		{db.PromptStatusCompleted, db.PromptStatusUnlocked, true},

		// pending transitions are automatic, never client-driven.
		{db.PromptStatusPending, db.PromptStatusUnlocked, false},
		{db.PromptStatusPending, db.PromptStatusCompleted, false},
		{db.PromptStatusSkipped, db.PromptStatusCompleted, false},
		{db.PromptStatusCompleted, db.PromptStatusInProgress, false},
		{db.PromptStatusInProgress, db.PromptStatusUnlocked, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
