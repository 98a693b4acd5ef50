package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/blueprint-engine/internal/generation"
)

// TurnRole identifies who produced a conversation turn.
type TurnRole string

// Turn role constants
const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

// BlueprintStatus is the lifecycle status of a single suite document.
type BlueprintStatus string

// Blueprint status constants. Complete and Error are terminal.
const (
	BlueprintStatusPending    BlueprintStatus = "pending"
	BlueprintStatusGenerating BlueprintStatus = "generating"
	BlueprintStatusComplete   BlueprintStatus = "complete"
	BlueprintStatusError      BlueprintStatus = "error"
)

// PromptStatus is the client-driven lifecycle status of a sequence prompt.
type PromptStatus string

// Prompt status constants
const (
	PromptStatusPending    PromptStatus = "pending"
	PromptStatusUnlocked   PromptStatus = "unlocked"
	PromptStatusInProgress PromptStatus = "in_progress"
	PromptStatusCompleted  PromptStatus = "completed"
	PromptStatusSkipped    PromptStatus = "skipped"
)

// PromptCategory is a phase of implementation work. Categories are generated
// in one fixed total order; that order is the dependency ordering between
// phases.
type PromptCategory string

// Prompt category constants
const (
	CategorySetup            PromptCategory = "setup"
	CategoryDatabase         PromptCategory = "database"
	CategoryAuth             PromptCategory = "auth"
	CategoryAPI              PromptCategory = "api"
	CategorySharedComponents PromptCategory = "shared-components"
	CategoryFeatures         PromptCategory = "features"
	CategoryPages            PromptCategory = "pages"
	CategoryTesting          PromptCategory = "testing"
)

// User represents a registered account with a credit balance.
// The balance is mutated only through the credit ledger methods.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Credits      float64   `json:"credits"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Project anchors conversations, suites and sequences for one piece of work.
type Project struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	ProjectType string    `json:"project_type"`
	Features    []string  `json:"features"`
	CreatedAt   time.Time `json:"created_at"`
}

// Conversation is the interview dialog for a project.
type Conversation struct {
	ID                 uuid.UUID `json:"id"`
	ProjectID          uuid.UUID `json:"project_id"`
	UserID             uuid.UUID `json:"user_id"`
	InitialDescription string    `json:"initial_description"`
	QuestionCount      int       `json:"question_count"`
	Completed          bool      `json:"completed"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ConversationTurn is one persisted message of the interview.
type ConversationTurn struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           TurnRole  `json:"role"`
	Content        string    `json:"content"`
	Category       string    `json:"category,omitempty"`
	Position       int       `json:"position"`
	CreatedAt      time.Time `json:"created_at"`
}

// Suite is a batch of blueprint documents generated together for a project.
// At most one suite per project may be active (generating/complete/partial);
// the database enforces this with a partial unique index rather than a
// query-then-create check.
type Suite struct {
	ID             uuid.UUID              `json:"id"`
	ProjectID      uuid.UUID              `json:"project_id"`
	Status         generation.BatchStatus `json:"status"`
	SelectedTypes  []string               `json:"selected_types"`
	CompletedCount int                    `json:"completed_count"`
	TotalCount     int                    `json:"total_count"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// Blueprint is a single document within a suite.
type Blueprint struct {
	ID           uuid.UUID       `json:"id"`
	SuiteID      uuid.UUID       `json:"suite_id"`
	DocType      string          `json:"doc_type"`
	Status       BlueprintStatus `json:"status"`
	Content      string          `json:"content,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	Position     int             `json:"position"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Sequence is an ordered batch of implementation prompts for a project.
type Sequence struct {
	ID             uuid.UUID              `json:"id"`
	ProjectID      uuid.UUID              `json:"project_id"`
	SuiteID        uuid.UUID              `json:"suite_id"`
	Status         generation.BatchStatus `json:"status"`
	TotalCount     int                    `json:"total_count"`
	CompletedCount int                    `json:"completed_count"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// Prompt is a single implementation prompt within a sequence. Sequence
// numbers are dense and 1-based, continuing across resumed generations.
type Prompt struct {
	ID             uuid.UUID      `json:"id"`
	SequenceID     uuid.UUID      `json:"sequence_id"`
	SequenceNumber int            `json:"sequence_number"`
	Title          string         `json:"title"`
	Category       PromptCategory `json:"category"`
	Status         PromptStatus   `json:"status"`
	Prerequisites  []string       `json:"prerequisites"`
	Content        string         `json:"content,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
