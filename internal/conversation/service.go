// Package conversation drives the interview dialog: it persists each turn,
// streams assistant output incrementally and detects interview completion.
package conversation

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/blueprint-engine/internal/credit"
	"github.com/jonathan/blueprint-engine/internal/db"
	"github.com/jonathan/blueprint-engine/internal/llm"
	"github.com/jonathan/blueprint-engine/internal/prompts"
)

// Store is the persistence contract the interview requires.
type Store interface {
	GetProject(ctx context.Context, projectID uuid.UUID) (*db.Project, error)
	CreateConversation(ctx context.Context, projectID, userID uuid.UUID, initialDescription string) (*db.Conversation, error)
	GetConversation(ctx context.Context, conversationID uuid.UUID) (*db.Conversation, error)
	AppendTurn(ctx context.Context, conversationID uuid.UUID, role db.TurnRole, content, category string) (*db.ConversationTurn, error)
	ListTurns(ctx context.Context, conversationID uuid.UUID) ([]db.ConversationTurn, error)
	RecordAssistantTurn(ctx context.Context, conversationID uuid.UUID, completed bool) error
}

// Service is the interview state machine: NEW -> ACTIVE -> COMPLETE.
type Service struct {
	store  Store
	llm    llm.Client
	ledger *credit.Ledger
	costs  credit.Costs
}

// NewService creates the interview service. The LLM client is injected
// explicitly; there is no shared transport state.
func NewService(store Store, client llm.Client, ledger *credit.Ledger, costs credit.Costs) *Service {
	return &Service{store: store, llm: client, ledger: ledger, costs: costs}
}

// Start creates a new conversation for a project from its initial
// description. No credits are charged until the first answer.
func (s *Service) Start(ctx context.Context, userID, projectID uuid.UUID, description string) (*db.Conversation, error) {
	if description == "" {
		return nil, &db.ValidationError{Message: "initial description is required"}
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil || project.UserID != userID {
		return nil, &db.NotFoundError{Resource: "project", ID: projectID}
	}

	return s.store.CreateConversation(ctx, projectID, userID, description)
}

// Continue processes one user answer: charge the message cost, persist the
// user turn, stream the assistant reply through onFragment, then persist the
// parsed assistant turn. The user turn is persisted strictly before the
// completion call so the answer survives an upstream failure or a client
// disconnect.
func (s *Service) Continue(ctx context.Context, userID, conversationID uuid.UUID, answer string, onFragment func(fragment string)) (*Reply, error) {
	if answer == "" {
		return nil, &db.ValidationError{Message: "answer is required"}
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil || conv.UserID != userID {
		return nil, &db.NotFoundError{Resource: "conversation", ID: conversationID}
	}
	if conv.Completed {
		return nil, &db.ValidationError{Message: "interview is already complete"}
	}

	if _, err := s.ledger.Deduct(ctx, userID, s.costs.Message, credit.ReasonInterviewMessage); err != nil {
		return nil, err
	}

	if _, err := s.store.AppendTurn(ctx, conversationID, db.RoleUser, answer, ""); err != nil {
		return nil, err
	}

	turns, err := s.store.ListTurns(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.StreamContent(ctx, prompts.InterviewSystem,
		prompts.Interview(conv.InitialDescription, turns), llm.TierStandard, onFragment)
	if err != nil {
		return nil, fmt.Errorf("interview completion call failed: %w", err)
	}

	reply := ParseReply(raw)

	if _, err := s.store.AppendTurn(ctx, conversationID, db.RoleAssistant, reply.Question, reply.Category); err != nil {
		return nil, err
	}
	if err := s.store.RecordAssistantTurn(ctx, conversationID, reply.IsComplete); err != nil {
		return nil, err
	}

	if reply.IsComplete {
		log.Printf("[conversation] interview %s complete after %d questions", conversationID, conv.QuestionCount+1)
	}
	return &reply, nil
}
