// Package suite generates the blueprint document suite for a project:
// dedup guard, charge-once metering, sequential document generation and
// refund on total failure.
package suite

import (
	"context"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/blueprint-engine/internal/credit"
	"github.com/jonathan/blueprint-engine/internal/db"
	"github.com/jonathan/blueprint-engine/internal/generation"
	"github.com/jonathan/blueprint-engine/internal/llm"
	"github.com/jonathan/blueprint-engine/internal/prompts"
	"github.com/jonathan/blueprint-engine/internal/selection"
)

// Store is the persistence contract the suite workflow requires.
type Store interface {
	GetProject(ctx context.Context, projectID uuid.UUID) (*db.Project, error)
	FindCompletedConversation(ctx context.Context, projectID uuid.UUID) (*db.Conversation, error)
	ListTurns(ctx context.Context, conversationID uuid.UUID) ([]db.ConversationTurn, error)
	CreateSuite(ctx context.Context, projectID uuid.UUID, selectedTypes []string) (*db.Suite, bool, error)
	FindActiveSuite(ctx context.Context, projectID uuid.UUID) (*db.Suite, error)
	GetSuite(ctx context.Context, suiteID uuid.UUID) (*db.Suite, error)
	UpdateSuiteStatus(ctx context.Context, suiteID uuid.UUID, status generation.BatchStatus, completedCount int) error
	CreateBlueprints(ctx context.Context, suiteID uuid.UUID, docTypes []string) ([]db.Blueprint, error)
	GetBlueprint(ctx context.Context, blueprintID uuid.UUID) (*db.Blueprint, error)
	ListBlueprints(ctx context.Context, suiteID uuid.UUID) ([]db.Blueprint, error)
	UpdateBlueprintStatus(ctx context.Context, blueprintID uuid.UUID, status db.BlueprintStatus, content string, errMsg *string) error
}

// Result bundles a suite with its items for the API layer.
type Result struct {
	Suite      *db.Suite      `json:"suite"`
	Blueprints []db.Blueprint `json:"blueprints"`
}

// Workflow generates blueprint suites.
type Workflow struct {
	store  Store
	llm    llm.Client
	ledger *credit.Ledger
	costs  credit.Costs
}

// NewWorkflow creates the suite workflow with its collaborators injected.
func NewWorkflow(store Store, client llm.Client, ledger *credit.Ledger, costs credit.Costs) *Workflow {
	return &Workflow{store: store, llm: client, ledger: ledger, costs: costs}
}

// Generate creates and generates the blueprint suite for a project. The call
// is idempotent under retry: an existing active suite is returned unchanged
// and without a charge. Credits are charged exactly once per new suite and
// refunded only when every document fails.
func (w *Workflow) Generate(ctx context.Context, userID, projectID uuid.UUID) (*Result, error) {
	project, err := w.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil || project.UserID != userID {
		return nil, &db.NotFoundError{Resource: "project", ID: projectID}
	}

	// Idempotent retry: an active suite means this project was already
	// charged and generated (or is generating right now).
	if existing, err := w.store.FindActiveSuite(ctx, projectID); err != nil {
		return nil, err
	} else if existing != nil {
		return w.result(ctx, existing)
	}

	conv, err := w.store.FindCompletedConversation(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, &db.ValidationError{Message: "interview must be completed before generating a suite"}
	}
	turns, err := w.store.ListTurns(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	convoContext := prompts.ConversationContext(conv.InitialDescription, turns)

	if _, err := w.ledger.Deduct(ctx, userID, w.costs.Suite, credit.ReasonSuiteGeneration); err != nil {
		return nil, err
	}

	docTypes := selection.DocumentTypes(project.ProjectType, project.Features)
	created, ok, err := w.store.CreateSuite(ctx, projectID, docTypes)
	if err != nil {
		// Nothing was generated for this charge.
		w.refund(ctx, userID)
		return nil, err
	}
	if !ok {
		// Lost the insert race to a concurrent request: that request owns the
		// charge, so this one is returned.
		w.refund(ctx, userID)
		existing, err := w.store.FindActiveSuite(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, &db.NotFoundError{Resource: "suite", ID: projectID}
		}
		return w.result(ctx, existing)
	}

	blueprints, err := w.store.CreateBlueprints(ctx, created.ID, docTypes)
	if err != nil {
		w.refund(ctx, userID)
		return nil, err
	}

	res, err := w.generateItems(ctx, blueprints, convoContext)
	if err != nil {
		// Persistence failure mid-batch: the suite stays in generating and
		// items can be retried individually via Regenerate.
		return nil, err
	}

	status := res.Status()
	if err := w.store.UpdateSuiteStatus(ctx, created.ID, status, res.Completed); err != nil {
		return nil, err
	}
	created.Status = status
	created.CompletedCount = res.Completed

	// Flat price once charged: partial success is not refunded.
	if status == generation.BatchError {
		w.refund(ctx, userID)
	}

	log.Printf("[suite] generated suite %s for project %s: %s (%d/%d)",
		created.ID, projectID, status, res.Completed, res.Total)
	return w.result(ctx, created)
}

// generateItems runs the coordinator over the suite's blueprints. Completed
// documents of the same run feed the prompts of later ones, which is why the
// batch is strictly sequential.
func (w *Workflow) generateItems(ctx context.Context, blueprints []db.Blueprint, convoContext string) (generation.Result, error) {
	var done []db.Blueprint

	items := make([]*db.Blueprint, len(blueprints))
	for i := range blueprints {
		items[i] = &blueprints[i]
	}

	return generation.Run(ctx, items, generation.Hooks[*db.Blueprint]{
		Describe: func(b *db.Blueprint) string { return b.DocType },
		MarkGenerating: func(ctx context.Context, b *db.Blueprint) error {
			return w.store.UpdateBlueprintStatus(ctx, b.ID, db.BlueprintStatusGenerating, "", nil)
		},
		Generate: func(ctx context.Context, b *db.Blueprint) (string, error) {
			return w.llm.GenerateContent(ctx, prompts.BlueprintSystem,
				prompts.Blueprint(b.DocType, convoContext, done), llm.TierAdvanced)
		},
		MarkComplete: func(ctx context.Context, b *db.Blueprint, content string) error {
			if err := w.store.UpdateBlueprintStatus(ctx, b.ID, db.BlueprintStatusComplete, content, nil); err != nil {
				return err
			}
			b.Status = db.BlueprintStatusComplete
			b.Content = content
			done = append(done, *b)
			return nil
		},
		MarkError: func(ctx context.Context, b *db.Blueprint, genErr error) error {
			log.Printf("[suite] blueprint %s failed: %v", b.DocType, genErr)
			msg := genErr.Error()
			return w.store.UpdateBlueprintStatus(ctx, b.ID, db.BlueprintStatusError, "", &msg)
		},
	})
}

// Status returns the project's active suite and items for polling callers.
func (w *Workflow) Status(ctx context.Context, userID, projectID uuid.UUID) (*Result, error) {
	var (
		project *db.Project
		active  *db.Suite
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		project, err = w.store.GetProject(gCtx, projectID)
		return err
	})
	g.Go(func() (err error) {
		active, err = w.store.FindActiveSuite(gCtx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if project == nil || project.UserID != userID {
		return nil, &db.NotFoundError{Resource: "project", ID: projectID}
	}
	if active == nil {
		return nil, &db.NotFoundError{Resource: "suite", ID: projectID}
	}
	return w.result(ctx, active)
}

// Regenerate re-runs generation for a single blueprint and re-derives the
// suite status from the final item statuses. Retrying an errored item is
// free; the suite was already charged when it was created.
func (w *Workflow) Regenerate(ctx context.Context, userID, blueprintID uuid.UUID) (*db.Blueprint, error) {
	bp, err := w.store.GetBlueprint(ctx, blueprintID)
	if err != nil {
		return nil, err
	}
	if bp == nil {
		return nil, &db.NotFoundError{Resource: "blueprint", ID: blueprintID}
	}
	st, err := w.store.GetSuite(ctx, bp.SuiteID)
	if err != nil {
		return nil, err
	}
	project, err := w.store.GetProject(ctx, st.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil || project.UserID != userID {
		return nil, &db.NotFoundError{Resource: "blueprint", ID: blueprintID}
	}

	conv, err := w.store.FindCompletedConversation(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, &db.ValidationError{Message: "interview context is missing"}
	}
	turns, err := w.store.ListTurns(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	siblings, err := w.store.ListBlueprints(ctx, bp.SuiteID)
	if err != nil {
		return nil, err
	}
	var prior []db.Blueprint
	for _, s := range siblings {
		if s.Position < bp.Position && s.Status == db.BlueprintStatusComplete {
			prior = append(prior, s)
		}
	}

	if err := w.store.UpdateBlueprintStatus(ctx, bp.ID, db.BlueprintStatusGenerating, "", nil); err != nil {
		return nil, err
	}

	content, genErr := w.llm.GenerateContent(ctx, prompts.BlueprintSystem,
		prompts.Blueprint(bp.DocType, prompts.ConversationContext(conv.InitialDescription, turns), prior),
		llm.TierAdvanced)
	if genErr != nil {
		msg := genErr.Error()
		if err := w.store.UpdateBlueprintStatus(ctx, bp.ID, db.BlueprintStatusError, "", &msg); err != nil {
			return nil, err
		}
		bp.Status = db.BlueprintStatusError
		bp.ErrorMessage = &msg
	} else {
		if err := w.store.UpdateBlueprintStatus(ctx, bp.ID, db.BlueprintStatusComplete, content, nil); err != nil {
			return nil, err
		}
		bp.Status = db.BlueprintStatusComplete
		bp.Content = content
		bp.ErrorMessage = nil
	}

	// Re-derive the suite status from the final item statuses.
	items, err := w.store.ListBlueprints(ctx, bp.SuiteID)
	if err != nil {
		return nil, err
	}
	completed := 0
	for _, item := range items {
		if item.Status == db.BlueprintStatusComplete {
			completed++
		}
	}
	status := generation.DeriveBatchStatus(completed, len(items))
	if err := w.store.UpdateSuiteStatus(ctx, bp.SuiteID, status, completed); err != nil {
		return nil, err
	}

	return bp, nil
}

func (w *Workflow) result(ctx context.Context, s *db.Suite) (*Result, error) {
	blueprints, err := w.store.ListBlueprints(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	return &Result{Suite: s, Blueprints: blueprints}, nil
}

// refund compensates the suite charge. Failures are logged, not surfaced;
// the generation outcome already happened and the operator can re-credit.
func (w *Workflow) refund(ctx context.Context, userID uuid.UUID) {
	if err := w.ledger.Refund(ctx, userID, w.costs.Suite, credit.ReasonSuiteGeneration); err != nil {
		log.Printf("[suite] refund for %s failed: %v", userID, err)
	}
}
