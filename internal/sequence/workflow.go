// Package sequence generates the ordered implementation-prompt sequence for
// a project: fixed category ordering, prerequisite propagation, resumable
// continuation and the client-driven prompt unlock chain.
package sequence

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/blueprint-engine/internal/credit"
	"github.com/jonathan/blueprint-engine/internal/db"
	"github.com/jonathan/blueprint-engine/internal/generation"
	"github.com/jonathan/blueprint-engine/internal/llm"
	"github.com/jonathan/blueprint-engine/internal/prompts"
)

// Categories is the fixed total order in which implementation phases are
// generated. The order is itself the dependency ordering.
var Categories = []db.PromptCategory{
	db.CategorySetup,
	db.CategoryDatabase,
	db.CategoryAuth,
	db.CategoryAPI,
	db.CategorySharedComponents,
	db.CategoryFeatures,
	db.CategoryPages,
	db.CategoryTesting,
}

// prerequisiteWindow is how many of the run's most recent prompt titles are
// attached as prerequisites to each new prompt.
const prerequisiteWindow = 3

// Store is the persistence contract the sequence workflow requires.
type Store interface {
	GetProject(ctx context.Context, projectID uuid.UUID) (*db.Project, error)
	FindActiveSuite(ctx context.Context, projectID uuid.UUID) (*db.Suite, error)
	ListBlueprints(ctx context.Context, suiteID uuid.UUID) ([]db.Blueprint, error)
	CreateSequence(ctx context.Context, projectID, suiteID uuid.UUID) (*db.Sequence, bool, error)
	FindSequenceByProject(ctx context.Context, projectID uuid.UUID) (*db.Sequence, error)
	GetSequence(ctx context.Context, sequenceID uuid.UUID) (*db.Sequence, error)
	UpdateSequenceStatus(ctx context.Context, sequenceID uuid.UUID, status generation.BatchStatus, totalCount, completedCount int) error
	InsertPrompt(ctx context.Context, p *db.Prompt) (*db.Prompt, error)
	ListPrompts(ctx context.Context, sequenceID uuid.UUID) ([]db.Prompt, error)
	GetPrompt(ctx context.Context, promptID uuid.UUID) (*db.Prompt, error)
	GetPromptByNumber(ctx context.Context, sequenceID uuid.UUID, number int) (*db.Prompt, error)
	UpdatePromptStatus(ctx context.Context, promptID uuid.UUID, status db.PromptStatus) error
	UnlockPromptIfPending(ctx context.Context, promptID uuid.UUID) (bool, error)
}

// Result bundles a sequence with its prompts for the API layer.
type Result struct {
	Sequence *db.Sequence `json:"sequence"`
	Prompts  []db.Prompt  `json:"prompts"`
}

// Workflow generates implementation prompt sequences.
type Workflow struct {
	store  Store
	llm    llm.Client
	ledger *credit.Ledger
	costs  credit.Costs
}

// NewWorkflow creates the sequence workflow with its collaborators injected.
func NewWorkflow(store Store, client llm.Client, ledger *credit.Ledger, costs credit.Costs) *Workflow {
	return &Workflow{store: store, llm: client, ledger: ledger, costs: costs}
}

// Generate creates or resumes the implementation prompt sequence for a
// project. A stuck or partial sequence is resumed over its missing
// categories with no charge; a complete sequence is returned unchanged.
// Only a newly created sequence is charged, and the charge is refunded only
// when that run produces zero prompts.
func (w *Workflow) Generate(ctx context.Context, userID, projectID uuid.UUID, skipCategories []db.PromptCategory) (*Result, error) {
	project, err := w.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil || project.UserID != userID {
		return nil, &db.NotFoundError{Resource: "project", ID: projectID}
	}

	st, err := w.store.FindActiveSuite(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if st == nil || st.Status == generation.BatchGenerating {
		return nil, &db.ValidationError{Message: "a generated suite is required before generating a sequence"}
	}
	blueprints, err := w.store.ListBlueprints(ctx, st.ID)
	if err != nil {
		return nil, err
	}

	existing, err := w.store.FindSequenceByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == generation.BatchComplete {
			// Idempotent retry.
			return w.result(ctx, existing)
		}
		return w.resume(ctx, existing, blueprints, skipCategories)
	}

	if _, err := w.ledger.Deduct(ctx, userID, w.costs.Sequence, credit.ReasonSequenceGeneration); err != nil {
		return nil, err
	}

	seq, ok, err := w.store.CreateSequence(ctx, projectID, st.ID)
	if err != nil {
		w.refund(ctx, userID)
		return nil, err
	}
	if !ok {
		// Lost the insert race to a concurrent request, which owns the charge.
		w.refund(ctx, userID)
		seq, err = w.store.FindSequenceByProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if seq == nil {
			return nil, &db.NotFoundError{Resource: "sequence", ID: projectID}
		}
		return w.result(ctx, seq)
	}

	if err := w.generateCategories(ctx, seq, blueprints, targetCategories(skipCategories), nil); err != nil {
		return nil, err
	}
	if err := w.finalize(ctx, seq, skipCategories); err != nil {
		return nil, err
	}

	// Refund only a newly charged run that produced nothing.
	if seq.Status == generation.BatchError {
		w.refund(ctx, userID)
	}
	return w.result(ctx, seq)
}

// resume continues a stuck or partial sequence: only categories with zero
// existing prompts are generated, numbering continues where it left off, and
// the account balance never changes.
func (w *Workflow) resume(ctx context.Context, seq *db.Sequence, blueprints []db.Blueprint, skipCategories []db.PromptCategory) (*Result, error) {
	existing, err := w.store.ListPrompts(ctx, seq.ID)
	if err != nil {
		return nil, err
	}

	have := make(map[db.PromptCategory]bool, len(existing))
	for _, p := range existing {
		have[p.Category] = true
	}
	var missing []db.PromptCategory
	for _, cat := range targetCategories(skipCategories) {
		if !have[cat] {
			missing = append(missing, cat)
		}
	}

	if len(missing) == 0 {
		if err := w.finalize(ctx, seq, skipCategories); err != nil {
			return nil, err
		}
		return w.result(ctx, seq)
	}

	log.Printf("[sequence] resuming sequence %s over %d missing categories", seq.ID, len(missing))
	if err := w.store.UpdateSequenceStatus(ctx, seq.ID, generation.BatchGenerating, seq.TotalCount, seq.CompletedCount); err != nil {
		return nil, err
	}

	if err := w.generateCategories(ctx, seq, blueprints, missing, existing); err != nil {
		return nil, err
	}
	if err := w.finalize(ctx, seq, skipCategories); err != nil {
		return nil, err
	}
	return w.result(ctx, seq)
}

// generateCategories runs the coordinator over the given categories in
// order. Each category yields 1-3 prompts; numbering continues from the
// prompts already persisted so resumed runs extend rather than restart.
func (w *Workflow) generateCategories(ctx context.Context, seq *db.Sequence, blueprints []db.Blueprint, cats []db.PromptCategory, existing []db.Prompt) error {
	nextNumber := len(existing) + 1

	// Titles of every prompt so far keep new output consistent; titles from
	// this run feed the rolling prerequisite window.
	allTitles := make([]string, 0, len(existing))
	for _, p := range existing {
		allTitles = append(allTitles, p.Title)
	}
	var runTitles []string

	var parsed []promptItem
	_, err := generation.Run(ctx, cats, generation.Hooks[db.PromptCategory]{
		Describe: func(cat db.PromptCategory) string { return string(cat) },
		MarkGenerating: func(_ context.Context, cat db.PromptCategory) error {
			log.Printf("[sequence] generating category %s for sequence %s", cat, seq.ID)
			return nil
		},
		Generate: func(ctx context.Context, cat db.PromptCategory) (string, error) {
			raw, err := w.llm.GenerateJSON(ctx, prompts.SequenceSystem,
				prompts.Sequence(cat, blueprints, allTitles), llm.TierAdvanced)
			if err != nil {
				return "", err
			}
			items, err := parsePromptItems(raw)
			if err != nil {
				return "", err
			}
			parsed = items
			return raw, nil
		},
		MarkComplete: func(ctx context.Context, cat db.PromptCategory, _ string) error {
			for _, item := range parsed {
				prereqs := append(lastN(runTitles, prerequisiteWindow), item.Prerequisites...)

				status := db.PromptStatusPending
				if nextNumber == 1 {
					// The very first prompt ever created for a sequence starts
					// unlocked; every sibling waits for the chain.
					status = db.PromptStatusUnlocked
				}

				if _, err := w.store.InsertPrompt(ctx, &db.Prompt{
					SequenceID:     seq.ID,
					SequenceNumber: nextNumber,
					Title:          item.Title,
					Category:       cat,
					Status:         status,
					Prerequisites:  prereqs,
					Content:        item.Content,
				}); err != nil {
					return err
				}
				nextNumber++
				runTitles = append(runTitles, item.Title)
				allTitles = append(allTitles, item.Title)
			}
			return nil
		},
		MarkError: func(_ context.Context, cat db.PromptCategory, genErr error) error {
			log.Printf("[sequence] category %s failed: %v", cat, genErr)
			return nil
		},
	})
	return err
}

// finalize derives the sequence status from category coverage and refreshes
// the prompt counters. A category counts as done when at least one prompt
// exists for it.
func (w *Workflow) finalize(ctx context.Context, seq *db.Sequence, skipCategories []db.PromptCategory) error {
	promptsList, err := w.store.ListPrompts(ctx, seq.ID)
	if err != nil {
		return err
	}

	have := make(map[db.PromptCategory]bool, len(promptsList))
	finished := 0
	for _, p := range promptsList {
		have[p.Category] = true
		if p.Status == db.PromptStatusCompleted || p.Status == db.PromptStatusSkipped {
			finished++
		}
	}

	target := targetCategories(skipCategories)
	covered := 0
	for _, cat := range target {
		if have[cat] {
			covered++
		}
	}

	status := generation.DeriveBatchStatus(covered, len(target))
	if err := w.store.UpdateSequenceStatus(ctx, seq.ID, status, len(promptsList), finished); err != nil {
		return err
	}
	seq.Status = status
	seq.TotalCount = len(promptsList)
	seq.CompletedCount = finished
	return nil
}

// Status returns the project's sequence and prompts for polling callers.
func (w *Workflow) Status(ctx context.Context, userID, projectID uuid.UUID) (*Result, error) {
	var (
		project *db.Project
		seq     *db.Sequence
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		project, err = w.store.GetProject(gCtx, projectID)
		return err
	})
	g.Go(func() (err error) {
		seq, err = w.store.FindSequenceByProject(gCtx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if project == nil || project.UserID != userID {
		return nil, &db.NotFoundError{Resource: "project", ID: projectID}
	}
	if seq == nil {
		return nil, &db.NotFoundError{Resource: "sequence", ID: projectID}
	}
	return w.result(ctx, seq)
}

// SetItemStatus applies a client-driven prompt status transition. Marking
// prompt k completed or skipped unlocks prompt k+1 if and only if k+1 is
// currently pending; prompts beyond k+1 are untouched.
func (w *Workflow) SetItemStatus(ctx context.Context, userID, promptID uuid.UUID, status db.PromptStatus) (*db.Prompt, error) {
	p, err := w.store.GetPrompt(ctx, promptID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &db.NotFoundError{Resource: "prompt", ID: promptID}
	}
	seq, err := w.store.GetSequence(ctx, p.SequenceID)
	if err != nil {
		return nil, err
	}
	project, err := w.store.GetProject(ctx, seq.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil || project.UserID != userID {
		return nil, &db.NotFoundError{Resource: "prompt", ID: promptID}
	}

	if !CanTransition(p.Status, status) {
		return nil, &db.ValidationError{Message: fmt.Sprintf("cannot move prompt from %s to %s", p.Status, status)}
	}

	if err := w.store.UpdatePromptStatus(ctx, p.ID, status); err != nil {
		return nil, err
	}
	p.Status = status

	if status == db.PromptStatusCompleted || status == db.PromptStatusSkipped {
		next, err := w.store.GetPromptByNumber(ctx, p.SequenceID, p.SequenceNumber+1)
		if err != nil {
			return nil, err
		}
		if next != nil {
			// The guard is in the store, not here: a read-then-write would
			// race a concurrent transition on the successor.
			if _, err := w.store.UnlockPromptIfPending(ctx, next.ID); err != nil {
				return nil, err
			}
		}
	}

	// Refresh the sequence progress counters.
	promptsList, err := w.store.ListPrompts(ctx, p.SequenceID)
	if err != nil {
		return nil, err
	}
	finished := 0
	for _, item := range promptsList {
		if item.Status == db.PromptStatusCompleted || item.Status == db.PromptStatusSkipped {
			finished++
		}
	}
	if err := w.store.UpdateSequenceStatus(ctx, seq.ID, seq.Status, len(promptsList), finished); err != nil {
		return nil, err
	}

	return p, nil
}

func (w *Workflow) result(ctx context.Context, seq *db.Sequence) (*Result, error) {
	promptsList, err := w.store.ListPrompts(ctx, seq.ID)
	if err != nil {
		return nil, err
	}
	return &Result{Sequence: seq, Prompts: promptsList}, nil
}

func (w *Workflow) refund(ctx context.Context, userID uuid.UUID) {
	if err := w.ledger.Refund(ctx, userID, w.costs.Sequence, credit.ReasonSequenceGeneration); err != nil {
		log.Printf("[sequence] refund for %s failed: %v", userID, err)
	}
}

// targetCategories returns the fixed category order minus the skip list.
func targetCategories(skip []db.PromptCategory) []db.PromptCategory {
	if len(skip) == 0 {
		return Categories
	}
	var target []db.PromptCategory
	for _, cat := range Categories {
		if !slices.Contains(skip, cat) {
			target = append(target, cat)
		}
	}
	return target
}

// lastN copies the trailing n elements of titles.
func lastN(titles []string, n int) []string {
	if len(titles) > n {
		titles = titles[len(titles)-n:]
	}
	return slices.Clone(titles)
}
