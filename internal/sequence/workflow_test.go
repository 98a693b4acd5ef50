package sequence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/blueprint-engine/internal/credit"
	"github.com/jonathan/blueprint-engine/internal/db"
	"github.com/jonathan/blueprint-engine/internal/generation"
	"github.com/jonathan/blueprint-engine/internal/llm"
)

type fakeStore struct {
	projects   map[uuid.UUID]*db.Project
	suites     map[uuid.UUID]*db.Suite
	blueprints map[uuid.UUID][]db.Blueprint
	sequences  map[uuid.UUID]*db.Sequence
	prompts    map[uuid.UUID]*db.Prompt
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects:   make(map[uuid.UUID]*db.Project),
		suites:     make(map[uuid.UUID]*db.Suite),
		blueprints: make(map[uuid.UUID][]db.Blueprint),
		sequences:  make(map[uuid.UUID]*db.Sequence),
		prompts:    make(map[uuid.UUID]*db.Prompt),
	}
}

func (s *fakeStore) GetProject(_ context.Context, id uuid.UUID) (*db.Project, error) {
	return s.projects[id], nil
}

func (s *fakeStore) FindActiveSuite(_ context.Context, projectID uuid.UUID) (*db.Suite, error) {
	for _, st := range s.suites {
		if st.ProjectID == projectID && st.Status.Active() {
			return st, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListBlueprints(_ context.Context, suiteID uuid.UUID) ([]db.Blueprint, error) {
	return s.blueprints[suiteID], nil
}

func (s *fakeStore) CreateSequence(_ context.Context, projectID, suiteID uuid.UUID) (*db.Sequence, bool, error) {
	for _, seq := range s.sequences {
		if seq.ProjectID == projectID && seq.Status.Active() {
			return nil, false, nil
		}
	}
	seq := &db.Sequence{
		ID:        uuid.New(),
		ProjectID: projectID,
		SuiteID:   suiteID,
		Status:    generation.BatchGenerating,
	}
	s.sequences[seq.ID] = seq
	return seq, true, nil
}

func (s *fakeStore) FindSequenceByProject(_ context.Context, projectID uuid.UUID) (*db.Sequence, error) {
	for _, seq := range s.sequences {
		if seq.ProjectID == projectID {
			return seq, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetSequence(_ context.Context, id uuid.UUID) (*db.Sequence, error) {
	return s.sequences[id], nil
}

func (s *fakeStore) UpdateSequenceStatus(_ context.Context, id uuid.UUID, status generation.BatchStatus, totalCount, completedCount int) error {
	seq := s.sequences[id]
	seq.Status = status
	seq.TotalCount = totalCount
	seq.CompletedCount = completedCount
	return nil
}

func (s *fakeStore) InsertPrompt(_ context.Context, p *db.Prompt) (*db.Prompt, error) {
	stored := *p
	stored.ID = uuid.New()
	s.prompts[stored.ID] = &stored
	return &stored, nil
}

func (s *fakeStore) ListPrompts(_ context.Context, sequenceID uuid.UUID) ([]db.Prompt, error) {
	var out []db.Prompt
	for _, p := range s.prompts {
		if p.SequenceID == sequenceID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out, nil
}

func (s *fakeStore) GetPrompt(_ context.Context, id uuid.UUID) (*db.Prompt, error) {
	if p, ok := s.prompts[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore) GetPromptByNumber(_ context.Context, sequenceID uuid.UUID, number int) (*db.Prompt, error) {
	for _, p := range s.prompts {
		if p.SequenceID == sequenceID && p.SequenceNumber == number {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) UpdatePromptStatus(_ context.Context, id uuid.UUID, status db.PromptStatus) error {
	s.prompts[id].Status = status
	return nil
}

func (s *fakeStore) UnlockPromptIfPending(_ context.Context, id uuid.UUID) (bool, error) {
	p := s.prompts[id]
	if p.Status != db.PromptStatusPending {
		return false, nil
	}
	p.Status = db.PromptStatusUnlocked
	return true, nil
}

// fakeLLM yields two prompts per category and fails categories in failFor.
type fakeLLM struct {
	failFor map[db.PromptCategory]bool
	calls   []db.PromptCategory
}

func (f *fakeLLM) categoryOf(userPrompt string) db.PromptCategory {
	for _, cat := range Categories {
		if strings.HasPrefix(userPrompt, "Phase: "+string(cat)+"\n") {
			return cat
		}
	}
	return ""
}

func (f *fakeLLM) GenerateJSON(_ context.Context, _, userPrompt string, _ llm.ModelTier) (string, error) {
	cat := f.categoryOf(userPrompt)
	f.calls = append(f.calls, cat)
	if f.failFor[cat] {
		return "", errors.New("model overloaded")
	}
	return fmt.Sprintf(`[
		{"title": "%s step one", "content": "do the first thing", "prerequisites": []},
		{"title": "%s step two", "content": "do the second thing", "prerequisites": ["%s step one"]}
	]`, cat, cat, cat), nil
}

func (f *fakeLLM) GenerateContent(ctx context.Context, sys, user string, tier llm.ModelTier) (string, error) {
	return f.GenerateJSON(ctx, sys, user, tier)
}

func (f *fakeLLM) StreamContent(ctx context.Context, sys, user string, tier llm.ModelTier, _ func(string)) (string, error) {
	return f.GenerateJSON(ctx, sys, user, tier)
}

func (f *fakeLLM) Close() error { return nil }

type fakeCreditStore struct {
	balance float64
	deducts int
	refunds int
}

func (s *fakeCreditStore) DeductCredits(_ context.Context, _ uuid.UUID, amount float64, _ string) (float64, bool, error) {
	if s.balance < amount {
		return s.balance, false, nil
	}
	s.balance -= amount
	s.deducts++
	return s.balance, true, nil
}

func (s *fakeCreditStore) RefundCredits(_ context.Context, _ uuid.UUID, amount float64, _ string) error {
	s.balance += amount
	s.refunds++
	return nil
}

func setup(balance float64, model *fakeLLM) (*Workflow, *fakeStore, *fakeCreditStore, uuid.UUID, uuid.UUID) {
	store := newFakeStore()
	creditStore := &fakeCreditStore{balance: balance}
	w := NewWorkflow(store, model, credit.NewLedger(creditStore), credit.DefaultCosts())

	userID := uuid.New()
	projectID := uuid.New()
	store.projects[projectID] = &db.Project{ID: projectID, UserID: userID, Name: "shop", ProjectType: "web"}

	st := &db.Suite{ID: uuid.New(), ProjectID: projectID, Status: generation.BatchComplete}
	store.suites[st.ID] = st
	store.blueprints[st.ID] = []db.Blueprint{
		{ID: uuid.New(), SuiteID: st.ID, DocType: "tech-stack", Status: db.BlueprintStatusComplete, Content: "Go and Postgres"},
	}
	return w, store, creditStore, userID, projectID
}

func TestGenerateFullSequence(t *testing.T) {
	w, _, creditStore, userID, projectID := setup(25, &fakeLLM{})

	res, err := w.Generate(context.Background(), userID, projectID, nil)
	require.NoError(t, err)

	assert.Equal(t, generation.BatchComplete, res.Sequence.Status)
	assert.Len(t, res.Prompts, 2*len(Categories))
	assert.Equal(t, len(res.Prompts), res.Sequence.TotalCount)

	// Numbering is dense and 1-based, following category order.
	for i, p := range res.Prompts {
		assert.Equal(t, i+1, p.SequenceNumber)
	}
	assert.Equal(t, db.CategorySetup, res.Prompts[0].Category)
	assert.Equal(t, db.CategoryTesting, res.Prompts[len(res.Prompts)-1].Category)

	// Only the very first prompt starts unlocked.
	assert.Equal(t, db.PromptStatusUnlocked, res.Prompts[0].Status)
	for _, p := range res.Prompts[1:] {
		assert.Equal(t, db.PromptStatusPending, p.Status)
	}

	// Charged once: 25 - 15.
	assert.Equal(t, 1, creditStore.deducts)
	assert.Equal(t, 10.0, creditStore.balance)
}

func TestGeneratePrerequisitesUseRollingWindow(t *testing.T) {
	w, _, _, userID, projectID := setup(25, &fakeLLM{})

	res, err := w.Generate(context.Background(), userID, projectID, nil)
	require.NoError(t, err)

	// The first prompt has only the model-supplied prerequisites.
	assert.Empty(t, res.Prompts[0].Prerequisites)

	// A later prompt carries the three preceding run titles plus the
	// generator's own list.
	p := res.Prompts[5]
	require.GreaterOrEqual(t, len(p.Prerequisites), 3)
	assert.Equal(t, res.Prompts[2].Title, p.Prerequisites[0])
	assert.Equal(t, res.Prompts[3].Title, p.Prerequisites[1])
	assert.Equal(t, res.Prompts[4].Title, p.Prerequisites[2])
}

func TestGenerateSkipCategories(t *testing.T) {
	w, _, _, userID, projectID := setup(25, &fakeLLM{})

	skip := []db.PromptCategory{db.CategoryAuth, db.CategoryPages}
	res, err := w.Generate(context.Background(), userID, projectID, skip)
	require.NoError(t, err)

	assert.Equal(t, generation.BatchComplete, res.Sequence.Status)
	for _, p := range res.Prompts {
		assert.NotContains(t, skip, p.Category)
	}
	assert.Len(t, res.Prompts, 2*(len(Categories)-2))
}

func TestGeneratePartialFailure(t *testing.T) {
	model := &fakeLLM{failFor: map[db.PromptCategory]bool{db.CategoryAuth: true}}
	w, _, creditStore, userID, projectID := setup(25, model)

	res, err := w.Generate(context.Background(), userID, projectID, nil)
	require.NoError(t, err)

	assert.Equal(t, generation.BatchPartial, res.Sequence.Status)
	assert.Len(t, res.Prompts, 2*(len(Categories)-1))
	// Partial output keeps the charge.
	assert.Equal(t, 0, creditStore.refunds)

	// Numbering stays dense despite the failed category.
	for i, p := range res.Prompts {
		assert.Equal(t, i+1, p.SequenceNumber)
	}
}

func TestGenerateTotalFailureRefunds(t *testing.T) {
	model := &fakeLLM{failFor: map[db.PromptCategory]bool{}}
	for _, cat := range Categories {
		model.failFor[cat] = true
	}
	w, _, creditStore, userID, projectID := setup(25, model)

	res, err := w.Generate(context.Background(), userID, projectID, nil)
	require.NoError(t, err)

	assert.Equal(t, generation.BatchError, res.Sequence.Status)
	assert.Empty(t, res.Prompts)
	// Zero output: the full charge came back.
	assert.Equal(t, 1, creditStore.deducts)
	assert.Equal(t, 1, creditStore.refunds)
	assert.Equal(t, 25.0, creditStore.balance)
}

func TestGenerateResumeFillsOnlyMissingCategories(t *testing.T) {
	model := &fakeLLM{failFor: map[db.PromptCategory]bool{
		db.CategoryFeatures: true,
		db.CategoryTesting:  true,
	}}
	w, _, creditStore, userID, projectID := setup(25, model)

	first, err := w.Generate(context.Background(), userID, projectID, nil)
	require.NoError(t, err)
	require.Equal(t, generation.BatchPartial, first.Sequence.Status)
	firstCount := len(first.Prompts)

	// Second call resumes over the two missing categories only, free.
	model.failFor = nil
	model.calls = nil
	second, err := w.Generate(context.Background(), userID, projectID, nil)
	require.NoError(t, err)

	assert.Equal(t, generation.BatchComplete, second.Sequence.Status)
	assert.Equal(t, []db.PromptCategory{db.CategoryFeatures, db.CategoryTesting}, model.calls)
	assert.Len(t, second.Prompts, firstCount+4)

	// Numbering continues densely across the resume.
	for i, p := range second.Prompts {
		assert.Equal(t, i+1, p.SequenceNumber)
	}

	// No second charge.
	assert.Equal(t, 1, creditStore.deducts)
	assert.Equal(t, 10.0, creditStore.balance)
}

func TestGenerateCompleteSequenceIsIdempotent(t *testing.T) {
	w, _, creditStore, userID, projectID := setup(25, &fakeLLM{})

	first, err := w.Generate(context.Background(), userID, projectID, nil)
	require.NoError(t, err)

	second, err := w.Generate(context.Background(), userID, projectID, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Sequence.ID, second.Sequence.ID)
	assert.Len(t, second.Prompts, len(first.Prompts))
	assert.Equal(t, 1, creditStore.deducts)
}

func TestGenerateRequiresGeneratedSuite(t *testing.T) {
	w, store, creditStore, userID, projectID := setup(25, &fakeLLM{})
	for _, st := range store.suites {
		st.Status = generation.BatchGenerating
	}

	_, err := w.Generate(context.Background(), userID, projectID, nil)
	var validation *db.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, 0, creditStore.deducts)
}

func TestGenerateInsufficientCredits(t *testing.T) {
	w, store, _, userID, projectID := setup(5, &fakeLLM{})

	_, err := w.Generate(context.Background(), userID, projectID, nil)
	var insufficient *credit.InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Empty(t, store.sequences)
}

func TestSetItemStatusUnlocksSuccessor(t *testing.T) {
	w, _, _, userID, projectID := setup(25, &fakeLLM{})

	res, err := w.Generate(context.Background(), userID, projectID, nil)
	require.NoError(t, err)

	first, second, third := res.Prompts[0], res.Prompts[1], res.Prompts[2]

	updated, err := w.SetItemStatus(context.Background(), userID, first.ID, db.PromptStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, db.PromptStatusCompleted, updated.Status)

	// Completing prompt 1 unlocks prompt 2 and only prompt 2.
	after, err := w.Status(context.Background(), userID, projectID)
	require.NoError(t, err)
	assert.Equal(t, db.PromptStatusUnlocked, after.Prompts[1].Status)
	assert.Equal(t, db.PromptStatusPending, after.Prompts[2].Status)
	assert.Equal(t, 1, after.Sequence.CompletedCount)

	// Skipping also advances the chain.
	_, err = w.SetItemStatus(context.Background(), userID, second.ID, db.PromptStatusSkipped)
	require.NoError(t, err)
	after, err = w.Status(context.Background(), userID, projectID)
	require.NoError(t, err)
	assert.Equal(t, db.PromptStatusUnlocked, after.Prompts[2].Status)
	assert.Equal(t, third.Title, after.Prompts[2].Title)
	assert.Equal(t, 2, after.Sequence.CompletedCount)
}

func TestSetItemStatusUnlockLeavesNonPendingSuccessor(t *testing.T) {
	w, _, _, userID, projectID := setup(25, &fakeLLM{})

	res, err := w.Generate(context.Background(), userID, projectID, nil)
	require.NoError(t, err)
	first, second := res.Prompts[0], res.Prompts[1]

	// The client works prompts 1 and 2, then undoes prompt 1. Re-completing
	// it must not knock the in-progress successor back to unlocked.
	_, err = w.SetItemStatus(context.Background(), userID, first.ID, db.PromptStatusCompleted)
	require.NoError(t, err)
	_, err = w.SetItemStatus(context.Background(), userID, second.ID, db.PromptStatusInProgress)
	require.NoError(t, err)
	_, err = w.SetItemStatus(context.Background(), userID, first.ID, db.PromptStatusUnlocked)
	require.NoError(t, err)
	_, err = w.SetItemStatus(context.Background(), userID, first.ID, db.PromptStatusCompleted)
	require.NoError(t, err)

	after, err := w.Status(context.Background(), userID, projectID)
	require.NoError(t, err)
	assert.Equal(t, db.PromptStatusInProgress, after.Prompts[1].Status)
}

func TestSetItemStatusRejectsInvalidTransition(t *testing.T) {
	w, _, _, userID, projectID := setup(25, &fakeLLM{})

	res, err := w.Generate(context.Background(), userID, projectID, nil)
	require.NoError(t, err)

	// A pending prompt cannot be started by the client.
	pending := res.Prompts[3]
	_, err = w.SetItemStatus(context.Background(), userID, pending.ID, db.PromptStatusInProgress)
	var validation *db.ValidationError
	require.ErrorAs(t, err, &validation)

	// Undoing a completed prompt back to unlocked is allowed.
	first := res.Prompts[0]
	_, err = w.SetItemStatus(context.Background(), userID, first.ID, db.PromptStatusCompleted)
	require.NoError(t, err)
	undone, err := w.SetItemStatus(context.Background(), userID, first.ID, db.PromptStatusUnlocked)
	require.NoError(t, err)
	assert.Equal(t, db.PromptStatusUnlocked, undone.Status)
}

func TestSetItemStatusRejectsForeignUser(t *testing.T) {
	w, _, _, userID, projectID := setup(25, &fakeLLM{})

	res, err := w.Generate(context.Background(), userID, projectID, nil)
	require.NoError(t, err)

	_, err = w.SetItemStatus(context.Background(), uuid.New(), res.Prompts[0].ID, db.PromptStatusCompleted)
	var notFound *db.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
