package generation

import (
	"context"
	"fmt"
)

// Hooks describe how the coordinator advances one item through its
// lifecycle. Generate errors are isolated to the item; hook (persistence)
// errors abort the batch.
type Hooks[T any] struct {
	// Describe returns a short label for log lines.
	Describe func(item T) string
	// MarkGenerating persists the item's transition into the generating state.
	MarkGenerating func(ctx context.Context, item T) error
	// Generate produces the item's content via the upstream service.
	Generate func(ctx context.Context, item T) (string, error)
	// MarkComplete persists the generated content and the complete status.
	MarkComplete func(ctx context.Context, item T, content string) error
	// MarkError persists the error status. The batch continues afterwards.
	MarkError func(ctx context.Context, item T, genErr error) error
}

// ItemError records a per-item generation failure for diagnostics.
type ItemError struct {
	Index int
	Label string
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.Label, e.Err)
}

// Result summarizes a finished batch.
type Result struct {
	Total     int
	Completed int
	Errors    []ItemError
}

// Status derives the batch outcome from the result.
func (r Result) Status() BatchStatus {
	return DeriveBatchStatus(r.Completed, r.Total)
}

// Run executes the items strictly sequentially in list order. Later items'
// prompts are built from earlier items' output, so ordering is a correctness
// requirement, not a throttling convenience. A single item failure never
// aborts the batch; the item is marked errored and the run continues. The
// batch always runs to the end of the list: callers that charged for the
// batch must hand in a context that outlives the request, since every item
// was paid for up front.
func Run[T any](ctx context.Context, items []T, h Hooks[T]) (Result, error) {
	res := Result{Total: len(items)}

	for i, item := range items {
		label := fmt.Sprintf("item %d", i+1)
		if h.Describe != nil {
			label = h.Describe(item)
		}

		if err := h.MarkGenerating(ctx, item); err != nil {
			return res, fmt.Errorf("failed to mark %s generating: %w", label, err)
		}

		content, genErr := h.Generate(ctx, item)
		if genErr != nil {
			res.Errors = append(res.Errors, ItemError{Index: i, Label: label, Err: genErr})
			if err := h.MarkError(ctx, item, genErr); err != nil {
				return res, fmt.Errorf("failed to mark %s errored: %w", label, err)
			}
			continue
		}

		if err := h.MarkComplete(ctx, item, content); err != nil {
			return res, fmt.Errorf("failed to mark %s complete: %w", label, err)
		}
		res.Completed++
	}

	return res, nil
}
