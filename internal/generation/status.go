// Package generation provides the sequential batch driver shared by the
// suite and sequence workflows, and the pure batch-status derivation.
package generation

// BatchStatus is the aggregate status of a generation batch.
type BatchStatus string

// Batch status constants. Generating is the only non-terminal status.
const (
	BatchGenerating BatchStatus = "generating"
	BatchComplete   BatchStatus = "complete"
	BatchPartial    BatchStatus = "partial"
	BatchError      BatchStatus = "error"
)

// Active reports whether a batch in this status still counts against the
// one-active-batch-per-project invariant.
func (s BatchStatus) Active() bool {
	switch s {
	case BatchGenerating, BatchComplete, BatchPartial:
		return true
	}
	return false
}

// DeriveBatchStatus maps item completion counts to the batch outcome.
// It is a pure reduction over the final state of the batch:
// every item done is complete, none is error, anything between is partial.
func DeriveBatchStatus(completed, total int) BatchStatus {
	switch {
	case total > 0 && completed == total:
		return BatchComplete
	case completed > 0:
		return BatchPartial
	default:
		return BatchError
	}
}
