package dag

import "errors"

// Sentinel errors surfaced by the DAG engine and storage layer. Wrap with
// fmt.Errorf("...: %w", err) at call sites that need extra context; compare
// with errors.Is at the boundary.
var (
	// ErrStructural is returned when a transaction fails the structural
	// checks in ValidateStructure (empty inputs/outputs, equal parents,
	// timestamp too far in the future, undersized ring, bad key image).
	ErrStructural = errors.New("dag: malformed transaction")

	// ErrInvalidParent is returned when a referenced parent is not present
	// in storage at admission time.
	ErrInvalidParent = errors.New("dag: parent transaction not found")

	// ErrNotFound is returned by storage lookups that miss.
	ErrNotFound = errors.New("dag: transaction not found")

	// ErrAlreadyExists is returned by Storage.Store when the hash is
	// already present. Re-insertion is never silently idempotent at the
	// storage layer.
	ErrAlreadyExists = errors.New("dag: transaction already exists")

	// ErrNoTips is returned by tip selection when the tip set is empty.
	ErrNoTips = errors.New("dag: no tips available for selection")

	// ErrCouldNotSelectDistinct is returned in the vanishingly unlikely
	// case that a distinct second tip cannot be found despite |tips| > 1.
	ErrCouldNotSelectDistinct = errors.New("dag: could not select distinct tips")

	// ErrCannotFinalize is returned when FinalizeTransaction is asked to
	// finalize a transaction that has already been ruled out of
	// consensus (Conflicted). A transaction the engine has never seen
	// gets ErrNotFound instead.
	ErrCannotFinalize = errors.New("dag: transaction cannot be finalized")
)
