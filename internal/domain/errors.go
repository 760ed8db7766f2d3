package domain

import "errors"

// Typed error kinds returned by the core services. Adapters classify with
// errors.Is and map to transport-specific representations; none of these are
// swallowed internally.
var (
	// ErrNotFound indicates the named collection is absent or inactive.
	ErrNotFound = errors.New("collection not found")

	// ErrNameConflict indicates another active collection already claims the
	// name, or its normalized storage-table identifier.
	ErrNameConflict = errors.New("collection name conflict")

	// ErrInvalidDimension indicates an unsupported vector dimension, or a
	// vector whose length does not match the collection dimension.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrDegenerateVector indicates a zero-norm vector that cannot be
	// L2-normalized.
	ErrDegenerateVector = errors.New("degenerate vector")

	// ErrUnsupportedReduction indicates a raw embedding narrower than the
	// target dimension; upscaling is not defined.
	ErrUnsupportedReduction = errors.New("unsupported dimension reduction")

	// ErrStorageFailure wraps any transactional storage failure. The failed
	// transaction is fully rolled back before this is returned.
	ErrStorageFailure = errors.New("storage failure")

	// ErrEmbeddingFailure wraps upstream embedding provider failures. It
	// aborts the current call only and never touches collection metadata.
	ErrEmbeddingFailure = errors.New("embedding provider failure")

	// ErrInvalidInput indicates a malformed request argument.
	ErrInvalidInput = errors.New("invalid input")
)
