package retrieval

import "errors"

// Error kinds from the engine's error taxonomy. Callers compare with
// errors.Is; wrapped errors carry additional context via fmt.Errorf("%w").
var (
	// ErrNotReady names retrieval requested before the engine is ready. No
	// function in this package returns it.
	ErrNotReady = errors.New("retrieval: not ready")

	// ErrIoError wraps a persistence read/write failure. Loads recover by
	// continuing with in-memory state; saves surface it to the caller.
	ErrIoError = errors.New("retrieval: io error")

	// ErrCorruptSnapshot indicates a persisted snapshot failed to parse or
	// was missing required fields. The affected index resets to empty.
	ErrCorruptSnapshot = errors.New("retrieval: corrupt snapshot")

	// ErrEmptyQuery names a query that tokenizes to nothing, which is not a
	// failure condition. No function in this package returns it:
	// BM25Index.Search returns no matches for such a query instead.
	ErrEmptyQuery = errors.New("retrieval: empty query")

	// ErrExternalFailure wraps a failure in an optional collaborator
	// (vector index, embedder, web search). The pipeline degrades
	// gracefully rather than failing outright.
	ErrExternalFailure = errors.New("retrieval: external collaborator failed")
)
