package retrieval

import "context"

// WebResult is one hit from a WebSearch provider.
type WebResult struct {
	Text   string
	Source string
}

// WebSearch is the external collaborator consulted by BrainIntegration when
// the caller opts in and intent is personal or hybrid. Implementations own
// their own transport and rate limiting; the core treats failures as an
// ExternalFailure (§7) and degrades to no web results.
type WebSearch interface {
	Search(ctx context.Context, query string, count int) ([]WebResult, error)
}
