package domain

import "time"

// PullRequest is the metadata fetched for a PR from the hosting API,
// as stored in the local cache.
type PullRequest struct {
	Number    int
	Title     string
	Author    string
	MergedAt  string // ISO 8601, empty if unmerged
	UpdatedAt string // ISO 8601
	Files     []string
}

// Stale reports whether the cached copy is older than the updated_at
// timestamp currently advertised by the API. ISO 8601 timestamps
// compare correctly as strings.
func (p *PullRequest) Stale(currentUpdatedAt string) bool {
	return p.UpdatedAt < currentUpdatedAt
}

// RunSummary records one collection run for the cache's run log.
type RunSummary struct {
	ID             string
	StartRef       string
	EndRef         string
	StartedAt      time.Time
	Groups         int
	CompilerGroups int
	ParseWarnings  int
}
