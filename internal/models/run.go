package models

import "time"

// RunRecord is the audit entry written for every finished traversal.
type RunRecord struct {
	ID         string    `json:"id"`
	Start      AccountID `json:"start"`
	Caller     string    `json:"caller,omitempty"`
	State      string    `json:"state"`
	Summary    Summary   `json:"summary"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunQueryOpts holds filters for listing traversal runs.
type RunQueryOpts struct {
	Start  AccountID
	State  string
	Since  *time.Time
	Limit  int
	Offset int
}
