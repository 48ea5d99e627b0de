package client

import "time"

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Driver        string  `json:"driver"`
	Database      string  `json:"database"`
	SchemaVersion int64   `json:"schema_version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Connector describes one connector type.
type Connector struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	LabelLength int    `json:"label_length"`
}

// Relationship is one connector-keyed edge; A is the smaller account id.
type Relationship struct {
	A     int64  `json:"a"`
	B     int64  `json:"b"`
	Type  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Summary reports what a traversal reached.
type Summary struct {
	TotalAccounts int `json:"total_accounts"`
	Layers        int `json:"layers"`
	Depth         int `json:"depth"`
	Relationships int `json:"relationships"`
}

// GraphView is the JSON form of a link graph.
type GraphView struct {
	Start         int64          `json:"start"`
	Accounts      []int64        `json:"accounts"`
	Relationships []Relationship `json:"relationships"`
	Summary       Summary        `json:"summary"`
}

// Event is one progress report from a streamed traversal.
type Event struct {
	State         string  `json:"state"`
	Layer         int     `json:"layer"`
	Frontier      int     `json:"frontier"`
	Discovered    []int64 `json:"discovered,omitempty"`
	TotalAccounts int     `json:"total_accounts"`
	Relationships int     `json:"relationships"`
	Error         string  `json:"error,omitempty"`
}

// RunRecord is one entry of the traversal run log.
type RunRecord struct {
	ID         string    `json:"id"`
	Start      int64     `json:"start"`
	Caller     string    `json:"caller,omitempty"`
	State      string    `json:"state"`
	Summary    Summary   `json:"summary"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunListOptions filters the run log.
type RunListOptions struct {
	Account int64
	State   string
	Since   time.Time
	Limit   int
	Offset  int
}

// RunList is a page of run records.
type RunList struct {
	Data    []RunRecord `json:"data"`
	HasMore bool        `json:"has_more"`
}
