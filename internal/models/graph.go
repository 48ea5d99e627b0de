package models

// Relationship is one connector-keyed edge between two accounts.
// A is always the smaller account id.
type Relationship struct {
	A     AccountID      `json:"a"`
	B     AccountID      `json:"b"`
	Type  ConnectorType  `json:"type"`
	Value ConnectorValue `json:"value"`
	Label string         `json:"label"`
	Color string         `json:"color"`
}

// Key returns the edge key of r.
func (r Relationship) Key() EdgeKey {
	return EdgeKey{Type: r.Type, Value: r.Value}
}

// GraphView is the serializable result of one traversal.
type GraphView struct {
	Start         AccountID      `json:"start"`
	Accounts      []AccountID    `json:"accounts"`
	Relationships []Relationship `json:"relationships"`
	Summary       Summary        `json:"summary"`
}
