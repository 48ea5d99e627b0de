package engine

import "github.com/citadelrisk/graphbuilder/internal/models"

// State is the lifecycle state of one traversal.
type State int

// Traversal states. Done and Failed are terminal.
const (
	StateIdle State = iota
	StateRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event reports traversal progress. One event is emitted after every completed
// layer and one final event when the traversal reaches a terminal state.
type Event struct {
	State         State              `json:"state"`
	Layer         int                `json:"layer"`
	Frontier      int                `json:"frontier"`
	Discovered    []models.AccountID `json:"discovered,omitempty"`
	TotalAccounts int                `json:"total_accounts"`
	Relationships int                `json:"relationships"`
	Error         string             `json:"error,omitempty"`
}

// Observer receives traversal events. It is called synchronously from the
// traversal goroutine, between layers, and must not block for long.
type Observer func(Event)
