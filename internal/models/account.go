// Package models defines data types for connector link analysis.
package models

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// AccountID identifies an account. It is the node key of the relationship graph.
type AccountID int64

// String implements fmt.Stringer.
func (id AccountID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Validate checks that id is usable as a traversal start.
func (id AccountID) Validate() error {
	if id <= 0 {
		return fmt.Errorf("%w: account id must be positive, got %d", ErrInvalidInput, id)
	}

	return nil
}

// ParseAccountID parses an external account identifier (path parameter, CLI argument).
func ParseAccountID(s string) (AccountID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: account id must not be empty", ErrInvalidInput)
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: account id %q is not an integer", ErrInvalidInput, s)
	}

	id := AccountID(v)
	if err := id.Validate(); err != nil {
		return 0, err
	}

	return id, nil
}

// CoerceAccountID converts a driver-returned account column into an AccountID.
// Drivers disagree on integer representation (int64, int32, []byte, string),
// so every lookup result passes through here. Non-positive ids are rejected.
func CoerceAccountID(v any) (AccountID, error) {
	id, err := coerceAccount(v)
	if err != nil {
		return 0, err
	}

	if id <= 0 {
		return 0, fmt.Errorf("account id %d is not positive", id)
	}

	return id, nil
}

func coerceAccount(v any) (AccountID, error) {
	switch x := v.(type) {
	case int64:
		return AccountID(x), nil
	case int32:
		return AccountID(x), nil
	case int:
		return AccountID(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("account id %d overflows int64", x)
		}
		return AccountID(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("account id %v is not integral", x)
		}
		if x >= math.MaxInt64 || x < math.MinInt64 {
			return 0, fmt.Errorf("account id %v overflows int64", x)
		}
		return AccountID(x), nil
	case []byte:
		return coerceAccountString(string(x))
	case string:
		return coerceAccountString(x)
	case nil:
		return 0, fmt.Errorf("account id is null")
	default:
		return 0, fmt.Errorf("unsupported account id type %T", v)
	}
}

func coerceAccountString(s string) (AccountID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("account id %q is not an integer", s)
	}

	return AccountID(v), nil
}

// SortAccounts sorts ids in ascending order in place and returns them.
func SortAccounts(ids []AccountID) []AccountID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Summary reports what a traversal reached.
type Summary struct {
	// TotalAccounts counts the start account plus every discovered account.
	TotalAccounts int `json:"total_accounts"`
	// Layers is the number of BFS rounds executed, including the final
	// round that discovered nothing.
	Layers int `json:"layers"`
	// Depth is the last layer that discovered at least one account.
	Depth int `json:"depth"`
	// Relationships is the number of distinct connector-keyed edges.
	Relationships int `json:"relationships"`
}
