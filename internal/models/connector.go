package models

import "sort"

// ConnectorType names an attribute whose shared values link accounts
// (device, phone, identity token).
type ConnectorType string

// ConnectorValue is one concrete value of a connector type, such as a device hash.
type ConnectorValue string

// Label returns the first n characters of v, used as an edge label.
func (v ConnectorValue) Label(n int) string {
	r := []rune(string(v))
	if n <= 0 || len(r) <= n {
		return string(v)
	}

	return string(r[:n])
}

// EdgeKey identifies a relationship between two accounts: one connector type and value.
type EdgeKey struct {
	Type  ConnectorType  `json:"type"`
	Value ConnectorValue `json:"value"`
}

// ConnectorMap maps an account to the connector values it holds for one connector type.
type ConnectorMap map[AccountID]map[ConnectorValue]struct{}

// Add records that id holds value.
func (m ConnectorMap) Add(id AccountID, value ConnectorValue) {
	set, ok := m[id]
	if !ok {
		set = make(map[ConnectorValue]struct{})
		m[id] = set
	}

	set[value] = struct{}{}
}

// Values returns every distinct connector value in the map, sorted.
func (m ConnectorMap) Values() []ConnectorValue {
	seen := make(map[ConnectorValue]struct{})
	for _, set := range m {
		for v := range set {
			seen[v] = struct{}{}
		}
	}

	out := make([]ConnectorValue, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// ValuesOf returns the sorted connector values held by id.
func (m ConnectorMap) ValuesOf(id AccountID) []ConnectorValue {
	set := m[id]
	out := make([]ConnectorValue, 0, len(set))
	for v := range set {
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// ConnectionMap maps a connector value to every account holding it.
type ConnectionMap map[ConnectorValue]map[AccountID]struct{}

// Add records that id holds value.
func (m ConnectionMap) Add(value ConnectorValue, id AccountID) {
	set, ok := m[value]
	if !ok {
		set = make(map[AccountID]struct{})
		m[value] = set
	}

	set[id] = struct{}{}
}

// Holders returns the sorted accounts holding value.
func (m ConnectionMap) Holders(value ConnectorValue) []AccountID {
	set := m[value]
	out := make([]AccountID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}

	return SortAccounts(out)
}
