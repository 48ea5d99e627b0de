// Package connector describes the connector types a traversal follows:
// how each type is stored and how its edges are drawn.
package connector

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/citadelrisk/graphbuilder/internal/models"
)

// Defaults for the shared connector table created by the bundled migrations.
const (
	DefaultTable         = "account_connectors"
	DefaultAccountColumn = "account_id"
	DefaultValueColumn   = "connector_value"
	DefaultTypeColumn    = "connector_type"
	DefaultLabelLength   = 3
	DefaultColor         = "black"
)

// identifierPattern restricts table/column names spliced into SQL.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Type describes one connector type.
//
// With TypeColumn set, rows of Table are filtered by TypeColumn = Name; this is
// how the shared account_connectors table holds several types. Leave TypeColumn
// empty for a dedicated table (e.g. user_devices).
type Type struct {
	Name          models.ConnectorType `yaml:"name" json:"name"`
	Color         string               `yaml:"color" json:"color"`
	LabelLength   int                  `yaml:"label_length" json:"label_length"`
	Table         string               `yaml:"table" json:"table"`
	AccountColumn string               `yaml:"account_column" json:"account_column"`
	ValueColumn   string               `yaml:"value_column" json:"value_column"`
	TypeColumn    string               `yaml:"type_column" json:"type_column,omitempty"`
}

// Label returns the edge label for value.
func (t Type) Label(value models.ConnectorValue) string {
	return value.Label(t.LabelLength)
}

func (t *Type) applyDefaults() {
	if t.Color == "" {
		t.Color = DefaultColor
	}

	if t.LabelLength == 0 {
		t.LabelLength = DefaultLabelLength
	}

	if t.Table == "" {
		t.Table = DefaultTable
		if t.TypeColumn == "" {
			t.TypeColumn = DefaultTypeColumn
		}
	}

	if t.AccountColumn == "" {
		t.AccountColumn = DefaultAccountColumn
	}

	if t.ValueColumn == "" {
		t.ValueColumn = DefaultValueColumn
	}
}

func (t *Type) validate() error {
	if strings.TrimSpace(string(t.Name)) == "" {
		return fmt.Errorf("connector name is required")
	}

	if t.LabelLength < 0 {
		return fmt.Errorf("connector %s: label_length must not be negative", t.Name)
	}

	for field, ident := range map[string]string{
		"table":          t.Table,
		"account_column": t.AccountColumn,
		"value_column":   t.ValueColumn,
	} {
		if !identifierPattern.MatchString(ident) {
			return fmt.Errorf("connector %s: %s %q is not a valid SQL identifier", t.Name, field, ident)
		}
	}

	if t.TypeColumn != "" && !identifierPattern.MatchString(t.TypeColumn) {
		return fmt.Errorf("connector %s: type_column %q is not a valid SQL identifier", t.Name, t.TypeColumn)
	}

	return nil
}

// Catalog is the ordered set of connector types a traversal follows.
type Catalog struct {
	Types []Type `yaml:"connectors" json:"connectors"`
}

// Default returns the built-in catalogue: devices in blue, phones in red,
// identity tokens in green, all stored in the shared connector table.
func Default() *Catalog {
	c := &Catalog{Types: []Type{
		{Name: "device", Color: "blue"},
		{Name: "phone", Color: "red"},
		{Name: "truyou", Color: "green"},
	}}

	for i := range c.Types {
		c.Types[i].applyDefaults()
	}

	return c
}

// Load reads a YAML catalogue from path. An empty path yields the default catalogue.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading connector catalogue: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML catalogue.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing connector catalogue: %w", err)
	}

	if len(c.Types) == 0 {
		return nil, fmt.Errorf("connector catalogue defines no connectors")
	}

	seen := make(map[models.ConnectorType]bool, len(c.Types))

	for i := range c.Types {
		t := &c.Types[i]
		t.applyDefaults()

		if err := t.validate(); err != nil {
			return nil, err
		}

		if seen[t.Name] {
			return nil, fmt.Errorf("connector %s defined more than once", t.Name)
		}
		seen[t.Name] = true
	}

	return &c, nil
}

// Get returns the connector type named name.
func (c *Catalog) Get(name models.ConnectorType) (Type, bool) {
	for _, t := range c.Types {
		if t.Name == name {
			return t, true
		}
	}

	return Type{}, false
}

// Names returns the connector type names in catalogue order.
func (c *Catalog) Names() []models.ConnectorType {
	out := make([]models.ConnectorType, len(c.Types))
	for i, t := range c.Types {
		out[i] = t.Name
	}

	return out
}
