package connector_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/citadelrisk/graphbuilder/internal/connector"
)

func TestDefaultCatalog(t *testing.T) {
	c := connector.Default()

	names := c.Names()
	if len(names) != 3 || names[0] != "device" || names[1] != "phone" || names[2] != "truyou" {
		t.Fatalf("Names() = %v", names)
	}

	device, ok := c.Get("device")
	if !ok {
		t.Fatal("device connector missing")
	}

	if device.Color != "blue" || device.Table != connector.DefaultTable || device.TypeColumn != connector.DefaultTypeColumn {
		t.Errorf("unexpected device defaults: %+v", device)
	}

	if got := device.Label("abcdef"); got != "abc" {
		t.Errorf("Label = %q, want abc", got)
	}

	if _, ok := c.Get("email"); ok {
		t.Error("unexpected email connector")
	}
}

func TestParseCatalog(t *testing.T) {
	data := []byte(`
connectors:
  - name: device
    color: blue
    table: user_devices
    account_column: user_id
    value_column: device_hash
  - name: email
    label_length: 5
`)

	c, err := connector.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	device, _ := c.Get("device")
	if device.Table != "user_devices" || device.TypeColumn != "" || device.AccountColumn != "user_id" {
		t.Errorf("dedicated table should not get a type column: %+v", device)
	}

	email, _ := c.Get("email")
	if email.Color != connector.DefaultColor || email.LabelLength != 5 || email.TypeColumn != connector.DefaultTypeColumn {
		t.Errorf("unexpected email defaults: %+v", email)
	}
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "empty", yaml: "connectors: []", wantErr: "defines no connectors"},
		{name: "missing name", yaml: "connectors:\n  - color: red", wantErr: "name is required"},
		{name: "duplicate", yaml: "connectors:\n  - name: a\n  - name: a", wantErr: "more than once"},
		{name: "bad table", yaml: "connectors:\n  - name: a\n    table: \"x; DROP TABLE y\"", wantErr: "not a valid SQL identifier"},
		{name: "negative label", yaml: "connectors:\n  - name: a\n    label_length: -1", wantErr: "must not be negative"},
		{name: "malformed", yaml: "connectors: [", wantErr: "parsing connector catalogue"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := connector.Parse([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Parse error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	c, err := connector.Load("")
	if err != nil || len(c.Types) != 3 {
		t.Fatalf("Load(\"\") = %v, %v", c, err)
	}

	path := filepath.Join(t.TempDir(), "connectors.yaml")
	if err := os.WriteFile(path, []byte("connectors:\n  - name: ip\n"), 0o600); err != nil {
		t.Fatalf("writing catalogue: %v", err)
	}

	c, err = connector.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if names := c.Names(); len(names) != 1 || names[0] != "ip" {
		t.Errorf("Names() = %v, want [ip]", names)
	}

	if _, err := connector.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
