package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/config"
	"github.com/citadelrisk/graphbuilder/internal/db"
	"github.com/citadelrisk/graphbuilder/internal/models"
	"github.com/citadelrisk/graphbuilder/internal/render"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DatabaseDriver:      db.DriverSQLite,
		DatabaseURL:         config.Secret(filepath.Join(t.TempDir(), "graph.db")),
		DBMaxConns:          4,
		LookupBatchSize:     500,
		LookupTimeout:       5 * time.Second,
		LookupRetryInterval: 10 * time.Millisecond,
		TraversalConcurrent: true,
		DotBinary:           "dot",
		LogLevel:            "error",
		LogFormat:           "text",
	}
}

// seed migrates the database and stores a three-account chain:
// 1 and 2 share a device, 2 and 3 share a phone, 9 is unrelated.
func seed(t *testing.T, cfg *config.Config) {
	t.Helper()

	b, err := openBackend(context.Background(), cfg, quietLogger(), true)
	if err != nil {
		t.Fatalf("openBackend: %v", err)
	}
	defer b.Close()

	rows := []struct {
		id         int64
		typ, value string
	}{
		{1, "device", "d-100"},
		{2, "device", "d-100"},
		{2, "phone", "555-0101"},
		{3, "phone", "555-0101"},
		{9, "truyou", "t-9"},
	}
	for _, r := range rows {
		_, err := b.sqlDB.Exec(
			"INSERT INTO account_connectors (account_id, connector_type, connector_value) VALUES (?, ?, ?)",
			r.id, r.typ, r.value,
		)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
}

func TestBuildLocalJSON(t *testing.T) {
	resetFlags(t)
	flagFmt = "quiet"

	cfg := sqliteConfig(t)
	seed(t, cfg)

	out := filepath.Join(t.TempDir(), "graph.json")

	printed := captureStdout(t, func() {
		if err := buildLocal(context.Background(), cfg, quietLogger(), 1, render.FormatJSON, out, false); err != nil {
			t.Errorf("buildLocal: %v", err)
		}
	})
	if printed != "3\n" {
		t.Errorf("quiet summary: got %q, want %q", printed, "3\n")
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var view models.GraphView
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Start != 1 {
		t.Errorf("start: got %d, want 1", view.Start)
	}
	if len(view.Accounts) != 3 {
		t.Errorf("accounts: got %v, want 3 accounts", view.Accounts)
	}
	if len(view.Relationships) != 2 {
		t.Fatalf("relationships: got %d, want 2", len(view.Relationships))
	}
	for _, r := range view.Relationships {
		switch r.Type {
		case "device":
			if r.A != 1 || r.B != 2 || r.Color != "blue" {
				t.Errorf("device edge: got %+v", r)
			}
		case "phone":
			if r.A != 2 || r.B != 3 || r.Color != "red" {
				t.Errorf("phone edge: got %+v", r)
			}
		default:
			t.Errorf("unexpected edge %+v", r)
		}
	}
}

func TestBuildLocalRecordsRun(t *testing.T) {
	resetFlags(t)
	flagFmt = "quiet"

	cfg := sqliteConfig(t)
	seed(t, cfg)

	out := filepath.Join(t.TempDir(), "graph.dot")
	captureStdout(t, func() {
		if err := buildLocal(context.Background(), cfg, quietLogger(), 9, render.FormatDOT, out, false); err != nil {
			t.Errorf("buildLocal: %v", err)
		}
	})

	b, err := openBackend(context.Background(), cfg, quietLogger(), false)
	if err != nil {
		t.Fatalf("openBackend: %v", err)
	}
	defer b.Close()

	runs, _, err := b.runs.ListRuns(context.Background(), models.RunQueryOpts{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs: got %d, want 1", len(runs))
	}
	if runs[0].Start != 9 || runs[0].Caller != "cli" || runs[0].Summary.TotalAccounts != 1 {
		t.Errorf("run: got %+v", runs[0])
	}
}

func TestOpenBackendUnknownCatalog(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.ConnectorsFile = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := openBackend(context.Background(), cfg, quietLogger(), false); err == nil {
		t.Fatal("expected error for missing catalogue file")
	}
}

func TestMigrateSQLite(t *testing.T) {
	cfg := sqliteConfig(t)

	if err := migrate(context.Background(), cfg, quietLogger()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Applying again is a no-op.
	if err := migrate(context.Background(), cfg, quietLogger()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestNewLoggerFormat(t *testing.T) {
	log := newLogger(&config.Config{LogLevel: "debug", LogFormat: "json"})

	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level: got %v, want debug", log.GetLevel())
	}
	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter: got %T, want JSON", log.Formatter)
	}
}
