package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureStdout replaces os.Stdout with a pipe, calls f, then returns the
// captured output and restores os.Stdout. It is NOT safe for parallel use
// because os.Stdout is a package-level variable.
func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w

	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		io.Copy(&buf, r)
		close(done)
	}()

	f()

	w.Close()
	<-done
	os.Stdout = orig
	r.Close()
	return buf.String()
}

func TestFormatJSON(t *testing.T) {
	v := map[string]int{"total_accounts": 3}

	got := captureStdout(t, func() { formatJSON(v) })

	var out map[string]int
	if err := json.Unmarshal([]byte(got), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, got)
	}
	if out["total_accounts"] != 3 {
		t.Errorf("total_accounts: got %d, want 3", out["total_accounts"])
	}
	if !strings.Contains(got, "\n  ") {
		t.Errorf("expected indented JSON, got %q", got)
	}
}

func TestFormatTable(t *testing.T) {
	got := captureStdout(t, func() {
		formatTable([]string{"NAME", "COLOR"}, [][]string{{"device", "blue"}, {"truyou", "green"}})
	})

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), got)
	}
	if lines[0] != "NAME    COLOR" {
		t.Errorf("header: got %q", lines[0])
	}
	if lines[1] != "------  -----" {
		t.Errorf("separator: got %q", lines[1])
	}
	if lines[3] != "truyou  green" {
		t.Errorf("row: got %q", lines[3])
	}
}

func TestOutputModes(t *testing.T) {
	resetFlags(t)

	tests := []struct {
		format string
		want   string
	}{
		{"quiet", "42\n"},
		{"table", "table\n"},
		{"json", "{\n  \"n\": 42\n}\n"},
	}

	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			flagFmt = tc.format
			got := captureStdout(t, func() {
				output(map[string]int{"n": 42}, "42", func() { os.Stdout.WriteString("table\n") })
			})
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOutputTableFallsBackToJSON(t *testing.T) {
	resetFlags(t)
	flagFmt = "table"

	got := captureStdout(t, func() { output(map[string]int{"n": 1}, "1", nil) })
	if !strings.HasPrefix(got, "{") {
		t.Errorf("expected JSON fallback, got %q", got)
	}
}

func TestSummaryRows(t *testing.T) {
	rows := summaryRows(4, 3, 2, 5)

	if rows[0][1] != "3" {
		t.Errorf("connected accounts: got %q, want 3", rows[0][1])
	}
	if rows[1][1] != "4" {
		t.Errorf("total accounts: got %q, want 4", rows[1][1])
	}
	if rows[4][1] != "5" {
		t.Errorf("relationships: got %q, want 5", rows[4][1])
	}
}

func TestWriteOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.dot")

	if err := writeOutput(path, []byte("graph {}")); err != nil {
		t.Fatalf("writeOutput: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "graph {}" {
		t.Errorf("got %q", data)
	}
}

func TestWriteOutputStdout(t *testing.T) {
	got := captureStdout(t, func() {
		if err := writeOutput("-", []byte("graph {}")); err != nil {
			t.Errorf("writeOutput: %v", err)
		}
	})
	if got != "graph {}" {
		t.Errorf("got %q", got)
	}
}
