package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

func formatJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode json: %v\n", err)
		os.Exit(1)
	}
}

func formatTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			parts[i] = fmt.Sprintf("%-*s", w, cell)
		}
		fmt.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(headers)
	seps := make([]string, len(headers))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	printRow(seps)
	for _, row := range rows {
		printRow(row)
	}
}

// output prints v as JSON, as a table when table is non-nil and --format=table,
// or as quietVal for --format=quiet.
func output(v any, quietVal string, table func()) {
	switch flagFmt {
	case "quiet":
		fmt.Println(quietVal)
	case "table":
		if table != nil {
			table()
			return
		}
		formatJSON(v)
	default:
		formatJSON(v)
	}
}

// summaryRows renders traversal counts as a two-column table.
func summaryRows(accounts, layers, depth, relationships int) [][]string {
	return [][]string{
		{"connected accounts", strconv.Itoa(accounts - 1)},
		{"total accounts", strconv.Itoa(accounts)},
		{"layers", strconv.Itoa(layers)},
		{"depth", strconv.Itoa(depth)},
		{"relationships", strconv.Itoa(relationships)},
	}
}

// writeOutput writes data to path, or stdout when path is "" or "-".
func writeOutput(path string, data []byte) error {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
