package db

import (
	"strconv"
	"strings"

	"github.com/citadelrisk/graphbuilder/internal/db/migrations"
)

// SchemaVersion returns the highest goose version among the embedded
// migrations, as reported by the health endpoint. Zero means none were found.
func SchemaVersion() int64 {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return 0
	}

	var latest int64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}

		if v, err := strconv.ParseInt(prefix, 10, 64); err == nil && v > latest {
			latest = v
		}
	}

	return latest
}
