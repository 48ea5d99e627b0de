// Package render turns a traversal result into DOT, SVG or JSON.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/models"
)

// ErrRendererUnavailable means the Graphviz binary needed for SVG could not be run.
var ErrRendererUnavailable = errors.New("graphviz renderer unavailable")

// Format selects the output representation.
type Format string

// Supported formats.
const (
	FormatSVG  Format = "svg"
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ParseFormat validates s. The empty string selects SVG.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatSVG, nil
	case FormatSVG, FormatDOT, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want svg, dot or json)", models.ErrInvalidInput, s)
	}
}

// ContentType returns the HTTP content type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatJSON:
		return "application/json; charset=utf-8"
	default:
		return "text/vnd.graphviz; charset=utf-8"
	}
}

// Renderer renders graph views. SVG output pipes DOT through dotBinary.
type Renderer struct {
	dotBinary string
	log       *logrus.Logger
}

// New creates a Renderer. An empty dotBinary defaults to "dot" on PATH.
func New(dotBinary string, log *logrus.Logger) *Renderer {
	if dotBinary == "" {
		dotBinary = "dot"
	}

	return &Renderer{dotBinary: dotBinary, log: log}
}

// Render encodes view in format f.
func (r *Renderer) Render(ctx context.Context, f Format, view *models.GraphView) ([]byte, error) {
	switch f {
	case FormatDOT:
		return DOT(view)
	case FormatJSON:
		return json.MarshalIndent(view, "", "  ")
	case FormatSVG:
		dot, err := DOT(view)
		if err != nil {
			return nil, err
		}

		return r.SVG(ctx, dot)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", models.ErrInvalidInput, f)
	}
}

// SVG lays out a DOT document with Graphviz.
func (r *Renderer) SVG(ctx context.Context, dot []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.dotBinary, "-Tsvg")
	cmd.Stdin = bytes.NewReader(dot)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrRendererUnavailable, r.dotBinary, err)
		}

		r.log.WithError(err).WithField("stderr", strings.TrimSpace(stderr.String())).Warn("graphviz failed")

		return nil, fmt.Errorf("running %s: %w", r.dotBinary, err)
	}

	return stdout.Bytes(), nil
}
