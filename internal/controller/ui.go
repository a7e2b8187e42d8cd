// Package controller provides output adapters for presenting
// diagnostics, build sequences and dependency listings.
package controller

import (
	"context"

	"hdlvet.dev/pkg/hdlvet/internal/domain"
	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

// Available OutputFormat values.
const (
	FormatText OutputFormat = "text"
	FormatYAML OutputFormat = "yaml"
)

// UI defines the interface for presenting check results.
// Implementations can use different output methods (styled text, plain
// machine-readable output, etc).
type UI interface {
	DisplayDiagnostics(ctx context.Context, target m.Path, diags []m.Diagnostic) error
	DisplaySequence(ctx context.Context, target m.Path, steps []domain.BuildStep) error
	DisplayDependencies(ctx context.Context, target m.Path, units []domain.LibraryUnit) error
	DisplaySources(ctx context.Context, paths []m.Path) error
}
