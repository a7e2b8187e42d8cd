package adapter

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// DefaultCompileTimeout bounds a single external compiler invocation.
const DefaultCompileTimeout = 30 * time.Second

// CompilerAdapter compiles one file under one library with one flag
// set. dbFlags is the database-provided portion of the effective flags
// (scope flags followed by source-specific flags); the adapter appends
// its own per-scope and global defaults after them. Adapters own their
// per-library working-directory bookkeeping and must be idempotent with
// respect to "library already created".
type CompilerAdapter interface {
	Name() string
	Build(path m.Path, library m.Identifier, scope m.FlagScope, forced bool, dbFlags []string) ([]m.Diagnostic, []m.RebuildHint)

	// BuiltinLibraries lists libraries the adapter already provides
	// precompiled; those are excluded from build-order computation.
	BuiltinLibraries() []m.Identifier
}

// AdapterConfig is the per-instance default flag configuration for a
// compiler adapter, fixed at construction.
type AdapterConfig struct {
	GlobalFlags []string
	ScopeFlags  map[m.FlagScope][]string
}

func (c AdapterConfig) effective(scope m.FlagScope, dbFlags []string) []string {
	return m.ConcatFlags(dbFlags, nil, c.ScopeFlags[scope], c.GlobalFlags)
}

// CommandRunner executes one external command and returns its combined
// stdout/stderr output. Tests inject fakes; production adapters use
// runCommand.
type CommandRunner func(name string, args []string, dir string) (string, error)

// runCommand executes the tool with a bounded context, mirroring how
// external test runners are driven elsewhere in this codebase.
func runCommand(name string, args []string, dir string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultCompileTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	return stdout.String() + stderr.String(), err
}

// NewCompiler builds the named compiler adapter rooted at workRoot.
// Adapter environment failures (external tool missing) are fatal only
// for that adapter: the engine falls back to the no-op adapter instead
// of aborting the process.
func NewCompiler(name, workRoot string) CompilerAdapter {
	var (
		built CompilerAdapter
		err   error
	)

	switch name {
	case "ghdl":
		built, err = NewGHDL(workRoot)
	case "msim", "modelsim":
		built, err = NewMSim(workRoot)
	case "", "fallback":
		return NewFallback()
	default:
		slog.Warn("Unknown builder requested, using fallback", "builder", name)
		return NewFallback()
	}

	if err != nil {
		slog.Warn("Builder unavailable, using fallback", "builder", name, "error", err)
		return NewFallback()
	}

	return built
}

// Fallback is the no-op compiler adapter used when no real toolchain is
// available. It compiles nothing and provides no builtin libraries, so
// the database still computes sequences and diagnostics.
type Fallback struct{}

// NewFallback constructs a Fallback adapter.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Name identifies the adapter.
func (f *Fallback) Name() string { return "fallback" }

// Build does nothing and reports nothing.
func (f *Fallback) Build(_ m.Path, _ m.Identifier, _ m.FlagScope, _ bool, _ []string) ([]m.Diagnostic, []m.RebuildHint) {
	return nil, nil
}

// BuiltinLibraries reports none.
func (f *Fallback) BuiltinLibraries() []m.Identifier { return nil }
