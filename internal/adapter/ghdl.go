package adapter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// GHDL drives `ghdl -a` for VHDL sources. Each library gets its own
// workdir under the adapter's root so repeated analysis stays
// idempotent.
type GHDL struct {
	workRoot string
	config   AdapterConfig
	runner   CommandRunner
	created  map[string]bool
}

var (
	ghdlDiagLine = regexp.MustCompile(`^(?P<file>.+?):(?P<line>\d+):(?P<col>\d+):(?P<warn>warning:)?\s*(?P<text>.*)$`)

	// "entity "foo" is obsoleted by package "bar"" style messages ask
	// for a recompile of the named unit.
	ghdlObsoleted = regexp.MustCompile(`(entity|package|context) "(\w+)" is obsoleted`)

	// Messages naming a stale analysed file ask for that path.
	ghdlStaleFile = regexp.MustCompile(`file "([^"]+)" (?:has changed|must be re-analysed)`)
)

// NewGHDL probes the ghdl executable and prepares a workspace rooted at
// workRoot. A missing tool is a construction failure.
func NewGHDL(workRoot string, opts ...GHDLOption) (*GHDL, error) {
	g := &GHDL{
		workRoot: workRoot,
		config: AdapterConfig{
			GlobalFlags: []string{"-fexplicit", "-frelaxed"},
			ScopeFlags: map[m.FlagScope][]string{
				m.ScopeSingle:       {"--warn-unused"},
				m.ScopeDependencies: {},
			},
		},
		runner:  runCommand,
		created: make(map[string]bool),
	}

	for _, opt := range opts {
		opt(g)
	}

	if _, err := g.runner("ghdl", []string{"--version"}, ""); err != nil {
		return nil, fmt.Errorf("probe ghdl: %w", err)
	}

	return g, nil
}

// GHDLOption customizes a GHDL adapter at construction.
type GHDLOption func(*GHDL)

// WithGHDLRunner injects a command runner (used by tests).
func WithGHDLRunner(runner CommandRunner) GHDLOption {
	return func(g *GHDL) { g.runner = runner }
}

// WithGHDLConfig replaces the default flag configuration.
func WithGHDLConfig(config AdapterConfig) GHDLOption {
	return func(g *GHDL) { g.config = config }
}

// Name identifies the adapter.
func (g *GHDL) Name() string { return "ghdl" }

// BuiltinLibraries lists the libraries ghdl ships precompiled.
func (g *GHDL) BuiltinLibraries() []m.Identifier {
	return []m.Identifier{
		m.VHDLIdentifier("std"),
		m.VHDLIdentifier("ieee"),
	}
}

func (g *GHDL) ensureLibrary(library m.Identifier) (string, error) {
	dir := filepath.Join(g.workRoot, library.Key())
	if g.created[library.Key()] {
		return dir, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create library workdir: %w", err)
	}

	g.created[library.Key()] = true

	return dir, nil
}

// Build analyses one file into the given library and translates the
// tool output into diagnostics and rebuild hints. A non-zero exit with
// parseable messages is normal operation, not an adapter failure.
func (g *GHDL) Build(path m.Path, library m.Identifier, scope m.FlagScope, _ bool, dbFlags []string) ([]m.Diagnostic, []m.RebuildHint) {
	workdir, err := g.ensureLibrary(library)
	if err != nil {
		slog.Error("Failed to prepare ghdl library", "library", library.Name(), "error", err)
		return nil, nil
	}

	args := []string{
		"-a",
		"--work=" + library.Name(),
		"--workdir=" + workdir,
		"-P" + g.workRoot,
	}
	args = append(args, g.config.effective(scope, dbFlags)...)
	args = append(args, path.Name())

	output, runErr := g.runner("ghdl", args, g.workRoot)
	if runErr != nil {
		slog.Debug("ghdl exited non-zero", "path", path.Name(), "error", runErr)
	}

	return g.parseOutput(path, output)
}

func (g *GHDL) parseOutput(path m.Path, output string) ([]m.Diagnostic, []m.RebuildHint) {
	var diags []m.Diagnostic

	var hints []m.RebuildHint

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if match := ghdlObsoleted.FindStringSubmatch(line); match != nil {
			hints = append(hints, m.RebuildUnit(m.VHDLIdentifier(match[2]), m.UnitKind(match[1])))
			continue
		}

		if match := ghdlStaleFile.FindStringSubmatch(line); match != nil {
			hints = append(hints, m.RebuildPath(m.NewPath(match[1], g.workRoot)))
			continue
		}

		match := ghdlDiagLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		severity := m.SeverityError
		if match[4] != "" {
			severity = m.SeverityWarning
		}

		lineNo, _ := strconv.Atoi(match[2])
		colNo, _ := strconv.Atoi(match[3])

		diags = append(diags, m.Diagnostic{
			Checker:  m.CheckerBuilder,
			Severity: severity,
			Filename: m.NewPath(match[1], g.workRoot),
			Line:     lineNo,
			Column:   colNo,
			Text:     strings.TrimSpace(match[5]),
		})
	}

	// Diagnostics with no filename context attach to the compiled path.
	for i := range diags {
		if diags[i].Filename.Zero() {
			diags[i].Filename = path
		}
	}

	return diags, hints
}
