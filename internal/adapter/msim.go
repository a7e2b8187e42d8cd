package adapter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// MSim drives ModelSim's vcom/vlog. Libraries are created on demand
// with vlib and mapped once; "recompile" messages in the tool output
// become rebuild hints.
type MSim struct {
	workRoot string
	config   AdapterConfig
	runner   CommandRunner
	created  map[string]bool
}

var (
	// ** Error: (vcom-11) /path/foo.vhd(12): (vcom-1136) Unknown identifier 'bar'.
	msimDiagLine = regexp.MustCompile(`^\*\*\s+(?P<sev>Error|Warning)[^:]*:\s+(?:\((?P<code1>v\w+-\d+)\)\s+)?(?P<file>[^(]+)\((?P<line>\d+)\):\s*(?:\((?P<code2>v\w+-\d+)\)\s+)?(?P<text>.*)$`)

	// ** Error: foo.vhd(3): Recompile mylib.pkg because pkg has changed.
	msimRecompile = regexp.MustCompile(`Recompile (\w+)\.(\w+) because`)

	msimBareDiag = regexp.MustCompile(`^\*\*\s+(?P<sev>Error|Warning)[^:]*:\s+(?P<text>.*)$`)
)

// NewMSim probes vcom and prepares the adapter workspace.
func NewMSim(workRoot string, opts ...MSimOption) (*MSim, error) {
	s := &MSim{
		workRoot: workRoot,
		config: AdapterConfig{
			GlobalFlags: []string{"-defercheck"},
			ScopeFlags: map[m.FlagScope][]string{
				m.ScopeSingle:       {"-check_synthesis", "-lint", "-pedanticerrors"},
				m.ScopeDependencies: {},
			},
		},
		runner:  runCommand,
		created: make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.runner("vcom", []string{"-version"}, ""); err != nil {
		return nil, fmt.Errorf("probe vcom: %w", err)
	}

	return s, nil
}

// MSimOption customizes an MSim adapter at construction.
type MSimOption func(*MSim)

// WithMSimRunner injects a command runner (used by tests).
func WithMSimRunner(runner CommandRunner) MSimOption {
	return func(s *MSim) { s.runner = runner }
}

// WithMSimConfig replaces the default flag configuration.
func WithMSimConfig(config AdapterConfig) MSimOption {
	return func(s *MSim) { s.config = config }
}

// Name identifies the adapter.
func (s *MSim) Name() string { return "msim" }

// BuiltinLibraries lists the libraries ModelSim ships precompiled.
func (s *MSim) BuiltinLibraries() []m.Identifier {
	return []m.Identifier{
		m.VHDLIdentifier("std"),
		m.VHDLIdentifier("ieee"),
		m.VHDLIdentifier("modelsim_lib"),
	}
}

func (s *MSim) ensureLibrary(library m.Identifier) (string, error) {
	dir := filepath.Join(s.workRoot, library.Key())
	if s.created[library.Key()] {
		return dir, nil
	}

	if _, err := s.runner("vlib", []string{dir}, s.workRoot); err != nil {
		return "", fmt.Errorf("vlib %s: %w", library.Name(), err)
	}

	if _, err := s.runner("vmap", []string{library.Name(), dir}, s.workRoot); err != nil {
		return "", fmt.Errorf("vmap %s: %w", library.Name(), err)
	}

	s.created[library.Key()] = true

	return dir, nil
}

// Build compiles one file with vcom or vlog depending on dialect and
// translates the output into diagnostics and rebuild hints.
func (s *MSim) Build(path m.Path, library m.Identifier, scope m.FlagScope, forced bool, dbFlags []string) ([]m.Diagnostic, []m.RebuildHint) {
	if _, err := s.ensureLibrary(library); err != nil {
		slog.Error("Failed to prepare msim library", "library", library.Name(), "error", err)
		return nil, nil
	}

	tool := "vcom"
	if t := DetectFileType(path); t == FileTypeVerilog || t == FileTypeSystemVerilog {
		tool = "vlog"
	}

	args := []string{"-work", library.Name(), "-quiet"}
	if forced {
		args = append(args, "-force_refresh")
	}

	args = append(args, s.config.effective(scope, dbFlags)...)
	args = append(args, path.Name())

	output, runErr := s.runner(tool, args, s.workRoot)
	if runErr != nil {
		slog.Debug("msim exited non-zero", "tool", tool, "path", path.Name(), "error", runErr)
	}

	return s.parseOutput(path, output)
}

func (s *MSim) parseOutput(path m.Path, output string) ([]m.Diagnostic, []m.RebuildHint) {
	var diags []m.Diagnostic

	var hints []m.RebuildHint

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if match := msimRecompile.FindStringSubmatch(line); match != nil {
			hints = append(hints, m.RebuildLibraryUnit(
				m.VHDLIdentifier(match[1]),
				m.VHDLIdentifier(match[2]),
			))

			continue
		}

		if match := msimDiagLine.FindStringSubmatch(line); match != nil {
			severity := m.SeverityError
			if match[1] == "Warning" {
				severity = m.SeverityWarning
			}

			code := match[2]
			if code == "" {
				code = match[5]
			}

			lineNo, _ := strconv.Atoi(match[4])

			diags = append(diags, m.Diagnostic{
				Checker:   m.CheckerBuilder,
				Severity:  severity,
				Filename:  m.NewPath(strings.TrimSpace(match[3]), s.workRoot),
				Line:      lineNo,
				ErrorCode: code,
				Text:      strings.TrimSpace(match[6]),
			})

			continue
		}

		if match := msimBareDiag.FindStringSubmatch(line); match != nil {
			severity := m.SeverityError
			if match[1] == "Warning" {
				severity = m.SeverityWarning
			}

			diags = append(diags, m.Diagnostic{
				Checker:  m.CheckerBuilder,
				Severity: severity,
				Filename: path,
				Text:     strings.TrimSpace(match[2]),
			})
		}
	}

	return diags, hints
}
