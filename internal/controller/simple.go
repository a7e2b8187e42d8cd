package controller

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hdlvet.dev/pkg/hdlvet/internal/domain"
	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// SimpleUI implements UI using cobra Command's output stream.
type SimpleUI struct {
	cmd    *cobra.Command
	format OutputFormat
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command, format OutputFormat) *SimpleUI {
	if format == "" {
		format = FormatText
	}

	return &SimpleUI{cmd: cmd, format: format}
}

type diagnosticReport struct {
	File     string `yaml:"file"`
	Line     int    `yaml:"line,omitempty"`
	Column   int    `yaml:"column,omitempty"`
	Severity string `yaml:"severity"`
	Checker  string `yaml:"checker"`
	Code     string `yaml:"code,omitempty"`
	Text     string `yaml:"text"`
}

// DisplayDiagnostics prints one diagnostic per line, ordered by file,
// line and column, or the same list as a yaml document.
func (s *SimpleUI) DisplayDiagnostics(ctx context.Context, target m.Path, diags []m.Diagnostic) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sorted := make([]m.Diagnostic, len(diags))
	copy(sorted, diags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Filename.Name() != sorted[j].Filename.Name() {
			return sorted[i].Filename.Name() < sorted[j].Filename.Name()
		}

		if sorted[i].Line != sorted[j].Line {
			return sorted[i].Line < sorted[j].Line
		}

		return sorted[i].Column < sorted[j].Column
	})

	if s.format == FormatYAML {
		reports := make([]diagnosticReport, 0, len(sorted))
		for _, diag := range sorted {
			reports = append(reports, diagnosticReport{
				File:     diag.Filename.Name(),
				Line:     diag.Line,
				Column:   diag.Column,
				Severity: string(diag.Severity),
				Checker:  diag.Checker,
				Code:     diag.ErrorCode,
				Text:     diag.Text,
			})
		}

		blob, err := yaml.Marshal(reports)
		if err != nil {
			return fmt.Errorf("encode diagnostics: %w", err)
		}

		s.printf("%s", blob)

		return nil
	}

	if len(sorted) == 0 {
		s.printf("%s\n", infoStyle.Render(fmt.Sprintf("%s: no issues found", target.Name())))

		return nil
	}

	for _, diag := range sorted {
		s.printf("%s\n", renderDiagnostic(diag))
	}

	errs := 0

	for _, diag := range sorted {
		if diag.Severity.IsError() {
			errs++
		}
	}

	s.printf("%s\n", dimStyle.Render(fmt.Sprintf("%d issue(s), %d error(s)", len(sorted), errs)))

	return nil
}

func renderDiagnostic(diag m.Diagnostic) string {
	pos := diag.Filename.Name()
	if diag.Line > 0 {
		pos = fmt.Sprintf("%s:%d", pos, diag.Line)
		if diag.Column > 0 {
			pos = fmt.Sprintf("%s:%d", pos, diag.Column)
		}
	}

	label := severityStyle(diag.Severity).Render(string(diag.Severity))

	text := diag.Text
	if diag.ErrorCode != "" {
		text = fmt.Sprintf("%s [%s]", text, diag.ErrorCode)
	}

	return fmt.Sprintf("%s: %s: %s %s", pos, label, text, dimStyle.Render("("+diag.Checker+")"))
}

func severityStyle(severity m.Severity) lipgloss.Style {
	switch severity {
	case m.SeverityError, m.SeverityStyleError:
		return errorStyle
	case m.SeverityWarning, m.SeverityStyleWarning:
		return warnStyle
	default:
		return infoStyle
	}
}

// DisplaySequence prints the compile order as a table of steps.
func (s *SimpleUI) DisplaySequence(ctx context.Context, target m.Path, steps []domain.BuildStep) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.format == FormatYAML {
		type stepReport struct {
			Library string `yaml:"library"`
			Path    string `yaml:"path"`
		}

		reports := make([]stepReport, 0, len(steps))
		for _, step := range steps {
			reports = append(reports, stepReport{Library: step.Library.Display(), Path: step.Path.Name()})
		}

		blob, err := yaml.Marshal(reports)
		if err != nil {
			return fmt.Errorf("encode sequence: %w", err)
		}

		s.printf("%s", blob)

		return nil
	}

	if len(steps) == 0 {
		s.printf("%s\n", dimStyle.Render(fmt.Sprintf("%s: nothing to build first", target.Name())))

		return nil
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"#", "Library", "Path"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for i, step := range steps {
		table.Append([]string{fmt.Sprintf("%d", i+1), step.Library.Display(), step.Path.Name()})
	}

	table.Render()

	s.printf("\n%s", tableBuffer.String())

	return nil
}

// DisplayDependencies prints the transitive (library, unit) closure.
func (s *SimpleUI) DisplayDependencies(ctx context.Context, target m.Path, units []domain.LibraryUnit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.format == FormatYAML {
		type unitReport struct {
			Library string `yaml:"library"`
			Unit    string `yaml:"unit"`
		}

		reports := make([]unitReport, 0, len(units))
		for _, unit := range units {
			reports = append(reports, unitReport{Library: unit.Library.Display(), Unit: unit.Name.Display()})
		}

		blob, err := yaml.Marshal(reports)
		if err != nil {
			return fmt.Errorf("encode dependencies: %w", err)
		}

		s.printf("%s", blob)

		return nil
	}

	if len(units) == 0 {
		s.printf("%s\n", dimStyle.Render(fmt.Sprintf("%s: no dependencies", target.Name())))

		return nil
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Library", "Unit"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	for _, unit := range units {
		table.Append([]string{unit.Library.Display(), unit.Name.Display()})
	}

	table.SetFooter([]string{"Total", fmt.Sprintf("%d", len(units))})
	table.Render()

	s.printf("\n%s", tableBuffer.String())

	return nil
}

// DisplaySources lists the registered project paths.
func (s *SimpleUI) DisplaySources(ctx context.Context, paths []m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.format == FormatYAML {
		names := make([]string, 0, len(paths))
		for _, path := range paths {
			names = append(names, path.Name())
		}

		blob, err := yaml.Marshal(names)
		if err != nil {
			return fmt.Errorf("encode sources: %w", err)
		}

		s.printf("%s", blob)

		return nil
	}

	for _, path := range paths {
		s.printf("%s\n", path.Name())
	}

	s.printf("%s\n", dimStyle.Render(fmt.Sprintf("Total files %d", len(paths))))

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
