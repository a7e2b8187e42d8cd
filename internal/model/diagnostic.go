package model

import (
	"fmt"
	"sort"
	"strings"
)

// Severity classifies a diagnostic. Each level has a style sub-flavor
// used by the text-pattern checker.
type Severity string

// Available Severity values.
const (
	SeverityInfo         Severity = "info"
	SeverityStyleInfo    Severity = "style_info"
	SeverityWarning      Severity = "warning"
	SeverityStyleWarning Severity = "style_warning"
	SeverityError        Severity = "error"
	SeverityStyleError   Severity = "style_error"
)

// IsError reports whether the severity is one of the error flavors.
// Dependency compiles only surface these; lower severities on transitive
// dependencies are suppressed.
func (s Severity) IsError() bool {
	return s == SeverityError || s == SeverityStyleError
}

// Checker identities recorded on diagnostics.
const (
	CheckerDatabase = "hdlvet.database"
	CheckerBuilder  = "hdlvet.builder"
	CheckerStyle    = "hdlvet.style"
)

// Diagnostic is one user-facing message. Diagnostics accumulate per
// path in the database and are only cleared by RemoveSource or Refresh.
type Diagnostic struct {
	Checker   string
	Severity  Severity
	Filename  Path
	Line      int
	Column    int
	ErrorCode string
	Text      string
}

// PathNotInProject is recorded once per registration lapse when a
// non-ephemeral path is queried but was never added to the project.
func PathNotInProject(path Path) Diagnostic {
	return Diagnostic{
		Checker:  CheckerDatabase,
		Severity: SeverityWarning,
		Filename: path,
		Text:     fmt.Sprintf("path %q not found in the project file", path.Name()),
	}
}

// LibraryNotUnique is recorded when library inference finds
// disagreeing votes for a path; the majority candidate is used.
func LibraryNotUnique(path Path, chosen Identifier, candidates []Identifier) Diagnostic {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Display())
	}

	sort.Strings(names)

	return Diagnostic{
		Checker:  CheckerDatabase,
		Severity: SeverityWarning,
		Filename: path,
		Text: fmt.Sprintf("library used in different ways for %q: using %q, candidates were [%s]",
			path.Base(), chosen.Display(), strings.Join(names, ", ")),
	}
}

// DependencyNotUnique is recorded once per distinct ambiguous reference
// site when a required unit is defined by more than one non-ephemeral
// path; one of the choices is used.
func DependencyNotUnique(at Path, location Location, dependency Identifier, choices []Path) Diagnostic {
	names := make([]string, 0, len(choices))
	for _, c := range choices {
		names = append(names, c.Name())
	}

	sort.Strings(names)

	return Diagnostic{
		Checker:  CheckerDatabase,
		Severity: SeverityWarning,
		Filename: at,
		Line:     location.Line,
		Column:   location.Column,
		Text: fmt.Sprintf("dependency %q defined in multiple files: [%s], using the first match",
			dependency.Display(), strings.Join(names, ", ")),
	}
}

// UnresolvedDependency is recorded when a required unit cannot be
// mapped to any path and is not builtin; the build proceeds without it.
func UnresolvedDependency(at Path, location Location, library Identifier, name Identifier) Diagnostic {
	return Diagnostic{
		Checker:  CheckerDatabase,
		Severity: SeverityStyleWarning,
		Filename: at,
		Line:     location.Line,
		Column:   location.Column,
		Text:     fmt.Sprintf("unable to resolve %q.%q to a path", library.Display(), name.Display()),
	}
}

// RebuildBoundExceeded is the circuit-breaker diagnostic emitted when
// compiler rebuild hints keep arriving past the retry bound.
func RebuildBoundExceeded(path Path, attempts int) Diagnostic {
	return Diagnostic{
		Checker:  CheckerBuilder,
		Severity: SeverityError,
		Filename: path,
		Text:     fmt.Sprintf("unable to build %q after %d attempts", path.Name(), attempts),
	}
}
