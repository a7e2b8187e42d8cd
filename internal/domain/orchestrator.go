package domain

import (
	"log/slog"
	"sync"

	"hdlvet.dev/pkg/hdlvet/internal/adapter"
	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// MaxRebuildAttempts bounds the compile/rebuild loop for one path. The
// bound is a circuit breaker against pathological or buggy compiler
// feedback, not an expected operating point.
const MaxRebuildAttempts = 20

// buildState tracks one compile attempt through the rebuild loop.
type buildState string

const (
	statePending    buildState = "pending"
	stateCompiled   buildState = "compiled"
	stateRebuilding buildState = "rebuilding"
	stateAborted    buildState = "aborted"
)

// Orchestrator walks the database's build order, invokes the compiler
// adapter per step and resolves rebuild hints back into concrete paths.
// Invocation of the underlying external compiler is serialized behind
// one mutex because external compiler state (working directories,
// library registries) is not safe for concurrent access.
type Orchestrator struct {
	mu      sync.Mutex
	db      *Database
	builder adapter.CompilerAdapter

	// inFlight guards against hint cycles: a path already moving
	// through the rebuild loop is never re-entered recursively.
	inFlight map[string]bool
}

// NewOrchestrator constructs an Orchestrator over the given database
// and compiler adapter.
func NewOrchestrator(db *Database, builder adapter.CompilerAdapter) *Orchestrator {
	return &Orchestrator{db: db, builder: builder, inFlight: make(map[string]bool)}
}

// Builder exposes the active compiler adapter.
func (o *Orchestrator) Builder() adapter.CompilerAdapter {
	return o.builder
}

// BuildWithDependencies drives one "check this file" request: compile
// every dependency in order, then the target itself. Only error-level
// diagnostics from dependencies are kept; the target's own diagnostics
// are returned at full fidelity.
func (o *Orchestrator) BuildWithDependencies(target m.Path) []m.Diagnostic {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.buildWithDependenciesLocked(target)
}

func (o *Orchestrator) buildWithDependenciesLocked(target m.Path) []m.Diagnostic {
	sequence := o.db.BuildSequence(target, o.builder.BuiltinLibraries())

	var diags []m.Diagnostic

	for _, step := range sequence {
		for _, diag := range o.buildAndHandleRebuilds(step.Path, step.Library, m.ScopeDependencies, false) {
			if diag.Severity.IsError() {
				diags = append(diags, diag)
			}
		}
	}

	library := o.db.Library(target)
	if library.Zero() || library.Equal(NotInProjectLibrary) {
		library = WorkLibrary
	}

	diags = append(diags, o.buildAndHandleRebuilds(target, library, m.ScopeSingle, true)...)

	return diags
}

// buildAndHandleRebuilds compiles one path, resolving any rebuild hints
// into concrete paths and recompiling those first, up to the attempt
// bound. Satisfying one hint can surface another, hence the loop.
func (o *Orchestrator) buildAndHandleRebuilds(path m.Path, library m.Identifier, scope m.FlagScope, forced bool) []m.Diagnostic {
	o.inFlight[path.Key()] = true
	defer delete(o.inFlight, path.Key())

	state := statePending

	for attempt := 0; attempt < MaxRebuildAttempts; attempt++ {
		dbFlags := o.db.EffectiveDBFlags(path, scope)
		diags, hints := o.builder.Build(path, library, scope, forced, dbFlags)

		if len(hints) == 0 {
			state = stateCompiled

			slog.Debug("Compile finished", "path", path.Name(), "state", state, "attempts", attempt+1)

			return diags
		}

		state = stateRebuilding

		slog.Debug("Compiler requested rebuilds",
			"path", path.Name(), "state", state, "hints", len(hints), "attempt", attempt+1)

		o.rebuildFromHints(hints)

		state = statePending
	}

	state = stateAborted

	slog.Warn("Rebuild bound exceeded", "path", path.Name(), "state", state, "bound", MaxRebuildAttempts)

	o.db.mu.Lock()
	o.db.recordDiagnosticLocked(path, m.RebuildBoundExceeded(path, MaxRebuildAttempts))
	o.db.mu.Unlock()

	return []m.Diagnostic{m.RebuildBoundExceeded(path, MaxRebuildAttempts)}
}

// rebuildFromHints maps each hint to concrete paths via the database
// and rebuilds them, dependencies first.
func (o *Orchestrator) rebuildFromHints(hints []m.RebuildHint) {
	for _, hint := range hints {
		var paths []m.Path

		switch hint.Kind {
		case m.RebuildUnitHint:
			paths = o.db.PathsDefining(hint.Name)
		case m.RebuildLibraryUnitHint:
			paths = o.db.PathsDefiningIn(hint.Library, hint.Name)
		case m.RebuildPathHint:
			paths = []m.Path{hint.Path}
		}

		if len(paths) == 0 {
			slog.Debug("Rebuild hint resolved to no paths", "kind", string(hint.Kind), "name", hint.Name.Name())
			continue
		}

		for _, path := range paths {
			if o.inFlight[path.Key()] {
				continue
			}

			o.buildWithDependenciesLocked(path)
		}
	}
}
