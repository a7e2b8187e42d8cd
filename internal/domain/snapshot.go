package domain

import (
	"time"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// The snapshot types are plain serializable mirrors of the database
// state. They exist so a process restart can skip re-parsing unchanged
// sources; the engine produces identical answers with a cold cache.

// SnapshotIdentifier mirrors model.Identifier.
type SnapshotIdentifier struct {
	Display       string
	CaseSensitive bool
}

// SnapshotLocation mirrors model.Location.
type SnapshotLocation struct {
	Line   int
	Column int
}

// SnapshotUnit mirrors model.DesignUnit.
type SnapshotUnit struct {
	Kind      string
	Name      SnapshotIdentifier
	Locations []SnapshotLocation
}

// SnapshotDependency mirrors model.DependencySpec.
type SnapshotDependency struct {
	Kind      string
	Name      SnapshotIdentifier
	Library   *SnapshotIdentifier
	Locations []SnapshotLocation
}

// SnapshotDiagnostic mirrors model.Diagnostic.
type SnapshotDiagnostic struct {
	Checker   string
	Severity  string
	Filename  string
	Line      int
	Column    int
	ErrorCode string
	Text      string
}

// SnapshotSource is the full per-path state.
type SnapshotSource struct {
	Path            string
	Ephemeral       bool
	Library         *SnapshotIdentifier
	InferredLibrary *SnapshotIdentifier
	Flags           []string
	MTime           time.Time
	Units           []SnapshotUnit
	Dependencies    []SnapshotDependency
	Diagnostics     []SnapshotDiagnostic
}

// SnapshotState is the serializable view of a whole database.
type SnapshotState struct {
	ScopeFlags map[string][]string
	Sources    []SnapshotSource
}

func snapIdent(id m.Identifier) SnapshotIdentifier {
	return SnapshotIdentifier{Display: id.Display(), CaseSensitive: id.CaseSensitive()}
}

func (s SnapshotIdentifier) model() m.Identifier {
	if s.CaseSensitive {
		return m.VerilogIdentifier(s.Display)
	}

	return m.VHDLIdentifier(s.Display)
}

func snapIdentPtr(id *m.Identifier) *SnapshotIdentifier {
	if id == nil {
		return nil
	}

	s := snapIdent(*id)

	return &s
}

func modelIdentPtr(s *SnapshotIdentifier) *m.Identifier {
	if s == nil {
		return nil
	}

	id := s.model()

	return &id
}

func snapLocations(locs []m.Location) []SnapshotLocation {
	out := make([]SnapshotLocation, 0, len(locs))
	for _, l := range locs {
		out = append(out, SnapshotLocation{Line: l.Line, Column: l.Column})
	}

	return out
}

func modelLocations(locs []SnapshotLocation) []m.Location {
	out := make([]m.Location, 0, len(locs))
	for _, l := range locs {
		out = append(out, m.Location{Line: l.Line, Column: l.Column})
	}

	return out
}

// Snapshot captures the full database state.
func (db *Database) Snapshot() SnapshotState {
	db.mu.RLock()
	defer db.mu.RUnlock()

	state := SnapshotState{ScopeFlags: make(map[string][]string, len(db.scopeFlags))}

	for scope, flags := range db.scopeFlags {
		state.ScopeFlags[string(scope)] = flags
	}

	for _, rec := range db.recordsLocked() {
		src := SnapshotSource{
			Path:      rec.path.Name(),
			Ephemeral: rec.path.Ephemeral(),
			Library:   snapIdentPtr(rec.library),
			Flags:     rec.flags,
			MTime:     rec.mtime,
		}

		if inferred, ok := db.inferred[rec.path.Key()]; ok {
			snap := snapIdent(inferred)
			src.InferredLibrary = &snap
		}

		for _, unit := range rec.units {
			src.Units = append(src.Units, SnapshotUnit{
				Kind:      string(unit.Kind),
				Name:      snapIdent(unit.Name),
				Locations: snapLocations(unit.Locations),
			})
		}

		for _, dep := range rec.deps {
			src.Dependencies = append(src.Dependencies, SnapshotDependency{
				Kind:      string(dep.Kind),
				Name:      snapIdent(dep.Name),
				Library:   snapIdentPtr(dep.Library),
				Locations: snapLocations(dep.Locations),
			})
		}

		for _, diag := range db.diags[rec.path.Key()] {
			src.Diagnostics = append(src.Diagnostics, SnapshotDiagnostic{
				Checker:   diag.Checker,
				Severity:  string(diag.Severity),
				Filename:  diag.Filename.Name(),
				Line:      diag.Line,
				Column:    diag.Column,
				ErrorCode: diag.ErrorCode,
				Text:      diag.Text,
			})
		}

		state.Sources = append(state.Sources, src)
	}

	return state
}

// RestoreSnapshot replaces the database state with a snapshot. Sources
// whose files changed since the snapshot are re-parsed on the next
// query by the ordinary staleness check.
func (db *Database) RestoreSnapshot(state SnapshotState) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.sources = make(map[string]*sourceRecord, len(state.Sources))
	db.inferred = make(map[string]m.Identifier)
	db.diags = make(map[string][]m.Diagnostic)
	db.lapses = make(map[string]bool)
	db.ambiguousReported = make(map[string]bool)
	db.unresolvedReported = make(map[string]bool)
	db.scopeFlags = make(map[m.FlagScope][]string, len(state.ScopeFlags))
	db.memo.invalidateAll()

	for scope, flags := range state.ScopeFlags {
		db.scopeFlags[m.FlagScope(scope)] = flags
	}

	for _, src := range state.Sources {
		path := m.NewPath(src.Path, "")
		if src.Ephemeral {
			path = m.NewEphemeralPath(src.Path, "")
		}

		rec := &sourceRecord{
			path:    path,
			library: modelIdentPtr(src.Library),
			flags:   src.Flags,
			mtime:   src.MTime,
		}

		for _, unit := range src.Units {
			rec.units = append(rec.units, m.DesignUnit{
				Owner:     path,
				Kind:      m.UnitKind(unit.Kind),
				Name:      unit.Name.model(),
				Locations: modelLocations(unit.Locations),
			})
		}

		for _, dep := range src.Dependencies {
			rec.deps = append(rec.deps, m.DependencySpec{
				Owner:     path,
				Kind:      m.DependencyKind(dep.Kind),
				Name:      dep.Name.model(),
				Library:   modelIdentPtr(dep.Library),
				Locations: modelLocations(dep.Locations),
			})
		}

		db.sources[path.Key()] = rec

		if src.InferredLibrary != nil {
			db.inferred[path.Key()] = src.InferredLibrary.model()
		}

		for _, diag := range src.Diagnostics {
			db.diags[path.Key()] = append(db.diags[path.Key()], m.Diagnostic{
				Checker:   diag.Checker,
				Severity:  m.Severity(diag.Severity),
				Filename:  m.NewPath(diag.Filename, ""),
				Line:      diag.Line,
				Column:    diag.Column,
				ErrorCode: diag.ErrorCode,
				Text:      diag.Text,
			})
		}
	}
}
