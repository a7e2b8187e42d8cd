package domain

import (
	"log/slog"
	"sort"
	"strings"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// BuildStep is one emission of the build-sequence algorithm: compile
// this path into this library.
type BuildStep struct {
	Library m.Identifier
	Path    m.Path
}

// BuildSequence computes an ordered list of (library, path) steps
// sufficient to compile the target's dependencies before the target
// itself. Units in builtin libraries are excluded, the target never
// appears in its own sequence and every emitted path appears exactly
// once. The result is memoized per (path, builtins).
func (db *Database) BuildSequence(target m.Path, builtins []m.Identifier) []BuildStep {
	db.ensureFresh()

	db.mu.Lock()
	defer db.mu.Unlock()

	key := sequenceKey(target, builtins)
	if steps, ok := db.memo.getBuildSequence(key); ok {
		return steps
	}

	steps := db.buildSequenceLocked(target, builtins)
	db.memo.putBuildSequence(key, steps)

	return steps
}

func sequenceKey(target m.Path, builtins []m.Identifier) string {
	keys := make([]string, 0, len(builtins))
	for _, b := range builtins {
		keys = append(keys, b.Key())
	}

	sort.Strings(keys)

	return target.Key() + "|" + strings.Join(keys, ",")
}

// buildSequenceLocked runs the fixed-point layered emission. Each pass
// must retire at least one path; when a pass retires nothing the
// remainder is logged as not built and the partial result is returned.
// That graceful degradation covers unresolved dependencies and cycles
// that cannot make progress.
func (db *Database) buildSequenceLocked(target m.Path, builtins []m.Identifier) []BuildStep {
	builtin := make(map[string]bool, len(builtins))
	for _, b := range builtins {
		builtin[b.Key()] = true
	}

	needed := db.closureLocked(target)

	// Union of defining paths for every needed unit outside builtin
	// libraries, excluding the target itself. A non-builtin unit with no
	// defining path is reported as unresolved at its reference site.
	remaining := make(map[string]*sourceRecord)

	for _, ref := range needed {
		unit := ref.unit
		if builtin[unit.Library.Key()] {
			continue
		}

		defining := db.pathsDefiningLocked(&unit.Library, unit.Name)
		if len(defining) == 0 {
			db.reportUnresolvedLocked(ref.dep, unit)

			continue
		}

		for _, path := range defining {
			rec := db.findRecordLocked(path)
			if rec == nil || rec.path.Equal(target) {
				continue
			}

			remaining[rec.path.Key()] = rec
		}
	}

	// providers: which remaining path defines which unit. A needed unit
	// with no provider cannot block a pass; it is either builtin on the
	// adapter side or genuinely unresolved, and both degrade to "build
	// without it".
	providers := make(map[m.UnitKey]bool)

	for _, rec := range remaining {
		lib := db.effectiveLibraryLocked(rec)
		for _, unit := range rec.units {
			providers[unit.Key(lib)] = true
		}
	}

	compiled := make(map[m.UnitKey]bool)

	var steps []BuildStep

	bound := len(remaining) + 1
	for pass := 0; pass < bound && len(remaining) > 0; pass++ {
		progress := false

		for _, rec := range sortedRecords(remaining) {
			lib := db.effectiveLibraryLocked(rec)

			if db.hasUnmetNeedsLocked(rec, lib, builtin, providers, compiled) {
				continue
			}

			contributes := false

			for _, unit := range rec.units {
				if !compiled[unit.Key(lib)] {
					contributes = true

					break
				}
			}

			if contributes {
				steps = append(steps, BuildStep{Library: lib, Path: rec.path})

				for _, unit := range rec.units {
					compiled[unit.Key(lib)] = true
				}
			}

			// Paths whose every unit was already compiled by an
			// earlier, different path retire without emission.
			delete(remaining, rec.path.Key())

			progress = true
		}

		if !progress {
			break
		}
	}

	if len(remaining) > 0 {
		for _, rec := range sortedRecords(remaining) {
			slog.Warn("Not building", "path", rec.path.Name())
		}
	}

	return steps
}

// hasUnmetNeedsLocked reports whether a record still waits on units
// that another not-yet-compiled path provides. Builtin units and units
// the record defines itself never count.
func (db *Database) hasUnmetNeedsLocked(
	rec *sourceRecord,
	lib m.Identifier,
	builtin map[string]bool,
	providers map[m.UnitKey]bool,
	compiled map[m.UnitKey]bool,
) bool {
	own := make(map[string]bool, len(rec.units))
	for _, unit := range rec.units {
		own[unit.Name.Key()] = true
	}

	for _, dep := range rec.deps {
		if dep.Kind != m.DepRequiredUnit || own[dep.Name.Key()] {
			continue
		}

		depLib := dep.EffectiveLibrary(lib)
		if builtin[depLib.Key()] {
			continue
		}

		key := m.UnitKey{Library: depLib.Key(), Name: dep.Name.Key()}
		if providers[key] && !compiled[key] {
			return true
		}
	}

	return false
}

func sortedRecords(records map[string]*sourceRecord) []*sourceRecord {
	out := make([]*sourceRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].path.Key() < out[j].path.Key() })

	return out
}
