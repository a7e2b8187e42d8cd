package domain

import (
	"log/slog"
	"sort"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// Library resolves the library a path belongs to. Unregistered paths
// get the "not in project" sentinel plus a diagnostic recorded exactly
// once per registration lapse (never for ephemeral paths). Registered
// paths return their explicit library, or an inferred one derived from
// how the rest of the project references the units this path defines.
// The zero Identifier is returned when nothing references the path.
func (db *Database) Library(path m.Path) m.Identifier {
	db.ensureFresh()

	db.mu.Lock()
	defer db.mu.Unlock()

	return db.libraryLocked(path)
}

func (db *Database) libraryLocked(path m.Path) m.Identifier {
	rec := db.findRecordLocked(path)
	if rec == nil {
		if !path.Ephemeral() && !db.lapses[path.Key()] {
			db.lapses[path.Key()] = true
			db.recordDiagnosticLocked(path, m.PathNotInProject(path))
		}

		return NotInProjectLibrary
	}

	if rec.library != nil {
		return *rec.library
	}

	if lib, ok := db.memo.getLibrary(rec.path.Key()); ok {
		return lib
	}

	if lib, ok := db.inferred[rec.path.Key()]; ok {
		db.memo.putLibrary(rec.path.Key(), lib)
		return lib
	}

	lib := db.inferLibraryLocked(rec)
	if !lib.Zero() {
		db.inferred[rec.path.Key()] = lib
		db.repointUnresolvedLocked(rec, lib)
		slog.Debug("Inferred library", "path", rec.path.Name(), "library", lib.Name())
	}

	db.memo.putLibrary(rec.path.Key(), lib)

	return lib
}

// inferLibraryLocked collects every dependency elsewhere in the project
// whose name matches a unit this record defines, resolves each usage to
// its effective library ("work" never counts toward the vote) and picks
// the most frequent candidate. Ties break lexicographically on the
// normalized name so the result is deterministic. Disagreement records
// a "library not unique" diagnostic listing all candidates.
func (db *Database) inferLibraryLocked(rec *sourceRecord) m.Identifier {
	defined := make(map[string]bool, len(rec.units))
	for _, unit := range rec.units {
		defined[unit.Name.Key()] = true
	}

	votes := make(map[string]int)
	candidates := make(map[string]m.Identifier)

	for _, other := range db.recordsLocked() {
		if other == rec {
			continue
		}

		ownerLib := db.knownLibraryLocked(other)

		for _, dep := range other.deps {
			if dep.Kind != m.DepRequiredUnit || !defined[dep.Name.Key()] {
				continue
			}

			lib := ownerLib
			if dep.Library != nil {
				lib = *dep.Library
			}

			if lib.Zero() || lib.Key() == WorkLibrary.Key() {
				continue
			}

			votes[lib.Key()]++
			candidates[lib.Key()] = lib
		}
	}

	if len(votes) == 0 {
		return m.Identifier{}
	}

	keys := make([]string, 0, len(votes))
	for key := range votes {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if votes[keys[i]] != votes[keys[j]] {
			return votes[keys[i]] > votes[keys[j]]
		}

		return keys[i] < keys[j]
	})

	chosen := candidates[keys[0]]

	if len(votes) > 1 {
		all := make([]m.Identifier, 0, len(candidates))
		for _, c := range candidates {
			all = append(all, c)
		}

		db.recordDiagnosticLocked(rec.path, m.LibraryNotUnique(rec.path, chosen, all))
	}

	return chosen
}

// knownLibraryLocked returns a record's explicit or already-inferred
// library without triggering a fresh inference, avoiding recursion
// while counting votes.
func (db *Database) knownLibraryLocked(rec *sourceRecord) m.Identifier {
	if rec.library != nil {
		return *rec.library
	}

	if lib, ok := db.inferred[rec.path.Key()]; ok {
		return lib
	}

	return m.Identifier{}
}

// effectiveLibraryLocked is the library used for compiling a record:
// explicit, else inferred (running inference on first demand so closure
// and sequence answers do not depend on which query came first), else
// "work".
func (db *Database) effectiveLibraryLocked(rec *sourceRecord) m.Identifier {
	if lib := db.libraryLocked(rec.path); !lib.Zero() {
		return lib
	}

	return WorkLibrary
}

// repointUnresolvedLocked rewrites every dependency edge in the project
// that referenced the unresolved form (no library) of a unit this
// record defines, so stale work-relative edges point at the record's
// library instead of dangling.
func (db *Database) repointUnresolvedLocked(rec *sourceRecord, library m.Identifier) {
	defined := make(map[string]bool, len(rec.units))
	for _, unit := range rec.units {
		defined[unit.Name.Key()] = true
	}

	for _, other := range db.recordsLocked() {
		if other == rec {
			continue
		}

		for i := range other.deps {
			dep := &other.deps[i]
			if dep.Kind != m.DepRequiredUnit || dep.Library != nil || !defined[dep.Name.Key()] {
				continue
			}

			lib := library
			dep.Library = &lib
		}
	}

	db.memo.invalidateAll()
}

// LibrariesReferredByUnit lists every effective library under which a
// unit name is referenced anywhere in the project.
func (db *Database) LibrariesReferredByUnit(name m.Identifier) []m.Identifier {
	db.ensureFresh()

	db.mu.Lock()
	defer db.mu.Unlock()

	if libs, ok := db.memo.getLibrariesReferred(name.Key()); ok {
		return libs
	}

	seen := make(map[string]bool)

	var libs []m.Identifier

	for _, rec := range db.recordsLocked() {
		for _, dep := range rec.deps {
			if dep.Kind != m.DepRequiredUnit || !dep.Name.Equal(name) {
				continue
			}

			lib := dep.EffectiveLibrary(db.effectiveLibraryLocked(rec))
			if lib.Zero() || seen[lib.Key()] {
				continue
			}

			seen[lib.Key()] = true
			libs = append(libs, lib)
		}
	}

	db.memo.putLibrariesReferred(name.Key(), libs)

	return libs
}
