package domain

import (
	"sort"
	"strings"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// LibraryUnit is a (library, unit) pair as tracked by the dependency
// closure and the build-sequence algorithm.
type LibraryUnit struct {
	Library m.Identifier
	Name    m.Identifier
}

func (u LibraryUnit) key() m.UnitKey {
	return m.UnitKey{Library: u.Library.Key(), Name: u.Name.Key()}
}

// PathsDefining returns every path defining a unit with the given name,
// in any library.
func (db *Database) PathsDefining(name m.Identifier) []m.Path {
	db.ensureFresh()

	db.mu.Lock()
	defer db.mu.Unlock()

	return db.pathsDefiningLocked(nil, name)
}

// PathsDefiningIn returns every path defining a unit with the given
// name whose effective library matches.
func (db *Database) PathsDefiningIn(library, name m.Identifier) []m.Path {
	db.ensureFresh()

	db.mu.Lock()
	defer db.mu.Unlock()

	return db.pathsDefiningLocked(&library, name)
}

// pathsDefiningLocked resolves a unit reference to defining paths. When
// a library is given, paths compiled into that library are preferred;
// if none match, the name-only matches are returned so a mislabeled
// reference still resolves to something the user can compile. Results
// are memoized until the next mutation.
func (db *Database) pathsDefiningLocked(library *m.Identifier, name m.Identifier) []m.Path {
	key := name.Key()
	if library != nil {
		key = library.Key() + "." + key
	}

	if paths, ok := db.memo.getPathsDefining(key); ok {
		return paths
	}

	var anywhere []m.Path

	var inLibrary []m.Path

	for _, rec := range db.recordsLocked() {
		for _, unit := range rec.units {
			if !unit.Name.Equal(name) {
				continue
			}

			anywhere = append(anywhere, rec.path)

			if library != nil && db.effectiveLibraryLocked(rec).Equal(*library) {
				inLibrary = append(inLibrary, rec.path)
			}

			break
		}
	}

	paths := anywhere
	if library != nil && len(inLibrary) > 0 {
		paths = inLibrary
	}

	db.memo.putPathsDefining(key, paths)

	return paths
}

// resolveIncludedLocked maps a textual inclusion to concrete paths by
// filename match: exact base name first, then path suffix.
func (db *Database) resolveIncludedLocked(name m.Identifier) []m.Path {
	var paths []m.Path

	for _, rec := range db.recordsLocked() {
		if rec.path.Base() == name.Display() ||
			strings.HasSuffix(rec.path.Name(), "/"+name.Display()) {
			paths = append(paths, rec.path)
		}
	}

	return paths
}

// reportUnresolvedLocked records an "unresolved dependency" diagnostic
// once per distinct reference site. The build-sequence pass calls it
// for required units outside the builtin libraries that map to no
// registered path.
func (db *Database) reportUnresolvedLocked(dep m.DependencySpec, unit LibraryUnit) {
	site := dep.Owner.Key() + "|" + string(dep.Kind) + "|" + dep.Name.Key()
	if dep.Library != nil {
		site += "|" + dep.Library.Key()
	}

	if db.unresolvedReported[site] {
		return
	}

	db.unresolvedReported[site] = true

	loc := m.Location{}
	if len(dep.Locations) > 0 {
		loc = dep.Locations[0]
	}

	db.recordDiagnosticLocked(dep.Owner, m.UnresolvedDependency(dep.Owner, loc, unit.Library, unit.Name))
}

// reportAmbiguityLocked records a "dependency not unique" diagnostic
// once per distinct reference site. Ephemeral paths never appear as
// choices, and nothing is reported unless at least two non-ephemeral
// candidates remain.
func (db *Database) reportAmbiguityLocked(dep m.DependencySpec, choices []m.Path) {
	var concrete []m.Path

	for _, c := range choices {
		if !c.Ephemeral() {
			concrete = append(concrete, c)
		}
	}

	if len(concrete) < 2 {
		return
	}

	site := dep.Owner.Key() + "|" + string(dep.Kind) + "|" + dep.Name.Key()
	if dep.Library != nil {
		site += "|" + dep.Library.Key()
	}

	if db.ambiguousReported[site] {
		return
	}

	db.ambiguousReported[site] = true

	loc := m.Location{}
	if len(dep.Locations) > 0 {
		loc = dep.Locations[0]
	}

	db.recordDiagnosticLocked(dep.Owner, m.DependencyNotUnique(dep.Owner, loc, dep.Name, concrete))
}

// DependenciesUnits computes the transitive (library, unit) closure of
// a path by breadth-first traversal. Units the path itself defines are
// excluded and cycles terminate because already-seen units are never
// re-expanded. Units that resolve to no defining path stay in the
// closure: the compiler adapter may provide them as builtins.
func (db *Database) DependenciesUnits(path m.Path) []LibraryUnit {
	db.ensureFresh()

	db.mu.Lock()
	defer db.mu.Unlock()

	return db.dependenciesUnitsLocked(path)
}

func (db *Database) dependenciesUnitsLocked(path m.Path) []LibraryUnit {
	refs := db.closureLocked(path)

	units := make([]LibraryUnit, 0, len(refs))
	for _, ref := range refs {
		units = append(units, ref.unit)
	}

	sort.Slice(units, func(i, j int) bool {
		if units[i].Library.Key() != units[j].Library.Key() {
			return units[i].Library.Key() < units[j].Library.Key()
		}

		return units[i].Name.Key() < units[j].Name.Key()
	})

	return units
}

// closureRef pairs a closure unit with the dependency spec that first
// pulled it in, so the build-sequence pass can attach diagnostics to
// the referencing location.
type closureRef struct {
	unit LibraryUnit
	dep  m.DependencySpec
}

func (db *Database) closureLocked(path m.Path) []closureRef {
	target := db.findRecordLocked(path)
	if target == nil {
		return nil
	}

	own := make(map[string]bool, len(target.units))
	for _, unit := range target.units {
		own[unit.Name.Key()] = true
	}

	seen := make(map[m.UnitKey]bool)
	visited := map[string]bool{target.path.Key(): true}

	var refs []closureRef

	frontier := []*sourceRecord{target}

	for len(frontier) > 0 {
		var next []*sourceRecord

		for _, rec := range frontier {
			recLib := db.effectiveLibraryLocked(rec)

			for _, dep := range rec.deps {
				switch dep.Kind {
				case m.DepIncludedPath:
					included := db.resolveIncludedLocked(dep.Name)
					db.reportAmbiguityLocked(dep, included)

					for _, inc := range included {
						if visited[inc.Key()] {
							continue
						}

						visited[inc.Key()] = true

						if incRec := db.findRecordLocked(inc); incRec != nil {
							next = append(next, incRec)
						}
					}
				case m.DepRequiredUnit:
					unit := LibraryUnit{
						Library: dep.EffectiveLibrary(recLib),
						Name:    dep.Name,
					}

					if own[unit.Name.Key()] || seen[unit.key()] {
						continue
					}

					seen[unit.key()] = true
					refs = append(refs, closureRef{unit: unit, dep: dep})

					defining := db.pathsDefiningLocked(&unit.Library, unit.Name)
					db.reportAmbiguityLocked(dep, defining)

					for _, def := range defining {
						if visited[def.Key()] {
							continue
						}

						visited[def.Key()] = true

						if defRec := db.findRecordLocked(def); defRec != nil {
							next = append(next, defRec)
						}
					}
				}
			}
		}

		frontier = next
	}

	return refs
}
