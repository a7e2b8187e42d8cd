// Package domain holds the dependency database, the build orchestrator
// and the style checker. The database is the single source of truth for
// parsed sources, dependency edges, library ownership and derived
// diagnostics.
package domain

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"hdlvet.dev/pkg/hdlvet/internal/adapter"
	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// NotInProjectLibrary is the sentinel library assigned to paths that
// were never registered.
var NotInProjectLibrary = m.VHDLIdentifier("not_in_project")

// WorkLibrary is the default library used when nothing was configured
// and inference found no votes.
var WorkLibrary = m.VHDLIdentifier("work")

// ParserFactory selects a source parser for a path.
type ParserFactory func(m.Path) (adapter.SourceParser, error)

type sourceRecord struct {
	path    m.Path
	library *m.Identifier
	flags   []string
	mtime   time.Time
	units   []m.DesignUnit
	deps    []m.DependencySpec
}

// Database owns all per-path state and answers graph queries. All
// mutation is serialized behind one mutex; read-only queries may run
// concurrently with each other but never with a mutation.
type Database struct {
	mu        sync.RWMutex
	parserFor ParserFactory

	sources    map[string]*sourceRecord
	inferred   map[string]m.Identifier
	scopeFlags map[m.FlagScope][]string

	diags              map[string][]m.Diagnostic
	lapses             map[string]bool
	ambiguousReported  map[string]bool
	unresolvedReported map[string]bool

	memo memoCache
}

// DatabaseOption customizes a Database at construction.
type DatabaseOption func(*Database)

// WithParserFactory replaces the dialect-by-extension parser selection
// (used by tests).
func WithParserFactory(factory ParserFactory) DatabaseOption {
	return func(db *Database) { db.parserFor = factory }
}

// NewDatabase constructs an empty Database.
func NewDatabase(opts ...DatabaseOption) *Database {
	db := &Database{
		parserFor:          adapter.ParserForPath,
		sources:            make(map[string]*sourceRecord),
		inferred:           make(map[string]m.Identifier),
		scopeFlags:         make(map[m.FlagScope][]string),
		diags:              make(map[string][]m.Diagnostic),
		lapses:             make(map[string]bool),
		ambiguousReported:  make(map[string]bool),
		unresolvedReported: make(map[string]bool),
	}

	db.memo.reset()

	for _, opt := range opts {
		opt(db)
	}

	return db
}

// findRecordLocked resolves a path to its record, falling back to
// device/inode comparison so relative-vs-absolute spellings of the same
// file still match.
func (db *Database) findRecordLocked(path m.Path) *sourceRecord {
	if rec, ok := db.sources[path.Key()]; ok {
		return rec
	}

	for _, rec := range db.sources {
		if rec.path.Equal(path) {
			return rec
		}
	}

	return nil
}

// AddSource registers or overwrites a source. Library may be nil for
// "infer later"; flags are the source-specific overrides. The file is
// parsed unconditionally; an unreadable file is dropped, not raised.
func (db *Database) AddSource(path m.Path, library *m.Identifier, flags []string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec := db.findRecordLocked(path)
	if rec == nil {
		rec = &sourceRecord{path: path}
		db.sources[path.Key()] = rec
	}

	rec.library = library
	rec.flags = flags
	delete(db.lapses, path.Key())
	db.memo.invalidateAll()

	if err := db.parseLocked(rec); err != nil {
		return fmt.Errorf("add source %q: %w", path.Name(), err)
	}

	if library != nil {
		db.repointUnresolvedLocked(rec, *library)
	}

	return nil
}

// RemoveSource drops a path and everything derived from it. Removing an
// unregistered path is a no-op.
func (db *Database) RemoveSource(path m.Path) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.removeSourceLocked(path)
}

func (db *Database) removeSourceLocked(path m.Path) bool {
	rec := db.findRecordLocked(path)
	if rec == nil {
		return false
	}

	key := rec.path.Key()
	delete(db.sources, key)
	delete(db.inferred, key)
	delete(db.diags, key)
	db.memo.invalidateAll()

	return true
}

// parseLocked re-invokes the source parser and atomically swaps the
// record's previous units and dependencies for the new ones, so stale
// units never linger. Unreadable files are silently dropped.
func (db *Database) parseLocked(rec *sourceRecord) error {
	mtime, err := rec.path.MTime()
	if err != nil {
		slog.Debug("Dropping unreadable source", "path", rec.path.Name(), "error", err)
		db.removeSourceLocked(rec.path)

		return fmt.Errorf("stat source: %w", err)
	}

	parser, err := db.parserFor(rec.path)
	if err != nil {
		slog.Debug("Dropping source with no parser", "path", rec.path.Name(), "error", err)
		db.removeSourceLocked(rec.path)

		return err
	}

	units, deps, err := parser.Parse(rec.path)
	if err != nil {
		slog.Debug("Dropping unparseable source", "path", rec.path.Name(), "error", err)
		db.removeSourceLocked(rec.path)

		return err
	}

	rec.units = units
	rec.deps = deps
	rec.mtime = mtime
	db.memo.invalidateAll()

	return nil
}

// ParseSourceIfNeeded compares the on-disk modification time with the
// one recorded at the last parse and re-parses only on change.
func (db *Database) ParseSourceIfNeeded(path m.Path) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec := db.findRecordLocked(path)
	if rec == nil {
		return
	}

	db.parseIfStaleLocked(rec)
}

func (db *Database) parseIfStaleLocked(rec *sourceRecord) {
	mtime, err := rec.path.MTime()
	if err != nil {
		slog.Debug("Dropping unreadable source", "path", rec.path.Name(), "error", err)
		db.removeSourceLocked(rec.path)

		return
	}

	if mtime.Equal(rec.mtime) {
		return
	}

	_ = db.parseLocked(rec)
}

// ensureFresh runs the staleness check over every registered path. It
// is called at the top of the derived queries so answers always reflect
// the files currently on disk.
func (db *Database) ensureFresh() {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, rec := range db.recordsLocked() {
		db.parseIfStaleLocked(rec)
	}
}

// recordsLocked snapshots the record set so callers can mutate the map
// while iterating.
func (db *Database) recordsLocked() []*sourceRecord {
	recs := make([]*sourceRecord, 0, len(db.sources))
	for _, rec := range db.sources {
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].path.Key() < recs[j].path.Key() })

	return recs
}

// Refresh discards every inferred library assignment and accumulated
// diagnostic, then re-parses every registered path so inference runs
// again from scratch.
func (db *Database) Refresh() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.inferred = make(map[string]m.Identifier)
	db.diags = make(map[string][]m.Diagnostic)
	db.lapses = make(map[string]bool)
	db.ambiguousReported = make(map[string]bool)
	db.unresolvedReported = make(map[string]bool)
	db.memo.invalidateAll()

	for _, rec := range db.recordsLocked() {
		_ = db.parseLocked(rec)
	}
}

// Paths lists every registered path.
func (db *Database) Paths() []m.Path {
	db.mu.RLock()
	defer db.mu.RUnlock()

	paths := make([]m.Path, 0, len(db.sources))
	for _, rec := range db.recordsLocked() {
		paths = append(paths, rec.path)
	}

	return paths
}

// HasPath reports whether a path is registered.
func (db *Database) HasPath(path m.Path) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.findRecordLocked(path) != nil
}

// DesignUnitsByPath returns the units defined by a path as of its
// latest successful parse.
func (db *Database) DesignUnitsByPath(path m.Path) []m.DesignUnit {
	db.ensureFresh()

	db.mu.RLock()
	defer db.mu.RUnlock()

	rec := db.findRecordLocked(path)
	if rec == nil {
		return nil
	}

	out := make([]m.DesignUnit, len(rec.units))
	copy(out, rec.units)

	return out
}

// DependenciesByPath returns the raw dependency specs of a path.
func (db *Database) DependenciesByPath(path m.Path) []m.DependencySpec {
	db.ensureFresh()

	db.mu.RLock()
	defer db.mu.RUnlock()

	rec := db.findRecordLocked(path)
	if rec == nil {
		return nil
	}

	out := make([]m.DependencySpec, len(rec.deps))
	copy(out, rec.deps)

	return out
}

// SetScopeFlags stores the project-wide flag set for a scope.
func (db *Database) SetScopeFlags(scope m.FlagScope, flags []string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.scopeFlags[scope] = flags
	db.memo.invalidateAll()
}

// EffectiveDBFlags returns the database-owned portion of the effective
// compile flags for a path and scope: global flags, then scope flags,
// then source-specific flags, in that order.
func (db *Database) EffectiveDBFlags(path m.Path, scope m.FlagScope) []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var source []string
	if rec := db.findRecordLocked(path); rec != nil {
		source = rec.flags
	}

	out := make([]string, 0, len(db.scopeFlags[m.ScopeGlobal])+len(db.scopeFlags[scope])+len(source))
	out = append(out, db.scopeFlags[m.ScopeGlobal]...)

	if scope != m.ScopeGlobal {
		out = append(out, db.scopeFlags[scope]...)
	}

	out = append(out, source...)

	return out
}

// Diagnostics returns the accumulated diagnostics for one path.
func (db *Database) Diagnostics(path m.Path) []m.Diagnostic {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]m.Diagnostic, len(db.diags[path.Key()]))
	copy(out, db.diags[path.Key()])

	return out
}

// AllDiagnostics returns every accumulated diagnostic, ordered by path.
func (db *Database) AllDiagnostics() []m.Diagnostic {
	db.mu.RLock()
	defer db.mu.RUnlock()

	keys := make([]string, 0, len(db.diags))
	for key := range db.diags {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var out []m.Diagnostic
	for _, key := range keys {
		out = append(out, db.diags[key]...)
	}

	return out
}

func (db *Database) recordDiagnosticLocked(path m.Path, diag m.Diagnostic) {
	db.diags[path.Key()] = append(db.diags[path.Key()], diag)
}

// memoCache is the explicit, enumerated set of memoized query results.
// Every mutation invalidates all of them together; there is no
// per-query bookkeeping. It carries its own mutex so read-only graph
// queries holding the database read lock can still fill it.
type memoCache struct {
	mu                sync.Mutex
	library           map[string]m.Identifier
	pathsDefining     map[string][]m.Path
	librariesReferred map[string][]m.Identifier
	buildSequence     map[string][]BuildStep
}

func (c *memoCache) reset() {
	c.library = make(map[string]m.Identifier)
	c.pathsDefining = make(map[string][]m.Path)
	c.librariesReferred = make(map[string][]m.Identifier)
	c.buildSequence = make(map[string][]BuildStep)
}

// invalidateAll is the single invalidation point hit by every mutation.
func (c *memoCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
}

func (c *memoCache) getLibrary(key string) (m.Identifier, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.library[key]

	return v, ok
}

func (c *memoCache) putLibrary(key string, v m.Identifier) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.library[key] = v
}

func (c *memoCache) getPathsDefining(key string) ([]m.Path, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.pathsDefining[key]

	return v, ok
}

func (c *memoCache) putPathsDefining(key string, v []m.Path) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pathsDefining[key] = v
}

func (c *memoCache) getLibrariesReferred(key string) ([]m.Identifier, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.librariesReferred[key]

	return v, ok
}

func (c *memoCache) putLibrariesReferred(key string, v []m.Identifier) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.librariesReferred[key] = v
}

func (c *memoCache) getBuildSequence(key string) ([]BuildStep, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.buildSequence[key]

	return v, ok
}

func (c *memoCache) putBuildSequence(key string, v []BuildStep) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buildSequence[key] = v
}
