package domain

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hdlvet.dev/pkg/hdlvet/internal/adapter"
	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// writeVHDL drops a real file on disk; the database stats files for
// staleness, so tests work with the filesystem rather than mocks.
func writeVHDL(t *testing.T, dir, name, content string) m.Path {
	t.Helper()

	full := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))

	return m.NewPath(full, "")
}

func libPtr(name string) *m.Identifier {
	id := m.VHDLIdentifier(name)

	return &id
}

// countingParser wraps the real dialect dispatch and counts Parse calls
// per path, to observe mtime gating.
type countingParser struct {
	mu     sync.Mutex
	parses map[string]int
}

func (c *countingParser) factory(path m.Path) (adapter.SourceParser, error) {
	inner, err := adapter.ParserForPath(path)
	if err != nil {
		return nil, err
	}

	return &countingDelegate{counter: c, inner: inner}, nil
}

type countingDelegate struct {
	counter *countingParser
	inner   adapter.SourceParser
}

func (d *countingDelegate) Parse(path m.Path) ([]m.DesignUnit, []m.DependencySpec, error) {
	d.counter.mu.Lock()
	d.counter.parses[path.Base()]++
	d.counter.mu.Unlock()

	return d.inner.Parse(path)
}

func TestDatabase_AddAndRemove(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	path := writeVHDL(t, dir, "top.vhd", "entity top is\nend entity;\n")
	require.NoError(t, db.AddSource(path, libPtr("mylib"), nil))

	assert.True(t, db.HasPath(path))
	require.Len(t, db.Paths(), 1)

	units := db.DesignUnitsByPath(path)
	require.Len(t, units, 1)
	assert.Equal(t, "top", units[0].Name.Name())

	assert.True(t, db.RemoveSource(path))
	assert.False(t, db.HasPath(path))
	assert.False(t, db.RemoveSource(path))
}

func TestDatabase_AddUnreadableSourceDropped(t *testing.T) {
	db := NewDatabase()
	path := m.NewPath(filepath.Join(t.TempDir(), "missing.vhd"), "")

	err := db.AddSource(path, nil, nil)
	assert.Error(t, err)
	assert.False(t, db.HasPath(path))
}

func TestDatabase_ReAddOverwrites(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	path := writeVHDL(t, dir, "top.vhd", "entity top is\nend entity;\n")
	require.NoError(t, db.AddSource(path, libPtr("old_lib"), []string{"-a"}))
	require.NoError(t, db.AddSource(path, libPtr("new_lib"), []string{"-b"}))

	require.Len(t, db.Paths(), 1)
	assert.Equal(t, "new_lib", db.Library(path).Name())
	assert.Equal(t, []string{"-b"}, db.EffectiveDBFlags(path, m.ScopeGlobal))
}

func TestDatabase_MTimeGatedReparse(t *testing.T) {
	dir := t.TempDir()
	counter := &countingParser{parses: make(map[string]int)}
	db := NewDatabase(WithParserFactory(counter.factory))

	path := writeVHDL(t, dir, "top.vhd", "entity top is\nend entity;\n")
	require.NoError(t, db.AddSource(path, libPtr("mylib"), nil))

	// Repeated queries with an unchanged file never re-parse.
	db.DesignUnitsByPath(path)
	db.DesignUnitsByPath(path)
	assert.Equal(t, 1, counter.parses["top.vhd"])

	// Rewrite with a different mtime; the next query picks it up.
	require.NoError(t, os.WriteFile(path.Name(), []byte("entity renamed is\nend entity;\n"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path.Name(), future, future))

	units := db.DesignUnitsByPath(path)
	require.Len(t, units, 1)
	assert.Equal(t, "renamed", units[0].Name.Name())
	assert.Equal(t, 2, counter.parses["top.vhd"])
}

func TestDatabase_DeletedFileDroppedOnQuery(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	path := writeVHDL(t, dir, "gone.vhd", "entity gone is\nend entity;\n")
	require.NoError(t, db.AddSource(path, nil, nil))
	require.NoError(t, os.Remove(path.Name()))

	assert.Empty(t, db.DesignUnitsByPath(path))
	assert.False(t, db.HasPath(path))
}

func TestDatabase_EffectiveDBFlagsOrder(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	path := writeVHDL(t, dir, "top.vhd", "entity top is\nend entity;\n")
	require.NoError(t, db.AddSource(path, libPtr("mylib"), []string{"-source"}))

	db.SetScopeFlags(m.ScopeGlobal, []string{"-global"})
	db.SetScopeFlags(m.ScopeSingle, []string{"-single"})
	db.SetScopeFlags(m.ScopeDependencies, []string{"-deps"})

	assert.Equal(t, []string{"-global", "-single", "-source"}, db.EffectiveDBFlags(path, m.ScopeSingle))
	assert.Equal(t, []string{"-global", "-deps", "-source"}, db.EffectiveDBFlags(path, m.ScopeDependencies))
	assert.Equal(t, []string{"-global", "-source"}, db.EffectiveDBFlags(path, m.ScopeGlobal))
}

func TestDatabase_RefreshClearsDerivedState(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	unregistered := m.NewPath(filepath.Join(dir, "stray.vhd"), "")
	db.Library(unregistered)
	require.NotEmpty(t, db.AllDiagnostics())

	db.Refresh()
	assert.Empty(t, db.AllDiagnostics())
}

func TestDatabase_DependenciesByPath(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	path := writeVHDL(t, dir, "top.vhd", "use mylib.utils.all;\nentity top is\nend entity;\n")
	require.NoError(t, db.AddSource(path, nil, nil))

	deps := db.DependenciesByPath(path)
	require.Len(t, deps, 1)
	assert.Equal(t, "utils", deps[0].Name.Name())
}
