package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

func builtins(names ...string) []m.Identifier {
	ids := make([]m.Identifier, 0, len(names))
	for _, name := range names {
		ids = append(ids, m.VHDLIdentifier(name))
	}

	return ids
}

func TestBuildSequence_DependenciesFirst(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	base := writeVHDL(t, dir, "base.vhd", "package base_pkg is\nend package;\n")
	mid := writeVHDL(t, dir, "mid.vhd", "use shared.base_pkg.all;\npackage mid_pkg is\nend package;\n")
	top := writeVHDL(t, dir, "top.vhd", "use shared.mid_pkg.all;\nentity top is\nend entity;\n")

	require.NoError(t, db.AddSource(base, libPtr("shared"), nil))
	require.NoError(t, db.AddSource(mid, libPtr("shared"), nil))
	require.NoError(t, db.AddSource(top, libPtr("app"), nil))

	steps := db.BuildSequence(top, nil)
	require.Len(t, steps, 2)
	assert.Equal(t, base.Name(), steps[0].Path.Name())
	assert.Equal(t, mid.Name(), steps[1].Path.Name())
	assert.Equal(t, "shared", steps[0].Library.Name())
}

func TestBuildSequence_TargetNeverInOwnSequence(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	// The target defines the unit it also references via its own library.
	top := writeVHDL(t, dir, "top.vhd", "use work.top_pkg.all;\npackage top_pkg is\nend package;\n")
	require.NoError(t, db.AddSource(top, libPtr("app"), nil))

	assert.Empty(t, db.BuildSequence(top, nil))
}

func TestBuildSequence_BuiltinsExcluded(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	// A project file shadows a builtin library name; the builtin set
	// wins and the shadow copy is not scheduled.
	shadow := writeVHDL(t, dir, "fake_ieee.vhd", "package std_logic_1164 is\nend package;\n")
	top := writeVHDL(t, dir, "top.vhd", "use ieee.std_logic_1164.all;\nentity top is\nend entity;\n")

	require.NoError(t, db.AddSource(shadow, libPtr("ieee"), nil))
	require.NoError(t, db.AddSource(top, libPtr("app"), nil))

	assert.Empty(t, db.BuildSequence(top, builtins("std", "ieee")))
	require.Len(t, db.BuildSequence(top, nil), 1)
}

func TestBuildSequence_EachPathOnce(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	// Both needed units live in the same file.
	pair := writeVHDL(t, dir, "pair.vhd", "package pkg_a is\nend package;\npackage pkg_b is\nend package;\n")
	top := writeVHDL(t, dir, "top.vhd", "use shared.pkg_a.all;\nuse shared.pkg_b.all;\nentity top is\nend entity;\n")

	require.NoError(t, db.AddSource(pair, libPtr("shared"), nil))
	require.NoError(t, db.AddSource(top, libPtr("app"), nil))

	steps := db.BuildSequence(top, nil)
	require.Len(t, steps, 1)
	assert.Equal(t, pair.Name(), steps[0].Path.Name())
}

func TestBuildSequence_CycleDegradesGracefully(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	a := writeVHDL(t, dir, "a.vhd", "use shared.unit_b.all;\npackage unit_a is\nend package;\n")
	b := writeVHDL(t, dir, "b.vhd", "use shared.unit_a.all;\npackage unit_b is\nend package;\n")
	top := writeVHDL(t, dir, "top.vhd", "use shared.unit_a.all;\nentity top is\nend entity;\n")

	require.NoError(t, db.AddSource(a, libPtr("shared"), nil))
	require.NoError(t, db.AddSource(b, libPtr("shared"), nil))
	require.NoError(t, db.AddSource(top, libPtr("app"), nil))

	// Neither cycle member can be scheduled before the other; the
	// sequence degrades to a partial (here empty) result instead of
	// spinning.
	assert.Empty(t, db.BuildSequence(top, nil))
}

func TestBuildSequence_MemoInvalidatedByMutation(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	top := writeVHDL(t, dir, "top.vhd", "use shared.late_pkg.all;\nentity top is\nend entity;\n")
	require.NoError(t, db.AddSource(top, libPtr("app"), nil))

	assert.Empty(t, db.BuildSequence(top, nil))

	late := writeVHDL(t, dir, "late.vhd", "package late_pkg is\nend package;\n")
	require.NoError(t, db.AddSource(late, libPtr("shared"), nil))

	steps := db.BuildSequence(top, nil)
	require.Len(t, steps, 1)
	assert.Equal(t, late.Name(), steps[0].Path.Name())
}

func TestBuildSequence_InfersLibraryForUnassignedSource(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	// util.vhd has no configured library; the reference through lib_a is
	// the only evidence of where it belongs.
	pkg := writeVHDL(t, dir, "util.vhd", "package util_pkg is\nend package;\n")
	top := writeVHDL(t, dir, "top.vhd", "use lib_a.util_pkg.all;\nentity top is\nend entity;\n")

	require.NoError(t, db.AddSource(pkg, nil, nil))
	require.NoError(t, db.AddSource(top, libPtr("app"), nil))

	steps := db.BuildSequence(top, nil)
	require.Len(t, steps, 1)
	assert.Equal(t, "lib_a", steps[0].Library.Name())

	// The answer must not depend on whether a direct library lookup ran
	// first.
	assert.Equal(t, "lib_a", db.Library(pkg).Name())

	again := db.BuildSequence(top, nil)
	require.Len(t, again, 1)
	assert.Equal(t, "lib_a", again[0].Library.Name())
}

func TestBuildSequence_UnresolvedDependencyDiagnostic(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	top := writeVHDL(t, dir, "top.vhd", "use mylib.missing_pkg.all;\nentity top is\nend entity;\n")
	require.NoError(t, db.AddSource(top, libPtr("app"), nil))

	assert.Empty(t, db.BuildSequence(top, nil))

	diags := db.Diagnostics(top)
	require.Len(t, diags, 1)
	assert.Equal(t, m.CheckerDatabase, diags[0].Checker)
	assert.Contains(t, diags[0].Text, "missing_pkg")
	assert.Equal(t, 1, diags[0].Line)

	// Once per reference site, even when a mutation forces the sequence
	// to be recomputed.
	db.SetScopeFlags(m.ScopeGlobal, nil)
	assert.Empty(t, db.BuildSequence(top, nil))
	assert.Len(t, db.Diagnostics(top), 1)
}

func TestBuildSequence_BuiltinUnitsNotReportedUnresolved(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	top := writeVHDL(t, dir, "top.vhd", "use ieee.std_logic_1164.all;\nentity top is\nend entity;\n")
	require.NoError(t, db.AddSource(top, libPtr("app"), nil))

	assert.Empty(t, db.BuildSequence(top, builtins("std", "ieee")))
	assert.Empty(t, db.Diagnostics(top))
}
