package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

func TestLibrary_ExplicitWins(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	path := writeVHDL(t, dir, "top.vhd", "entity top is\nend entity;\n")
	require.NoError(t, db.AddSource(path, libPtr("mylib"), nil))

	assert.Equal(t, "mylib", db.Library(path).Name())
}

func TestLibrary_NotInProjectReportedOnce(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	stray := writeVHDL(t, dir, "stray.vhd", "entity stray is\nend entity;\n")

	assert.Equal(t, NotInProjectLibrary.Name(), db.Library(stray).Name())
	assert.Equal(t, NotInProjectLibrary.Name(), db.Library(stray).Name())

	diags := db.Diagnostics(stray)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Text, "not found in the project file")
}

func TestLibrary_EphemeralNeverReported(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	scratch := m.NewEphemeralPath(writeVHDL(t, dir, "scratch.vhd", "").Name(), "")

	assert.Equal(t, NotInProjectLibrary.Name(), db.Library(scratch).Name())
	assert.Empty(t, db.AllDiagnostics())
}

func TestLibrary_InferredByMajorityVote(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	pkg := writeVHDL(t, dir, "common.vhd", "package common is\nend package;\n")
	require.NoError(t, db.AddSource(pkg, nil, nil))

	// Two references through lib_a, one through lib_b.
	for name, content := range map[string]string{
		"user1.vhd": "use lib_a.common.all;\nentity user1 is\nend entity;\n",
		"user2.vhd": "use lib_a.common.all;\nentity user2 is\nend entity;\n",
		"user3.vhd": "use lib_b.common.all;\nentity user3 is\nend entity;\n",
	} {
		require.NoError(t, db.AddSource(writeVHDL(t, dir, name, content), nil, nil))
	}

	assert.Equal(t, "lib_a", db.Library(pkg).Name())

	diags := db.Diagnostics(pkg)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Text, "library used in different ways")
	assert.Contains(t, diags[0].Text, `"lib_a"`)
}

func TestLibrary_TieBreaksLexicographically(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	pkg := writeVHDL(t, dir, "common.vhd", "package common is\nend package;\n")
	require.NoError(t, db.AddSource(pkg, nil, nil))

	require.NoError(t, db.AddSource(
		writeVHDL(t, dir, "user1.vhd", "use lib_b.common.all;\nentity user1 is\nend entity;\n"), nil, nil))
	require.NoError(t, db.AddSource(
		writeVHDL(t, dir, "user2.vhd", "use lib_a.common.all;\nentity user2 is\nend entity;\n"), nil, nil))

	assert.Equal(t, "lib_a", db.Library(pkg).Name())
}

func TestLibrary_WorkReferencesNeverVote(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	pkg := writeVHDL(t, dir, "common.vhd", "package common is\nend package;\n")
	require.NoError(t, db.AddSource(pkg, nil, nil))

	// A work-relative reference resolves against the user's own library
	// and says nothing about where common lives.
	require.NoError(t, db.AddSource(
		writeVHDL(t, dir, "user.vhd", "use work.common.all;\nentity user is\nend entity;\n"), nil, nil))

	assert.True(t, db.Library(pkg).Zero())
	assert.Empty(t, db.Diagnostics(pkg))
}

func TestLibrary_RepointingUnresolvedEdges(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	user := writeVHDL(t, dir, "user.vhd", "use work.common.all;\nentity user is\nend entity;\n")
	require.NoError(t, db.AddSource(user, libPtr("app"), nil))

	// Registering the defining file with an explicit library repoints
	// the user's unresolved edge at it.
	pkg := writeVHDL(t, dir, "common.vhd", "package common is\nend package;\n")
	require.NoError(t, db.AddSource(pkg, libPtr("shared"), nil))

	deps := db.DependenciesByPath(user)
	require.Len(t, deps, 1)
	require.NotNil(t, deps[0].Library)
	assert.Equal(t, "shared", deps[0].Library.Name())
}

func TestLibrariesReferredByUnit(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	require.NoError(t, db.AddSource(
		writeVHDL(t, dir, "a.vhd", "use lib_a.common.all;\nentity a is\nend entity;\n"), nil, nil))
	require.NoError(t, db.AddSource(
		writeVHDL(t, dir, "b.vhd", "use lib_b.common.all;\nentity b is\nend entity;\n"), nil, nil))

	libs := db.LibrariesReferredByUnit(m.VHDLIdentifier("common"))
	require.Len(t, libs, 2)
}
