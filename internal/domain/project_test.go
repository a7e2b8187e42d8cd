package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

func TestProject_CheckPathMergesAllCheckers(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	top := writeVHDL(t, dir, "top.vhd", `
entity top is
end entity;
-- TODO: add the generics
`)
	require.NoError(t, db.AddSource(top, libPtr("app"), nil))

	builder := newFakeBuilder()
	builder.diags["top.vhd"] = []m.Diagnostic{
		{Checker: m.CheckerBuilder, Severity: m.SeverityWarning, Filename: top, Text: "builder says"},
	}

	project := NewProject(dir, db, builder)

	diags, err := project.CheckPath(context.Background(), top)
	require.NoError(t, err)

	checkers := make(map[string]int)
	for _, diag := range diags {
		checkers[diag.Checker]++
	}

	assert.Equal(t, 1, checkers[m.CheckerBuilder])
	assert.Equal(t, 1, checkers[m.CheckerStyle])
}

func TestProject_CheckPathIncludesDatabaseDiagnostics(t *testing.T) {
	dir := t.TempDir()
	db := NewDatabase()

	stray := writeVHDL(t, dir, "stray.vhd", "entity stray is\nend entity;\n")
	project := NewProject(dir, db, newFakeBuilder())

	diags, err := project.CheckPath(context.Background(), stray)
	require.NoError(t, err)

	var notInProject bool

	for _, diag := range diags {
		if diag.Checker == m.CheckerDatabase && diag.Severity == m.SeverityWarning {
			notInProject = true
		}
	}

	assert.True(t, notInProject)
}

func TestContainer_GetCreatesOnce(t *testing.T) {
	opened := 0
	container := NewContainer(func(root string) *Project {
		opened++

		return NewProject(root, NewDatabase(), newFakeBuilder())
	})

	a := container.Get("/proj/a")
	again := container.Get("/proj/a")
	b := container.Get("/proj/b")

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, opened)
	assert.ElementsMatch(t, []string{"/proj/a", "/proj/b"}, container.Roots())
}
