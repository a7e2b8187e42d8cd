package domain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

func TestStyleChecker_TaskTags(t *testing.T) {
	dir := t.TempDir()
	path := writeVHDL(t, dir, "tags.vhd", `
entity top is
end entity;
-- TODO: hook up the reset
-- FIXME wrong polarity
`)

	diags := NewStyleChecker().Check(path)
	require.Len(t, diags, 2)

	assert.Equal(t, m.SeverityStyleInfo, diags[0].Severity)
	assert.Equal(t, m.CheckerStyle, diags[0].Checker)
	assert.Equal(t, 4, diags[0].Line)
	assert.Contains(t, diags[0].Text, "TODO")
	assert.Contains(t, diags[1].Text, "FIXME")
}

func TestStyleChecker_UnusedSignal(t *testing.T) {
	dir := t.TempDir()
	path := writeVHDL(t, dir, "signals.vhd", `
architecture rtl of top is
  signal used_sig : std_logic;
  signal dead_sig : std_logic;
begin
  q <= used_sig;
end architecture;
`)

	diags := NewStyleChecker().Check(path)
	require.Len(t, diags, 1)

	assert.Equal(t, m.SeverityStyleWarning, diags[0].Severity)
	assert.Equal(t, 4, diags[0].Line)
	assert.Contains(t, diags[0].Text, `"dead_sig"`)
}

func TestStyleChecker_CommentedUseDoesNotCount(t *testing.T) {
	dir := t.TempDir()
	path := writeVHDL(t, dir, "commented.vhd", `
architecture rtl of top is
  signal ghost : std_logic;
begin
  -- q <= ghost;
end architecture;
`)

	diags := NewStyleChecker().Check(path)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Text, `"ghost"`)
}

func TestStyleChecker_UnreadableFileYieldsNothing(t *testing.T) {
	path := m.NewPath(filepath.Join(t.TempDir(), "missing.vhd"), "")
	assert.Empty(t, NewStyleChecker().Check(path))
}
