package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

func TestVerilogParser_ModulesAndPackages(t *testing.T) {
	path := writeSource(t, "units.sv", `
` + "`include \"defines.vh\"" + `

package fifo_pkg;
endpackage

module FifoCtrl
  import fifo_pkg::*;
  (input clk);
endmodule
`)

	units, deps, err := NewVerilogParser().Parse(path)
	require.NoError(t, err)

	require.Len(t, units, 2)
	assert.Equal(t, m.UnitPackage, units[0].Kind)
	assert.Equal(t, "fifo_pkg", units[0].Name.Name())
	assert.Equal(t, m.UnitEntity, units[1].Kind)
	assert.Equal(t, "FifoCtrl", units[1].Name.Name())
	assert.True(t, units[1].Name.CaseSensitive())

	require.Len(t, deps, 2)
	assert.Equal(t, m.DepIncludedPath, deps[0].Kind)
	assert.Equal(t, "defines.vh", deps[0].Name.Display())
	assert.Equal(t, m.DepRequiredUnit, deps[1].Kind)
	assert.Equal(t, "fifo_pkg", deps[1].Name.Name())
	assert.Nil(t, deps[1].Library)
}

func TestVerilogParser_CommentedDeclIgnored(t *testing.T) {
	path := writeSource(t, "commented.v", `
// module ghost;
module real_one;
endmodule
`)

	units, _, err := NewVerilogParser().Parse(path)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "real_one", units[0].Name.Name())
}

func TestDetectFileType(t *testing.T) {
	cases := map[string]FileType{
		"a.vhd":  FileTypeVHDL,
		"a.VHDL": FileTypeVHDL,
		"a.v":    FileTypeVerilog,
		"a.vh":   FileTypeVerilog,
		"a.sv":   FileTypeSystemVerilog,
		"a.svh":  FileTypeSystemVerilog,
		"a.txt":  FileTypeUnknown,
	}

	for name, want := range cases {
		assert.Equal(t, want, DetectFileType(m.NewPath(name, t.TempDir())), name)
	}
}

func TestParserForPath_Unknown(t *testing.T) {
	_, err := ParserForPath(m.NewPath("readme.md", t.TempDir()))
	assert.Error(t, err)
}
