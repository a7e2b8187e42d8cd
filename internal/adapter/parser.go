// Package adapter contains the parser, compiler and storage adapters
// that connect the dependency database to the outside world.
package adapter

import (
	"fmt"
	"path/filepath"
	"strings"

	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

// SourceParser turns one source file into its defined design units and
// dependency references. Implementations must be pure given the file
// contents: a failure surfaces as an empty result plus an error, never
// a partial set.
type SourceParser interface {
	Parse(path m.Path) ([]m.DesignUnit, []m.DependencySpec, error)
}

// FileType is the HDL dialect of a source file.
type FileType string

// Available FileType values.
const (
	FileTypeVHDL          FileType = "vhdl"
	FileTypeVerilog       FileType = "verilog"
	FileTypeSystemVerilog FileType = "systemverilog"
	FileTypeUnknown       FileType = "unknown"
)

// DetectFileType classifies a path by extension.
func DetectFileType(path m.Path) FileType {
	switch strings.ToLower(filepath.Ext(path.Name())) {
	case ".vhd", ".vhdl":
		return FileTypeVHDL
	case ".v", ".vh":
		return FileTypeVerilog
	case ".sv", ".svh":
		return FileTypeSystemVerilog
	default:
		return FileTypeUnknown
	}
}

// ParserForPath selects the dialect scanner for a path.
func ParserForPath(path m.Path) (SourceParser, error) {
	switch DetectFileType(path) {
	case FileTypeVHDL:
		return NewVHDLParser(), nil
	case FileTypeVerilog, FileTypeSystemVerilog:
		return NewVerilogParser(), nil
	default:
		return nil, fmt.Errorf("no parser for %q", path.Name())
	}
}
