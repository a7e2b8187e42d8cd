// Package model defines the data structures shared by the dependency
// database, the source parsers and the compiler adapters.
package model

import "strings"

// Identifier is a case-policy-aware design unit or library name. VHDL
// names compare case-insensitively, Verilog and SystemVerilog names do
// not. The value is immutable after construction.
type Identifier struct {
	display       string
	name          string
	caseSensitive bool
}

// VHDLIdentifier builds a case-insensitive identifier. The normalized
// name is lower-cased at construction so map lookups stay cheap.
func VHDLIdentifier(name string) Identifier {
	return Identifier{
		display:       name,
		name:          strings.ToLower(name),
		caseSensitive: false,
	}
}

// VerilogIdentifier builds a case-sensitive identifier.
func VerilogIdentifier(name string) Identifier {
	return Identifier{
		display:       name,
		name:          name,
		caseSensitive: true,
	}
}

// Display returns the name as written in the source.
func (i Identifier) Display() string {
	return i.display
}

// Name returns the normalized name. For case-insensitive identifiers
// this is the lower-cased form.
func (i Identifier) Name() string {
	return i.name
}

// CaseSensitive reports whether comparisons use the exact display name.
func (i Identifier) CaseSensitive() bool {
	return i.caseSensitive
}

// Zero reports whether the identifier was never set.
func (i Identifier) Zero() bool {
	return i.display == "" && i.name == ""
}

// Equal compares two identifiers. When either side is case-insensitive
// the normalized names are compared after lower-casing both, otherwise
// the display names must match exactly.
func (i Identifier) Equal(other Identifier) bool {
	if i.caseSensitive && other.caseSensitive {
		return i.display == other.display
	}

	return strings.ToLower(i.name) == strings.ToLower(other.name)
}

// Key returns the string used to index maps keyed by identifier. Names
// sharing a case policy get identical keys exactly when they compare
// Equal: case-insensitive names share their lower-cased form, while
// case-sensitive names keep their exact spelling behind a marker so two
// Verilog names differing only in case never collide.
func (i Identifier) Key() string {
	if i.caseSensitive {
		return "=" + i.name
	}

	return i.name
}

func (i Identifier) String() string {
	return i.display
}
