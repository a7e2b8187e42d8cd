package model

// UnitKind is the category of a design unit.
type UnitKind string

const (
	// UnitEntity covers VHDL entities and Verilog modules.
	UnitEntity UnitKind = "entity"
	// UnitPackage covers VHDL and SystemVerilog packages.
	UnitPackage UnitKind = "package"
	// UnitContext covers VHDL-2008 context declarations.
	UnitContext UnitKind = "context"
)

// Location is a position inside a source file.
type Location struct {
	Line   int
	Column int
}

// DesignUnit is a named declaration a source file provides to the rest
// of the project. Units are produced by one parser call and replaced
// wholesale when their owner is re-parsed or removed.
type DesignUnit struct {
	Owner     Path
	Kind      UnitKind
	Name      Identifier
	Locations []Location
}

// UnitKey identifies a design unit inside a library. It is the value
// the build-sequence algorithm tracks as "compiled".
type UnitKey struct {
	Library string
	Name    string
}

// Key returns the library-qualified lookup key for a unit compiled into
// the given library.
func (u DesignUnit) Key(library Identifier) UnitKey {
	return UnitKey{Library: library.Key(), Name: u.Name.Key()}
}
