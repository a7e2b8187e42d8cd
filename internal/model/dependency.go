package model

// DependencyKind discriminates the two dependency shapes a parser can
// report. The set is closed; consumers switch exhaustively on it.
type DependencyKind string

const (
	// DepRequiredUnit is a reference to a design unit, optionally
	// qualified by a library.
	DepRequiredUnit DependencyKind = "required_unit"
	// DepIncludedPath is a textual inclusion resolved by filename
	// match, not by design unit lookup.
	DepIncludedPath DependencyKind = "included_path"
)

// DependencySpec is a single dependency edge reported for a source
// file. For DepRequiredUnit a nil Library means "resolve against the
// owner's own library at lookup time" (VHDL work).
type DependencySpec struct {
	Owner     Path
	Kind      DependencyKind
	Name      Identifier
	Library   *Identifier
	Locations []Location
}

// RequiredUnit builds a design unit dependency. library may be nil.
func RequiredUnit(owner Path, name Identifier, library *Identifier, locations ...Location) DependencySpec {
	return DependencySpec{
		Owner:     owner,
		Kind:      DepRequiredUnit,
		Name:      name,
		Library:   library,
		Locations: locations,
	}
}

// IncludedPath builds a textual inclusion dependency.
func IncludedPath(owner Path, name Identifier, locations ...Location) DependencySpec {
	return DependencySpec{
		Owner:     owner,
		Kind:      DepIncludedPath,
		Name:      name,
		Locations: locations,
	}
}

// EffectiveLibrary resolves the library this dependency refers to,
// falling back to the owner's library when the reference is
// unqualified.
func (d DependencySpec) EffectiveLibrary(ownerLibrary Identifier) Identifier {
	if d.Library != nil {
		return *d.Library
	}

	return ownerLibrary
}
