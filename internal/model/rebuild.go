package model

// RebuildHintKind discriminates the three ways a compiler adapter can
// report that something else must be recompiled first.
type RebuildHintKind string

const (
	// RebuildUnitHint names a unit by name and kind, library unknown.
	RebuildUnitHint RebuildHintKind = "unit"
	// RebuildLibraryUnitHint names a unit inside a known library.
	RebuildLibraryUnitHint RebuildHintKind = "library_unit"
	// RebuildPathHint names a concrete source path.
	RebuildPathHint RebuildHintKind = "path"
)

// RebuildHint is feedback from a compiler adapter indicating that some
// other unit, library member or path must be recompiled before the
// current compile is final.
type RebuildHint struct {
	Kind     RebuildHintKind
	Name     Identifier
	UnitKind UnitKind
	Library  Identifier
	Path     Path
}

// RebuildUnit builds a hint naming a unit anywhere in the project.
func RebuildUnit(name Identifier, kind UnitKind) RebuildHint {
	return RebuildHint{Kind: RebuildUnitHint, Name: name, UnitKind: kind}
}

// RebuildLibraryUnit builds a hint naming a unit inside a library.
func RebuildLibraryUnit(library, name Identifier) RebuildHint {
	return RebuildHint{Kind: RebuildLibraryUnitHint, Library: library, Name: name}
}

// RebuildPath builds a hint naming a concrete path.
func RebuildPath(path Path) RebuildHint {
	return RebuildHint{Kind: RebuildPathHint, Path: path}
}
