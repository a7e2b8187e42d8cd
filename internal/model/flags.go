package model

// FlagScope selects which build context a flag set applies to.
type FlagScope string

const (
	// ScopeGlobal flags are always applied.
	ScopeGlobal FlagScope = "global"
	// ScopeSingle flags apply when compiling the requested target.
	ScopeSingle FlagScope = "single"
	// ScopeDependencies flags apply when compiling a file because
	// something else needs it.
	ScopeDependencies FlagScope = "dependencies"
)

// BuildFlags groups the project-wide flag sets by scope plus per-source
// overrides. Flag order is preserved because later tool flags override
// earlier ones.
type BuildFlags struct {
	Scoped map[FlagScope][]string
	Source []string
}

// ConcatFlags concatenates flag sets in the fixed effective order:
// database scope flags, database source-specific flags, adapter scope
// defaults, adapter global defaults.
func ConcatFlags(dbScoped, dbSource, adapterScoped, adapterGlobal []string) []string {
	out := make([]string, 0, len(dbScoped)+len(dbSource)+len(adapterScoped)+len(adapterGlobal))
	out = append(out, dbScoped...)
	out = append(out, dbSource...)
	out = append(out, adapterScoped...)
	out = append(out, adapterGlobal...)

	return out
}
