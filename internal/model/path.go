package model

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Path is a filesystem identity value. Two paths are equal when their
// canonical forms match or, failing that, when they denote the same
// underlying file (device/inode comparison). The ephemeral tag marks
// scratch buffers standing in for unsaved editor content; those are
// filtered out of ambiguity diagnostics.
type Path struct {
	name      string
	ephemeral bool
}

// NewPath canonicalizes name against base (or the working directory when
// base is empty). Canonicalization never fails: when the file does not
// exist yet the cleaned absolute spelling is kept.
func NewPath(name, base string) Path {
	if !filepath.IsAbs(name) {
		name = filepath.Join(base, name)
	}

	if abs, err := filepath.Abs(name); err == nil {
		name = abs
	}

	if resolved, err := filepath.EvalSymlinks(name); err == nil {
		name = resolved
	}

	return Path{name: filepath.Clean(name)}
}

// NewEphemeralPath wraps an existing on-disk scratch file as ephemeral.
func NewEphemeralPath(name, base string) Path {
	p := NewPath(name, base)
	p.ephemeral = true

	return p
}

// MintEphemeralPath returns an ephemeral path under the system temp
// directory with a unique name and the given extension. The file is not
// created; callers write the scratch buffer themselves.
func MintEphemeralPath(ext string) Path {
	name := filepath.Join(os.TempDir(), "hdlvet-"+uuid.NewString()+ext)

	return Path{name: name, ephemeral: true}
}

// Name returns the canonical absolute spelling.
func (p Path) Name() string {
	return p.name
}

// Ephemeral reports whether the path is a scratch buffer stand-in.
func (p Path) Ephemeral() bool {
	return p.ephemeral
}

// Zero reports whether the path was never set.
func (p Path) Zero() bool {
	return p.name == ""
}

// MTime stats the file on demand and returns its modification time.
func (p Path) MTime() (time.Time, error) {
	info, err := os.Stat(p.name)
	if err != nil {
		return time.Time{}, err
	}

	return info.ModTime(), nil
}

// Base returns the final path component.
func (p Path) Base() string {
	return filepath.Base(p.name)
}

// Equal compares two paths, first by canonical string and then by
// underlying file identity so relative-vs-absolute spellings of the
// same file still match.
func (p Path) Equal(other Path) bool {
	if p.name == other.name {
		return true
	}

	pi, err := os.Stat(p.name)
	if err != nil {
		return false
	}

	oi, err := os.Stat(other.name)
	if err != nil {
		return false
	}

	return os.SameFile(pi, oi)
}

// Key returns the map key for this path. Paths that compare equal by
// canonical string share a key; device/inode matches are resolved by a
// fallback scan in the database.
func (p Path) Key() string {
	return p.name
}

func (p Path) String() string {
	return p.name
}
