package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotFormatVersion is bumped whenever the snapshot layout changes.
// A stored snapshot with a different version is discarded silently; the
// database rebuilds itself from source files on the next query.
const snapshotFormatVersion = 2

// SnapshotFilename is the on-disk name of the database snapshot inside
// the project's cache directory.
const SnapshotFilename = ".hdlvet.cache"

// snapshotEnvelope wraps the serialized database state with the format
// version and the identity of the compiler that produced it. A snapshot
// written against one compiler is useless to another: object files and
// library registries do not carry over.
type snapshotEnvelope struct {
	Version int
	Builder string
	Payload msgpack.RawMessage
}

// SnapshotStore persists a serializable database state under a project
// root using length-prefixed msgpack.
type SnapshotStore struct {
	path string
}

// NewSnapshotStore builds a store rooted at dir.
func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{path: filepath.Join(dir, SnapshotFilename)}
}

// Path returns the snapshot file location.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Save serializes state and writes it atomically: a temp file in the
// same directory followed by a rename, so a crash mid-write never
// leaves a truncated snapshot behind.
func (s *SnapshotStore) Save(builder string, state any) error {
	payload, err := msgpack.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot state: %w", err)
	}

	blob, err := msgpack.Marshal(snapshotEnvelope{
		Version: snapshotFormatVersion,
		Builder: builder,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("encode snapshot envelope: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".hdlvet-*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("write snapshot: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("close snapshot temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}

// Load reads a snapshot into state. It returns false, without error,
// when there is no snapshot or the stored one does not match the
// current format version and builder; stale snapshots are deleted so
// they are not re-read on every start.
func (s *SnapshotStore) Load(builder string, state any) (bool, error) {
	blob, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("read snapshot: %w", err)
	}

	var envelope snapshotEnvelope
	if err := msgpack.Unmarshal(blob, &envelope); err != nil {
		slog.Warn("Discarding corrupt snapshot", "path", s.path, "error", err)
		os.Remove(s.path)

		return false, nil
	}

	if envelope.Version != snapshotFormatVersion || envelope.Builder != builder {
		slog.Info("Discarding stale snapshot",
			"path", s.path,
			"version", envelope.Version,
			"want_version", snapshotFormatVersion,
			"builder", envelope.Builder,
			"want_builder", builder)
		os.Remove(s.path)

		return false, nil
	}

	if err := msgpack.Unmarshal(envelope.Payload, state); err != nil {
		slog.Warn("Discarding undecodable snapshot", "path", s.path, "error", err)
		os.Remove(s.path)

		return false, nil
	}

	return true, nil
}

// Delete removes any stored snapshot. Missing files are not an error.
func (s *SnapshotStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete snapshot: %w", err)
	}

	return nil
}
