package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// snapshotFile is the final network of the most recent run.
const snapshotFile = "last-network.json"

// ErrNoSnapshot is returned by LoadSnapshot when no run has been saved yet.
var ErrNoSnapshot = errors.New("no saved network")

// SaveSnapshot persists the snapshot to a JSON file in dir, creating dir
// when needed.
func SaveSnapshot(s Snapshot, dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	path := filepath.Join(dir, snapshotFile)

	// Write atomically via temp file + rename.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming snapshot file: %w", err)
	}

	return nil
}

// LoadSnapshot reads the snapshot saved in dir. It returns ErrNoSnapshot if
// none exists.
func LoadSnapshot(dir string) (Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, snapshotFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return s, nil
}

// SnapshotPath returns the expected path of the snapshot file in dir.
func SnapshotPath(dir string) string {
	return filepath.Join(dir, snapshotFile)
}

// RemoveSnapshot removes the snapshot file from dir. It is not an error if
// the file does not exist.
func RemoveSnapshot(dir string) error {
	if err := os.Remove(filepath.Join(dir, snapshotFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing snapshot: %w", err)
	}
	return nil
}
