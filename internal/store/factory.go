package store

import (
	"fmt"
	"path/filepath"

	"github.com/nvandessel/coevolve/internal/constants"
)

// DBFileName is the SQLite database inside the data directory.
const DBFileName = "runs.db"

// DataDir returns the .coevolve directory under projectRoot.
func DataDir(projectRoot string) string {
	return filepath.Join(projectRoot, constants.DataDirName)
}

// DefaultDBPath returns the database path under projectRoot.
func DefaultDBPath(projectRoot string) string {
	return filepath.Join(DataDir(projectRoot), DBFileName)
}

// New opens a run store by backend name. The empty name selects sqlite.
func New(kind, sqlitePath string) (RunStore, error) {
	switch kind {
	case "", "sqlite":
		return NewSQLiteRunStore(sqlitePath)
	case "memory":
		return NewInMemoryRunStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}
