package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NewStore returns an uninitialised store. For sqlite, a path without a
// .db or .sqlite extension is treated as a directory holding runs.db.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "file":
		return NewFileStore(path), nil
	case "sqlite":
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".db" && ext != ".sqlite" {
			path = filepath.Join(path, "runs.db")
		}
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}
