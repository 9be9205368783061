package store

import (
	"fmt"
	"strings"

	"linkreg/internal/core"
	"linkreg/internal/store/memory"
	"linkreg/internal/store/sqlite"
)

// Backend names a core.Store implementation.
type Backend string

const (
	// BackendMemory keeps links in mutex-guarded maps.
	BackendMemory Backend = "memory"
	// BackendSQLite keeps links in SQLite; dsn is a file path or ":memory:".
	BackendSQLite Backend = "sqlite"
)

// Open builds the store for backend. dsn is ignored by the memory backend.
func Open(backend Backend, dsn string) (core.Store, error) {
	switch Backend(strings.ToLower(string(backend))) {
	case BackendMemory, "":
		return memory.New(), nil
	case BackendSQLite:
		s, err := sqlite.Open(dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
