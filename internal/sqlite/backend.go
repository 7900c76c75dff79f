// Package sqlite persists table state and datasets in SQLite.
//
// A Backend serves two persistence scopes: LocalStorage, which survives
// process restarts, and sessions, whose items are dropped when the session
// closes or the next time the database is attached. Datasets store JSON
// records and answer hub request parameters with SQL.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// DatabaseFile is the file name of the database inside DataDir.
const DatabaseFile = "tablecontrols.db"

const (
	localScope    = "local"
	sessionPrefix = "session:"
)

// Backend owns the SQLite connection.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	logger   *slog.Logger
}

// NewBackend creates a detached backend. A nil logger discards output.
func NewBackend(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{logger: logger}
}

// Attach opens the database described by config and applies the schema.
// Session items left behind by an earlier process are purged. Returns
// ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dsn := ":memory:"
	if !config.InMemory() {
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, DatabaseFile)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if config.InMemory() {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	res, err := db.Exec(`DELETE FROM storage_items WHERE scope LIKE ?`, sessionPrefix+"%")
	if err != nil {
		db.Close()
		return fmt.Errorf("purge sessions: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		b.logger.Debug("purged stale session items", "count", n)
	}

	b.db = db
	b.config = config
	b.attached = true
	b.logger.Debug("attached storage backend", "backend", config.Backend, "dsn", dsn)
	return nil
}

// Detach closes the connection. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	b.db = nil
	b.attached = false
	return nil
}

// Attached reports whether the backend is attached.
func (b *Backend) Attached() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.attached
}

// Config returns the configuration passed to Attach.
func (b *Backend) Config() types.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// read runs fn with the read lock held on an attached backend.
func (b *Backend) read(fn func(db *sql.DB) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrDetached
	}
	return fn(b.db)
}

// write runs fn with the write lock held on an attached backend.
func (b *Backend) write(fn func(db *sql.DB) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrDetached
	}
	return fn(b.db)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
