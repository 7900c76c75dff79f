package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/tablecontrols/pkg/persist"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// Storage is a key/value scope inside the database. It implements
// persist.Storage.
type Storage struct {
	backend *Backend
	scope   string
	closed  atomic.Bool
}

var _ persist.Storage = (*Storage)(nil)

// LocalStorage returns the durable scope.
func (b *Backend) LocalStorage() *Storage {
	return &Storage{backend: b, scope: localScope}
}

// Session is a storage scope that lives until Close.
type Session struct {
	*Storage
	id string
}

// NewSession opens a session scope with a fresh id.
func (b *Backend) NewSession() (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	if !b.Attached() {
		return nil, types.ErrDetached
	}
	return &Session{
		Storage: &Storage{backend: b, scope: sessionPrefix + id.String()},
		id:      id.String(),
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Close drops every item of the session. Further calls on the session
// return ErrSessionClosed. Close is idempotent.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.backend.write(func(db *sql.DB) error {
		if _, err := db.Exec(`DELETE FROM storage_items WHERE scope = ?`, s.scope); err != nil {
			return fmt.Errorf("drop session %s: %w", s.id, err)
		}
		return nil
	})
}

// GetItem returns the value stored under key.
func (s *Storage) GetItem(key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, types.ErrSessionClosed
	}
	var value string
	err := s.backend.read(func(db *sql.DB) error {
		return db.QueryRow(`SELECT value FROM storage_items WHERE scope = ? AND key = ?`, s.scope, key).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get item %q: %w", key, err)
	}
	return value, true, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *Storage) SetItem(key, value string) error {
	if s.closed.Load() {
		return types.ErrSessionClosed
	}
	return s.backend.write(func(db *sql.DB) error {
		_, err := db.Exec(`INSERT INTO storage_items (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			s.scope, key, value, now())
		if err != nil {
			return fmt.Errorf("set item %q: %w", key, err)
		}
		return nil
	})
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (s *Storage) RemoveItem(key string) error {
	if s.closed.Load() {
		return types.ErrSessionClosed
	}
	return s.backend.write(func(db *sql.DB) error {
		if _, err := db.Exec(`DELETE FROM storage_items WHERE scope = ? AND key = ?`, s.scope, key); err != nil {
			return fmt.Errorf("remove item %q: %w", key, err)
		}
		return nil
	})
}

// Keys returns the stored keys with the given prefix in key order. An empty
// prefix lists every key of the scope.
func (s *Storage) Keys(prefix string) ([]string, error) {
	if s.closed.Load() {
		return nil, types.ErrSessionClosed
	}
	var keys []string
	err := s.backend.read(func(db *sql.DB) error {
		rows, err := db.Query(`SELECT key FROM storage_items WHERE scope = ? AND substr(key, 1, length(?)) = ? ORDER BY key`,
			s.scope, prefix, prefix)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				return err
			}
			keys = append(keys, key)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}
