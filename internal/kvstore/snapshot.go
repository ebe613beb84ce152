package kvstore

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Entry is one stored namespace.
type Entry struct {
	Namespace string
	Value     []byte
	UpdatedAt time.Time
}

// Get returns the raw value of namespace.
func (db *DB) Get(namespace string) ([]byte, bool, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM snapshots WHERE namespace = ?`, namespace).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kvstore: get %s: %w", namespace, err)
	}
	return []byte(value), true, nil
}

// Put replaces the value of namespace (last write wins, no merge).
func (db *DB) Put(namespace string, value []byte) error {
	_, err := db.conn.Exec(`
		INSERT INTO snapshots (namespace, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, namespace, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("kvstore: put %s: %w", namespace, err)
	}
	return nil
}

// List returns every stored namespace ordered by name.
func (db *DB) List() ([]Entry, error) {
	rows, err := db.conn.Query(`SELECT namespace, value, updated_at FROM snapshots ORDER BY namespace`)
	if err != nil {
		return nil, fmt.Errorf("kvstore: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var value string
		if err := rows.Scan(&e.Namespace, &value, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Value = []byte(value)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Memory is an in-process Store used by tests and the stateless render path.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get returns a copy of the stored value.
func (m *Memory) Get(namespace string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[namespace]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Put stores a copy of value.
func (m *Memory) Put(namespace string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[namespace] = append([]byte(nil), value...)
	return nil
}
