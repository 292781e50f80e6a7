// Package persist provides the key/value scopes that survive across page
// loads. Reads are best effort: a missing or unreadable value is reported as
// absent and callers fall back to their defaults.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ziadkadry99/guidebook/internal/db"
)

// Store is a persisted key/value scope.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Memory is an in-process Store, used for tests and throwaway sessions.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Keys returns every stored key in lexical order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SQL is a Store backed by the SQLite state database.
type SQL struct {
	db *db.DB
}

// NewSQL wraps an opened state database.
func NewSQL(d *db.DB) *SQL {
	return &SQL{db: d}
}

func (s *SQL) Get(key string) (string, bool) {
	v, ok, err := s.db.GetValue(context.Background(), key)
	if err != nil {
		log.Printf("persist: %v", err)
		return "", false
	}
	return v, ok
}

func (s *SQL) Set(key, value string) error {
	return s.db.PutValue(context.Background(), key, value)
}

func (s *SQL) Delete(key string) error {
	return s.db.DeleteValue(context.Background(), key)
}

// scoped prefixes every key with a namespace.
type scoped struct {
	store  Store
	prefix string
}

// Scope returns a view of store whose keys live under namespace.
func Scope(store Store, namespace string) Store {
	return &scoped{store: store, prefix: namespace + "/"}
}

func (s *scoped) Get(key string) (string, bool) { return s.store.Get(s.prefix + key) }
func (s *scoped) Set(key, value string) error   { return s.store.Set(s.prefix+key, value) }
func (s *scoped) Delete(key string) error       { return s.store.Delete(s.prefix + key) }

// ReadJSON decodes the value under key into v. It reports false when the key
// is missing or the stored value does not decode.
func ReadJSON(s Store, key string, v any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false
	}
	return true
}

// WriteJSON encodes v and stores it under key.
func WriteJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Set(key, string(data))
}

// ReadInt returns the integer stored under key.
func ReadInt(s Store, key string) (int, bool) {
	raw, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ReadBool returns the boolean stored under key.
func ReadBool(s Store, key string) (bool, bool) {
	raw, ok := s.Get(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, false
	}
	return b, true
}
