package library

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store is the key-value persistence boundary. The manager writes the whole snapshot
// through PutAll after every change and reads it back once at startup.
type Store interface {
	// Get returns ErrKeyNotFound for a key that was never written.
	Get(ctx context.Context, key string) ([]byte, error)
	PutAll(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// KeyLister is implemented by stores that can enumerate what they hold.
type KeyLister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Keys names the entries a snapshot is stored under.
type Keys struct {
	Books        string
	Members      string
	Loans        string
	Reservations string
	CurrentUser  string
}

// DefaultKeyPrefix is used when no prefix is configured.
const DefaultKeyPrefix = "biblio"

// NewKeys derives the snapshot keys from a prefix.
func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return Keys{
		Books:        prefix + "_books",
		Members:      prefix + "_members",
		Loans:        prefix + "_loans",
		Reservations: prefix + "_reservations",
		CurrentUser:  prefix + "_user",
	}
}

// encodeSnapshot serializes every collection plus the current user. A nil user is
// written as JSON null.
func encodeSnapshot(keys Keys, st State, user *Member) (map[string][]byte, error) {
	values := []struct {
		key string
		v   any
	}{
		{keys.Books, nonNil(st.Books)},
		{keys.Members, nonNil(st.Members)},
		{keys.Loans, nonNil(st.Loans)},
		{keys.Reservations, nonNil(st.Reservations)},
		{keys.CurrentUser, user},
	}
	out := make(map[string][]byte, len(values))
	for _, e := range values {
		b, err := json.Marshal(e.v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", e.key, err)
		}
		out[e.key] = b
	}
	return out, nil
}

// decodeSnapshot reads every collection. Collections that were never written fall back
// to the matching collection of seed.
func decodeSnapshot(ctx context.Context, s Store, keys Keys, seed State) (State, *Member, error) {
	st := State{}
	if err := loadKey(ctx, s, keys.Books, &st.Books, seed.Books); err != nil {
		return State{}, nil, err
	}
	if err := loadKey(ctx, s, keys.Members, &st.Members, seed.Members); err != nil {
		return State{}, nil, err
	}
	if err := loadKey(ctx, s, keys.Loans, &st.Loans, seed.Loans); err != nil {
		return State{}, nil, err
	}
	if err := loadKey(ctx, s, keys.Reservations, &st.Reservations, seed.Reservations); err != nil {
		return State{}, nil, err
	}
	var user *Member
	if err := loadKey(ctx, s, keys.CurrentUser, &user, nil); err != nil {
		return State{}, nil, err
	}
	return st, user, nil
}

func loadKey[T any](ctx context.Context, s Store, key string, dst *T, fallback T) error {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		*dst = fallback
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// MemoryStore keeps entries in a map. Useful for tests and throwaway sessions.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) PutAll(_ context.Context, entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.data[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys lists the stored keys in order.
func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Close() error { return nil }
