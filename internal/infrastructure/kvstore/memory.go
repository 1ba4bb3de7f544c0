package kvstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

// MemoryStore is a process-local Store. It backs tests and single-instance dev runs.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.load(key)
	if !ok {
		return "", false, nil
	}
	switch v := e.value.(type) {
	case string:
		return v, true, nil
	case int64:
		return strconv.FormatInt(v, 10), true, nil
	default:
		return "", false, fmt.Errorf("key %q holds %T, not a string", key, e.value)
	}
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{value: value, expiresAt: s.deadline(ttl)}
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

func (s *MemoryStore) SetAddWithTTL(_ context.Context, key, member string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := map[string]struct{}{}
	if e, ok := s.load(key); ok {
		existing, isSet := e.value.(map[string]struct{})
		if !isSet {
			return false, fmt.Errorf("key %q holds %T, not a set", key, e.value)
		}
		members = existing
	}

	_, seen := members[member]
	members[member] = struct{}{}
	s.entries[key] = entry{value: members, expiresAt: s.deadline(ttl)}
	return !seen, nil
}

func (s *MemoryStore) SetReplace(_ context.Context, key string, members []string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(members) == 0 {
		delete(s.entries, key)
		return nil
	}
	set := make(map[string]struct{}, len(members))
	for _, member := range members {
		set[member] = struct{}{}
	}
	s.entries[key] = entry{value: set, expiresAt: s.deadline(ttl)}
	return nil
}

func (s *MemoryStore) SetMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.load(key)
	if !ok {
		return nil, nil
	}
	set, isSet := e.value.(map[string]struct{})
	if !isSet {
		return nil, fmt.Errorf("key %q holds %T, not a set", key, e.value)
	}
	out := make([]string, 0, len(set))
	for member := range set {
		out = append(out, member)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) ListReplace(_ context.Context, key string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(values) == 0 {
		delete(s.entries, key)
		return nil
	}
	s.entries[key] = entry{value: append([]string(nil), values...)}
	return nil
}

func (s *MemoryStore) ListRange(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.load(key)
	if !ok {
		return nil, nil
	}
	list, isList := e.value.([]string)
	if !isList {
		return nil, fmt.Errorf("key %q holds %T, not a list", key, e.value)
	}
	return append([]string(nil), list...), nil
}

func (s *MemoryStore) IncrWithExpiry(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.load(key)
	if !ok {
		s.entries[key] = entry{value: int64(1), expiresAt: s.deadline(ttl)}
		return 1, nil
	}

	var current int64
	switch v := e.value.(type) {
	case int64:
		current = v
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("key %q is not an integer: %w", key, err)
		}
		current = parsed
	default:
		return 0, fmt.Errorf("key %q holds %T, not a counter", key, e.value)
	}

	current++
	s.entries[key] = entry{value: current, expiresAt: e.expiresAt}
	return current, nil
}

// TTL returns the remaining lifetime of key, or zero when it has none.
func (s *MemoryStore) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.load(key)
	if !ok || e.expiresAt.IsZero() {
		return 0
	}
	return e.expiresAt.Sub(s.now())
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// load must be called with mu held.
func (s *MemoryStore) load(key string) (entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return entry{}, false
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return entry{}, false
	}
	return e, true
}

func (s *MemoryStore) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}
