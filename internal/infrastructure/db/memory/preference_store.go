package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

// PreferenceStore keeps preferences in process with the same limits and
// list encoding as the Redis store. It is used when no Redis is configured.
type PreferenceStore struct {
	mu             sync.RWMutex
	values         map[string]map[string]string
	maxValueBytes  int
	maxListEntries int
}

func NewPreferenceStore(maxValueBytes, maxListEntries int) *PreferenceStore {
	return &PreferenceStore{
		values:         make(map[string]map[string]string),
		maxValueBytes:  maxValueBytes,
		maxListEntries: maxListEntries,
	}
}

func (s *PreferenceStore) Get(_ context.Context, userID, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[userID][key]
	return v, ok, nil
}

func (s *PreferenceStore) GetAll(_ context.Context, userID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values[userID]))
	maps.Copy(out, s.values[userID])
	return out, nil
}

func (s *PreferenceStore) GetList(ctx context.Context, userID, key string) ([]string, error) {
	raw, _, _ := s.Get(ctx, userID, key)
	return decodeList(raw), nil
}

func (s *PreferenceStore) Set(_ context.Context, userID, key, value string) error {
	if err := s.checkValue(value); err != nil {
		return err
	}
	s.write(userID, map[string]string{key: value})
	return nil
}

func (s *PreferenceStore) SetList(_ context.Context, userID, key string, values []string) error {
	raw, err := s.encodeList(values)
	if err != nil {
		return err
	}
	s.write(userID, map[string]string{key: raw})
	return nil
}

// UpdateList holds the store lock across read, fn and write.
func (s *PreferenceStore) UpdateList(_ context.Context, userID, key string, fn func([]string) []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := decodeList(s.values[userID][key])
	next := fn(slices.Clone(current))
	if slices.Equal(current, next) {
		return current, nil
	}
	raw, err := s.encodeList(next)
	if err != nil {
		return nil, err
	}
	if s.values[userID] == nil {
		s.values[userID] = make(map[string]string)
	}
	s.values[userID][key] = raw
	if next == nil {
		next = []string{}
	}
	return next, nil
}

func (s *PreferenceStore) SetMany(_ context.Context, userID string, values map[string]string) error {
	for _, v := range values {
		if err := s.checkValue(v); err != nil {
			return err
		}
	}
	s.write(userID, values)
	return nil
}

func (s *PreferenceStore) Remove(_ context.Context, userID string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values[userID], k)
	}
	if len(s.values[userID]) == 0 {
		delete(s.values, userID)
	}
	return nil
}

func (s *PreferenceStore) write(userID string, values map[string]string) {
	if len(values) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values[userID] == nil {
		s.values[userID] = make(map[string]string, len(values))
	}
	maps.Copy(s.values[userID], values)
}

func (s *PreferenceStore) checkValue(value string) error {
	if s.maxValueBytes > 0 && len(value) > s.maxValueBytes {
		return fmt.Errorf("%w: %d bytes", domain.ErrValueTooLarge, len(value))
	}
	return nil
}

func (s *PreferenceStore) encodeList(values []string) (string, error) {
	if s.maxListEntries > 0 && len(values) > s.maxListEntries {
		return "", fmt.Errorf("%w: %d entries", domain.ErrValueTooLarge, len(values))
	}
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	if err := s.checkValue(string(b)); err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeList reads a missing or corrupt value as an empty list.
func decodeList(raw string) []string {
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil || values == nil {
		return []string{}
	}
	return values
}

// TokenRevoker remembers revoked token ids until their expiry.
type TokenRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewTokenRevoker() *TokenRevoker {
	return &TokenRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

func (r *TokenRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, until := range r.revoked {
		if !now.Before(until) {
			delete(r.revoked, id)
		}
	}
	r.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (r *TokenRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.revoked[tokenID]
	return ok && r.now().Before(until), nil
}
