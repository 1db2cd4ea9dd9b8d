package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

const (
	DefaultMaxValueBytes  = 16 << 10
	DefaultMaxListEntries = 500

	// maxUpdateAttempts bounds optimistic retries of UpdateList when another
	// writer touches the same hash between WATCH and EXEC.
	maxUpdateAttempts = 10
)

var errUpdateContended = errors.New("list update contended")

// PreferenceStore keeps each user's preferences in one Redis hash.
// Key format: prefs:<user_id>. List values are JSON arrays of strings.
type PreferenceStore struct {
	client         *redis.Client
	maxValueBytes  int
	maxListEntries int
}

// NewPreferenceStore creates a PreferenceStore. Non-positive limits fall back
// to the defaults.
func NewPreferenceStore(client *redis.Client, maxValueBytes, maxListEntries int) *PreferenceStore {
	if maxValueBytes <= 0 {
		maxValueBytes = DefaultMaxValueBytes
	}
	if maxListEntries <= 0 {
		maxListEntries = DefaultMaxListEntries
	}
	return &PreferenceStore{client: client, maxValueBytes: maxValueBytes, maxListEntries: maxListEntries}
}

func (s *PreferenceStore) Get(ctx context.Context, userID, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, prefsKey(userID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("hget %s: %w", key, err)
	}
	return v, true, nil
}

func (s *PreferenceStore) GetAll(ctx context.Context, userID string) (map[string]string, error) {
	values, err := s.client.HGetAll(ctx, prefsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall: %w", err)
	}
	return values, nil
}

// GetList returns an empty list when the key is missing or holds a value
// that does not decode.
func (s *PreferenceStore) GetList(ctx context.Context, userID, key string) ([]string, error) {
	raw, ok, err := s.Get(ctx, userID, key)
	if err != nil || !ok {
		return []string{}, err
	}
	return decodeList(raw), nil
}

func (s *PreferenceStore) Set(ctx context.Context, userID, key, value string) error {
	if err := s.checkValue(value); err != nil {
		return err
	}
	return s.client.HSet(ctx, prefsKey(userID), key, value).Err()
}

func (s *PreferenceStore) SetList(ctx context.Context, userID, key string, values []string) error {
	raw, err := s.encodeList(values)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, prefsKey(userID), key, raw).Err()
}

// UpdateList runs fn inside WATCH/MULTI on the user's hash and retries when
// another writer got in between. An unchanged result is not written.
func (s *PreferenceStore) UpdateList(ctx context.Context, userID, key string, fn func([]string) []string) ([]string, error) {
	hash := prefsKey(userID)
	var stored []string

	txf := func(tx *redis.Tx) error {
		current := []string{}
		raw, err := tx.HGet(ctx, hash, key).Result()
		switch {
		case err == nil:
			current = decodeList(raw)
		case !errors.Is(err, redis.Nil):
			return err
		}

		next := fn(slices.Clone(current))
		if slices.Equal(current, next) {
			stored = current
			return nil
		}
		encoded, err := s.encodeList(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, hash, key, encoded)
			return nil
		})
		if err == nil {
			stored = next
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, hash)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", key, err)
		}
		if stored == nil {
			stored = []string{}
		}
		return stored, nil
	}
	return nil, fmt.Errorf("update %s: %w after %d attempts", key, errUpdateContended, maxUpdateAttempts)
}

func (s *PreferenceStore) SetMany(ctx context.Context, userID string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	for _, v := range values {
		if err := s.checkValue(v); err != nil {
			return err
		}
	}
	return s.client.HSet(ctx, prefsKey(userID), values).Err()
}

func (s *PreferenceStore) Remove(ctx context.Context, userID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.HDel(ctx, prefsKey(userID), keys...).Err()
}

func (s *PreferenceStore) checkValue(value string) error {
	if len(value) > s.maxValueBytes {
		return fmt.Errorf("%w: %d bytes", domain.ErrValueTooLarge, len(value))
	}
	return nil
}

func (s *PreferenceStore) encodeList(values []string) (string, error) {
	if len(values) > s.maxListEntries {
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

func decodeList(raw string) []string {
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil || values == nil {
		return []string{}
	}
	return values
}

func prefsKey(userID string) string {
	return "prefs:" + userID
}
