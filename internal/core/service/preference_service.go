package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/rs/zerolog"

	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

var preferenceKeyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]{0,63}$`)

// listKeys hold ordered string lists; every other key is scalar.
var listKeys = map[string]bool{
	domain.KeyFavorites:      true,
	domain.KeySavedPasswords: true,
}

// PreferenceService exposes the user-owned keys of the preference store.
// Session keys and favorites are readable but owned by other services.
type PreferenceService struct {
	prefs    ports.PreferenceStore
	notifier ports.ChangeNotifier
	logger   zerolog.Logger
}

func NewPreferenceService(prefs ports.PreferenceStore, notifier ports.ChangeNotifier, logger zerolog.Logger) *PreferenceService {
	return &PreferenceService{prefs: prefs, notifier: notifier, logger: logger}
}

func (s *PreferenceService) Get(ctx context.Context, session domain.Session, key string) (*ports.Preference, error) {
	if !session.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	if listKeys[key] {
		values, err := s.prefs.GetList(ctx, session.UserID, key)
		if err != nil {
			return nil, storeError("read preference", err)
		}
		return &ports.Preference{Key: key, Values: nonNil(values), IsList: true}, nil
	}

	value, ok, err := s.prefs.Get(ctx, session.UserID, key)
	if err != nil {
		return nil, storeError("read preference", err)
	}
	if !ok {
		return nil, domain.ErrPreferenceNotFound
	}
	return &ports.Preference{Key: key, Value: value}, nil
}

func (s *PreferenceService) Set(ctx context.Context, session domain.Session, pref ports.Preference) error {
	if !session.Authenticated() {
		return domain.ErrUnauthorized
	}
	if err := validateWritableKey(pref.Key); err != nil {
		s.logger.Debug().Err(err).Str("key", pref.Key).Msg("preference write rejected")
		return err
	}

	var err error
	if listKeys[pref.Key] {
		if !pref.IsList {
			return fmt.Errorf("%w: %s holds a list", domain.ErrValidation, pref.Key)
		}
		err = s.prefs.SetList(ctx, session.UserID, pref.Key, nonNil(pref.Values))
	} else {
		if pref.IsList {
			return fmt.Errorf("%w: %s holds a single value", domain.ErrValidation, pref.Key)
		}
		err = s.prefs.Set(ctx, session.UserID, pref.Key, pref.Value)
	}
	if err != nil {
		return storeError("write preference", err)
	}

	s.notifier.Notify(ctx, session.UserID)
	return nil
}

func (s *PreferenceService) Remove(ctx context.Context, session domain.Session, key string) error {
	if !session.Authenticated() {
		return domain.ErrUnauthorized
	}
	if err := validateWritableKey(key); err != nil {
		return err
	}
	if err := s.prefs.Remove(ctx, session.UserID, key); err != nil {
		return storeError("remove preference", err)
	}
	s.notifier.Notify(ctx, session.UserID)
	return nil
}

// RemoveAt deletes one entry of a writable list key by position.
func (s *PreferenceService) RemoveAt(ctx context.Context, session domain.Session, key string, index int) error {
	if !session.Authenticated() {
		return domain.ErrUnauthorized
	}
	if err := validateWritableKey(key); err != nil {
		return err
	}
	if !listKeys[key] {
		return fmt.Errorf("%w: %s is not a list", domain.ErrValidation, key)
	}
	if index < 0 {
		return fmt.Errorf("%w: negative index", domain.ErrValidation)
	}

	values, err := s.prefs.GetList(ctx, session.UserID, key)
	if err != nil {
		return storeError("read preference", err)
	}
	if index >= len(values) {
		return domain.ErrPreferenceNotFound
	}

	if err := s.prefs.SetList(ctx, session.UserID, key, slices.Delete(values, index, index+1)); err != nil {
		return storeError("write preference", err)
	}
	s.notifier.Notify(ctx, session.UserID)
	return nil
}

func validateKey(key string) error {
	if !preferenceKeyPattern.MatchString(key) {
		return fmt.Errorf("%w: invalid preference key", domain.ErrValidation)
	}
	if key == domain.KeyPassword {
		return domain.ErrForbiddenKey
	}
	return nil
}

func validateWritableKey(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if key == domain.KeyFavorites || slices.Contains(domain.SessionKeys, key) {
		return domain.ErrReadOnlyKey
	}
	return nil
}

// storeError passes validation errors through and marks everything else as
// a backend failure.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrValueTooLarge),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrRemoteFailure):
		return err
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrRemoteFailure, err)
	}
}
