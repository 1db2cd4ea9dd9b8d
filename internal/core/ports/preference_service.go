package ports

import (
	"context"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

// Preference is a single stored value. List-valued keys fill Values.
type Preference struct {
	Key    string
	Value  string
	Values []string
	IsList bool
}

// PreferenceService exposes the user-owned part of the preference store.
type PreferenceService interface {
	Get(ctx context.Context, session domain.Session, key string) (*Preference, error)
	Set(ctx context.Context, session domain.Session, pref Preference) error
	Remove(ctx context.Context, session domain.Session, key string) error
	RemoveAt(ctx context.Context, session domain.Session, key string, index int) error
}
