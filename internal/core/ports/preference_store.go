package ports

import "context"

// PreferenceStore is the per-user string key/value store. List values are
// ordered sequences of strings.
type PreferenceStore interface {
	Get(ctx context.Context, userID, key string) (value string, ok bool, err error)
	// GetAll returns every scalar value of the user in one read.
	GetAll(ctx context.Context, userID string) (map[string]string, error)
	GetList(ctx context.Context, userID, key string) ([]string, error)
	Set(ctx context.Context, userID, key, value string) error
	SetList(ctx context.Context, userID, key string, values []string) error
	// UpdateList applies fn to the current list and stores the result as one
	// atomic step; concurrent updates of the same user are never lost. fn may
	// run more than once and must not have side effects beyond its return
	// value. It returns the stored list.
	UpdateList(ctx context.Context, userID, key string, fn func(current []string) []string) ([]string, error)
	// SetMany writes several keys at once.
	SetMany(ctx context.Context, userID string, values map[string]string) error
	Remove(ctx context.Context, userID string, keys ...string) error
}

// ChangeNotifier broadcasts the payload-free "state changed" signal for a
// user.
type ChangeNotifier interface {
	Notify(ctx context.Context, userID string)
}

// ChangeObserver lets components react to change notifications. The
// returned function unregisters the observer; after it returns the observer
// is never called again.
type ChangeObserver interface {
	Observe(fn func(userID string)) (cancel func())
}
