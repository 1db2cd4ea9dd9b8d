package domain

import "time"

// FavoriteState is the per (user, tool) membership state.
type FavoriteState string

const (
	NotFavorited FavoriteState = "not_favorited"
	Favorited    FavoriteState = "favorited"
)

// Next returns the state after a toggle.
func (s FavoriteState) Next() FavoriteState {
	if s == Favorited {
		return NotFavorited
	}
	return Favorited
}

// StateOf reports the state of slug within favorites.
func StateOf(favorites []string, slug string) FavoriteState {
	for _, f := range favorites {
		if f == slug {
			return Favorited
		}
	}
	return NotFavorited
}

// Favorite is one row of the user_favorites table.
type Favorite struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	ToolSlug  string    `json:"tool_slug" bson:"tool_slug"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// WithFavorite returns favorites with slug set to the given state. Order of
// the entries is kept, a new entry is appended, and duplicates are collapsed
// so the result is always a set. The input is not modified.
func WithFavorite(favorites []string, slug string, state FavoriteState) []string {
	out := make([]string, 0, len(favorites)+1)
	seen := make(map[string]struct{}, len(favorites)+1)
	for _, f := range favorites {
		if _, dup := seen[f]; dup {
			continue
		}
		if f == slug && state != Favorited {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	if _, present := seen[slug]; state == Favorited && !present {
		out = append(out, slug)
	}
	return out
}
