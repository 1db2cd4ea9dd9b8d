package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

// --- Auth ---

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	UserID      string    `json:"user_id,omitempty"`
	Username    string    `json:"username,omitempty"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role"`
	IsLoggedIn  bool      `json:"is_logged_in"`
	IsPremium   bool      `json:"is_premium"`
	IsAdmin     bool      `json:"is_admin"`
	IsDeveloper bool      `json:"is_developer"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
}

type authResponse struct {
	Token    string          `json:"token"`
	Redirect string          `json:"redirect"`
	Session  sessionResponse `json:"session"`
}

// --- Catalog ---

type toolResponse struct {
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	Tags        []string  `json:"tags"`
	Href        string    `json:"href"`
	Icon        string    `json:"icon,omitempty"`
	IsNew       bool      `json:"is_new"`
	IsPopular   bool      `json:"is_popular"`
	IsPremium   bool      `json:"is_premium"`
	IsPrivate   bool      `json:"is_private"`
	LikesCount  int64     `json:"likes_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type listToolsResponse struct {
	Items      []toolResponse `json:"items"`
	Total      int64          `json:"total"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Degraded   bool           `json:"degraded,omitempty"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

// --- Favorites ---

type toggleResponse struct {
	Slug      string   `json:"slug"`
	State     string   `json:"state"`
	Favorited bool     `json:"favorited"`
	Favorites []string `json:"favorites"`
}

type favoriteSlugsResponse struct {
	Slugs []string `json:"slugs"`
}

type favoriteToolsResponse struct {
	Items []toolResponse `json:"items"`
}

// --- Preferences ---

// preferenceRequest carries either a single value or, for list keys, the
// whole list in Values.
type preferenceRequest struct {
	Value  *string  `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

type preferenceResponse struct {
	Key    string   `json:"key"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
	IsList bool     `json:"is_list"`
}

// --- Admin ---

type reconcileRequest struct {
	Slug string `json:"slug,omitempty" validate:"omitempty,max=128,slug"`
}

type acceptedResponse struct {
	Message  string `json:"message"`
	Enqueued int    `json:"enqueued"`
}
