package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

var errBackend = errors.New("backend unavailable")

// ---- users ----

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	c := cloneUser(user)
	if c.ID == "" {
		c.ID = "u-" + user.Username
	}
	r.users[c.ID] = cloneUser(c)
	return c, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

// ---- preference store ----

type stubPrefs struct {
	mu        sync.Mutex
	scalars   map[string]map[string]string
	lists     map[string]map[string][]string
	failRead  bool
	failWrite bool
	maxList   int
	reads     int
}

func newStubPrefs() *stubPrefs {
	return &stubPrefs{
		scalars: make(map[string]map[string]string),
		lists:   make(map[string]map[string][]string),
	}
}

func (p *stubPrefs) Get(_ context.Context, userID, key string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failRead {
		return "", false, errBackend
	}
	v, ok := p.scalars[userID][key]
	return v, ok, nil
}

func (p *stubPrefs) GetAll(_ context.Context, userID string) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	if p.failRead {
		return nil, errBackend
	}
	out := make(map[string]string, len(p.scalars[userID]))
	for k, v := range p.scalars[userID] {
		out[k] = v
	}
	return out, nil
}

func (p *stubPrefs) GetList(_ context.Context, userID, key string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failRead {
		return nil, errBackend
	}
	return append([]string(nil), p.lists[userID][key]...), nil
}

func (p *stubPrefs) Set(_ context.Context, userID, key, value string) error {
	return p.SetMany(context.Background(), userID, map[string]string{key: value})
}

func (p *stubPrefs) SetList(_ context.Context, userID, key string, values []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWrite {
		return errBackend
	}
	if p.maxList > 0 && len(values) > p.maxList {
		return domain.ErrValueTooLarge
	}
	if p.lists[userID] == nil {
		p.lists[userID] = make(map[string][]string)
	}
	p.lists[userID][key] = append([]string(nil), values...)
	return nil
}

func (p *stubPrefs) UpdateList(_ context.Context, userID, key string, fn func([]string) []string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failRead || p.failWrite {
		return nil, errBackend
	}
	next := fn(append([]string{}, p.lists[userID][key]...))
	if p.maxList > 0 && len(next) > p.maxList {
		return nil, domain.ErrValueTooLarge
	}
	if p.lists[userID] == nil {
		p.lists[userID] = make(map[string][]string)
	}
	p.lists[userID][key] = append([]string{}, next...)
	return append([]string{}, next...), nil
}

func (p *stubPrefs) SetMany(_ context.Context, userID string, values map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWrite {
		return errBackend
	}
	if p.scalars[userID] == nil {
		p.scalars[userID] = make(map[string]string)
	}
	for k, v := range values {
		p.scalars[userID][k] = v
	}
	return nil
}

func (p *stubPrefs) Remove(_ context.Context, userID string, keys ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWrite {
		return errBackend
	}
	for _, k := range keys {
		delete(p.scalars[userID], k)
		delete(p.lists[userID], k)
	}
	return nil
}

func (p *stubPrefs) list(userID, key string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lists[userID][key]...)
}

func (p *stubPrefs) scalar(userID, key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.scalars[userID][key]
	return v, ok
}

// ---- notifier / observer ----

type stubNotifier struct {
	mu        sync.Mutex
	counts    map[string]int
	observers map[int]func(string)
	next      int
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{counts: make(map[string]int), observers: make(map[int]func(string))}
}

func (n *stubNotifier) Notify(_ context.Context, userID string) {
	n.mu.Lock()
	n.counts[userID]++
	fns := make([]func(string), 0, len(n.observers))
	for _, fn := range n.observers {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn(userID)
	}
}

func (n *stubNotifier) Observe(fn func(string)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	n.observers[id] = fn
	return func() {
		n.mu.Lock()
		delete(n.observers, id)
		n.mu.Unlock()
	}
}

func (n *stubNotifier) count(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.counts[userID]
}

// ---- revoker ----

type stubRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	fail    bool
}

func newStubRevoker() *stubRevoker {
	return &stubRevoker{revoked: make(map[string]time.Duration)}
}

func (r *stubRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenID] = ttl
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return false, errBackend
	}
	_, ok := r.revoked[tokenID]
	return ok, nil
}

// ---- tools ----

type stubToolRepo struct {
	mu       sync.Mutex
	tools    map[string]*domain.Tool
	failList bool
}

func newStubToolRepo(tools ...*domain.Tool) *stubToolRepo {
	r := &stubToolRepo{tools: make(map[string]*domain.Tool)}
	for _, t := range tools {
		c := *t
		r.tools[t.Slug] = &c
	}
	return r
}

func (r *stubToolRepo) List(_ context.Context, q domain.ToolQuery) ([]*domain.Tool, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList {
		return nil, 0, errBackend
	}
	var matched []*domain.Tool
	for _, t := range r.tools {
		if q.Matches(t) {
			c := *t
			matched = append(matched, &c)
		}
	}
	domain.SortTools(matched, q.Sort)
	return domain.Page(matched, q.Offset, q.Limit), int64(len(matched)), nil
}

func (r *stubToolRepo) FindBySlug(_ context.Context, slug string) (*domain.Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[slug]
	if !ok {
		return nil, domain.ErrToolNotFound
	}
	c := *t
	return &c, nil
}

func (r *stubToolRepo) Categories(_ context.Context, role domain.Role) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList {
		return nil, errBackend
	}
	seen := map[string]bool{}
	var out []string
	for _, t := range r.tools {
		if t.IsActive && domain.IsVisible(t, role) && !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *stubToolRepo) Slugs(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.tools))
	for s := range r.tools {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (r *stubToolRepo) UpsertMany(_ context.Context, tools []*domain.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tools {
		c := *t
		r.tools[t.Slug] = &c
	}
	return nil
}

func (r *stubToolRepo) IncrementLikes(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tools[slug]; ok {
		t.LikesCount++
	}
	return nil
}

func (r *stubToolRepo) DecrementLikes(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tools[slug]; ok && t.LikesCount > 0 {
		t.LikesCount--
	}
	return nil
}

func (r *stubToolRepo) setLikes(slug string, likes int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[slug]
	if !ok {
		return 0, domain.ErrToolNotFound
	}
	prev := t.LikesCount
	t.LikesCount = likes
	return prev, nil
}

func (r *stubToolRepo) likes(slug string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tools[slug].LikesCount
}

// ---- favorites table ----

// stubFavoriteRepo mirrors the transactional toggle: row and counter change
// together under one lock.
type stubFavoriteRepo struct {
	mu       sync.Mutex
	tools    *stubToolRepo
	rows     map[string][]string
	fail     bool
	failList bool
	gate     chan struct{}
	entered  chan string
	removed  []string
	// afterCount runs inside RecountLikes between counting and writing.
	afterCount func()
}

func newStubFavoriteRepo(tools *stubToolRepo) *stubFavoriteRepo {
	return &stubFavoriteRepo{tools: tools, rows: make(map[string][]string)}
}

func (r *stubFavoriteRepo) Toggle(ctx context.Context, userID, slug string) (bool, error) {
	if r.entered != nil {
		r.entered <- slug
	}
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return false, errBackend
	}
	rows := r.rows[userID]
	for i, s := range rows {
		if s == slug {
			r.rows[userID] = append(rows[:i:i], rows[i+1:]...)
			_ = r.tools.DecrementLikes(ctx, slug)
			return false, nil
		}
	}
	r.rows[userID] = append(rows, slug)
	_ = r.tools.IncrementLikes(ctx, slug)
	return true, nil
}

func (r *stubFavoriteRepo) Remove(ctx context.Context, userID, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return false, errBackend
	}
	r.removed = append(r.removed, slug)
	rows := r.rows[userID]
	for i, s := range rows {
		if s == slug {
			r.rows[userID] = append(rows[:i:i], rows[i+1:]...)
			_ = r.tools.DecrementLikes(ctx, slug)
			return true, nil
		}
	}
	return false, nil
}

func (r *stubFavoriteRepo) ListSlugs(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList {
		return nil, errBackend
	}
	return append([]string(nil), r.rows[userID]...), nil
}

func (r *stubFavoriteRepo) CountBySlug(_ context.Context, slug string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count(slug), nil
}

// RecountLikes holds the row lock across count and write, like the
// repositories it stands in for.
func (r *stubFavoriteRepo) RecountLikes(_ context.Context, slug string) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.count(slug)
	if r.afterCount != nil {
		r.afterCount()
	}
	prev, err := r.tools.setLikes(slug, n)
	if err != nil {
		return 0, 0, err
	}
	return prev, n, nil
}

func (r *stubFavoriteRepo) count(slug string) int64 {
	var n int64
	for _, rows := range r.rows {
		for _, s := range rows {
			if s == slug {
				n++
			}
		}
	}
	return n
}

// ---- sessions ----

func signedIn(userID string, role domain.Role) domain.Session {
	return domain.Session{
		UserID:     userID,
		Role:       role,
		IsLoggedIn: true,
		IsPremium:  role == domain.RolePremium,
		IsAdmin:    role == domain.RoleAdmin,
	}
}
