//go:build integration

package mongo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

// Run with a replica set, e.g.
//
//	MONGO_TEST_URI="mongodb://localhost:27017/?replicaSet=rs0" go test -tags integration ./internal/infrastructure/db/mongo/
func openTestDatabase(t *testing.T) (*ToolRepository, *FavoriteRepository) {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	name := fmt.Sprintf("toolbox_test_%d", time.Now().UnixNano())
	client, db, err := Connect(ctx, Config{URI: uri, Database: name})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	tools := NewToolRepository(db)
	favs := NewFavoriteRepository(db)
	require.NoError(t, EnsureIndexes(ctx, tools, favs))
	require.NoError(t, tools.UpsertMany(ctx, []*domain.Tool{
		{Slug: "pomodoro", Name: "ポモドーロタイマー", IsActive: true, LikesCount: 5},
		{Slug: "report", Name: "売上レポート", IsActive: true, IsPremium: true},
	}))
	return tools, favs
}

func likesOf(t *testing.T, tools *ToolRepository, slug string) int64 {
	t.Helper()
	tool, err := tools.FindBySlug(context.Background(), slug)
	require.NoError(t, err)
	return tool.LikesCount
}

func TestFavoriteRepository_ToggleMovesRowAndCounter(t *testing.T) {
	tools, favs := openTestDatabase(t)
	ctx := context.Background()

	on, err := favs.Toggle(ctx, "u1", "pomodoro")
	require.NoError(t, err)
	assert.True(t, on)
	assert.EqualValues(t, 6, likesOf(t, tools, "pomodoro"))

	slugs, err := favs.ListSlugs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"pomodoro"}, slugs)

	on, err = favs.Toggle(ctx, "u1", "pomodoro")
	require.NoError(t, err)
	assert.False(t, on)
	assert.EqualValues(t, 5, likesOf(t, tools, "pomodoro"))

	_, err = favs.Toggle(ctx, "u1", "ghost")
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
	slugs, _ = favs.ListSlugs(ctx, "u1")
	assert.Empty(t, slugs, "an aborted transaction leaves no row")
}

func TestFavoriteRepository_ConcurrentTogglesKeepCounter(t *testing.T) {
	tools, favs := openTestDatabase(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			_, err := favs.Toggle(ctx, user, "report")
			assert.NoError(t, err)
		}(fmt.Sprintf("u%d", i))
	}
	wg.Wait()

	n, err := favs.CountBySlug(ctx, "report")
	require.NoError(t, err)
	assert.EqualValues(t, 8, n)
	assert.EqualValues(t, 8, likesOf(t, tools, "report"))
}

func TestFavoriteRepository_RemoveAndRecount(t *testing.T) {
	tools, favs := openTestDatabase(t)
	ctx := context.Background()

	_, err := favs.Toggle(ctx, "u1", "pomodoro")
	require.NoError(t, err)

	prev, now, err := favs.RecountLikes(ctx, "pomodoro")
	require.NoError(t, err)
	assert.EqualValues(t, 6, prev)
	assert.EqualValues(t, 1, now)

	removed, err := favs.Remove(ctx, "u1", "pomodoro")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.EqualValues(t, 0, likesOf(t, tools, "pomodoro"))

	removed, err = favs.Remove(ctx, "u1", "pomodoro")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFavoriteRepository_RecountDuringToggles(t *testing.T) {
	tools, favs := openTestDatabase(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(user string) {
			defer wg.Done()
			_, err := favs.Toggle(ctx, user, "pomodoro")
			assert.NoError(t, err)
		}(fmt.Sprintf("u%d", i))
		go func() {
			defer wg.Done()
			_, _, err := favs.RecountLikes(ctx, "pomodoro")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := favs.CountBySlug(ctx, "pomodoro")
	require.NoError(t, err)
	assert.EqualValues(t, 10, n)
	assert.EqualValues(t, n, likesOf(t, tools, "pomodoro"), "a recount must not drop a concurrent increment")
}
