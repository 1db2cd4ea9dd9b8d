package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

func TestFavoriteRepository_RecountKeepsConcurrentToggle(t *testing.T) {
	ctx := context.Background()
	tools := NewToolRepository(&domain.Tool{Slug: "pomodoro", IsActive: true, LikesCount: 7})
	favs := NewFavoriteRepository(tools)
	_, err := favs.Toggle(ctx, "u1", "pomodoro")
	require.NoError(t, err)

	toggled := make(chan error, 1)
	favs.afterCount = func() {
		favs.afterCount = nil
		go func() {
			_, err := favs.Toggle(ctx, "u2", "pomodoro")
			toggled <- err
		}()
		// Give the toggle a chance to run if nothing blocks it.
		time.Sleep(20 * time.Millisecond)
	}

	prev, now, err := favs.RecountLikes(ctx, "pomodoro")
	require.NoError(t, err)
	assert.EqualValues(t, 8, prev)
	assert.EqualValues(t, 1, now)

	select {
	case err := <-toggled:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("toggle never completed")
	}

	got, err := tools.FindBySlug(ctx, "pomodoro")
	require.NoError(t, err)
	rows, _ := favs.CountBySlug(ctx, "pomodoro")
	assert.EqualValues(t, 2, rows)
	assert.EqualValues(t, rows, got.LikesCount, "counter must match rows after a concurrent toggle")
}

func TestFavoriteRepository_RecountUnknownTool(t *testing.T) {
	favs := NewFavoriteRepository(NewToolRepository())
	_, _, err := favs.RecountLikes(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrToolNotFound)
}

func TestFavoriteRepository_Remove(t *testing.T) {
	ctx := context.Background()
	tools := NewToolRepository(&domain.Tool{Slug: "report", IsActive: true, IsPremium: true})
	favs := NewFavoriteRepository(tools)
	_, err := favs.Toggle(ctx, "u1", "report")
	require.NoError(t, err)

	removed, err := favs.Remove(ctx, "u1", "report")
	require.NoError(t, err)
	assert.True(t, removed)
	got, _ := tools.FindBySlug(ctx, "report")
	assert.EqualValues(t, 0, got.LikesCount)

	removed, err = favs.Remove(ctx, "u1", "report")
	require.NoError(t, err)
	assert.False(t, removed, "second remove is a no-op")

	// A row left behind by a tool that later left the catalog still goes.
	favs.rows["u1"] = []string{"retired"}
	removed, err = favs.Remove(ctx, "u1", "retired")
	require.NoError(t, err)
	assert.True(t, removed)
	slugs, _ := favs.ListSlugs(ctx, "u1")
	assert.Empty(t, slugs)
}
