package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

// LikesReconciler recomputes a tool's likes counter from the favorites
// table. It repairs drift left by failed or concurrent transactions.
type LikesReconciler struct {
	tools     ports.ToolRepository
	favorites ports.FavoriteRepository
	logger    zerolog.Logger
}

func NewLikesReconciler(tools ports.ToolRepository, favorites ports.FavoriteRepository, logger zerolog.Logger) *LikesReconciler {
	return &LikesReconciler{tools: tools, favorites: favorites, logger: logger}
}

// Reconcile sets likes_count of slug to the number of favorite rows and
// reports whether the stored value changed. The repository isolates the
// recount from concurrent toggles.
func (r *LikesReconciler) Reconcile(ctx context.Context, slug string) (bool, error) {
	previous, count, err := r.favorites.RecountLikes(ctx, slug)
	if err != nil {
		return false, err
	}
	if previous != count {
		r.logger.Info().Str("slug", slug).Int64("was", previous).Int64("now", count).Msg("likes counter corrected")
		return true, nil
	}
	return false, nil
}

// Slugs lists every catalog slug for a full reconciliation pass.
func (r *LikesReconciler) Slugs(ctx context.Context) ([]string, error) {
	slugs, err := r.tools.Slugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list slugs: %w: %w", domain.ErrRemoteFailure, err)
	}
	return slugs, nil
}
