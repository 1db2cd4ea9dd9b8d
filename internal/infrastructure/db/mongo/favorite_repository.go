package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

const collectionFavorites = "user_favorites"

// FavoriteRepository implements ports.FavoriteRepository using MongoDB.
// Row changes and counter adjustments share one transaction, so a replica
// set is required.
type FavoriteRepository struct {
	db    *mongo.Database
	col   *mongo.Collection
	tools *ToolRepository
}

// NewFavoriteRepository creates a new FavoriteRepository.
func NewFavoriteRepository(db *mongo.Database) *FavoriteRepository {
	return &FavoriteRepository{
		db:    db,
		col:   db.Collection(collectionFavorites),
		tools: NewToolRepository(db),
	}
}

var _ ports.FavoriteRepository = (*FavoriteRepository)(nil)

// Toggle inserts or deletes the (user, slug) row and moves likes_count by
// one in the same transaction.
func (r *FavoriteRepository) Toggle(ctx context.Context, userID, slug string) (bool, error) {
	result, err := r.inTransaction(ctx, nil, func(sc mongo.SessionContext) (interface{}, error) {
		removed, err := r.remove(sc, userID, slug)
		if err != nil || removed {
			return false, err
		}

		_, err = r.col.InsertOne(sc, domain.Favorite{UserID: userID, ToolSlug: slug, CreatedAt: time.Now().UTC()})
		if err != nil {
			return nil, fmt.Errorf("insert favorite: %w", err)
		}
		if err := r.tools.IncrementLikes(sc, slug); err != nil {
			return nil, err
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// Remove deletes the (user, slug) row, if any, and decrements the counter.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, slug string) (bool, error) {
	result, err := r.inTransaction(ctx, nil, func(sc mongo.SessionContext) (interface{}, error) {
		return r.remove(sc, userID, slug)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (r *FavoriteRepository) remove(sc mongo.SessionContext, userID, slug string) (bool, error) {
	del, err := r.col.DeleteOne(sc, bson.M{"user_id": userID, "tool_slug": slug})
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	if del.DeletedCount == 0 {
		return false, nil
	}
	if err := r.tools.DecrementLikes(sc, slug); err != nil {
		return false, err
	}
	return true, nil
}

// RecountLikes counts and writes inside one snapshot transaction. A toggle
// committing in between makes the counter write conflict, and the
// transaction is retried against the new rows.
func (r *FavoriteRepository) RecountLikes(ctx context.Context, slug string) (int64, int64, error) {
	var previous, current int64
	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err := r.inTransaction(ctx, opts, func(sc mongo.SessionContext) (interface{}, error) {
		n, err := r.col.CountDocuments(sc, bson.M{"tool_slug": slug})
		if err != nil {
			return nil, fmt.Errorf("count favorites: %w", err)
		}
		prev, err := r.tools.SetLikes(sc, slug, n)
		if err != nil {
			return nil, err
		}
		previous, current = prev, n
		return nil, nil
	})
	if err != nil {
		return 0, 0, err
	}
	return previous, current, nil
}

func (r *FavoriteRepository) inTransaction(
	ctx context.Context,
	opts *options.TransactionOptions,
	fn func(sc mongo.SessionContext) (interface{}, error),
) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	if opts == nil {
		return session.WithTransaction(ctx, fn)
	}
	return session.WithTransaction(ctx, fn, opts)
}

// ListSlugs returns the user's favorites oldest first.
func (r *FavoriteRepository) ListSlugs(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetProjection(bson.M{"tool_slug": 1})

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find favorites: %w", err)
	}
	defer cur.Close(ctx)

	var rows []domain.Favorite
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	slugs := make([]string, 0, len(rows))
	for _, row := range rows {
		slugs = append(slugs, row.ToolSlug)
	}
	return slugs, nil
}

func (r *FavoriteRepository) CountBySlug(ctx context.Context, slug string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"tool_slug": slug})
	if err != nil {
		return 0, fmt.Errorf("count favorites: %w", err)
	}
	return n, nil
}

// EnsureIndexes makes (user_id, tool_slug) unique.
func (r *FavoriteRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "tool_slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "tool_slug", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
