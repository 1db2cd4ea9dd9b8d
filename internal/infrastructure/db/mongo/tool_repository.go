package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yokaunit/toolbox/internal/core/domain"
)

const collectionTools = "tools"

type ToolRepository struct {
	col *mongo.Collection
}

func NewToolRepository(db *mongo.Database) *ToolRepository {
	return &ToolRepository{col: db.Collection(collectionTools)}
}

// List runs the catalog query server-side and returns one page plus the
// total number of matches.
func (r *ToolRepository) List(ctx context.Context, q domain.ToolQuery) ([]*domain.Tool, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := buildToolFilter(q)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count tools: %w", err)
	}
	if total == 0 {
		return []*domain.Tool{}, 0, nil
	}

	opts := options.Find().SetSort(toolSort(q.Sort)).SetSkip(int64(q.Offset))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find tools: %w", err)
	}
	defer cur.Close(ctx)

	tools := make([]*domain.Tool, 0, q.Limit)
	if err := cur.All(ctx, &tools); err != nil {
		return nil, 0, fmt.Errorf("decode tools: %w", err)
	}
	return tools, total, nil
}

// FindBySlug retrieves a tool by slug, active or not.
func (r *ToolRepository) FindBySlug(ctx context.Context, slug string) (*domain.Tool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t domain.Tool
	err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrToolNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *ToolRepository) Categories(ctx context.Context, role domain.Role) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	values, err := r.col.Distinct(ctx, "category", buildToolFilter(domain.ToolQuery{Role: role}))
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	return distinctStrings(values), nil
}

func (r *ToolRepository) Slugs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	values, err := r.col.Distinct(ctx, "slug", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct slugs: %w", err)
	}
	return distinctStrings(values), nil
}

// UpsertMany writes seed data keyed by slug. likes_count and created_at are
// only set when the document is first inserted.
func (r *ToolRepository) UpsertMany(ctx context.Context, tools []*domain.Tool) error {
	if len(tools) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(tools))
	for _, t := range tools {
		created := t.CreatedAt
		if created.IsZero() {
			created = now
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"slug": t.Slug}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"name":        t.Name,
					"description": t.Description,
					"category":    t.Category,
					"subcategory": t.Subcategory,
					"tags":        t.Tags,
					"href":        t.Href,
					"icon":        t.Icon,
					"is_new":      t.IsNew,
					"is_popular":  t.IsPopular,
					"is_premium":  t.IsPremium,
					"is_private":  t.IsPrivate,
					"is_active":   t.IsActive,
					"updated_at":  now,
				},
				"$setOnInsert": bson.M{
					"likes_count": t.LikesCount,
					"created_at":  created,
				},
			}).
			SetUpsert(true))
	}

	_, err := r.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("upsert tools: %w", err)
	}
	return nil
}

// IncrementLikes and DecrementLikes run inside the favorites transaction
// when ctx carries its session.
func (r *ToolRepository) IncrementLikes(ctx context.Context, slug string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"slug": slug}, bson.M{"$inc": bson.M{"likes_count": 1}})
	if err != nil {
		return fmt.Errorf("increment likes: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrToolNotFound
	}
	return nil
}

// DecrementLikes is a no-op for a counter already at zero or a tool that
// no longer exists.
func (r *ToolRepository) DecrementLikes(ctx context.Context, slug string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"slug": slug, "likes_count": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"likes_count": -1}},
	)
	if err != nil {
		return fmt.Errorf("decrement likes: %w", err)
	}
	return nil
}

// SetLikes overwrites likes_count and returns the value it replaced.
func (r *ToolRepository) SetLikes(ctx context.Context, slug string, likes int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"likes_count": 1})

	var prev struct {
		LikesCount int64 `bson:"likes_count"`
	}
	err := r.col.FindOneAndUpdate(ctx, bson.M{"slug": slug}, bson.M{"$set": bson.M{"likes_count": likes}}, opts).Decode(&prev)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrToolNotFound
		}
		return 0, fmt.Errorf("set likes: %w", err)
	}
	return prev.LikesCount, nil
}

// EnsureIndexes creates necessary indexes on the tools collection.
func (r *ToolRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "subcategory", Value: 1}}},
		{Keys: bson.D{{Key: "likes_count", Value: -1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// buildToolFilter translates a catalog query into a Mongo filter. The tier
// constraint comes from domain.AccessFor so it matches domain.IsVisible.
func buildToolFilter(q domain.ToolQuery) bson.M {
	and := bson.A{bson.M{"is_active": true}}

	access := domain.AccessFor(q.Role)
	if !access.Premium {
		and = append(and, bson.M{"is_premium": bson.M{"$ne": true}})
	}
	if !access.Private {
		and = append(and, bson.M{"is_private": bson.M{"$ne": true}})
	}

	if q.HasCategory() {
		and = append(and, bson.M{"category": q.Category})
	}
	if q.Subcategory != "" {
		and = append(and, bson.M{"subcategory": q.Subcategory})
	}

	flags := []struct {
		field string
		want  *bool
	}{
		{"is_popular", q.IsPopular},
		{"is_new", q.IsNew},
		{"is_premium", q.IsPremium},
		{"is_private", q.IsPrivate},
	}
	for _, f := range flags {
		if f.want != nil {
			and = append(and, bson.M{f.field: *f.want})
		}
	}

	if s := strings.TrimSpace(q.Search); s != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"tags": pattern},
		}})
	}

	return bson.M{"$and": and}
}

func toolSort(order domain.ToolSort) bson.D {
	switch order {
	case domain.SortNew:
		return bson.D{{Key: "is_new", Value: -1}, {Key: "created_at", Value: -1}, {Key: "slug", Value: 1}}
	case domain.SortName:
		return bson.D{{Key: "name", Value: 1}, {Key: "slug", Value: 1}}
	default:
		return bson.D{{Key: "likes_count", Value: -1}, {Key: "created_at", Value: -1}, {Key: "slug", Value: 1}}
	}
}

func distinctStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
