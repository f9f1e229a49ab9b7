package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/folioapp/portfolio-api/internal/core/domain"
)

type PortfolioRepository struct {
	col   *mongo.Collection
	users *mongo.Collection
}

func NewPortfolioRepository(db *mongo.Database) *PortfolioRepository {
	return &PortfolioRepository{
		col:   db.Collection(collectionPortfolios),
		users: db.Collection(collectionUsers),
	}
}

type portfolioDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Detail      string             `bson:"detail"`
	Link        string             `bson:"link"`
	UserID      string             `bson:"user_id"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d portfolioDoc) toDomain() *domain.Portfolio {
	return &domain.Portfolio{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Detail:      d.Detail,
		Link:        d.Link,
		UserID:      d.UserID,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// Create inserts a portfolio for an existing owner, returning
// domain.ErrUserNotFound otherwise. The check and the insert are separate
// operations, so a concurrent account deletion can still leave an orphan.
func (r *PortfolioRepository) Create(ctx context.Context, p *domain.Portfolio) (*domain.Portfolio, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := r.ownerExists(ctx, p.UserID); err != nil {
		return nil, err
	}

	ts := now()
	doc := portfolioDoc{
		Title:       p.Title,
		Description: p.Description,
		Detail:      p.Detail,
		Link:        p.Link,
		UserID:      p.UserID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert portfolio: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert portfolio: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

func (r *PortfolioRepository) ownerExists(ctx context.Context, userID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}
	err = r.users.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrUserNotFound
	case err != nil:
		return fmt.Errorf("find portfolio owner: %w", err)
	}
	return nil
}

func (r *PortfolioRepository) FindByID(ctx context.Context, id string) (*domain.Portfolio, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPortfolioNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc portfolioDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("find portfolio: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PortfolioRepository) List(ctx context.Context) ([]*domain.Portfolio, error) {
	return r.find(ctx, bson.M{})
}

func (r *PortfolioRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Portfolio, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *PortfolioRepository) find(ctx context.Context, filter bson.M) ([]*domain.Portfolio, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer cur.Close(ctx)

	var docs []portfolioDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode portfolios: %w", err)
	}
	out := make([]*domain.Portfolio, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *PortfolioRepository) Update(ctx context.Context, p *domain.Portfolio) (*domain.Portfolio, error) {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return nil, domain.ErrPortfolioNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"title":       p.Title,
		"description": p.Description,
		"detail":      p.Detail,
		"link":        p.Link,
		"updated_at":  now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var saved portfolioDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&saved); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPortfolioNotFound
		}
		return nil, fmt.Errorf("update portfolio: %w", err)
	}
	return saved.toDomain(), nil
}

func (r *PortfolioRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrPortfolioNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete portfolio: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPortfolioNotFound
	}
	return nil
}

// EnsureIndexes creates the owner lookup index on the portfolios collection.
func (r *PortfolioRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}
