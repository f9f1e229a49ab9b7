package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/folioapp/portfolio-api/internal/core/domain"
)

const (
	indexUsername = "users_username_key"
	indexEmail    = "users_email_key"
)

type UserRepository struct {
	users      *mongo.Collection
	portfolios *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:      db.Collection(collectionUsers),
		portfolios: db.Collection(collectionPortfolios),
	}
}

// userDoc stores the case-folded username next to the display form so the
// unique index is case-insensitive. Emails are stored normalized.
type userDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	FirstName        string             `bson:"first_name"`
	LastName         string             `bson:"last_name"`
	Username         string             `bson:"username"`
	UsernameKey      string             `bson:"username_key"`
	Email            string             `bson:"email"`
	PasswordHash     string             `bson:"password_hash"`
	IsAdmin          bool               `bson:"is_admin"`
	IsVerified       bool               `bson:"is_verified"`
	EmailVerifyToken *string            `bson:"email_verify_token"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`
}

func toUserDoc(u *domain.User) userDoc {
	d := userDoc{
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		UsernameKey:  domain.UsernameKey(u.Username),
		Email:        domain.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		IsAdmin:      u.IsAdmin,
		IsVerified:   u.IsVerified,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.EmailVerifyToken != "" {
		nonce := u.EmailVerifyToken
		d.EmailVerifyToken = &nonce
	}
	return d
}

func (d userDoc) toDomain() *domain.User {
	u := &domain.User{
		ID:           d.ID.Hex(),
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		IsAdmin:      d.IsAdmin,
		IsVerified:   d.IsVerified,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	if d.EmailVerifyToken != nil {
		u.EmailVerifyToken = *d.EmailVerifyToken
	}
	return u
}

// mapDuplicateKey names the unique index a write collided with.
func mapDuplicateKey(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, indexUsername):
		return domain.ErrUsernameTaken
	case strings.Contains(msg, indexEmail):
		return domain.ErrEmailTaken
	default:
		return domain.ErrUserExists
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ts := now()
	doc := toUserDoc(user)
	doc.CreatedAt, doc.UpdatedAt = ts, ts

	res, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		if mapped := mapDuplicateKey(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByLogin(ctx context.Context, identifier string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username_key": domain.UsernameKey(identifier)},
		bson.M{"email": domain.NormalizeEmail(identifier)},
	}})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username_key": domain.UsernameKey(username)})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toUserDoc(user)
	update := bson.M{"$set": bson.M{
		"first_name":         doc.FirstName,
		"last_name":          doc.LastName,
		"username":           doc.Username,
		"username_key":       doc.UsernameKey,
		"email":              doc.Email,
		"password_hash":      doc.PasswordHash,
		"is_admin":           doc.IsAdmin,
		"is_verified":        doc.IsVerified,
		"email_verify_token": doc.EmailVerifyToken,
		"updated_at":         now(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var saved userDoc
	if err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&saved); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		if mapped := mapDuplicateKey(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return saved.toDomain(), nil
}

// Delete removes the user's portfolios and then the user. The two deletes are
// not atomic; an interrupted call leaves the user without portfolios and can be
// retried.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.users.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("count user: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}

	if _, err := r.portfolios.DeleteMany(ctx, bson.M{"user_id": id}); err != nil {
		return fmt.Errorf("delete portfolios: %w", err)
	}
	res, err := r.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the case-insensitive unique indexes on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username_key", Value: 1}}, Options: options.Index().SetName(indexUsername).SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(indexEmail).SetUnique(true)},
	}
	_, err := r.users.Indexes().CreateMany(ctx, indexes)
	return err
}
