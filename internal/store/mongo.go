package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dkowalsky/favourites-api/internal/models"
	"github.com/dkowalsky/favourites-api/internal/utils"
)

// Mongo stores users in a single collection with a unique index on userName.
// Favourite mutations use $addToSet/$pull so idempotence and per-record
// atomicity come from the server rather than in-process locking.
type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
	Users    *mongo.Collection
}

func NewMongo(ctx context.Context, cfg utils.MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo: uri is required")
	}

	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	db := client.Database(cfg.Database)

	return &Mongo{
		Client:   client,
		Database: db,
		Users:    db.Collection("users"),
	}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return m.Client.Disconnect(ctx)
}

func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	if m == nil || m.Users == nil {
		return fmt.Errorf("mongo: collection not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := m.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userName", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo: ensure username index: %w", err)
	}

	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return fmt.Errorf("mongo: client not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return m.Client.Ping(ctx, nil)
}

func (m *Mongo) CreateUser(ctx context.Context, user models.User) error {
	if user.Favourites == nil {
		user.Favourites = []string{}
	}

	if _, err := m.Users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrUserExists
		}
		return fmt.Errorf("mongo: insert user: %w", err)
	}

	return nil
}

func (m *Mongo) GetUserByName(ctx context.Context, userName string) (models.User, error) {
	var user models.User
	if err := m.Users.FindOne(ctx, bson.M{"userName": userName}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("mongo: find user: %w", err)
	}

	return user, nil
}

func (m *Mongo) GetFavourites(ctx context.Context, userID string) ([]string, error) {
	var user models.User
	opts := options.FindOne().SetProjection(bson.M{"favourites": 1})
	if err := m.Users.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("mongo: find favourites: %w", err)
	}

	if user.Favourites == nil {
		user.Favourites = []string{}
	}

	return user.Favourites, nil
}

func (m *Mongo) AddFavourite(ctx context.Context, userID, itemID string) ([]string, error) {
	update := bson.M{
		"$addToSet": bson.M{"favourites": itemID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}

	return m.mutateFavourites(ctx, userID, update)
}

func (m *Mongo) RemoveFavourite(ctx context.Context, userID, itemID string) ([]string, error) {
	update := bson.M{
		"$pull": bson.M{"favourites": itemID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	return m.mutateFavourites(ctx, userID, update)
}

func (m *Mongo) mutateFavourites(ctx context.Context, userID string, update bson.M) ([]string, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := m.Users.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("mongo: update favourites: %w", err)
	}

	if user.Favourites == nil {
		user.Favourites = []string{}
	}

	return user.Favourites, nil
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return 10 * time.Second
}
