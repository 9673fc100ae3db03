// Seeds demo accounts into the configured store. Intended for local
// development; existing usernames are left untouched.
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkowalsky/favourites-api/internal/models"
	"github.com/dkowalsky/favourites-api/internal/store"
	"github.com/dkowalsky/favourites-api/internal/utils"
)

type seedUser struct {
	userName   string
	password   string
	favourites []string
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()

	userStore, cleanup, err := connectStore(ctx, cfg)
	if err != nil {
		log.Fatalf("connect store (%s): %v", cfg.StoreDriver, err)
	}
	defer cleanup()

	users := []seedUser{
		{userName: "demo", password: "demo1234", favourites: []string{"tt0111161", "tt0068646"}},
		{userName: "reviewer", password: "reviewer1234", favourites: []string{}},
	}

	for _, seed := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password for %s: %v", seed.userName, err)
		}

		now := time.Now().UTC()
		user := models.User{
			ID:           uuid.NewString(),
			UserName:     seed.userName,
			PasswordHash: string(hash),
			Favourites:   seed.favourites,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := userStore.CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrUserExists) {
				log.Printf("user %s already exists, skipping", seed.userName)
				continue
			}
			log.Fatalf("create user %s: %v", seed.userName, err)
		}

		log.Printf("seeded user %s", seed.userName)
	}
}

func connectStore(ctx context.Context, cfg *utils.Config) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case utils.StoreDriverPostgres:
		postgres, err := store.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx); err != nil {
			postgres.Close()
			return nil, nil, err
		}
		return postgres, postgres.Close, nil
	default:
		mongoStore, err := store.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			mongoStore.Close(context.Background())
			return nil, nil, err
		}
		return mongoStore, func() { mongoStore.Close(context.Background()) }, nil
	}
}
