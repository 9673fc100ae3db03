// Package store holds the user-record persistence contract and its backends.
package store

import (
	"context"
	"errors"

	"github.com/dkowalsky/favourites-api/internal/models"
)

var (
	ErrUserExists   = errors.New("store: username already taken")
	ErrUserNotFound = errors.New("store: user not found")
)

// Store persists users and their favourites. AddFavourite and RemoveFavourite
// are idempotent: repeating either call leaves the favourites list unchanged
// and still succeeds. Both return the favourites list after the mutation.
type Store interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByName(ctx context.Context, userName string) (models.User, error)
	GetFavourites(ctx context.Context, userID string) ([]string, error)
	AddFavourite(ctx context.Context, userID, itemID string) ([]string, error)
	RemoveFavourite(ctx context.Context, userID, itemID string) ([]string, error)
}
