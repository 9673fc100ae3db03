package store

import (
	"context"
	"sync"

	"github.com/dkowalsky/favourites-api/internal/models"
)

// Memory is a map-backed Store used by tests and local runs without a database.
type Memory struct {
	mu          sync.RWMutex
	usersByID   map[string]*models.User
	usersByName map[string]*models.User
}

func NewMemory() *Memory {
	return &Memory{
		usersByID:   make(map[string]*models.User),
		usersByName: make(map[string]*models.User),
	}
}

func (m *Memory) CreateUser(ctx context.Context, user models.User) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByName[user.UserName]; exists {
		return ErrUserExists
	}

	stored := user
	if stored.Favourites == nil {
		stored.Favourites = []string{}
	}

	m.usersByID[stored.ID] = &stored
	m.usersByName[stored.UserName] = &stored

	return nil
}

func (m *Memory) GetUserByName(ctx context.Context, userName string) (models.User, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.usersByName[userName]
	if !ok {
		return models.User{}, ErrUserNotFound
	}

	return copyUser(user), nil
}

func (m *Memory) GetFavourites(ctx context.Context, userID string) ([]string, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.usersByID[userID]
	if !ok {
		return nil, ErrUserNotFound
	}

	return copyFavourites(user.Favourites), nil
}

func (m *Memory) AddFavourite(ctx context.Context, userID, itemID string) ([]string, error) {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.usersByID[userID]
	if !ok {
		return nil, ErrUserNotFound
	}

	for _, existing := range user.Favourites {
		if existing == itemID {
			return copyFavourites(user.Favourites), nil
		}
	}

	user.Favourites = append(user.Favourites, itemID)

	return copyFavourites(user.Favourites), nil
}

func (m *Memory) RemoveFavourite(ctx context.Context, userID, itemID string) ([]string, error) {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.usersByID[userID]
	if !ok {
		return nil, ErrUserNotFound
	}

	kept := user.Favourites[:0]
	for _, existing := range user.Favourites {
		if existing != itemID {
			kept = append(kept, existing)
		}
	}
	user.Favourites = kept

	return copyFavourites(user.Favourites), nil
}

func copyUser(user *models.User) models.User {
	copied := *user
	copied.Favourites = copyFavourites(user.Favourites)
	return copied
}

func copyFavourites(favourites []string) []string {
	copied := make([]string, len(favourites))
	copy(copied, favourites)
	return copied
}
