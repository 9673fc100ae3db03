package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkowalsky/favourites-api/internal/models"
	"github.com/dkowalsky/favourites-api/internal/utils"
)

const uniqueViolationCode = "23505"

// Postgres keeps favourites in a TEXT[] column; add/remove are single UPDATE
// statements so idempotence is enforced in SQL rather than read-modify-write.
type Postgres struct {
	Pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, cfg utils.PostgresConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns >= 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Close() {
	if p == nil || p.Pool == nil {
		return
	}
	p.Pool.Close()
}

func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return fmt.Errorf("postgres: pool not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.Pool.Ping(ctx)
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return fmt.Errorf("postgres: pool not initialised")
	}

	schema := strings.Join([]string{
		"CREATE TABLE IF NOT EXISTS users (",
		"    id TEXT PRIMARY KEY,",
		"    username TEXT NOT NULL UNIQUE,",
		"    password_hash TEXT NOT NULL,",
		"    favourites TEXT[] NOT NULL DEFAULT '{}',",
		"    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),",
		"    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()",
		")",
	}, "\n")

	if _, err := p.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}

	return nil
}

func (p *Postgres) CreateUser(ctx context.Context, user models.User) error {
	query := `INSERT INTO users (id, username, password_hash, favourites, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	favourites := user.Favourites
	if favourites == nil {
		favourites = []string{}
	}

	_, err := p.Pool.Exec(ctx, query, user.ID, user.UserName, user.PasswordHash, favourites, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrUserExists
		}
		return fmt.Errorf("postgres: insert user: %w", err)
	}

	return nil
}

func (p *Postgres) GetUserByName(ctx context.Context, userName string) (models.User, error) {
	query := `SELECT id, username, password_hash, favourites, created_at, updated_at
		FROM users WHERE username = $1`

	var user models.User
	err := p.Pool.QueryRow(ctx, query, userName).Scan(
		&user.ID, &user.UserName, &user.PasswordHash, &user.Favourites, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("postgres: query user: %w", err)
	}

	return user, nil
}

func (p *Postgres) GetFavourites(ctx context.Context, userID string) ([]string, error) {
	var favourites []string
	err := p.Pool.QueryRow(ctx, "SELECT favourites FROM users WHERE id = $1", userID).Scan(&favourites)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("postgres: query favourites: %w", err)
	}

	if favourites == nil {
		favourites = []string{}
	}

	return favourites, nil
}

func (p *Postgres) AddFavourite(ctx context.Context, userID, itemID string) ([]string, error) {
	query := `UPDATE users
		SET favourites = CASE WHEN $2 = ANY(favourites) THEN favourites ELSE array_append(favourites, $2) END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING favourites`

	return p.mutateFavourites(ctx, query, userID, itemID)
}

func (p *Postgres) RemoveFavourite(ctx context.Context, userID, itemID string) ([]string, error) {
	query := `UPDATE users
		SET favourites = array_remove(favourites, $2),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING favourites`

	return p.mutateFavourites(ctx, query, userID, itemID)
}

func (p *Postgres) mutateFavourites(ctx context.Context, query, userID, itemID string) ([]string, error) {
	var favourites []string
	if err := p.Pool.QueryRow(ctx, query, userID, itemID).Scan(&favourites); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("postgres: update favourites: %w", err)
	}

	if favourites == nil {
		favourites = []string{}
	}

	return favourites, nil
}
