// Package auth implements the signed-token codec and the register/login flow
// on top of a store.Store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkowalsky/favourites-api/internal/models"
	"github.com/dkowalsky/favourites-api/internal/store"
)

var (
	ErrSecretRequired    = errors.New("auth: jwt secret required")
	ErrUserNameRequired  = errors.New("auth: userName is required")
	ErrPasswordRequired  = errors.New("auth: password is required")
	ErrIncorrectPassword = errors.New("auth: incorrect password")
	ErrInvalidToken      = errors.New("auth: invalid token")
)

// Claims is the token payload. JSON keys match the wire format expected by
// existing clients (_id, userName, favourites). Favourites are a login-time
// snapshot; handlers read current state from the store, never from here.
type Claims struct {
	UserID     string   `json:"_id"`
	UserName   string   `json:"userName"`
	Favourites []string `json:"favourites"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a process-wide HS256 secret. Tokens
// carry no expiry; they stay valid until the secret rotates.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) (*Codec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSecretRequired
	}

	return &Codec{secret: []byte(secret)}, nil
}

func (c *Codec) Encode(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}

	return signed, nil
}

// Decode verifies the signature and returns the claims. A malformed token, a
// bad signature and a wrong signing method all come back as ErrInvalidToken.
func (c *Codec) Decode(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	return *claims, nil
}

type LoginResult struct {
	Token string
	User  models.User
}

// Service owns registration and credential checks. Password hashes never
// leave this package.
type Service struct {
	codec *Codec
	store store.Store
}

func NewService(codec *Codec, userStore store.Store) *Service {
	return &Service{codec: codec, store: userStore}
}

func (s *Service) Register(ctx context.Context, userName, password string) (string, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return "", ErrUserNameRequired
	}
	if password == "" {
		return "", ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		UserName:     userName,
		PasswordHash: string(hash),
		Favourites:   []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return "", err
	}

	return fmt.Sprintf("User %s successfully registered", userName), nil
}

func (s *Service) Login(ctx context.Context, userName, password string) (*LoginResult, error) {
	user, err := s.store.GetUserByName(ctx, userName)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrIncorrectPassword
	}

	token, err := s.codec.Encode(Claims{
		UserID:     user.ID,
		UserName:   user.UserName,
		Favourites: user.Favourites,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, User: user.Sanitize()}, nil
}
