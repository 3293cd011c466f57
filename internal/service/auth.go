package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nlevin/shortly/internal/models"
	"github.com/nlevin/shortly/internal/repository"
)

var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

// TokenTTL is the validity period of issued bearer tokens.
const TokenTTL = 24 * time.Hour

// UserStore is the subset of the repository the auth service depends on.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type Claims struct {
	jwt.RegisteredClaims
}

type AuthService struct {
	store  UserStore
	secret []byte
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(store UserStore, secret string, logger *zap.Logger) (*AuthService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	return &AuthService{
		store:  store,
		secret: []byte(secret),
		logger: logger,
		now:    time.Now,
	}, nil
}

// Register creates a new user and returns a signed bearer token for it.
// A duplicate email is reported as ErrEmailTaken.
func (a *AuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	if _, err := a.store.GetUserByEmail(ctx, email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	now := a.now()
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := a.store.CreateUser(ctx, user); err != nil {
		// Concurrent registration with the same email loses the insert race.
		if errors.Is(err, repository.ErrUniqueViolation) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	return a.BuildToken(user.ID)
}

// Login verifies credentials and returns a signed bearer token. An unknown
// email and a wrong password are indistinguishable to the caller.
func (a *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	ok, err := VerifyPassword(user.PasswordHash, password)
	if err != nil {
		a.logger.Error("Failed to verify password hash",
			zap.String("userID", user.ID),
			zap.Error(err))
		return "", ErrInvalidCredentials
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	return a.BuildToken(user.ID)
}

// BuildToken issues a signed JWT with the user id as the subject claim.
func (a *AuthService) BuildToken(userID string) (string, error) {
	now := a.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Authenticate verifies a bearer token and returns the user id from its
// subject claim. Every verification failure collapses to ErrUnauthorized.
func (a *AuthService) Authenticate(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrUnauthorized
	}

	return claims.Subject, nil
}

// Profile returns the user row for the authenticated caller.
func (a *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := a.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	return user, nil
}
