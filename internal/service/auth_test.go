package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nlevin/shortly/internal/models"
	"github.com/nlevin/shortly/internal/repository"
)

type fakeUserStore struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.byEmail[user.Email]; exists {
		return repository.ErrUniqueViolation
	}

	clone := *user
	f.byID[user.ID] = &clone
	f.byEmail[user.Email] = &clone
	return nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}

	clone := *user
	return &clone, nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	clone := *user
	return &clone, nil
}

func newTestAuth(t *testing.T) (*AuthService, *fakeUserStore) {
	t.Helper()

	store := newFakeUserStore()
	auth, err := NewAuthService(store, "test-secret-key", zap.NewNop())
	require.NoError(t, err)

	return auth, store
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	_, err := NewAuthService(newFakeUserStore(), "", zap.NewNop())
	assert.Error(t, err)
}

func TestRegisterThenLogin(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	registerToken, err := auth.Register(ctx, "Alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, registerToken)

	userID, err := auth.Authenticate(registerToken)
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	loginToken, err := auth.Login(ctx, "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	loginUserID, err := auth.Authenticate(loginToken)
	require.NoError(t, err)
	assert.Equal(t, userID, loginUserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "Alice", "alice@example.com", "password-1")
	require.NoError(t, err)

	_, err = auth.Register(ctx, "Other Alice", "alice@example.com", "password-2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterNeverStoresPlaintext(t *testing.T) {
	auth, store := newTestAuth(t)
	ctx := context.Background()

	token, err := auth.Register(ctx, "Alice", "alice@example.com", "plaintext-password")
	require.NoError(t, err)

	userID, err := auth.Authenticate(token)
	require.NoError(t, err)

	user, err := store.GetUserByID(ctx, userID)
	require.NoError(t, err)
	assert.NotContains(t, user.PasswordHash, "plaintext-password")
	assert.Contains(t, user.PasswordHash, "$argon2id$")
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "Alice", "alice@example.com", "correct-password")
	require.NoError(t, err)

	_, wrongPasswordErr := auth.Login(ctx, "alice@example.com", "wrong-password")
	_, unknownEmailErr := auth.Login(ctx, "nobody@example.com", "whatever")

	assert.ErrorIs(t, wrongPasswordErr, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmailErr, ErrInvalidCredentials)
	assert.Equal(t, wrongPasswordErr, unknownEmailErr)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	token, err := auth.Register(ctx, "Alice", "alice@example.com", "password")
	require.NoError(t, err)

	otherAuth, err := NewAuthService(newFakeUserStore(), "different-secret", zap.NewNop())
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		auth  *AuthService
	}{
		{name: "malformed", token: "not-a-jwt", auth: auth},
		{name: "empty", token: "", auth: auth},
		{name: "wrong signature", token: token, auth: otherAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.auth.Authenticate(tt.token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	auth, _ := newTestAuth(t)

	// Issue a token far enough in the past that it is already expired.
	auth.now = func() time.Time { return time.Now().Add(-2 * TokenTTL) }

	token, err := auth.BuildToken("user-1")
	require.NoError(t, err)

	_, err = auth.Authenticate(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestProfile(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	token, err := auth.Register(ctx, "Alice", "alice@example.com", "password")
	require.NoError(t, err)

	userID, err := auth.Authenticate(token)
	require.NoError(t, err)

	user, err := auth.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = auth.Profile(ctx, "no-such-user")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
