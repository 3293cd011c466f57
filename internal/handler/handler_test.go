package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nlevin/shortly/internal/middleware"
	"github.com/nlevin/shortly/internal/models"
	"github.com/nlevin/shortly/internal/repository"
	"github.com/nlevin/shortly/internal/service"
)

type memStore struct {
	mu sync.Mutex

	usersByID    map[string]*models.User
	usersByEmail map[string]*models.User

	urlsByID   map[string]*models.URL
	urlsByHash map[string]*models.URL
	urlOrder   []string
}

func newMemStore() *memStore {
	return &memStore{
		usersByID:    make(map[string]*models.User),
		usersByEmail: make(map[string]*models.User),
		urlsByID:     make(map[string]*models.URL),
		urlsByHash:   make(map[string]*models.URL),
	}
}

func (m *memStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByEmail[user.Email]; exists {
		return repository.ErrUniqueViolation
	}

	clone := *user
	m.usersByID[user.ID] = &clone
	m.usersByEmail[user.Email] = &clone
	return nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.usersByEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *memStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.usersByID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *memStore) CreateURL(ctx context.Context, url *models.URL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.urlsByHash[url.Hash]; exists {
		return repository.ErrUniqueViolation
	}

	clone := *url
	m.urlsByID[url.ID] = &clone
	m.urlsByHash[url.Hash] = &clone
	m.urlOrder = append(m.urlOrder, url.ID)
	return nil
}

func (m *memStore) GetURLByHash(ctx context.Context, hash string) (*models.URL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	url, ok := m.urlsByHash[hash]
	if !ok || url.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	clone := *url
	return &clone, nil
}

func (m *memStore) GetURLByID(ctx context.Context, id string) (*models.URL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	url, ok := m.urlsByID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *url
	return &clone, nil
}

func (m *memStore) MarkURLDeleted(ctx context.Context, id string, deletedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	url, ok := m.urlsByID[id]
	if !ok || url.DeletedAt != nil {
		return repository.ErrNotFound
	}
	url.DeletedAt = &deletedAt
	return nil
}

func (m *memStore) ListURLs(ctx context.Context, userID string, offset, limit int) ([]models.URL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var owned []models.URL
	for _, id := range m.urlOrder {
		url := m.urlsByID[id]
		if url.UserID == userID && url.DeletedAt == nil {
			owned = append(owned, *url)
		}
	}

	if offset >= len(owned) {
		return []models.URL{}, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

func (m *memStore) CountURLs(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, url := range m.urlsByID {
		if url.UserID == userID && url.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]models.URL
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]models.URL)}
}

func (m *memCache) Get(ctx context.Context, hash string) (*models.URL, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	url, ok := m.entries[hash]
	if !ok {
		return nil, false, nil
	}
	clone := url
	return &clone, true, nil
}

func (m *memCache) Set(ctx context.Context, url *models.URL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[url.Hash] = *url
	return nil
}

func (m *memCache) Delete(ctx context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, hash)
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(url *models.URL) {}

type testEnv struct {
	router *chi.Mux
	store  *memStore
	cache  *memCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	store := newMemStore()
	cache := newMemCache()

	auth, err := service.NewAuthService(store, "test-secret-key", logger)
	require.NoError(t, err)

	shortener := service.NewShortenerService(store, cache, noopNotifier{}, logger)

	h := NewHandler(auth, shortener, logger)
	authMW := middleware.NewAuthMiddleware(auth, logger)

	return &testEnv{
		router: h.SetupRouter(authMW),
		store:  store,
		cache:  cache,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(t *testing.T, name, email, password string) string {
	t.Helper()

	body := fmt.Sprintf(`{"name":%q,"email":%q,"password":%q}`, name, email, password)
	w := e.do(t, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (e *testEnv) createURL(t *testing.T, token, url string) {
	t.Helper()

	w := e.do(t, http.MethodPost, "/v1/url/create", token, fmt.Sprintf(`{"url":%q}`, url))
	require.Equal(t, http.StatusCreated, w.Code)
}
