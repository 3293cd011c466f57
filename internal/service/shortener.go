package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nlevin/shortly/internal/models"
	"github.com/nlevin/shortly/internal/repository"
)

var (
	ErrNotFound   = errors.New("url not found")
	ErrEmptyURL   = errors.New("empty url")
	ErrInvalidURL = errors.New("invalid url")
	ErrGenerateID = errors.New("failed to generate unique hash")
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	hashAttempts = 5
)

// URLStore is the subset of the repository the shortener depends on.
type URLStore interface {
	CreateURL(ctx context.Context, url *models.URL) error
	GetURLByHash(ctx context.Context, hash string) (*models.URL, error)
	GetURLByID(ctx context.Context, id string) (*models.URL, error)
	MarkURLDeleted(ctx context.Context, id string, deletedAt time.Time) error
	ListURLs(ctx context.Context, userID string, offset, limit int) ([]models.URL, error)
	CountURLs(ctx context.Context, userID string) (int, error)
}

// URLCache is a best-effort key-value snapshot of URL rows.
type URLCache interface {
	Get(ctx context.Context, hash string) (*models.URL, bool, error)
	Set(ctx context.Context, url *models.URL) error
	Delete(ctx context.Context, hash string) error
}

// AccessNotifier enqueues an access event without blocking the caller.
type AccessNotifier interface {
	Notify(url *models.URL)
}

type ShortenerService struct {
	store    URLStore
	cache    URLCache
	notifier AccessNotifier
	logger   *zap.Logger
}

func NewShortenerService(store URLStore, cache URLCache, notifier AccessNotifier, logger *zap.Logger) *ShortenerService {
	return &ShortenerService{
		store:    store,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
	}
}

// GenerateHash returns a short collision-resistant URL-safe identifier.
func (s *ShortenerService) GenerateHash() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return base64.URLEncoding.EncodeToString(bytes)[:8]
}

// Resolve looks the hash up cache-first. On a hit the snapshot is returned
// immediately and an access event is dispatched; the store is not touched
// and the cache entry is not rewritten. On a miss the store is the
// authority, and a successful fallback populates the cache.
func (s *ShortenerService) Resolve(ctx context.Context, hash string) (*models.URL, error) {
	cached, hit, err := s.cache.Get(ctx, hash)
	if err != nil {
		// Cache trouble must not take down the read path.
		s.logger.Error("Cache lookup failed", zap.String("hash", hash), zap.Error(err))
	}
	if hit {
		s.notifier.Notify(cached)
		return cached, nil
	}

	record, err := s.store.GetURLByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get url by hash: %w", err)
	}

	if err := s.cache.Set(ctx, record); err != nil {
		s.logger.Error("Failed to populate cache", zap.String("hash", hash), zap.Error(err))
	}

	return record, nil
}

// Create persists a new URL owned by userID and eagerly caches it so the
// first resolution is already a cache hit.
func (s *ShortenerService) Create(ctx context.Context, userID, originalURL string) (string, error) {
	if originalURL == "" {
		return "", ErrEmptyURL
	}

	parsed, err := url.ParseRequestURI(originalURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		s.logger.Warn("Invalid URL provided", zap.String("url", originalURL))
		return "", ErrInvalidURL
	}

	// A client disconnect must not abort a half-applied mutation.
	ctx = context.WithoutCancel(ctx)

	for attempt := 0; attempt < hashAttempts; attempt++ {
		record := &models.URL{
			ID:          uuid.New().String(),
			OriginalURL: originalURL,
			Hash:        s.GenerateHash(),
			UserID:      userID,
			CreatedAt:   time.Now(),
		}

		err := s.store.CreateURL(ctx, record)
		if errors.Is(err, repository.ErrUniqueViolation) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create url: %w", err)
		}

		if err := s.cache.Set(ctx, record); err != nil {
			s.logger.Error("Failed to cache new url", zap.String("hash", record.Hash), zap.Error(err))
		}

		return record.Hash, nil
	}

	return "", ErrGenerateID
}

// Delete soft-deletes a URL owned by userID and evicts its cache entry.
// A missing, already-deleted, or foreign record all report ErrNotFound.
func (s *ShortenerService) Delete(ctx context.Context, userID, urlID string) error {
	ctx = context.WithoutCancel(ctx)

	record, err := s.store.GetURLByID(ctx, urlID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get url by id: %w", err)
	}

	if record.DeletedAt != nil || record.UserID != userID {
		return ErrNotFound
	}

	if err := s.store.MarkURLDeleted(ctx, urlID, time.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("mark url deleted: %w", err)
	}

	// Eviction strictly after the store commit; a stale entry would keep a
	// deleted URL resolvable for up to the TTL.
	if err := s.cache.Delete(ctx, record.Hash); err != nil {
		return fmt.Errorf("evict cache: %w", err)
	}

	return nil
}

// List returns the page of live URLs owned by userID and the total page
// count. Pagination is 1-indexed; limit is clamped to [1,100].
func (s *ShortenerService) List(ctx context.Context, userID string, page, limit int) ([]models.URL, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	records, err := s.store.ListURLs(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list urls: %w", err)
	}

	count, err := s.store.CountURLs(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("count urls: %w", err)
	}

	pages := (count + limit - 1) / limit

	return records, pages, nil
}
