package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Mikkybeardless/shortClick/internal/cache"
	"github.com/Mikkybeardless/shortClick/internal/config"
	"github.com/Mikkybeardless/shortClick/internal/domain"
	"github.com/Mikkybeardless/shortClick/internal/geo"
	"github.com/Mikkybeardless/shortClick/internal/qrcode"
	"github.com/Mikkybeardless/shortClick/internal/repository"
	"github.com/Mikkybeardless/shortClick/pkg/random"
	"github.com/Mikkybeardless/shortClick/pkg/useragent"
	"go.uber.org/zap"
)

const maxRetries = 5

// ErrSlugTaken is returned when a caller-supplied custom slug collides with
// an existing short id. Custom slugs are never regenerated silently.
var ErrSlugTaken = errors.New("custom slug already taken")

// CreateURLInput carries the caller-supplied fields for a create request.
// The original URL is validated at the HTTP boundary, not here.
type CreateURLInput struct {
	OriginalURL  string
	CustomDomain string
	CustomSlug   string
}

// URLShortenerService orchestrates short-id resolution, collision avoidance
// and the click-analytics pipeline. Reads go through the cache store where
// noted; all cache failures degrade to direct storage access.
type URLShortenerService struct {
	storage repository.Storage
	cache   cache.Cache
	geo     geo.Resolver
	qr      qrcode.Generator
	config  *config.URLShortener
	log     *zap.Logger
}

func NewURLShortener(
	storage repository.Storage,
	cacheStore cache.Cache,
	geoResolver geo.Resolver,
	qrGenerator qrcode.Generator,
	cfg *config.URLShortener,
	log *zap.Logger,
) *URLShortenerService {
	return &URLShortenerService{
		storage: storage,
		cache:   cacheStore,
		geo:     geoResolver,
		qr:      qrGenerator,
		config:  cfg,
		log:     log,
	}
}

// CreateShortURL creates a shortened URL for input.OriginalURL, or returns
// the existing record when one was already created for the same URL. The
// owner is optional: the anonymous creation path passes nil.
func (s *URLShortenerService) CreateShortURL(ctx context.Context, input CreateURLInput, ownerID *string) (*domain.URLRecord, error) {
	// Idempotent create: one record per distinct original URL.
	existing, err := s.storage.FindByOriginalURL(ctx, input.OriginalURL)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrURLNotFound) {
		return nil, fmt.Errorf("failed to look up original url: %w", err)
	}

	custom := input.CustomSlug != ""

	shortID := input.CustomSlug
	if custom {
		exists, err := s.storage.ShortIDExists(ctx, shortID)
		if err != nil {
			return nil, fmt.Errorf("failed to check custom slug: %w", err)
		}
		if exists {
			return nil, ErrSlugTaken
		}
	} else {
		shortID, err = s.generateShortID(ctx)
		if err != nil {
			return nil, err
		}
	}

	base := s.config.BaseURL
	if input.CustomDomain != "" {
		base = input.CustomDomain
	}

	record := &domain.URLRecord{
		ShortID:     shortID,
		OriginalURL: input.OriginalURL,
		// Persisted at creation time on purpose: recomputing from the
		// base domain later would change historical URLs.
		ShortURL: fmt.Sprintf("%s/%s", base, shortID),
		OwnerID:  ownerID,
	}
	if input.CustomDomain != "" {
		record.CustomDomain = &input.CustomDomain
	}
	if custom {
		record.CustomSlug = &input.CustomSlug
	}

	for attempt := 0; ; attempt++ {
		err = s.storage.CreateURL(ctx, record)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrShortIDExists) {
			return nil, fmt.Errorf("failed to save url record: %w", err)
		}
		// Unique index caught a concurrent insert with the same id. A
		// custom slug is a caller conflict; a generated id is replaced
		// and retried.
		if custom {
			return nil, ErrSlugTaken
		}
		if attempt >= maxRetries {
			return nil, fmt.Errorf("failed to save url record: %w", err)
		}
		shortID, err = s.generateShortID(ctx)
		if err != nil {
			return nil, err
		}
		record.ShortID = shortID
		record.ShortURL = fmt.Sprintf("%s/%s", base, shortID)
	}

	s.invalidateOwnerCache(ctx, record.OwnerID)
	return record, nil
}

// ResolveAndRecordClick resolves a short id for redirecting and records the
// click: geolocation lookup, then an atomic counter increment plus
// analytics append. A geolocation failure fails the whole operation.
func (s *URLShortenerService) ResolveAndRecordClick(ctx context.Context, shortID, clientIP string, device *useragent.DeviceInfo) (*domain.URLRecord, error) {
	location, err := s.geo.Resolve(ctx, clientIP)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve client location: %w", err)
	}

	entry := &domain.AnalyticsEntry{
		Country:   location.Country,
		City:      location.Name,
		Region:    location.Region,
		Localtime: location.Localtime,
		ClientIP:  clientIP,
		Timestamp: time.Now(),
	}
	if device != nil {
		entry.DeviceType = &device.DeviceType
		entry.Browser = &device.Browser
		entry.OS = &device.OS
	}

	// Never retried on ambiguous failure: a blind retry could double
	// count the click.
	record, err := s.storage.RecordClick(ctx, shortID, entry)
	if err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			return nil, repository.ErrURLNotFound
		}
		return nil, fmt.Errorf("failed to record click: %w", err)
	}

	s.invalidateOwnerCache(ctx, record.OwnerID)
	return record, nil
}

// FindByID returns a record with its analytics entries. This path reads the
// store directly; analytics retrieval does not go through the cache.
func (s *URLShortenerService) FindByID(ctx context.Context, id int64) (*domain.URLRecord, error) {
	record, err := s.storage.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			return nil, repository.ErrURLNotFound
		}
		return nil, fmt.Errorf("failed to find url record: %w", err)
	}
	return record, nil
}

// ListByOwner returns all records created by an owner, cache-aside: the
// cached listing is served while its TTL lasts, storage is queried on miss
// and the result cached for the next call.
func (s *URLShortenerService) ListByOwner(ctx context.Context, ownerID string) ([]*domain.URLRecord, error) {
	key := ownerCacheKey(ownerID)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		var records []*domain.URLRecord
		if err := json.Unmarshal([]byte(cached), &records); err == nil {
			s.log.Debug("returning owner urls from cache", zap.String("owner_id", ownerID))
			return records, nil
		}
		s.log.Warn("failed to decode cached owner urls", zap.String("owner_id", ownerID), zap.Error(err))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("cache read failed, falling back to storage", zap.String("owner_id", ownerID), zap.Error(err))
	}

	records, err := s.storage.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list urls by owner: %w", err)
	}

	if encoded, err := json.Marshal(records); err == nil {
		if err := s.cache.Set(ctx, key, string(encoded), s.config.CacheTTL); err != nil {
			s.log.Warn("failed to cache owner urls", zap.String("owner_id", ownerID), zap.Error(err))
		}
	}

	return records, nil
}

// GetOrCreateQRCode returns the PNG QR code for a short URL, generating and
// persisting it on first access.
func (s *URLShortenerService) GetOrCreateQRCode(ctx context.Context, shortURL string) ([]byte, error) {
	record, err := s.storage.FindByShortURL(ctx, shortURL)
	if err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			return nil, repository.ErrURLNotFound
		}
		return nil, fmt.Errorf("failed to find url record: %w", err)
	}

	if record.HasQRCode() {
		return record.QRCode, nil
	}

	image, err := s.qr.Generate(record.ShortURL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate qr code: %w", err)
	}

	if err := s.storage.SaveQRCode(ctx, record.ID, image); err != nil {
		return nil, fmt.Errorf("failed to save qr code: %w", err)
	}

	s.log.Info("generated qr code", zap.String("short_url", shortURL), zap.Int("bytes", len(image)))
	s.invalidateOwnerCache(ctx, record.OwnerID)
	return image, nil
}

// RemoveURL deletes a record by storage id. Deleting an unknown id is an
// explicit not-found error.
func (s *URLShortenerService) RemoveURL(ctx context.Context, id int64) error {
	record, err := s.storage.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			return repository.ErrURLNotFound
		}
		return fmt.Errorf("failed to find url record: %w", err)
	}

	if err := s.storage.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			return repository.ErrURLNotFound
		}
		return fmt.Errorf("failed to delete url record: %w", err)
	}

	s.invalidateOwnerCache(ctx, record.OwnerID)
	return nil
}

// generateShortID produces a candidate short id that does not currently
// collide with an existing record. The storage unique index remains the
// final backstop for the check-then-create race.
func (s *URLShortenerService) generateShortID(ctx context.Context) (string, error) {
	for i := 0; i < maxRetries; i++ {
		shortID, err := random.NewRandomString(s.config.ShortIDLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate short id: %w", err)
		}

		exists, err := s.storage.ShortIDExists(ctx, shortID)
		if err != nil {
			return "", fmt.Errorf("failed to check short id existence: %w", err)
		}
		if !exists {
			return shortID, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique short id after %d attempts", maxRetries)
}

// invalidateOwnerCache drops the owner's cached listing after a mutation.
// Best effort: a failed invalidation only extends staleness up to the TTL.
func (s *URLShortenerService) invalidateOwnerCache(ctx context.Context, ownerID *string) {
	if ownerID == nil || *ownerID == "" {
		return
	}
	if err := s.cache.Delete(ctx, ownerCacheKey(*ownerID)); err != nil {
		s.log.Warn("failed to invalidate owner cache", zap.String("owner_id", *ownerID), zap.Error(err))
	}
}

func ownerCacheKey(ownerID string) string {
	return "ownerUrls_" + ownerID
}
