package repository

import (
	"context"
	"errors"

	"github.com/Mikkybeardless/shortClick/internal/domain"
)

var (
	ErrURLNotFound   = errors.New("url not found")
	ErrShortIDExists = errors.New("short id already exists")
)

// Storage is the persistence contract for URL records. The click path is
// the only operation with a hard atomicity requirement: RecordClick must
// increment the counter and append the analytics entry in one atomic
// operation so concurrent redirects never lose an update.
type Storage interface {
	// CreateURL inserts a new record. Returns ErrShortIDExists when the
	// short id violates the uniqueness constraint.
	CreateURL(ctx context.Context, record *domain.URLRecord) error

	FindByOriginalURL(ctx context.Context, originalURL string) (*domain.URLRecord, error)
	FindByShortID(ctx context.Context, shortID string) (*domain.URLRecord, error)
	FindByShortURL(ctx context.Context, shortURL string) (*domain.URLRecord, error)
	FindByID(ctx context.Context, id int64) (*domain.URLRecord, error)
	ShortIDExists(ctx context.Context, shortID string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.URLRecord, error)

	// RecordClick atomically increments the click count of the record
	// matching shortID and appends entry to its analytics. Returns the
	// record as of after the increment.
	RecordClick(ctx context.Context, shortID string, entry *domain.AnalyticsEntry) (*domain.URLRecord, error)

	SaveQRCode(ctx context.Context, id int64, image []byte) error
	DeleteByID(ctx context.Context, id int64) error
}
