package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mikkybeardless/shortClick/internal/domain"
	"github.com/Mikkybeardless/shortClick/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostgresStorage implements the Storage interface for PostgreSQL.
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New creates a new PostgreSQL storage instance.
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// CreateURL inserts a new URL record. A uniqueness violation on short_id is
// translated to repository.ErrShortIDExists so the caller can regenerate;
// the unique index is the final backstop for the check-then-create race.
func (s *PostgresStorage) CreateURL(ctx context.Context, record *domain.URLRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrShortIDExists
		}
		s.log.Error("failed to create url record", zap.String("short_id", record.ShortID), zap.Error(err))
		return fmt.Errorf("failed to create url record: %w", err)
	}

	s.log.Info("created url record",
		zap.String("short_id", record.ShortID),
		zap.String("short_url", record.ShortURL))
	return nil
}

// FindByOriginalURL returns the record for the given original URL, if any.
// Used by the idempotent-create path.
func (s *PostgresStorage) FindByOriginalURL(ctx context.Context, originalURL string) (*domain.URLRecord, error) {
	return s.findOne(ctx, "original_url = ?", originalURL)
}

// FindByShortID returns the record matching the given short id.
func (s *PostgresStorage) FindByShortID(ctx context.Context, shortID string) (*domain.URLRecord, error) {
	return s.findOne(ctx, "short_id = ?", shortID)
}

// FindByShortURL returns the record matching the given full short URL.
func (s *PostgresStorage) FindByShortURL(ctx context.Context, shortURL string) (*domain.URLRecord, error) {
	return s.findOne(ctx, "short_url = ?", shortURL)
}

// FindByID returns the record with the given storage id, analytics included.
func (s *PostgresStorage) FindByID(ctx context.Context, id int64) (*domain.URLRecord, error) {
	var record domain.URLRecord

	err := s.db.WithContext(ctx).Preload("Analytics").First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrURLNotFound
	}
	if err != nil {
		s.log.Error("failed to find url record by id", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to find url record: %w", err)
	}

	return &record, nil
}

// ShortIDExists reports whether a record with the given short id exists.
func (s *PostgresStorage) ShortIDExists(ctx context.Context, shortID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.URLRecord{}).Where("short_id = ?", shortID).Count(&count).Error
	if err != nil {
		s.log.Error("failed to check short id existence", zap.String("short_id", shortID), zap.Error(err))
		return false, fmt.Errorf("failed to check short id: %w", err)
	}

	return count > 0, nil
}

// ListByOwner returns all records created by the given owner, newest first.
func (s *PostgresStorage) ListByOwner(ctx context.Context, ownerID string) ([]*domain.URLRecord, error) {
	var records []*domain.URLRecord

	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).
		Order("created_at DESC").Find(&records).Error
	if err != nil {
		s.log.Error("failed to list urls by owner", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list urls by owner: %w", err)
	}

	return records, nil
}

// RecordClick increments the click counter and appends the analytics entry
// in a single transaction. The counter update takes a row lock on the
// record, so concurrent redirects against the same short id serialize and
// click_count always equals the number of analytics entries.
func (s *PostgresStorage) RecordClick(ctx context.Context, shortID string, entry *domain.AnalyticsEntry) (*domain.URLRecord, error) {
	var record domain.URLRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.URLRecord{}).
			Where("short_id = ?", shortID).
			UpdateColumn("click_count", gorm.Expr("click_count + 1"))
		if result.Error != nil {
			return fmt.Errorf("failed to increment click count: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return repository.ErrURLNotFound
		}

		if err := tx.Where("short_id = ?", shortID).First(&record).Error; err != nil {
			return fmt.Errorf("failed to reload url record: %w", err)
		}

		entry.URLRecordID = record.ID
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to create analytics entry: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			return nil, repository.ErrURLNotFound
		}
		s.log.Error("failed to record click", zap.String("short_id", shortID), zap.Error(err))
		return nil, err
	}

	s.log.Info("recorded click",
		zap.String("short_id", shortID),
		zap.Int64("click_count", record.ClickCount),
		zap.String("country", entry.Country))
	return &record, nil
}

// SaveQRCode persists a generated QR code image onto the record.
func (s *PostgresStorage) SaveQRCode(ctx context.Context, id int64, image []byte) error {
	result := s.db.WithContext(ctx).Model(&domain.URLRecord{}).
		Where("id = ?", id).
		UpdateColumn("qr_code", image)
	if result.Error != nil {
		s.log.Error("failed to save qr code", zap.Int64("id", id), zap.Error(result.Error))
		return fmt.Errorf("failed to save qr code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrURLNotFound
	}

	return nil
}

// DeleteByID removes the record and its analytics entries.
func (s *PostgresStorage) DeleteByID(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("url_record_id = ?", id).Delete(&domain.AnalyticsEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete analytics entries: %w", err)
		}

		result := tx.Delete(&domain.URLRecord{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete url record: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return repository.ErrURLNotFound
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			return repository.ErrURLNotFound
		}
		s.log.Error("failed to delete url record", zap.Int64("id", id), zap.Error(err))
		return err
	}

	s.log.Info("deleted url record", zap.Int64("id", id))
	return nil
}

func (s *PostgresStorage) findOne(ctx context.Context, query string, arg interface{}) (*domain.URLRecord, error) {
	var record domain.URLRecord

	err := s.db.WithContext(ctx).Where(query, arg).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrURLNotFound
	}
	if err != nil {
		s.log.Error("failed to find url record", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("failed to find url record: %w", err)
	}

	return &record, nil
}
