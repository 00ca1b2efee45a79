package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Mikkybeardless/shortClick/internal/domain"
	"github.com/Mikkybeardless/shortClick/internal/repository"
)

// MemStorage is an in-memory Storage implementation. It backs unit tests
// and redis-less development setups; all operations are guarded by a single
// mutex, which gives RecordClick the same atomicity as the SQL transaction.
type MemStorage struct {
	mu        sync.RWMutex
	byShortID map[string]*domain.URLRecord
	idCounter int64
}

func New() *MemStorage {
	return &MemStorage{
		byShortID: make(map[string]*domain.URLRecord),
	}
}

func (s *MemStorage) CreateURL(_ context.Context, record *domain.URLRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byShortID[record.ShortID]; exists {
		return repository.ErrShortIDExists
	}

	s.idCounter++
	record.ID = s.idCounter
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	record.UpdatedAt = record.CreatedAt
	s.byShortID[record.ShortID] = record
	return nil
}

func (s *MemStorage) FindByOriginalURL(_ context.Context, originalURL string) (*domain.URLRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.byShortID {
		if record.OriginalURL == originalURL {
			return record, nil
		}
	}
	return nil, repository.ErrURLNotFound
}

func (s *MemStorage) FindByShortID(_ context.Context, shortID string) (*domain.URLRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byShortID[shortID]
	if !ok {
		return nil, repository.ErrURLNotFound
	}
	return record, nil
}

func (s *MemStorage) FindByShortURL(_ context.Context, shortURL string) (*domain.URLRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.byShortID {
		if record.ShortURL == shortURL {
			return record, nil
		}
	}
	return nil, repository.ErrURLNotFound
}

func (s *MemStorage) FindByID(_ context.Context, id int64) (*domain.URLRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.byShortID {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, repository.ErrURLNotFound
}

func (s *MemStorage) ShortIDExists(_ context.Context, shortID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byShortID[shortID]
	return ok, nil
}

func (s *MemStorage) ListByOwner(_ context.Context, ownerID string) ([]*domain.URLRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*domain.URLRecord
	for _, record := range s.byShortID {
		if record.OwnerID != nil && *record.OwnerID == ownerID {
			records = append(records, record)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *MemStorage) RecordClick(_ context.Context, shortID string, entry *domain.AnalyticsEntry) (*domain.URLRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byShortID[shortID]
	if !ok {
		return nil, repository.ErrURLNotFound
	}

	// Increment and append under the same lock so the counter always
	// matches the number of entries.
	record.ClickCount++
	entry.URLRecordID = record.ID
	entry.ID = record.ClickCount
	record.Analytics = append(record.Analytics, *entry)
	record.UpdatedAt = time.Now()

	return record, nil
}

func (s *MemStorage) SaveQRCode(_ context.Context, id int64, image []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.byShortID {
		if record.ID == id {
			record.QRCode = image
			record.UpdatedAt = time.Now()
			return nil
		}
	}
	return repository.ErrURLNotFound
}

func (s *MemStorage) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for shortID, record := range s.byShortID {
		if record.ID == id {
			delete(s.byShortID, shortID)
			return nil
		}
	}
	return repository.ErrURLNotFound
}
