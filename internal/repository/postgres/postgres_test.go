package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Mikkybeardless/shortClick/internal/domain"
	"github.com/Mikkybeardless/shortClick/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupStorage(t *testing.T) *PostgresStorage {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("shortclick_test"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&domain.URLRecord{}, &domain.AnalyticsEntry{}))

	return New(db, zap.NewNop())
}

func TestCreateURL_DuplicateShortID(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	record := &domain.URLRecord{
		ShortID:     "ab12",
		OriginalURL: "http://example.com",
		ShortURL:    "http://sho.rt/ab12",
	}
	require.NoError(t, storage.CreateURL(ctx, record))
	assert.NotZero(t, record.ID)

	duplicate := &domain.URLRecord{
		ShortID:     "ab12",
		OriginalURL: "http://other.example",
		ShortURL:    "http://sho.rt/ab12",
	}
	err := storage.CreateURL(ctx, duplicate)
	assert.ErrorIs(t, err, repository.ErrShortIDExists)
}

func TestFindByShortID(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.CreateURL(ctx, &domain.URLRecord{
		ShortID:     "ab12",
		OriginalURL: "http://example.com",
		ShortURL:    "http://sho.rt/ab12",
	}))

	found, err := storage.FindByShortID(ctx, "ab12")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", found.OriginalURL)

	_, err = storage.FindByShortID(ctx, "zz99")
	assert.ErrorIs(t, err, repository.ErrURLNotFound)
}

func TestRecordClick(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.CreateURL(ctx, &domain.URLRecord{
		ShortID:     "ab12",
		OriginalURL: "http://example.com",
		ShortURL:    "http://sho.rt/ab12",
	}))

	entry := &domain.AnalyticsEntry{
		Country:   "NG",
		City:      "Lagos",
		Region:    "LA",
		Localtime: "2024-09-01 12:00:00",
		ClientIP:  "41.58.0.1",
		Timestamp: time.Now(),
	}

	updated, err := storage.RecordClick(ctx, "ab12", entry)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.ClickCount)

	record, err := storage.FindByID(ctx, updated.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.ClickCount)
	require.Len(t, record.Analytics, 1)
	assert.Equal(t, "NG", record.Analytics[0].Country)
	assert.Equal(t, "Lagos", record.Analytics[0].City)
}

func TestRecordClick_NotFound(t *testing.T) {
	storage := setupStorage(t)

	_, err := storage.RecordClick(context.Background(), "zz99", &domain.AnalyticsEntry{
		Timestamp: time.Now(),
	})
	assert.ErrorIs(t, err, repository.ErrURLNotFound)
}

func TestRecordClick_Concurrent(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.CreateURL(ctx, &domain.URLRecord{
		ShortID:     "ab12",
		OriginalURL: "http://example.com",
		ShortURL:    "http://sho.rt/ab12",
	}))

	const clicks = 20

	var wg sync.WaitGroup
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := storage.RecordClick(ctx, "ab12", &domain.AnalyticsEntry{
				Country:   "NG",
				ClientIP:  "41.58.0.1",
				Timestamp: time.Now(),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	record, err := storage.FindByShortID(ctx, "ab12")
	require.NoError(t, err)
	assert.Equal(t, int64(clicks), record.ClickCount)

	full, err := storage.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Len(t, full.Analytics, clicks, "click count must match the number of analytics entries")
}

func TestListByOwner(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	owner := "owner-1"
	other := "owner-2"

	require.NoError(t, storage.CreateURL(ctx, &domain.URLRecord{
		ShortID: "aa11", OriginalURL: "http://one.example", ShortURL: "http://sho.rt/aa11", OwnerID: &owner,
	}))
	require.NoError(t, storage.CreateURL(ctx, &domain.URLRecord{
		ShortID: "bb22", OriginalURL: "http://two.example", ShortURL: "http://sho.rt/bb22", OwnerID: &owner,
	}))
	require.NoError(t, storage.CreateURL(ctx, &domain.URLRecord{
		ShortID: "cc33", OriginalURL: "http://three.example", ShortURL: "http://sho.rt/cc33", OwnerID: &other,
	}))

	records, err := storage.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, owner, *record.OwnerID)
	}
}

func TestSaveQRCode(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	record := &domain.URLRecord{
		ShortID:     "ab12",
		OriginalURL: "http://example.com",
		ShortURL:    "http://sho.rt/ab12",
	}
	require.NoError(t, storage.CreateURL(ctx, record))

	image := []byte{0x89, 'P', 'N', 'G'}
	require.NoError(t, storage.SaveQRCode(ctx, record.ID, image))

	found, err := storage.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, image, found.QRCode)

	err = storage.SaveQRCode(ctx, record.ID+1000, image)
	assert.ErrorIs(t, err, repository.ErrURLNotFound)
}

func TestDeleteByID(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	record := &domain.URLRecord{
		ShortID:     "ab12",
		OriginalURL: "http://example.com",
		ShortURL:    "http://sho.rt/ab12",
	}
	require.NoError(t, storage.CreateURL(ctx, record))

	_, err := storage.RecordClick(ctx, "ab12", &domain.AnalyticsEntry{Timestamp: time.Now()})
	require.NoError(t, err)

	require.NoError(t, storage.DeleteByID(ctx, record.ID))

	_, err = storage.FindByID(ctx, record.ID)
	assert.ErrorIs(t, err, repository.ErrURLNotFound)

	err = storage.DeleteByID(ctx, record.ID)
	assert.ErrorIs(t, err, repository.ErrURLNotFound)
}
