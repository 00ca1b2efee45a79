package database

import (
	"fmt"

	"github.com/Mikkybeardless/shortClick/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate runs automatic migrations for all domain models. Order
// matters because of the analytics foreign key.
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	models := []interface{}{
		&domain.URLRecord{},
		&domain.AnalyticsEntry{},
	}

	for _, model := range models {
		modelName := fmt.Sprintf("%T", model)
		log.Info("migrating model", zap.String("model", modelName))

		if err := db.AutoMigrate(model); err != nil {
			log.Error("failed to migrate model", zap.String("model", modelName), zap.Error(err))
			return fmt.Errorf("failed to migrate model %s: %w", modelName, err)
		}
	}

	log.Info("database auto-migration completed", zap.Int("migrated_models", len(models)))
	return nil
}
