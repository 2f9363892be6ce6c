package repository

import (
	"context"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"gorm.io/gorm"
)

// ComplianceRepository compliance record store access
type ComplianceRepository struct {
	db *gorm.DB
}

func NewComplianceRepository(db *gorm.DB) *ComplianceRepository {
	return &ComplianceRepository{db: db}
}

// FindBySKU returns all compliance rows for one SKU.
func (r *ComplianceRepository) FindBySKU(ctx context.Context, sku string) ([]entity.ComplianceRecord, error) {
	var items []entity.ComplianceRecord
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// PassingSKUs reports which of the given SKUs have a passing test on file.
func (r *ComplianceRepository) PassingSKUs(ctx context.Context, skus []string) (map[string]bool, error) {
	result := make(map[string]bool, len(skus))
	if len(skus) == 0 {
		return result, nil
	}

	var passing []string
	err := r.db.WithContext(ctx).
		Model(&entity.ComplianceRecord{}).
		Distinct("sku").
		Where("sku IN ? AND result = ? AND mandatory_test_status = ?",
			skus, entity.ComplianceResultPassed, entity.TestStatusValid).
		Pluck("sku", &passing).Error
	if err != nil {
		return nil, err
	}

	for _, sku := range passing {
		result[sku] = true
	}
	return result, nil
}

// Create inserts one compliance row.
func (r *ComplianceRepository) Create(ctx context.Context, record *entity.ComplianceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}
