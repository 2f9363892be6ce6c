package repository

import (
	"context"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"gorm.io/gorm"
)

// InspectionRepository inspection store access
type InspectionRepository struct {
	db *gorm.DB
}

func NewInspectionRepository(db *gorm.DB) *InspectionRepository {
	return &InspectionRepository{db: db}
}

// FindByPO returns all inspection rows for one PO.
func (r *InspectionRepository) FindByPO(ctx context.Context, poNumber string) ([]entity.Inspection, error) {
	var items []entity.Inspection
	err := r.db.WithContext(ctx).
		Where("po_number = ?", poNumber).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// FindByPOs returns inspection rows for many POs, grouped by PO number.
func (r *InspectionRepository) FindByPOs(ctx context.Context, poNumbers []string) (map[string][]entity.Inspection, error) {
	result := make(map[string][]entity.Inspection, len(poNumbers))
	if len(poNumbers) == 0 {
		return result, nil
	}

	var items []entity.Inspection
	err := r.db.WithContext(ctx).
		Where("po_number IN ?", poNumbers).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		result[item.PONumber] = append(result[item.PONumber], item)
	}
	return result, nil
}

// Create inserts one inspection row.
func (r *InspectionRepository) Create(ctx context.Context, inspection *entity.Inspection) error {
	return r.db.WithContext(ctx).Create(inspection).Error
}
