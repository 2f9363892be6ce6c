package repository

import (
	"context"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"gorm.io/gorm"
)

// VendorRepository vendor store access
type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// FindAllWithAliases returns every vendor with its alias rows preloaded, the
// raw material for the name resolution index.
func (r *VendorRepository) FindAllWithAliases(ctx context.Context) ([]entity.Vendor, error) {
	var vendors []entity.Vendor
	err := r.db.WithContext(ctx).
		Preload("Aliases").
		Find(&vendors).Error
	return vendors, err
}

// Create inserts one vendor.
func (r *VendorRepository) Create(ctx context.Context, vendor *entity.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

// AddAlias records an alternative spelling for a vendor.
func (r *VendorRepository) AddAlias(ctx context.Context, alias *entity.VendorAlias) error {
	return r.db.WithContext(ctx).Create(alias).Error
}
