package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"gorm.io/gorm"
)

// MetricFilter scopes OTD and risk queries. Zero fields are ignored.
type MetricFilter struct {
	Merchandiser         string
	MerchandisingManager string
	Vendor               string
	Client               string
	Brand                string
	StartDate            *time.Time
	EndDate              *time.Time

	// Exclusion parameters, supplied from the engine policy.
	ExcludedProgramPrefixes []string
	FranchisePOPrefix       string
}

// PORepository purchase order store access
type PORepository struct {
	db *gorm.DB
}

func NewPORepository(db *gorm.DB) *PORepository {
	return &PORepository{db: db}
}

// FindByNumber looks a PO up by its order number.
func (r *PORepository) FindByNumber(ctx context.Context, poNumber string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).Where("po_number = ?", poNumber).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// FindForMetrics returns the orders in scope for OTD/risk calculation.
// The value/sample/franchise exclusions are applied here so excluded orders
// never reach any classifier.
func (r *PORepository) FindForMetrics(ctx context.Context, f MetricFilter) ([]entity.PurchaseOrder, error) {
	query := r.metricScope(ctx, f)

	var orders []entity.PurchaseOrder
	if err := query.Order("po_number ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PORepository) metricScope(ctx context.Context, f MetricFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Where("total_value > 0")

	for _, prefix := range f.ExcludedProgramPrefixes {
		query = query.Where("UPPER(program_description) NOT LIKE ?", prefix+"%")
	}
	if f.FranchisePOPrefix != "" {
		query = query.Where("po_number NOT LIKE ?", f.FranchisePOPrefix+"%")
	}

	if f.Merchandiser != "" {
		query = query.Where("merchandiser = ?", f.Merchandiser)
	}
	if f.MerchandisingManager != "" {
		query = query.Where("merchandising_manager = ?", f.MerchandisingManager)
	}
	if f.Vendor != "" {
		query = query.Where("vendor_id = ?", f.Vendor)
	}
	if f.Client != "" {
		query = query.Where("client = ?", f.Client)
	}
	if f.Brand != "" {
		query = query.Where("brand = ?", f.Brand)
	}

	// Date range is applied to the effective cancel date, the bucketing date
	// for every metric variant.
	if f.StartDate != nil {
		query = query.Where("COALESCE(revised_cancel_date, original_cancel_date) >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		query = query.Where("COALESCE(revised_cancel_date, original_cancel_date) <= ?", *f.EndDate)
	}

	return query
}

// BulkCreate inserts imported orders in chunks to bound per-call payload.
func (r *PORepository) BulkCreate(ctx context.Context, orders []entity.PurchaseOrder, chunkSize int) error {
	if len(orders) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return r.db.WithContext(ctx).CreateInBatches(orders, chunkSize).Error
}

// Update persists header changes.
func (r *PORepository) Update(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Save(po).Error
}
