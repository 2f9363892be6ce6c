package repository

import (
	"context"
	"time"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"gorm.io/gorm"
)

// ShipmentAgg per-PO aggregate across split shipments.
type ShipmentAgg struct {
	PONumber string
	// Earliest delivery-to-consolidator date across all rows; nil means the
	// PO has not begun shipping.
	EarliestDelivery *time.Time
	// Sum of shipped value across all rows, cents.
	ShippedValue int64
}

// ShipmentRepository shipment store access
type ShipmentRepository struct {
	db *gorm.DB
}

func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// AggregateByPO collapses split shipments into one aggregate per PO. POs
// without any shipment row are absent from the result.
func (r *ShipmentRepository) AggregateByPO(ctx context.Context, poNumbers []string) (map[string]ShipmentAgg, error) {
	result := make(map[string]ShipmentAgg, len(poNumbers))
	if len(poNumbers) == 0 {
		return result, nil
	}

	type row struct {
		PONumber         string
		EarliestDelivery *time.Time
		ShippedValue     int64
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.Shipment{}).
		Select("po_number, MIN(delivered_to_consolidator) AS earliest_delivery, COALESCE(SUM(shipped_value), 0) AS shipped_value").
		Where("po_number IN ?", poNumbers).
		Group("po_number").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, rw := range rows {
		result[rw.PONumber] = ShipmentAgg{
			PONumber:         rw.PONumber,
			EarliestDelivery: rw.EarliestDelivery,
			ShippedValue:     rw.ShippedValue,
		}
	}
	return result, nil
}

// HasDelivery reports whether any shipment row for the PO carries a
// delivery-to-consolidator date.
func (r *ShipmentRepository) HasDelivery(ctx context.Context, poNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Shipment{}).
		Where("po_number = ? AND delivered_to_consolidator IS NOT NULL", poNumber).
		Count(&count).Error
	return count > 0, err
}

// BulkCreate inserts imported shipment rows in chunks.
func (r *ShipmentRepository) BulkCreate(ctx context.Context, shipments []entity.Shipment, chunkSize int) error {
	if len(shipments) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return r.db.WithContext(ctx).CreateInBatches(shipments, chunkSize).Error
}
