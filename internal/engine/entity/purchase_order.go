package entity

import "time"

// PurchaseOrder merchandising purchase order header
type PurchaseOrder struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	PONumber string `json:"po_number" gorm:"size:32;uniqueIndex;not null"`

	// Vendor identity: raw name as imported, resolved ID once reconciled.
	VendorID   *string `json:"vendor_id" gorm:"size:32;index"`
	VendorName string  `json:"vendor_name" gorm:"size:200"`

	Client               string `json:"client" gorm:"size:100;index"`
	Brand                string `json:"brand" gorm:"size:100;index"`
	Merchandiser         string `json:"merchandiser" gorm:"size:100;index"`
	MerchandisingManager string `json:"merchandising_manager" gorm:"size:100;index"`

	SKU                string `json:"sku" gorm:"size:50;index"`
	ProgramDescription string `json:"program_description" gorm:"size:500"`

	// Money in cents.
	TotalValue int64 `json:"total_value" gorm:"not null;default:0"`
	OrderQty   int   `json:"order_qty" gorm:"not null;default:0"`

	OrderDate          *time.Time `json:"order_date"`
	OriginalShipDate   *time.Time `json:"original_ship_date"`
	RevisedShipDate    *time.Time `json:"revised_ship_date"`
	OriginalCancelDate *time.Time `json:"original_cancel_date"`
	RevisedCancelDate  *time.Time `json:"revised_cancel_date"`

	Status         string `json:"status" gorm:"size:20;default:open;index"`         // open/in_production/shipped/closed/cancelled
	ShipmentStatus string `json:"shipment_status" gorm:"size:20;default:pending"`   // on_time/late/pending, written by the logistics subsystem
	RevisedCause   string `json:"revised_cause" gorm:"size:20"`                     // vendor/client/forwarder
	LateCause      string `json:"late_cause" gorm:"size:50"`

	// Logistics booking reference; nil until the shipment is booked.
	PTSNumber *string `json:"pts_number" gorm:"size:50"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Shipments []Shipment `json:"shipments,omitempty" gorm:"foreignKey:PONumber;references:PONumber"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// PO lifecycle status
const (
	POStatusOpen         = "open"
	POStatusInProduction = "in_production"
	POStatusShipped      = "shipped"
	POStatusClosed       = "closed"
	POStatusCancelled    = "cancelled"
)

// External shipment status
const (
	ShipmentStatusOnTime  = "on_time"
	ShipmentStatusLate    = "late"
	ShipmentStatusPending = "pending"
)

// Revision cause
const (
	RevisedCauseVendor    = "vendor"
	RevisedCauseClient    = "client"
	RevisedCauseForwarder = "forwarder"
)

// EffectiveCancelDate returns the revised cancel date, falling back to the
// original when no revision was recorded.
func (p *PurchaseOrder) EffectiveCancelDate() *time.Time {
	if p.RevisedCancelDate != nil {
		return p.RevisedCancelDate
	}
	return p.OriginalCancelDate
}

// HandOverDate is the revised ship date, the reference point for the
// inspection risk windows.
func (p *PurchaseOrder) HandOverDate() *time.Time {
	if p.RevisedShipDate != nil {
		return p.RevisedShipDate
	}
	return p.OriginalShipDate
}

// IsTerminal reports whether the order has left the active lifecycle.
func (p *PurchaseOrder) IsTerminal() bool {
	return p.Status == POStatusShipped || p.Status == POStatusClosed || p.Status == POStatusCancelled
}
