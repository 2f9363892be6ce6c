package entity

import "time"

// Shipment one physical movement against a PO. A PO may ship in several
// splits; shipped-ness is decided across all of its rows.
type Shipment struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	PONumber string `json:"po_number" gorm:"size:32;not null;index"`

	CargoReadyDate *time.Time `json:"cargo_ready_date"`

	// The canonical "shipped" signal: goods handed to the consolidator.
	DeliveredToConsolidator *time.Time `json:"delivered_to_consolidator"`

	PTSStatus string `json:"pts_status" gorm:"size:20"` // booked/pending/confirmed

	// Cents.
	ShippedValue int64 `json:"shipped_value" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Shipment) TableName() string {
	return "shipments"
}

// PTS status
const (
	PTSStatusPending   = "pending"
	PTSStatusBooked    = "booked"
	PTSStatusConfirmed = "confirmed"
)
