package entity

import "time"

// ActiveProjection a forecast of future demand for a vendor. Regular
// projections are keyed by SKU, make-to-order projections by collection name.
type ActiveProjection struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	VendorID string `json:"vendor_id" gorm:"size:32;not null;index"`

	SKU        string `json:"sku" gorm:"size:50;index"`
	Collection string `json:"collection" gorm:"size:100;index"`
	IsMTO      bool   `json:"is_mto" gorm:"default:false"`

	TargetYear  int `json:"target_year" gorm:"not null;index"`
	TargetMonth int `json:"target_month" gorm:"not null"` // 1-12

	ProjectedQty   int   `json:"projected_qty" gorm:"not null;default:0"`
	ProjectedValue int64 `json:"projected_value" gorm:"not null;default:0"` // cents

	MatchStatus string `json:"match_status" gorm:"size:20;default:unmatched;index"` // unmatched/matched/expired

	// Filled on match, cleared on unmatch.
	MatchedPONumber *string    `json:"matched_po_number" gorm:"size:32"`
	MatchedAt       *time.Time `json:"matched_at"`
	ActualQty       *int       `json:"actual_qty"`
	ActualValue     *int64     `json:"actual_value"` // cents
	QtyVariance     *int       `json:"qty_variance"`
	ValueVariance   *int64     `json:"value_variance"` // cents
	VariancePct     *int       `json:"variance_pct"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ActiveProjection) TableName() string {
	return "active_projections"
}

// Projection match status
const (
	MatchStatusUnmatched = "unmatched"
	MatchStatusMatched   = "matched"
	MatchStatusExpired   = "expired"
)

// TargetMonthStart returns the first day of the projection's target month.
func (p *ActiveProjection) TargetMonthStart() time.Time {
	return time.Date(p.TargetYear, time.Month(p.TargetMonth), 1, 0, 0, 0, 0, time.UTC)
}
