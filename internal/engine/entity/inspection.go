package entity

import "time"

// Inspection typed quality check against a PO. Multiple rows may exist per
// PO per type: "booked" means any row exists, "passed" means any row passed.
type Inspection struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	PONumber string `json:"po_number" gorm:"size:32;not null;index"`

	Type   string `json:"type" gorm:"size:20;not null"` // initial/inline/final
	Result string `json:"result" gorm:"size:20"`        // passed/failed/pending

	InspectedAt *time.Time `json:"inspected_at"`
	Inspector   string     `json:"inspector" gorm:"size:100"`
	Notes       string     `json:"notes" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Inspection) TableName() string {
	return "inspections"
}

// Inspection type
const (
	InspectionTypeInitial = "initial"
	InspectionTypeInline  = "inline"
	InspectionTypeFinal   = "final"
)

// Inspection result
const (
	InspectionResultPassed  = "passed"
	InspectionResultFailed  = "failed"
	InspectionResultPending = "pending"
)

// ComplianceRecord SKU-scoped certification record, independent of PO-level
// inspections.
type ComplianceRecord struct {
	ID  string `json:"id" gorm:"primaryKey;size:32"`
	SKU string `json:"sku" gorm:"size:50;not null;index"`

	Result string `json:"result" gorm:"size:20"` // passed/failed

	MandatoryTestStatus   string `json:"mandatory_test_status" gorm:"size:20;default:outstanding"`   // valid/expired/outstanding
	PerformanceTestStatus string `json:"performance_test_status" gorm:"size:20;default:outstanding"` // valid/expired/outstanding

	TestedAt  *time.Time `json:"tested_at"`
	ExpiresAt *time.Time `json:"expires_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ComplianceRecord) TableName() string {
	return "compliance_records"
}

// Compliance test status
const (
	TestStatusValid       = "valid"
	TestStatusExpired     = "expired"
	TestStatusOutstanding = "outstanding"
)

// Compliance result
const (
	ComplianceResultPassed = "passed"
	ComplianceResultFailed = "failed"
)

// IsPassing reports whether the record counts as a passing QA test on file.
func (c *ComplianceRecord) IsPassing() bool {
	return c.Result == ComplianceResultPassed && c.MandatoryTestStatus == TestStatusValid
}
