package entity

import "time"

// Vendor canonical vendor identity. Free-text vendor names on imported
// orders resolve through the vendor name plus its aliases.
type Vendor struct {
	ID   string `json:"id" gorm:"primaryKey;size:32"`
	Code string `json:"code" gorm:"size:32;uniqueIndex"`
	Name string `json:"name" gorm:"size:200;not null"`

	Country string `json:"country" gorm:"size:50"`
	Status  string `json:"status" gorm:"size:20;default:active"` // active/inactive

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Aliases []VendorAlias `json:"aliases,omitempty" gorm:"foreignKey:VendorID"`
}

func (Vendor) TableName() string {
	return "vendors"
}

// VendorAlias alternative spelling seen on imported orders.
type VendorAlias struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	VendorID string `json:"vendor_id" gorm:"size:32;not null;index"`
	Alias    string `json:"alias" gorm:"size:200;not null;index"`

	CreatedAt time.Time `json:"created_at"`
}

func (VendorAlias) TableName() string {
	return "vendor_aliases"
}
