package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories engine repository set
type Repositories struct {
	PO         *PORepository
	Shipment   *ShipmentRepository
	Inspection *InspectionRepository
	Compliance *ComplianceRepository
	Projection *ProjectionRepository
	Task       *TaskRepository
	Vendor     *VendorRepository
}

// NewRepositories creates the engine repository set.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		PO:         NewPORepository(db),
		Shipment:   NewShipmentRepository(db),
		Inspection: NewInspectionRepository(db),
		Compliance: NewComplianceRepository(db),
		Projection: NewProjectionRepository(db),
		Task:       NewTaskRepository(db),
		Vendor:     NewVendorRepository(db),
	}
}
