package entity

import "time"

// PoTask derived or manually created action item scoped to a PO.
type PoTask struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	PONumber string `json:"po_number" gorm:"size:32;not null;index"`

	Source string `json:"source" gorm:"size:20;not null"` // compliance/inspection/shipment/timeline/manual
	Title  string `json:"title" gorm:"size:300;not null"`
	Notes  string `json:"notes" gorm:"type:text"`

	Priority string     `json:"priority" gorm:"size:20;default:normal"` // normal/high/urgent
	DueDate  *time.Time `json:"due_date"`

	Status      string     `json:"status" gorm:"size:20;default:open;index"` // open/completed
	CompletedBy *string    `json:"completed_by" gorm:"size:32"`
	CompletedAt *time.Time `json:"completed_at"`

	// Regeneration deletes open auto-generated tasks and recomputes them;
	// manual tasks are never touched.
	AutoGenerated bool `json:"auto_generated" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PoTask) TableName() string {
	return "po_tasks"
}

// Task source
const (
	TaskSourceCompliance = "compliance"
	TaskSourceInspection = "inspection"
	TaskSourceShipment   = "shipment"
	TaskSourceTimeline   = "timeline"
	TaskSourceManual     = "manual"
)

// Task priority
const (
	TaskPriorityNormal = "normal"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// Task status
const (
	TaskStatusOpen      = "open"
	TaskStatusCompleted = "completed"
)
