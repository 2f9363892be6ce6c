package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hemline/merchtrack/internal/engine/entity"
	"github.com/hemline/merchtrack/internal/engine/policy"
	"github.com/hemline/merchtrack/internal/engine/repository"
	"go.uber.org/zap"
)

// BatchGenerateResult per-PO outcome of a batch regeneration. A PO's failure
// never stops the batch.
type BatchGenerateResult struct {
	Counts map[string]int    `json:"counts"`
	Errors map[string]string `json:"errors,omitempty"`
}

// TaskService derives outstanding-action checklists for POs.
type TaskService struct {
	pol            policy.Policy
	poRepo         *repository.PORepository
	inspectionRepo *repository.InspectionRepository
	complianceRepo *repository.ComplianceRepository
	taskRepo       *repository.TaskRepository
	logger         *zap.Logger
}

func NewTaskService(pol policy.Policy, repos *repository.Repositories, logger *zap.Logger) *TaskService {
	return &TaskService{
		pol:            pol,
		poRepo:         repos.PO,
		inspectionRepo: repos.Inspection,
		complianceRepo: repos.Compliance,
		taskRepo:       repos.Task,
		logger:         logger,
	}
}

// Generate recomputes the auto-generated task checklist for one PO. Open
// auto-generated tasks are replaced; manual and completed tasks survive, so
// regeneration is idempotent against unchanged data.
func (s *TaskService) Generate(ctx context.Context, poNumber string) ([]entity.PoTask, error) {
	po, err := s.poRepo.FindByNumber(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	inspections, err := s.inspectionRepo.FindByPO(ctx, poNumber)
	if err != nil {
		return nil, err
	}
	var compliance []entity.ComplianceRecord
	if po.SKU != "" {
		compliance, err = s.complianceRepo.FindBySKU(ctx, po.SKU)
		if err != nil {
			return nil, err
		}
	}

	tasks := s.deriveTasks(po, inspections, compliance, time.Now())
	if err := s.taskRepo.ReplaceGenerated(ctx, poNumber, tasks); err != nil {
		return nil, fmt.Errorf("replace generated tasks: %w", err)
	}
	return tasks, nil
}

// GenerateBatch regenerates tasks for many POs, each independently; per-PO
// errors are collected and the rest of the batch still runs.
func (s *TaskService) GenerateBatch(ctx context.Context, poNumbers []string) *BatchGenerateResult {
	result := &BatchGenerateResult{
		Counts: make(map[string]int, len(poNumbers)),
		Errors: make(map[string]string),
	}
	for _, poNumber := range poNumbers {
		tasks, err := s.Generate(ctx, poNumber)
		if err != nil {
			s.logger.Warn("task regeneration failed",
				zap.String("po_number", poNumber),
				zap.Error(err),
			)
			result.Errors[poNumber] = err.Error()
			continue
		}
		result.Counts[poNumber] = len(tasks)
	}
	return result
}

// deriveTasks is the rule set: a pure function of the PO's current header,
// inspections and compliance records. Each rule produces zero or one task.
func (s *TaskService) deriveTasks(po *entity.PurchaseOrder, inspections []entity.Inspection, compliance []entity.ComplianceRecord, now time.Time) []entity.PoTask {
	// Nothing outstanding for orders out of the active lifecycle.
	if po.IsTerminal() {
		return nil
	}

	var tasks []entity.PoTask
	add := func(source, title, priority string, due *time.Time) {
		tasks = append(tasks, entity.PoTask{
			ID:            uuid.New().String()[:32],
			PONumber:      po.PONumber,
			Source:        source,
			Title:         title,
			Priority:      priority,
			DueDate:       due,
			Status:        entity.TaskStatusOpen,
			AutoGenerated: true,
		})
	}
	today := dateOnly(now)

	// Inspection booking rules need an original ship date to anchor on.
	if ship := po.OriginalShipDate; ship != nil {
		if !hasInspection(inspections, entity.InspectionTypeInitial) {
			due := dateOnly(*ship).AddDate(0, 0, -s.pol.InitialInspectionLead)
			add(entity.TaskSourceInspection, "Book initial inspection", entity.TaskPriorityHigh, &due)
		}
		if !hasInspection(inspections, entity.InspectionTypeInline) {
			due := dateOnly(*ship).AddDate(0, 0, -s.pol.InlineInspectionLead)
			add(entity.TaskSourceInspection, "Book inline inspection", entity.TaskPriorityHigh, &due)
		}
		if !hasInspection(inspections, entity.InspectionTypeFinal) {
			due := dateOnly(*ship).AddDate(0, 0, -s.pol.FinalInspectionLead)
			add(entity.TaskSourceInspection, "Book final inspection", entity.TaskPriorityUrgent, &due)
		}
	}

	for _, inspection := range inspections {
		if inspection.Result == entity.InspectionResultFailed {
			add(entity.TaskSourceInspection,
				fmt.Sprintf("Follow up failed %s inspection %s", inspection.Type, inspection.ID),
				entity.TaskPriorityUrgent, &today)
		}
	}

	for _, record := range compliance {
		due := today
		if record.ExpiresAt != nil {
			due = dateOnly(*record.ExpiresAt)
		}
		if record.MandatoryTestStatus == entity.TestStatusExpired || record.MandatoryTestStatus == entity.TestStatusOutstanding {
			add(entity.TaskSourceCompliance,
				fmt.Sprintf("Resolve %s mandatory test for %s", record.MandatoryTestStatus, record.SKU),
				entity.TaskPriorityUrgent, &due)
		}
		if record.PerformanceTestStatus == entity.TestStatusExpired || record.PerformanceTestStatus == entity.TestStatusOutstanding {
			add(entity.TaskSourceCompliance,
				fmt.Sprintf("Resolve %s performance test for %s", record.PerformanceTestStatus, record.SKU),
				entity.TaskPriorityHigh, &due)
		}
	}

	if po.PTSNumber == nil && po.OriginalShipDate != nil {
		if pastDay(*po.OriginalShipDate, now) {
			add(entity.TaskSourceTimeline, "Shipment overdue: no PTS booking on file", entity.TaskPriorityUrgent, &today)
		} else {
			due := dateOnly(*po.OriginalShipDate).AddDate(0, 0, -s.pol.ShipmentBookingLead)
			add(entity.TaskSourceShipment, "Book shipment with forwarder", entity.TaskPriorityHigh, &due)
		}
	}

	return tasks
}

// ListByPO lists a PO's tasks, open first.
func (s *TaskService) ListByPO(ctx context.Context, poNumber string) ([]entity.PoTask, error) {
	return s.taskRepo.FindByPO(ctx, poNumber)
}

// CreateManualRequest manual task payload.
type CreateManualRequest struct {
	PONumber string     `json:"po_number" binding:"required"`
	Title    string     `json:"title" binding:"required"`
	Notes    string     `json:"notes"`
	Priority string     `json:"priority"`
	DueDate  *time.Time `json:"due_date"`
}

// CreateManual records a manually raised task; regeneration never touches it.
func (s *TaskService) CreateManual(ctx context.Context, req *CreateManualRequest) (*entity.PoTask, error) {
	if _, err := s.poRepo.FindByNumber(ctx, req.PONumber); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = entity.TaskPriorityNormal
	}
	task := &entity.PoTask{
		ID:            uuid.New().String()[:32],
		PONumber:      req.PONumber,
		Source:        entity.TaskSourceManual,
		Title:         req.Title,
		Notes:         req.Notes,
		Priority:      priority,
		DueDate:       req.DueDate,
		Status:        entity.TaskStatusOpen,
		AutoGenerated: false,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Complete marks a task done with completer and timestamp.
func (s *TaskService) Complete(ctx context.Context, id, userID string) (*entity.PoTask, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status == entity.TaskStatusCompleted {
		return task, nil
	}

	now := time.Now()
	task.Status = entity.TaskStatusCompleted
	task.CompletedBy = &userID
	task.CompletedAt = &now
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Reopen reverses a completion.
func (s *TaskService) Reopen(ctx context.Context, id string) (*entity.PoTask, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status == entity.TaskStatusOpen {
		return task, nil
	}

	task.Status = entity.TaskStatusOpen
	task.CompletedBy = nil
	task.CompletedAt = nil
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}
