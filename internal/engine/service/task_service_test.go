package service

import (
	"strings"
	"testing"
	"time"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"github.com/hemline/merchtrack/internal/engine/policy"
	"github.com/hemline/merchtrack/internal/engine/repository"
	"go.uber.org/zap"
)

func newTaskService() *TaskService {
	return NewTaskService(policy.Default(), &repository.Repositories{}, zap.NewNop())
}

func strPtr(s string) *string { return &s }

var taskNow = day(2026, time.March, 15)

func countBySource(tasks []entity.PoTask, source string) int {
	n := 0
	for _, task := range tasks {
		if task.Source == source {
			n++
		}
	}
	return n
}

func findByTitle(tasks []entity.PoTask, fragment string) *entity.PoTask {
	for i := range tasks {
		if strings.Contains(tasks[i].Title, fragment) {
			return &tasks[i]
		}
	}
	return nil
}

func TestDeriveTasksTerminalPO(t *testing.T) {
	svc := newTaskService()

	for _, status := range []string{entity.POStatusShipped, entity.POStatusClosed, entity.POStatusCancelled} {
		po := &entity.PurchaseOrder{
			PONumber:         "PO-3001",
			Status:           status,
			OriginalShipDate: dayPtr(2026, time.June, 1),
		}
		if tasks := svc.deriveTasks(po, nil, nil, taskNow); tasks != nil {
			t.Errorf("status %s: derived %d tasks, want none", status, len(tasks))
		}
	}
}

func TestDeriveTasksInspectionBookings(t *testing.T) {
	svc := newTaskService()

	// Nothing booked, ship date two months out: all three booking tasks,
	// each due its lead ahead of the ship date. No PTS yet, so a shipment
	// booking task joins them.
	po := &entity.PurchaseOrder{
		PONumber:         "PO-3002",
		Status:           entity.POStatusInProduction,
		OriginalShipDate: dayPtr(2026, time.June, 1),
	}

	tasks := svc.deriveTasks(po, nil, nil, taskNow)
	if len(tasks) != 4 {
		t.Fatalf("derived %d tasks, want 4", len(tasks))
	}
	if got := countBySource(tasks, entity.TaskSourceInspection); got != 3 {
		t.Fatalf("inspection tasks = %d, want 3", got)
	}

	cases := []struct {
		fragment string
		due      time.Time
		priority string
	}{
		{"initial inspection", day(2026, time.April, 17), entity.TaskPriorityHigh},  // -45
		{"inline inspection", day(2026, time.May, 2), entity.TaskPriorityHigh},      // -30
		{"final inspection", day(2026, time.May, 18), entity.TaskPriorityUrgent},    // -14
		{"shipment with forwarder", day(2026, time.May, 11), entity.TaskPriorityHigh}, // -21
	}
	for _, tc := range cases {
		task := findByTitle(tasks, tc.fragment)
		if task == nil {
			t.Fatalf("no task matching %q", tc.fragment)
		}
		if task.DueDate == nil || !task.DueDate.Equal(tc.due) {
			t.Errorf("%q due = %v, want %v", tc.fragment, task.DueDate, tc.due)
		}
		if task.Priority != tc.priority {
			t.Errorf("%q priority = %s, want %s", tc.fragment, task.Priority, tc.priority)
		}
		if !task.AutoGenerated || task.Status != entity.TaskStatusOpen {
			t.Errorf("%q not an open auto-generated task", tc.fragment)
		}
	}
}

func TestDeriveTasksBookedInspectionsSuppressed(t *testing.T) {
	svc := newTaskService()

	po := &entity.PurchaseOrder{
		PONumber:         "PO-3003",
		Status:           entity.POStatusInProduction,
		OriginalShipDate: dayPtr(2026, time.June, 1),
		PTSNumber:        strPtr("PTS-88"),
	}
	// A pending inspection still counts as booked.
	inspections := []entity.Inspection{
		{ID: "ins-1", PONumber: "PO-3003", Type: entity.InspectionTypeInitial, Result: entity.InspectionResultPassed},
		{ID: "ins-2", PONumber: "PO-3003", Type: entity.InspectionTypeInline, Result: entity.InspectionResultPending},
		{ID: "ins-3", PONumber: "PO-3003", Type: entity.InspectionTypeFinal, Result: entity.InspectionResultPending},
	}

	if tasks := svc.deriveTasks(po, inspections, nil, taskNow); len(tasks) != 0 {
		t.Fatalf("derived %d tasks, want none: %+v", len(tasks), tasks)
	}
}

func TestDeriveTasksFailedInspectionFollowUp(t *testing.T) {
	svc := newTaskService()

	po := &entity.PurchaseOrder{
		PONumber:         "PO-3004",
		Status:           entity.POStatusInProduction,
		OriginalShipDate: dayPtr(2026, time.June, 1),
		PTSNumber:        strPtr("PTS-89"),
	}
	inspections := []entity.Inspection{
		{ID: "ins-9", PONumber: "PO-3004", Type: entity.InspectionTypeFinal, Result: entity.InspectionResultFailed},
		{ID: "ins-8", PONumber: "PO-3004", Type: entity.InspectionTypeInitial, Result: entity.InspectionResultPassed},
		{ID: "ins-7", PONumber: "PO-3004", Type: entity.InspectionTypeInline, Result: entity.InspectionResultPassed},
	}

	tasks := svc.deriveTasks(po, inspections, nil, taskNow)
	if len(tasks) != 1 {
		t.Fatalf("derived %d tasks, want 1", len(tasks))
	}
	task := tasks[0]
	if task.Priority != entity.TaskPriorityUrgent || !strings.Contains(task.Title, "failed final inspection") {
		t.Fatalf("task = %+v", task)
	}
	if task.DueDate == nil || !task.DueDate.Equal(taskNow) {
		t.Fatalf("follow-up due = %v, want today", task.DueDate)
	}
}

func TestDeriveTasksCompliance(t *testing.T) {
	svc := newTaskService()

	po := &entity.PurchaseOrder{
		PONumber:  "PO-3005",
		SKU:       "ABC123",
		Status:    entity.POStatusInProduction,
		PTSNumber: strPtr("PTS-90"),
	}
	expiry := dayPtr(2026, time.April, 1)
	compliance := []entity.ComplianceRecord{
		{
			ID: "cr-1", SKU: "ABC123",
			MandatoryTestStatus:   entity.TestStatusExpired,
			PerformanceTestStatus: entity.TestStatusOutstanding,
			ExpiresAt:             expiry,
		},
		{
			ID: "cr-2", SKU: "ABC123",
			MandatoryTestStatus:   entity.TestStatusValid,
			PerformanceTestStatus: entity.TestStatusValid,
		},
	}

	tasks := svc.deriveTasks(po, nil, compliance, taskNow)
	if got := countBySource(tasks, entity.TaskSourceCompliance); got != 2 {
		t.Fatalf("compliance tasks = %d, want 2", got)
	}

	mandatory := findByTitle(tasks, "mandatory test")
	if mandatory == nil || mandatory.Priority != entity.TaskPriorityUrgent {
		t.Fatalf("mandatory task = %+v", mandatory)
	}
	if mandatory.DueDate == nil || !mandatory.DueDate.Equal(*expiry) {
		t.Fatalf("mandatory due = %v, want expiry", mandatory.DueDate)
	}
	performance := findByTitle(tasks, "performance test")
	if performance == nil || performance.Priority != entity.TaskPriorityHigh {
		t.Fatalf("performance task = %+v", performance)
	}
}

func TestDeriveTasksOverdueShipment(t *testing.T) {
	svc := newTaskService()

	// Ship date already past and no PTS booking: the timeline rule replaces
	// the forward-looking shipment booking rule.
	po := &entity.PurchaseOrder{
		PONumber:         "PO-3006",
		Status:           entity.POStatusInProduction,
		OriginalShipDate: dayPtr(2026, time.March, 1),
	}
	inspections := []entity.Inspection{
		{ID: "ins-1", PONumber: "PO-3006", Type: entity.InspectionTypeInitial, Result: entity.InspectionResultPassed},
		{ID: "ins-2", PONumber: "PO-3006", Type: entity.InspectionTypeInline, Result: entity.InspectionResultPassed},
		{ID: "ins-3", PONumber: "PO-3006", Type: entity.InspectionTypeFinal, Result: entity.InspectionResultPassed},
	}

	tasks := svc.deriveTasks(po, inspections, nil, taskNow)
	if len(tasks) != 1 {
		t.Fatalf("derived %d tasks, want 1", len(tasks))
	}
	task := tasks[0]
	if task.Source != entity.TaskSourceTimeline || task.Priority != entity.TaskPriorityUrgent {
		t.Fatalf("task = %+v", task)
	}
	if countBySource(tasks, entity.TaskSourceShipment) != 0 {
		t.Fatal("shipment booking task must not coexist with the overdue task")
	}
}

func TestDeriveTasksStableAcrossRuns(t *testing.T) {
	svc := newTaskService()

	po := &entity.PurchaseOrder{
		PONumber:         "PO-3007",
		Status:           entity.POStatusOpen,
		OriginalShipDate: dayPtr(2026, time.June, 1),
	}

	first := svc.deriveTasks(po, nil, nil, taskNow)
	second := svc.deriveTasks(po, nil, nil, taskNow)
	if len(first) != len(second) {
		t.Fatalf("rule set unstable: %d vs %d tasks", len(first), len(second))
	}
	for i := range first {
		if first[i].Title != second[i].Title || first[i].Source != second[i].Source {
			t.Errorf("task %d drifted: %q vs %q", i, first[i].Title, second[i].Title)
		}
	}
}
