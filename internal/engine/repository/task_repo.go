package repository

import (
	"context"
	"errors"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"gorm.io/gorm"
)

// TaskRepository PO task store access
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// FindByID looks a task up by ID.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*entity.PoTask, error) {
	var task entity.PoTask
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// FindByPO returns all tasks for one PO, open first, nearest due date first.
func (r *TaskRepository) FindByPO(ctx context.Context, poNumber string) ([]entity.PoTask, error) {
	var items []entity.PoTask
	err := r.db.WithContext(ctx).
		Where("po_number = ?", poNumber).
		Order("status ASC, due_date ASC NULLS LAST").
		Find(&items).Error
	return items, err
}

// ReplaceGenerated atomically swaps the open auto-generated tasks of a PO for
// a freshly derived set. Manual and completed tasks are preserved.
func (r *TaskRepository) ReplaceGenerated(ctx context.Context, poNumber string, tasks []entity.PoTask) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("po_number = ? AND auto_generated = ? AND status = ?",
			poNumber, true, entity.TaskStatusOpen).
			Delete(&entity.PoTask{}).Error
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			return nil
		}
		return tx.Create(&tasks).Error
	})
}

// Create inserts one task.
func (r *TaskRepository) Create(ctx context.Context, task *entity.PoTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Update persists completion-state changes.
func (r *TaskRepository) Update(ctx context.Context, task *entity.PoTask) error {
	return r.db.WithContext(ctx).Save(task).Error
}
