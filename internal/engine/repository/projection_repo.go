package repository

import (
	"context"
	"errors"

	"github.com/hemline/merchtrack/internal/engine/entity"
	"gorm.io/gorm"
)

// ProjectionRepository active projection store access
type ProjectionRepository struct {
	db *gorm.DB
}

func NewProjectionRepository(db *gorm.DB) *ProjectionRepository {
	return &ProjectionRepository{db: db}
}

// FindByID looks a projection up by ID.
func (r *ProjectionRepository) FindByID(ctx context.Context, id string) (*entity.ActiveProjection, error) {
	var projection entity.ActiveProjection
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&projection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &projection, nil
}

// FindUnmatched returns all projections still awaiting a match.
func (r *ProjectionRepository) FindUnmatched(ctx context.Context) ([]entity.ActiveProjection, error) {
	var items []entity.ActiveProjection
	err := r.db.WithContext(ctx).
		Where("match_status = ?", entity.MatchStatusUnmatched).
		Order("target_year ASC, target_month ASC").
		Find(&items).Error
	return items, err
}

// Create inserts one projection.
func (r *ProjectionRepository) Create(ctx context.Context, projection *entity.ActiveProjection) error {
	return r.db.WithContext(ctx).Create(projection).Error
}

// BulkCreate inserts a planning cycle's projections in chunks.
func (r *ProjectionRepository) BulkCreate(ctx context.Context, projections []entity.ActiveProjection, chunkSize int) error {
	if len(projections) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return r.db.WithContext(ctx).CreateInBatches(projections, chunkSize).Error
}

// Update persists match-state changes. Single-row write; batch matching
// relies on the store's per-write guarantees, not a batch transaction.
func (r *ProjectionRepository) Update(ctx context.Context, projection *entity.ActiveProjection) error {
	return r.db.WithContext(ctx).Save(projection).Error
}
