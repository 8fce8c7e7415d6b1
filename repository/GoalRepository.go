package repository

import (
	"context"

	"sodalis/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GoalRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Goal, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Goal, error)
	Create(ctx context.Context, goal *model.Goal) error
	Update(ctx context.Context, goal *model.Goal) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgGoalRepo struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) GoalRepository {
	return &pgGoalRepo{db: db}
}

func (r *pgGoalRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Goal, error) {
	var g model.Goal
	if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r *pgGoalRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Goal, error) {
	var goals []model.Goal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&goals).Error
	return goals, translate(err)
}

func (r *pgGoalRepo) Create(ctx context.Context, goal *model.Goal) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(goal).Error)
}

func (r *pgGoalRepo) Update(ctx context.Context, goal *model.Goal) error {
	return translate(r.db.WithContext(ctx).Omit("User").Save(goal).Error)
}

func (r *pgGoalRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Goal{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
