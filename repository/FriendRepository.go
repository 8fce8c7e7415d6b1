package repository

import (
	"context"

	"sodalis/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FriendRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Friend, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Friend, error)
	Create(ctx context.Context, friend *model.Friend) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgFriendRepo struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &pgFriendRepo{db: db}
}

func (r *pgFriendRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Friend, error) {
	var f model.Friend
	if err := r.db.WithContext(ctx).Preload("FriendUser").First(&f, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *pgFriendRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Friend, error) {
	var friends []model.Friend
	err := r.db.WithContext(ctx).
		Preload("FriendUser").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&friends).Error
	return friends, translate(err)
}

func (r *pgFriendRepo) Create(ctx context.Context, friend *model.Friend) error {
	return translate(r.db.WithContext(ctx).Omit("User", "FriendUser").Create(friend).Error)
}

func (r *pgFriendRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Friend{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
