package repository

import (
	"context"
	"time"

	"sodalis/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, rt *model.RefreshToken) error
	GetByTokenHash(ctx context.Context, hash string) (*model.RefreshToken, error)
	// Rotate stores next and marks old as replaced at old.ReplacedAt, atomically.
	// It fails with ErrNotFound when old was already rotated or revoked.
	Rotate(ctx context.Context, old *model.RefreshToken, next *model.RefreshToken) error
	RevokeByID(ctx context.Context, id uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type pgRefreshTokenRepo struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &pgRefreshTokenRepo{db: db}
}

func (r *pgRefreshTokenRepo) Create(ctx context.Context, rt *model.RefreshToken) error {
	return translate(r.db.WithContext(ctx).Create(rt).Error)
}

func (r *pgRefreshTokenRepo) GetByTokenHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	var t model.RefreshToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *pgRefreshTokenRepo) Rotate(ctx context.Context, old *model.RefreshToken, next *model.RefreshToken) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(next).Error; err != nil {
			return err
		}

		// Only a token that has not been rotated concurrently may be replaced
		res := tx.Model(&model.RefreshToken{}).
			Where("id = ? AND replaced_at IS NULL AND revoked_at IS NULL", old.ID).
			Updates(map[string]any{
				"replaced_at":          old.ReplacedAt,
				"replaced_by_token_id": next.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

func (r *pgRefreshTokenRepo) RevokeByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", time.Now()).Error
}

func (r *pgRefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
}

func (r *pgRefreshTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&model.RefreshToken{})
	return res.RowsAffected, res.Error
}
