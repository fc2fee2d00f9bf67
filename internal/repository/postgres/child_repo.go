package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kidolearn/kidolearn-api/internal/domain"
)

type childRepository struct {
	db *gorm.DB
}

func NewChildRepository(db *gorm.DB) *childRepository {
	return &childRepository{db: db}
}

func (r *childRepository) Create(ctx context.Context, child *domain.Child) error {
	return r.db.WithContext(ctx).Create(child).Error
}

func (r *childRepository) GetByIDForParent(ctx context.Context, id, parentID uuid.UUID) (*domain.Child, error) {
	var child domain.Child
	err := r.db.WithContext(ctx).
		First(&child, "id = ? AND parent_id = ?", id, parentID).Error
	if err != nil {
		return nil, err
	}
	return &child, nil
}

func (r *childRepository) GetByParentID(ctx context.Context, parentID uuid.UUID) ([]*domain.Child, error) {
	var children []*domain.Child
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&children).Error
	if err != nil {
		return nil, err
	}
	return children, nil
}

func (r *childRepository) Update(ctx context.Context, child *domain.Child) error {
	return r.db.WithContext(ctx).Save(child).Error
}

func (r *childRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Child{}, "id = ?", id).Error
}
