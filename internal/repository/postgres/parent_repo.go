package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kidolearn/kidolearn-api/internal/domain"
)

type parentRepository struct {
	db *gorm.DB
}

func NewParentRepository(db *gorm.DB) *parentRepository {
	return &parentRepository{db: db}
}

func (r *parentRepository) Create(ctx context.Context, parent *domain.Parent) error {
	return r.db.WithContext(ctx).Create(parent).Error
}

func (r *parentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Parent, error) {
	var parent domain.Parent
	err := r.db.WithContext(ctx).First(&parent, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &parent, nil
}

func (r *parentRepository) GetByExternalAuthID(ctx context.Context, externalAuthID string) (*domain.Parent, error) {
	var parent domain.Parent
	err := r.db.WithContext(ctx).First(&parent, "external_auth_id = ?", externalAuthID).Error
	if err != nil {
		return nil, err
	}
	return &parent, nil
}

func (r *parentRepository) Update(ctx context.Context, parent *domain.Parent) error {
	return r.db.WithContext(ctx).Save(parent).Error
}

func (r *parentRepository) GetAll(ctx context.Context) ([]*domain.Parent, error) {
	var parents []*domain.Parent
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&parents).Error
	if err != nil {
		return nil, err
	}
	return parents, nil
}
