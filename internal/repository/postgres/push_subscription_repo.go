package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kidolearn/kidolearn-api/internal/domain"
)

type pushSubscriptionRepository struct {
	db *gorm.DB
}

func NewPushSubscriptionRepository(db *gorm.DB) *pushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

func (r *pushSubscriptionRepository) Upsert(ctx context.Context, sub *domain.PushSubscription) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "parent_id"}, {Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
	}).Create(sub).Error
}

func (r *pushSubscriptionRepository) GetByParentID(ctx context.Context, parentID uuid.UUID) ([]*domain.PushSubscription, error) {
	var subs []*domain.PushSubscription
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *pushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, parentID uuid.UUID, endpoint string) (bool, error) {
	tx := r.db.WithContext(ctx).
		Delete(&domain.PushSubscription{}, "parent_id = ? AND endpoint = ?", parentID, endpoint)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *pushSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.PushSubscription{}, "id = ?", id).Error
}
