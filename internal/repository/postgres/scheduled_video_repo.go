package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kidolearn/kidolearn-api/internal/domain"
)

type scheduledVideoRepository struct {
	db *gorm.DB
}

func NewScheduledVideoRepository(db *gorm.DB) *scheduledVideoRepository {
	return &scheduledVideoRepository{db: db}
}

func (r *scheduledVideoRepository) Create(ctx context.Context, video *domain.ScheduledVideo) error {
	return r.db.WithContext(ctx).Create(video).Error
}

func (r *scheduledVideoRepository) GetByIDForParent(ctx context.Context, id, parentID uuid.UUID) (*domain.ScheduledVideo, error) {
	var video domain.ScheduledVideo
	err := r.db.WithContext(ctx).
		Joins("JOIN children ON children.id = scheduled_videos.child_id").
		Where("scheduled_videos.id = ? AND children.parent_id = ?", id, parentID).
		First(&video).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *scheduledVideoRepository) GetByChildID(ctx context.Context, childID uuid.UUID, from, to *time.Time, limit, offset int) ([]*domain.ScheduledVideo, error) {
	var videos []*domain.ScheduledVideo
	err := r.scheduleQuery(ctx, childID, from, to).
		Order("scheduled_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *scheduledVideoRepository) CountByChildID(ctx context.Context, childID uuid.UUID, from, to *time.Time) (int64, error) {
	var count int64
	err := r.scheduleQuery(ctx, childID, from, to).Count(&count).Error
	return count, err
}

func (r *scheduledVideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.ScheduledVideo{}, "id = ?", id).Error
}

func (r *scheduledVideoRepository) scheduleQuery(ctx context.Context, childID uuid.UUID, from, to *time.Time) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&domain.ScheduledVideo{}).
		Where("child_id = ?", childID)
	if from != nil {
		q = q.Where("scheduled_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("scheduled_at <= ?", *to)
	}
	return q
}
