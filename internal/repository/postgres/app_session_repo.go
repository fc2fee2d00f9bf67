package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kidolearn/kidolearn-api/internal/domain"
)

type appSessionRepository struct {
	db *gorm.DB
}

func NewAppSessionRepository(db *gorm.DB) *appSessionRepository {
	return &appSessionRepository{db: db}
}

func (r *appSessionRepository) Create(ctx context.Context, session *domain.AppSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *appSessionRepository) GetBySessionIDForParent(ctx context.Context, sessionID string, parentID uuid.UUID) (*domain.AppSession, error) {
	var session domain.AppSession
	err := r.db.WithContext(ctx).
		Preload("Child").
		Joins("JOIN children ON children.id = app_sessions.child_id").
		Where("app_sessions.session_id = ? AND children.parent_id = ?", sessionID, parentID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *appSessionRepository) CloseOpen(ctx context.Context, id uuid.UUID, endTime time.Time, duration int64) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.AppSession{}).
		Where("id = ? AND end_time IS NULL", id).
		Updates(map[string]interface{}{
			"end_time": endTime,
			"duration": duration,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *appSessionRepository) GetByParentID(ctx context.Context, parentID uuid.UUID, childID *uuid.UUID, limit, offset int) ([]*domain.AppSession, error) {
	var sessions []*domain.AppSession
	err := r.sessionQuery(ctx, parentID, childID).
		Preload("Child").
		Order("app_sessions.start_time DESC").
		Limit(limit).
		Offset(offset).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *appSessionRepository) CountByParentID(ctx context.Context, parentID uuid.UUID, childID *uuid.UUID) (int64, error) {
	var count int64
	err := r.sessionQuery(ctx, parentID, childID).Count(&count).Error
	return count, err
}

func (r *appSessionRepository) UsageByChildID(ctx context.Context, childID uuid.UUID, since time.Time) ([]domain.DailyUsage, error) {
	var rows []domain.DailyUsage
	err := r.db.WithContext(ctx).
		Model(&domain.AppSession{}).
		Select("to_char(start_time AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS date, COALESCE(SUM(duration), 0) AS total_seconds, COUNT(*) AS session_count").
		Where("child_id = ? AND start_time >= ? AND end_time IS NOT NULL", childID, since).
		Group("date").
		Order("date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// sessionQuery scopes every session read to the parent through the child
// join; an optional childID narrows it further without widening access.
func (r *appSessionRepository) sessionQuery(ctx context.Context, parentID uuid.UUID, childID *uuid.UUID) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&domain.AppSession{}).
		Joins("JOIN children ON children.id = app_sessions.child_id").
		Where("children.parent_id = ?", parentID)
	if childID != nil {
		q = q.Where("app_sessions.child_id = ?", *childID)
	}
	return q
}
