package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kidolearn/kidolearn-api/internal/domain"
)

type ParentRepository interface {
	Create(ctx context.Context, parent *domain.Parent) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Parent, error)
	GetByExternalAuthID(ctx context.Context, externalAuthID string) (*domain.Parent, error)
	Update(ctx context.Context, parent *domain.Parent) error
	GetAll(ctx context.Context) ([]*domain.Parent, error)
}

type ChildRepository interface {
	Create(ctx context.Context, child *domain.Child) error
	GetByIDForParent(ctx context.Context, id, parentID uuid.UUID) (*domain.Child, error)
	GetByParentID(ctx context.Context, parentID uuid.UUID) ([]*domain.Child, error)
	Update(ctx context.Context, child *domain.Child) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScheduledVideoRepository fetches rows through the ownership join: the
// ForParent variants match only rows whose child belongs to the given
// parent, so foreign rows read as absent.
type ScheduledVideoRepository interface {
	Create(ctx context.Context, video *domain.ScheduledVideo) error
	GetByIDForParent(ctx context.Context, id, parentID uuid.UUID) (*domain.ScheduledVideo, error)
	GetByChildID(ctx context.Context, childID uuid.UUID, from, to *time.Time, limit, offset int) ([]*domain.ScheduledVideo, error)
	CountByChildID(ctx context.Context, childID uuid.UUID, from, to *time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type AppSessionRepository interface {
	Create(ctx context.Context, session *domain.AppSession) error
	GetBySessionIDForParent(ctx context.Context, sessionID string, parentID uuid.UUID) (*domain.AppSession, error)
	// CloseOpen sets end time and duration on the row only while it is
	// still open; the return reports whether a row was updated.
	CloseOpen(ctx context.Context, id uuid.UUID, endTime time.Time, duration int64) (bool, error)
	GetByParentID(ctx context.Context, parentID uuid.UUID, childID *uuid.UUID, limit, offset int) ([]*domain.AppSession, error)
	CountByParentID(ctx context.Context, parentID uuid.UUID, childID *uuid.UUID) (int64, error)
	UsageByChildID(ctx context.Context, childID uuid.UUID, since time.Time) ([]domain.DailyUsage, error)
}

type PushSubscriptionRepository interface {
	Upsert(ctx context.Context, sub *domain.PushSubscription) error
	GetByParentID(ctx context.Context, parentID uuid.UUID) ([]*domain.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, parentID uuid.UUID, endpoint string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repositories struct {
	Parent           ParentRepository
	Child            ChildRepository
	ScheduledVideo   ScheduledVideoRepository
	AppSession       AppSessionRepository
	PushSubscription PushSubscriptionRepository
}
