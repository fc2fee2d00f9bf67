package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/repository"
)

// SessionService owns the app-usage session lifecycle. Session ids are
// generated here, never by the database.
type SessionService struct {
	sessionRepo repository.AppSessionRepository
	childRepo   repository.ChildRepository
}

func NewSessionService(sessionRepo repository.AppSessionRepository, childRepo repository.ChildRepository) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		childRepo:   childRepo,
	}
}

type OpenSessionInput struct {
	ChildID    uuid.UUID
	DeviceInfo json.RawMessage
	AppVersion string
	Platform   string
}

// Open starts a session for an owned child. The returned session carries
// the child for event payloads.
func (s *SessionService) Open(ctx context.Context, parentID uuid.UUID, input OpenSessionInput) (*domain.AppSession, error) {
	child, err := s.ownedChild(ctx, input.ChildID, parentID)
	if err != nil {
		return nil, err
	}

	session := &domain.AppSession{
		SessionID:  uuid.New().String(),
		ChildID:    child.ID,
		DeviceInfo: datatypes.JSON(input.DeviceInfo),
		AppVersion: input.AppVersion,
		Platform:   input.Platform,
		StartTime:  time.Now().UTC(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	session.Child = child
	return session, nil
}

// Close ends an open session. Already-closed, foreign and unknown ids
// all answer ErrSessionNotFound; the conditional update resolves the
// concurrent double-close in the database.
func (s *SessionService) Close(ctx context.Context, parentID uuid.UUID, sessionID string) (*domain.AppSession, error) {
	session, err := s.sessionRepo.GetBySessionIDForParent(ctx, sessionID, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	if !session.Open() {
		return nil, domain.ErrSessionNotFound
	}

	now := time.Now().UTC()
	duration := int64(math.Floor(now.Sub(session.StartTime).Seconds()))

	updated, err := s.sessionRepo.CloseOpen(ctx, session.ID, now, duration)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.ErrSessionNotFound
	}

	session.EndTime = &now
	session.Duration = &duration
	return session, nil
}

// List returns a page of the parent's sessions, newest first. A childID
// narrows the ownership-scoped query; a foreign childID yields an empty
// page rather than an error.
func (s *SessionService) List(ctx context.Context, parentID uuid.UUID, childID *uuid.UUID, limit, offset int) ([]*domain.AppSession, int64, error) {
	sessions, err := s.sessionRepo.GetByParentID(ctx, parentID, childID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.sessionRepo.CountByParentID(ctx, parentID, childID)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// UsageSummary aggregates closed sessions per calendar day.
type UsageSummary struct {
	ChildID      uuid.UUID           `json:"childId"`
	Days         []domain.DailyUsage `json:"days"`
	TotalSeconds int64               `json:"totalSeconds"`
}

func (s *SessionService) Usage(ctx context.Context, parentID, childID uuid.UUID, days int) (*UsageSummary, error) {
	child, err := s.ownedChild(ctx, childID, parentID)
	if err != nil {
		return nil, err
	}

	since := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -(days - 1))
	rows, err := s.sessionRepo.UsageByChildID(ctx, child.ID, since)
	if err != nil {
		return nil, err
	}

	summary := &UsageSummary{
		ChildID: child.ID,
		Days:    rows,
	}
	for _, row := range rows {
		summary.TotalSeconds += row.TotalSeconds
	}
	if summary.Days == nil {
		summary.Days = []domain.DailyUsage{}
	}
	return summary, nil
}

func (s *SessionService) ownedChild(ctx context.Context, childID, parentID uuid.UUID) (*domain.Child, error) {
	child, err := s.childRepo.GetByIDForParent(ctx, childID, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChildNotFound
		}
		return nil, err
	}
	return child, nil
}
