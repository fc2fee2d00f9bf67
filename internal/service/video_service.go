package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/repository"
	"github.com/kidolearn/kidolearn-api/internal/youtube"
)

// VideoService owns the scheduled-video lifecycle and the playback URL
// resolver.
type VideoService struct {
	videoRepo repository.ScheduledVideoRepository
	childRepo repository.ChildRepository
}

func NewVideoService(videoRepo repository.ScheduledVideoRepository, childRepo repository.ChildRepository) *VideoService {
	return &VideoService{
		videoRepo: videoRepo,
		childRepo: childRepo,
	}
}

type ScheduleVideoInput struct {
	ChildID     uuid.UUID
	VideoRef    string
	Title       string
	ScheduledAt time.Time
}

func (s *VideoService) ScheduleVideo(ctx context.Context, parentID uuid.UUID, input ScheduleVideoInput) (*domain.ScheduledVideo, error) {
	if !youtube.ValidVideoID(input.VideoRef) {
		return nil, domain.ErrInvalidVideoID
	}
	if input.ScheduledAt.IsZero() {
		return nil, domain.ErrScheduledAtZero
	}

	if _, err := s.ownedChild(ctx, input.ChildID, parentID); err != nil {
		return nil, err
	}

	video := &domain.ScheduledVideo{
		ChildID:     input.ChildID,
		VideoRef:    input.VideoRef,
		Title:       input.Title,
		ScheduledAt: input.ScheduledAt.UTC(),
	}
	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *VideoService) ListScheduled(ctx context.Context, parentID, childID uuid.UUID, from, to *time.Time, limit, offset int) ([]*domain.ScheduledVideo, int64, error) {
	if _, err := s.ownedChild(ctx, childID, parentID); err != nil {
		return nil, 0, err
	}

	videos, err := s.videoRepo.GetByChildID(ctx, childID, from, to, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.videoRepo.CountByChildID(ctx, childID, from, to)
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

// DeleteScheduled removes one scheduled video. The fetch carries the
// ownership join, so a foreign id fails exactly like an absent one.
func (s *VideoService) DeleteScheduled(ctx context.Context, parentID, videoID uuid.UUID) error {
	video, err := s.videoRepo.GetByIDForParent(ctx, videoID, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrScheduledVideoNotFound
		}
		return err
	}
	return s.videoRepo.Delete(ctx, video.ID)
}

// ResolveLinks validates the id and maps it to playback URLs. No
// storage access.
func (s *VideoService) ResolveLinks(youtubeID string) (youtube.Links, error) {
	if !youtube.ValidVideoID(youtubeID) {
		return youtube.Links{}, domain.ErrInvalidVideoID
	}
	return youtube.ResolveLinks(youtubeID), nil
}

func (s *VideoService) ownedChild(ctx context.Context, childID, parentID uuid.UUID) (*domain.Child, error) {
	child, err := s.childRepo.GetByIDForParent(ctx, childID, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChildNotFound
		}
		return nil, err
	}
	return child, nil
}
