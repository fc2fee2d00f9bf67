package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kidolearn/kidolearn-api/internal/config"
	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/repository"
)

const pushSendTimeout = 10 * time.Second

// NotifyService sends Web Push messages to a parent's registered
// browsers. Without VAPID keys it still stores subscriptions but never
// sends.
type NotifyService struct {
	subRepo repository.PushSubscriptionRepository
	vapid   *webpush.Options
	public  string
}

func NewNotifyService(subRepo repository.PushSubscriptionRepository, cfg *config.Config) *NotifyService {
	s := &NotifyService{
		subRepo: subRepo,
		public:  cfg.VAPIDPublicKey,
	}
	if cfg.PushEnabled() {
		s.vapid = &webpush.Options{
			Subscriber:      cfg.VAPIDSubscriber,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             30,
		}
	}
	return s
}

func (s *NotifyService) Enabled() bool {
	return s.vapid != nil
}

// PublicKey is the VAPID public key clients subscribe with.
func (s *NotifyService) PublicKey() string {
	return s.public
}

func (s *NotifyService) Subscribe(ctx context.Context, parentID uuid.UUID, endpoint, p256dh, auth string) error {
	if endpoint == "" {
		return domain.ErrEndpointRequired
	}
	if p256dh == "" || auth == "" {
		return domain.ErrSubscriptionKeys
	}

	return s.subRepo.Upsert(ctx, &domain.PushSubscription{
		ParentID: parentID,
		Endpoint: endpoint,
		P256dh:   p256dh,
		Auth:     auth,
	})
}

func (s *NotifyService) Unsubscribe(ctx context.Context, parentID uuid.UUID, endpoint string) error {
	if endpoint == "" {
		return domain.ErrEndpointRequired
	}

	deleted, err := s.subRepo.DeleteByEndpoint(ctx, parentID, endpoint)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

// SessionStarted notifies the owning parent that the child app opened.
// Dispatch is asynchronous; the request path never waits on a push
// service.
func (s *NotifyService) SessionStarted(parentID uuid.UUID, child *domain.Child, sessionID string) {
	s.dispatch(parentID, "Session started", fmt.Sprintf("%s opened the app", child.Name), map[string]string{
		"event":     "session.started",
		"childId":   child.ID.String(),
		"sessionId": sessionID,
	})
}

func (s *NotifyService) SessionEnded(parentID uuid.UUID, child *domain.Child, sessionID string, durationSeconds int64) {
	s.dispatch(parentID, "Session ended", fmt.Sprintf("%s closed the app after %s", child.Name, formatDuration(durationSeconds)), map[string]string{
		"event":     "session.ended",
		"childId":   child.ID.String(),
		"sessionId": sessionID,
	})
}

func (s *NotifyService) dispatch(parentID uuid.UUID, title, body string, data map[string]string) {
	if !s.Enabled() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushSendTimeout)
		defer cancel()

		if err := s.send(ctx, parentID, title, body, data); err != nil {
			log.Error().Err(err).Str("parentId", parentID.String()).Msg("push: dispatch failed")
		}
	}()
}

func (s *NotifyService) send(ctx context.Context, parentID uuid.UUID, title, body string, data map[string]string) error {
	subs, err := s.subRepo.GetByParentID(ctx, parentID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title": title,
		"body":  body,
		"data":  data,
	})
	if err != nil {
		return err
	}

	for _, sub := range subs {
		wpSub := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
		}
		resp, err := webpush.SendNotificationWithContext(ctx, payload, wpSub, s.vapid)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", truncate(sub.Endpoint, 50)).Msg("push: send failed")
			continue
		}
		resp.Body.Close()

		// The push service no longer knows this endpoint.
		if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
			if err := s.subRepo.Delete(ctx, sub.ID); err != nil {
				log.Warn().Err(err).Str("endpoint", truncate(sub.Endpoint, 50)).Msg("push: prune failed")
			}
		}
	}
	return nil
}

func formatDuration(seconds int64) string {
	if seconds < 60 {
		return "under a minute"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
