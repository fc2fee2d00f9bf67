package service

import (
	"github.com/kidolearn/kidolearn-api/internal/config"
	"github.com/kidolearn/kidolearn-api/internal/repository"
)

type Services struct {
	Auth    *AuthService
	Child   *ChildService
	Video   *VideoService
	Session *SessionService
	Notify  *NotifyService
}

func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	return &Services{
		Auth:    NewAuthService(repos.Parent, cfg),
		Child:   NewChildService(repos.Child),
		Video:   NewVideoService(repos.ScheduledVideo, repos.Child),
		Session: NewSessionService(repos.AppSession, repos.Child),
		Notify:  NewNotifyService(repos.PushSubscription, cfg),
	}
}
