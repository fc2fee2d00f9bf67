package postgres

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/repository"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate tables
	err = db.AutoMigrate(
		&domain.Parent{},
		&domain.Child{},
		&domain.ScheduledVideo{},
		&domain.AppSession{},
		&domain.PushSubscription{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Parent:           NewParentRepository(db),
		Child:            NewChildRepository(db),
		ScheduledVideo:   NewScheduledVideoRepository(db),
		AppSession:       NewAppSessionRepository(db),
		PushSubscription: NewPushSubscriptionRepository(db),
	}
}
