package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AppSession records one launch-to-exit span of the child app. SessionID
// is the externally visible identifier handed to the device on open; the
// storage primary key never leaves the server. EndTime and Duration stay
// null while the session is open.
type AppSession struct {
	ID         uuid.UUID      `json:"-" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SessionID  string         `json:"sessionId" gorm:"uniqueIndex;not null"`
	ChildID    uuid.UUID      `json:"childId" gorm:"type:uuid;not null;index"`
	DeviceInfo datatypes.JSON `json:"deviceInfo"`
	AppVersion string         `json:"appVersion,omitempty"`
	Platform   string         `json:"platform,omitempty"`
	StartTime  time.Time      `json:"startTime" gorm:"not null;index"`
	EndTime    *time.Time     `json:"endTime"`
	Duration   *int64         `json:"duration"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`

	// Relations
	Child *Child `json:"child,omitempty" gorm:"foreignKey:ChildID"`
}

// Open reports whether the session has not been closed yet.
func (s *AppSession) Open() bool {
	return s.EndTime == nil
}

// DailyUsage is one calendar day of aggregated closed-session time for a
// child.
type DailyUsage struct {
	Date         string `json:"date"`
	TotalSeconds int64  `json:"totalSeconds"`
	SessionCount int64  `json:"sessionCount"`
}
