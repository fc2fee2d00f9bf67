package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScheduledVideo pins a YouTube video to a child's timeline. VideoRef is
// the bare video id, never a full URL.
type ScheduledVideo struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ChildID     uuid.UUID `json:"childId" gorm:"type:uuid;not null;index"`
	VideoRef    string    `json:"videoRef" gorm:"not null"`
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduledAt" gorm:"not null;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Relations
	Child *Child `json:"child,omitempty" gorm:"foreignKey:ChildID"`
}
