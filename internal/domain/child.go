package domain

import (
	"time"

	"github.com/google/uuid"
)

type Child struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ParentID  uuid.UUID `json:"parentId" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Parent          *Parent          `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	ScheduledVideos []ScheduledVideo `json:"scheduledVideos,omitempty" gorm:"foreignKey:ChildID;constraint:OnDelete:CASCADE"`
	Sessions        []AppSession     `json:"sessions,omitempty" gorm:"foreignKey:ChildID;constraint:OnDelete:CASCADE"`
}

// ChildRef is the minimal child identity embedded in session listings.
type ChildRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
