package domain

import (
	"time"

	"github.com/google/uuid"
)

// Parent is the local record for an identity-provider account. It is
// created lazily the first time a verified token reaches the bootstrap
// endpoint; ExternalAuthID carries the provider's subject id.
type Parent struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ExternalAuthID string    `json:"externalAuthId" gorm:"uniqueIndex;not null"`
	Email          string    `json:"email" gorm:"not null"`
	Name           string    `json:"name"`
	PINHash        string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Relations
	Children []Child `json:"children,omitempty" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
}

// HasPIN reports whether the parent has set an exit PIN.
func (p *Parent) HasPIN() bool {
	return p.PINHash != ""
}
