package domain

import (
	"time"

	"github.com/google/uuid"
)

// PushSubscription is one browser push endpoint registered by a parent.
// The client keys stay server-side, they are never echoed back.
type PushSubscription struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ParentID uuid.UUID `json:"parentId" gorm:"type:uuid;not null;index:idx_push_sub_parent_endpoint,unique"`
	Endpoint string    `json:"endpoint" gorm:"not null;index:idx_push_sub_parent_endpoint,unique"`
	P256dh   string    `json:"-" gorm:"not null"`
	Auth     string    `json:"-" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt"`
}
