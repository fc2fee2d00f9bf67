package domain

import "errors"

// Not-found sentinels. A row owned by another parent maps to the same
// sentinel as an absent row.
var (
	ErrParentNotFound         = errors.New("parent not found")
	ErrChildNotFound          = errors.New("child not found")
	ErrScheduledVideoNotFound = errors.New("scheduled video not found")
	ErrSessionNotFound        = errors.New("session not found")
	ErrSubscriptionNotFound   = errors.New("subscription not found")
)

// Validation errors
var (
	ErrNameRequired     = errors.New("name is required")
	ErrNameTooLong      = errors.New("name must be 100 characters or fewer")
	ErrInvalidVideoID   = errors.New("video id must be 1-64 characters from A-Za-z, 0-9, _ and -")
	ErrScheduledAtZero  = errors.New("scheduledAt is required")
	ErrInvalidPIN       = errors.New("pin must be 4 to 8 digits")
	ErrPINNotSet        = errors.New("no pin has been set")
	ErrEndpointRequired = errors.New("endpoint is required")
	ErrSubscriptionKeys = errors.New("subscription keys p256dh and auth are required")
)
