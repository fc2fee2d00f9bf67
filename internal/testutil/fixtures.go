package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kidolearn/kidolearn-api/internal/domain"
)

// MintToken signs an identity-provider token the backend will accept.
func MintToken(t *testing.T, externalAuthID, email, name string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   externalAuthID,
		"email": email,
		"name":  name,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// MintExpiredToken signs a token whose expiry is already in the past.
func MintExpiredToken(t *testing.T, externalAuthID string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": externalAuthID,
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestJWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// ParentBuilder creates test parents with a builder pattern
type ParentBuilder struct {
	externalAuthID string
	email          string
	name           string
	pin            string
}

// NewParentBuilder creates a new ParentBuilder with default values
func NewParentBuilder() *ParentBuilder {
	id := uuid.New().String()[:8]
	return &ParentBuilder{
		externalAuthID: fmt.Sprintf("test-parent-%s", id),
		email:          fmt.Sprintf("parent-%s@example.com", id),
		name:           "Test Parent",
	}
}

// WithExternalAuthID sets the external auth id
func (b *ParentBuilder) WithExternalAuthID(id string) *ParentBuilder {
	b.externalAuthID = id
	return b
}

// WithEmail sets the email address
func (b *ParentBuilder) WithEmail(email string) *ParentBuilder {
	b.email = email
	return b
}

// WithName sets the display name
func (b *ParentBuilder) WithName(name string) *ParentBuilder {
	b.name = name
	return b
}

// WithPIN stores a bcrypt hash of the given exit PIN
func (b *ParentBuilder) WithPIN(pin string) *ParentBuilder {
	b.pin = pin
	return b
}

// Build creates the parent in the database
func (b *ParentBuilder) Build(t *testing.T, db *gorm.DB) *domain.Parent {
	t.Helper()

	parent := &domain.Parent{
		ID:             uuid.New(),
		ExternalAuthID: b.externalAuthID,
		Email:          b.email,
		Name:           b.name,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if b.pin != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(b.pin), bcrypt.DefaultCost)
		if err != nil {
			t.Fatalf("failed to hash pin: %v", err)
		}
		parent.PINHash = string(hash)
	}

	if err := db.Create(parent).Error; err != nil {
		t.Fatalf("failed to create parent: %v", err)
	}

	return parent
}

// BuildWithToken creates the parent in the database and returns a signed
// token for it.
func (b *ParentBuilder) BuildWithToken(t *testing.T, db *gorm.DB) (*domain.Parent, string) {
	t.Helper()

	parent := b.Build(t, db)
	return parent, MintToken(t, b.externalAuthID, b.email, b.name)
}

// ChildBuilder creates test children with a builder pattern
type ChildBuilder struct {
	parent *domain.Parent
	name   string
}

// NewChildBuilder creates a new ChildBuilder with default values
func NewChildBuilder() *ChildBuilder {
	return &ChildBuilder{
		name: fmt.Sprintf("Kid %s", uuid.New().String()[:6]),
	}
}

// WithParent sets the owning parent
func (b *ChildBuilder) WithParent(parent *domain.Parent) *ChildBuilder {
	b.parent = parent
	return b
}

// WithName sets the child's name
func (b *ChildBuilder) WithName(name string) *ChildBuilder {
	b.name = name
	return b
}

// Build creates the child in the database
func (b *ChildBuilder) Build(t *testing.T, db *gorm.DB) *domain.Child {
	t.Helper()

	if b.parent == nil {
		b.parent = NewParentBuilder().Build(t, db)
	}

	child := &domain.Child{
		ID:        uuid.New(),
		ParentID:  b.parent.ID,
		Name:      b.name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := db.Create(child).Error; err != nil {
		t.Fatalf("failed to create child: %v", err)
	}

	return child
}

// ScheduledVideoBuilder creates test scheduled videos
type ScheduledVideoBuilder struct {
	child       *domain.Child
	videoRef    string
	title       string
	scheduledAt time.Time
}

// NewScheduledVideoBuilder creates a new ScheduledVideoBuilder with default values
func NewScheduledVideoBuilder() *ScheduledVideoBuilder {
	return &ScheduledVideoBuilder{
		videoRef:    "dQw4w9WgXcQ",
		title:       "Test Video",
		scheduledAt: time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second),
	}
}

// WithChild sets the child the video is scheduled for
func (b *ScheduledVideoBuilder) WithChild(child *domain.Child) *ScheduledVideoBuilder {
	b.child = child
	return b
}

// WithVideoRef sets the YouTube video id
func (b *ScheduledVideoBuilder) WithVideoRef(ref string) *ScheduledVideoBuilder {
	b.videoRef = ref
	return b
}

// WithTitle sets the display title
func (b *ScheduledVideoBuilder) WithTitle(title string) *ScheduledVideoBuilder {
	b.title = title
	return b
}

// WithScheduledAt sets the schedule time
func (b *ScheduledVideoBuilder) WithScheduledAt(at time.Time) *ScheduledVideoBuilder {
	b.scheduledAt = at
	return b
}

// Build creates the scheduled video in the database
func (b *ScheduledVideoBuilder) Build(t *testing.T, db *gorm.DB) *domain.ScheduledVideo {
	t.Helper()

	if b.child == nil {
		b.child = NewChildBuilder().Build(t, db)
	}

	video := &domain.ScheduledVideo{
		ID:          uuid.New(),
		ChildID:     b.child.ID,
		VideoRef:    b.videoRef,
		Title:       b.title,
		ScheduledAt: b.scheduledAt,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := db.Create(video).Error; err != nil {
		t.Fatalf("failed to create scheduled video: %v", err)
	}

	return video
}

// SessionBuilder creates test app sessions
type SessionBuilder struct {
	child     *domain.Child
	sessionID string
	platform  string
	startTime time.Time
	duration  *int64
}

// NewSessionBuilder creates a new SessionBuilder with default values
func NewSessionBuilder() *SessionBuilder {
	return &SessionBuilder{
		sessionID: fmt.Sprintf("sess-%s", uuid.New().String()[:8]),
		platform:  "ios",
		startTime: time.Now().Add(-10 * time.Minute).UTC().Truncate(time.Second),
	}
}

// WithChild sets the child the session belongs to
func (b *SessionBuilder) WithChild(child *domain.Child) *SessionBuilder {
	b.child = child
	return b
}

// WithSessionID sets the device-generated session id
func (b *SessionBuilder) WithSessionID(id string) *SessionBuilder {
	b.sessionID = id
	return b
}

// WithPlatform sets the reporting platform
func (b *SessionBuilder) WithPlatform(platform string) *SessionBuilder {
	b.platform = platform
	return b
}

// WithStartTime sets when the session opened
func (b *SessionBuilder) WithStartTime(at time.Time) *SessionBuilder {
	b.startTime = at
	return b
}

// Closed marks the session ended after the given number of seconds
func (b *SessionBuilder) Closed(seconds int64) *SessionBuilder {
	b.duration = &seconds
	return b
}

// Build creates the session in the database
func (b *SessionBuilder) Build(t *testing.T, db *gorm.DB) *domain.AppSession {
	t.Helper()

	if b.child == nil {
		b.child = NewChildBuilder().Build(t, db)
	}

	var endTime *time.Time
	if b.duration != nil {
		end := b.startTime.Add(time.Duration(*b.duration) * time.Second)
		endTime = &end
	}

	session := &domain.AppSession{
		ID:        uuid.New(),
		SessionID: b.sessionID,
		ChildID:   b.child.ID,
		Platform:  b.platform,
		StartTime: b.startTime,
		EndTime:   endTime,
		Duration:  b.duration,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := db.Create(session).Error; err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	return session
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// DoRequest executes the request with the default client
func DoRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
