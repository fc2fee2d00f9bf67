package service

import (
	"context"
	"errors"
	"regexp"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kidolearn/kidolearn-api/internal/config"
	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/repository"
)

var ErrInvalidToken = errors.New("invalid token")

var pinPattern = regexp.MustCompile(`^[0-9]{4,8}$`)

// Identity is the verified claim set of an identity-provider token.
type Identity struct {
	SubjectID string
	Email     string
	Name      string
}

// AuthService verifies identity-provider tokens and maintains the local
// Parent record. Tokens are never issued here.
type AuthService struct {
	parentRepo repository.ParentRepository
	cfg        *config.Config
}

func NewAuthService(parentRepo repository.ParentRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		parentRepo: parentRepo,
		cfg:        cfg,
	}
}

// ValidateToken checks signature and expiry and extracts the identity
// claims. Only HMAC-signed tokens are accepted.
func (s *AuthService) ValidateToken(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.IdentityJWTSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidToken
	}

	identity := &Identity{SubjectID: sub}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	return identity, nil
}

// EnsureParent returns the Parent for the identity, creating it from the
// token claims on first access. Concurrent first requests race on the
// unique external auth id; the loser re-reads the winner's row.
func (s *AuthService) EnsureParent(ctx context.Context, identity *Identity) (*domain.Parent, error) {
	parent, err := s.parentRepo.GetByExternalAuthID(ctx, identity.SubjectID)
	if err == nil {
		return parent, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	parent = &domain.Parent{
		ExternalAuthID: identity.SubjectID,
		Email:          identity.Email,
		Name:           identity.Name,
	}
	if err := s.parentRepo.Create(ctx, parent); err != nil {
		if existing, getErr := s.parentRepo.GetByExternalAuthID(ctx, identity.SubjectID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return parent, nil
}

// GetParent resolves an existing Parent. Absence is ErrParentNotFound,
// never a creation.
func (s *AuthService) GetParent(ctx context.Context, externalAuthID string) (*domain.Parent, error) {
	parent, err := s.parentRepo.GetByExternalAuthID(ctx, externalAuthID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrParentNotFound
		}
		return nil, err
	}
	return parent, nil
}

// SetPIN stores the bcrypt hash of a 4-8 digit exit PIN.
func (s *AuthService) SetPIN(ctx context.Context, parent *domain.Parent, pin string) error {
	if !pinPattern.MatchString(pin) {
		return domain.ErrInvalidPIN
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	parent.PINHash = string(hash)
	return s.parentRepo.Update(ctx, parent)
}

// VerifyPIN compares pin against the stored hash. A mismatch is a valid
// false result, not an error.
func (s *AuthService) VerifyPIN(parent *domain.Parent, pin string) (bool, error) {
	if !parent.HasPIN() {
		return false, domain.ErrPINNotSet
	}

	err := bcrypt.CompareHashAndPassword([]byte(parent.PINHash), []byte(pin))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
