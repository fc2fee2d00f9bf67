package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kidolearn/kidolearn-api/internal/domain"
	"github.com/kidolearn/kidolearn-api/internal/repository"
)

const maxChildNameLength = 100

type ChildService struct {
	childRepo repository.ChildRepository
}

func NewChildService(childRepo repository.ChildRepository) *ChildService {
	return &ChildService{childRepo: childRepo}
}

func (s *ChildService) CreateChild(ctx context.Context, parentID uuid.UUID, name string) (*domain.Child, error) {
	name, err := validateChildName(name)
	if err != nil {
		return nil, err
	}

	child := &domain.Child{
		ParentID: parentID,
		Name:     name,
	}
	if err := s.childRepo.Create(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

func (s *ChildService) GetChild(ctx context.Context, id, parentID uuid.UUID) (*domain.Child, error) {
	child, err := s.childRepo.GetByIDForParent(ctx, id, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChildNotFound
		}
		return nil, err
	}
	return child, nil
}

func (s *ChildService) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*domain.Child, error) {
	return s.childRepo.GetByParentID(ctx, parentID)
}

func (s *ChildService) RenameChild(ctx context.Context, id, parentID uuid.UUID, name string) (*domain.Child, error) {
	name, err := validateChildName(name)
	if err != nil {
		return nil, err
	}

	child, err := s.GetChild(ctx, id, parentID)
	if err != nil {
		return nil, err
	}

	child.Name = name
	if err := s.childRepo.Update(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

// DeleteChild removes the child; scheduled videos and sessions go with
// it through the foreign key cascade.
func (s *ChildService) DeleteChild(ctx context.Context, id, parentID uuid.UUID) error {
	child, err := s.GetChild(ctx, id, parentID)
	if err != nil {
		return err
	}
	return s.childRepo.Delete(ctx, child.ID)
}

func validateChildName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > maxChildNameLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}
