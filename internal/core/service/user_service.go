package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl1809/pos/internal/core/domain"
	"github.com/rl1809/pos/internal/port"
)

var ErrSelfDelete = errors.New("cannot delete own profile")

type UserService struct {
	profiles port.ProfileRepository
}

func NewUserService(profiles port.ProfileRepository) *UserService {
	return &UserService{profiles: profiles}
}

// Profile resolves the identity handed over by the identity provider.
func (s *UserService) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown profile %s", domain.ErrUnauthenticated, userID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *UserService) Authorize(p domain.Profile, roles ...domain.Role) error {
	if len(roles) == 0 || p.HasRole(roles...) {
		return nil
	}
	return fmt.Errorf("%w: role %s", domain.ErrForbidden, p.Role)
}

func (s *UserService) ListProfiles(ctx context.Context, actor domain.Profile) ([]domain.Profile, error) {
	if err := s.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.profiles.ListProfiles(ctx)
}

func (s *UserService) UpdateRole(ctx context.Context, actor domain.Profile, userID string, role domain.Role) (*domain.Profile, error) {
	if err := s.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}
	return s.profiles.UpdateRole(ctx, userID, role)
}

func (s *UserService) DeleteProfile(ctx context.Context, actor domain.Profile, userID string) error {
	if err := s.Authorize(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if actor.ID == userID {
		return ErrSelfDelete
	}
	return s.profiles.DeleteProfile(ctx, userID)
}
