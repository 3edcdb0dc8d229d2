package service

import (
	"context"

	apperrors "github.com/spotmap/spot-api/internal/errors"
	"github.com/spotmap/spot-api/internal/model"
	"github.com/spotmap/spot-api/internal/repository"
)

type ProfileService struct {
	userRepo repository.UserRepository
}

func NewProfileService(userRepo repository.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo}
}

// Lookup returns the user bound to session, or nil for an anonymous session.
func (s *ProfileService) Lookup(ctx context.Context, session model.Session) (*model.User, error) {
	if !session.LoggedIn() {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.Who.ID)
	if err != nil {
		return nil, apperrors.Database("User record lookup failed", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User record not found")
	}
	return user, nil
}
