package service

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/validation"

	"github.com/rs/zerolog"
)

type UserService struct {
	store  domain.UserStore
	logger *zerolog.Logger
}

func NewUserService(store domain.UserStore, logger *zerolog.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

func (s *UserService) Create(ctx context.Context, user *models.User) (*models.User, error) {
	taken, err := s.store.EmailTakenByOther(ctx, user.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("email %s: %w", user.Email, database.ErrEmailTaken)
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	if err := validation.PositiveID("userId", userID); err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, userID)
}

func (s *UserService) GetAll(ctx context.Context) ([]*models.User, error) {
	return s.store.GetAllUsers(ctx)
}

// Update applies a partial patch. A new email colliding with another user's
// registration is rejected.
func (s *UserService) Update(ctx context.Context, userID int64, patch *models.UserPatch) (*models.User, error) {
	if err := validation.PositiveID("userId", userID); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		if !strings.EqualFold(*patch.Email, user.Email) {
			taken, err := s.store.EmailTakenByOther(ctx, *patch.Email, userID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, fmt.Errorf("email %s: %w", *patch.Email, database.ErrEmailTaken)
			}
		}
		user.Email = *patch.Email
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", userID).Msg("user updated")
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, userID int64) error {
	if err := validation.PositiveID("userId", userID); err != nil {
		return err
	}
	return s.store.DeleteUser(ctx, userID)
}
