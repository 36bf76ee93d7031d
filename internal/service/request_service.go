package service

import (
	"context"
	"fmt"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/validation"

	"github.com/rs/zerolog"
)

type RequestService struct {
	requests domain.RequestStore
	users    domain.UserDirectory
	items    domain.ItemStore
	logger   *zerolog.Logger
}

func NewRequestService(requests domain.RequestStore, users domain.UserDirectory, items domain.ItemStore,
	logger *zerolog.Logger) *RequestService {
	return &RequestService{requests: requests, users: users, items: items, logger: logger}
}

func (s *RequestService) Create(ctx context.Context, userID int64, request *models.ItemRequest) (*models.ItemRequest, error) {
	requestor, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	request.RequestorID = requestor.ID
	if err := s.requests.CreateRequest(ctx, request); err != nil {
		return nil, err
	}
	request.Items = []*models.Item{}

	s.logger.Info().Int64("request_id", request.ID).Int64("requestor_id", userID).Msg("item request created")
	return request, nil
}

// GetOwn returns the user's own requests, newest first, with the items that
// answer each of them.
func (s *RequestService) GetOwn(ctx context.Context, userID int64) ([]*models.ItemRequest, error) {
	if err := s.checkUserExists(ctx, userID); err != nil {
		return nil, err
	}

	requests, err := s.requests.RequestsByRequestor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// GetAll pages through requests made by other users.
func (s *RequestService) GetAll(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequest, error) {
	if err := s.checkUserExists(ctx, userID); err != nil {
		return nil, err
	}
	if err := validation.Pagination(from, size); err != nil {
		return nil, err
	}

	requests, err := s.requests.RequestsFromOthers(ctx, userID, size, validation.PageOffset(from, size))
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *RequestService) Get(ctx context.Context, userID, requestID int64) (*models.ItemRequest, error) {
	if err := validation.PositiveID("requestId", requestID); err != nil {
		return nil, err
	}
	if err := s.checkUserExists(ctx, userID); err != nil {
		return nil, err
	}

	request, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, []*models.ItemRequest{request}); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *RequestService) checkUserExists(ctx context.Context, userID int64) error {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("user %d: %w", userID, database.ErrNotFound)
	}
	return nil
}

func (s *RequestService) attachItems(ctx context.Context, requests []*models.ItemRequest) error {
	for _, request := range requests {
		items, err := s.items.ItemsByRequest(ctx, request.ID)
		if err != nil {
			return err
		}
		if items == nil {
			items = []*models.Item{}
		}
		request.Items = items
	}
	return nil
}
