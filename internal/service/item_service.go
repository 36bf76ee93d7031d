package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/validation"

	"github.com/rs/zerolog"
)

// searchTextPattern rejects search strings with anything beyond letters,
// digits and whitespace.
var searchTextPattern = regexp.MustCompile(`^[\sа-яА-Яa-zA-Z0-9]+$`)

type ItemService struct {
	items    domain.ItemStore
	users    domain.UserDirectory
	requests domain.RequestStore
	comments domain.CommentStore
	cache    domain.ItemViewCache
	logger   *zerolog.Logger
}

func NewItemService(items domain.ItemStore, users domain.UserDirectory, requests domain.RequestStore,
	comments domain.CommentStore, cache domain.ItemViewCache, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		items:    items,
		users:    users,
		requests: requests,
		comments: comments,
		cache:    cache,
		logger:   logger,
	}
}

// Create persists a new item for the owner. When the item answers an item
// request, the request must exist.
func (s *ItemService) Create(ctx context.Context, userID int64, item *models.Item) (*models.Item, error) {
	owner, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if item.RequestID != nil {
		if _, err := s.requests.GetRequest(ctx, *item.RequestID); err != nil {
			return nil, err
		}
	}

	item.OwnerID = owner.ID
	if err := s.items.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", userID).Msg("item created")
	return item, nil
}

// Update applies a partial patch; only the owner may edit an item.
func (s *ItemService) Update(ctx context.Context, userID, itemID int64, patch *models.ItemPatch) (*models.Item, error) {
	if err := s.checkUserExists(ctx, userID); err != nil {
		return nil, err
	}

	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != userID {
		return nil, fmt.Errorf("item %d belongs to another user: %w", itemID, database.ErrNotOwner)
	}

	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}

	if err := s.items.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, itemID)
	s.logger.Info().Int64("item_id", itemID).Int64("owner_id", userID).Msg("item updated")
	return item, nil
}

// Get returns the item with its comments. Last/next approved bookings are
// attached only when the caller is the owner; the non-owner view is served
// through the cache.
func (s *ItemService) Get(ctx context.Context, userID, itemID int64) (*models.Item, error) {
	if err := s.checkUserExists(ctx, userID); err != nil {
		return nil, err
	}

	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.OwnerID != userID {
		if cached := s.cachedView(ctx, itemID); cached != nil {
			return cached, nil
		}
		if err := s.attachComments(ctx, item); err != nil {
			return nil, err
		}
		s.storeView(ctx, item)
		return item, nil
	}

	if err := s.attachBookingRefs(ctx, item); err != nil {
		return nil, err
	}
	if err := s.attachComments(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListByOwner returns the owner's items with last/next bookings and comments.
func (s *ItemService) ListByOwner(ctx context.Context, userID int64, from, size int) ([]*models.Item, error) {
	if err := s.checkUserExists(ctx, userID); err != nil {
		return nil, err
	}
	if err := validation.Pagination(from, size); err != nil {
		return nil, err
	}

	items, err := s.items.ItemsByOwner(ctx, userID, size, validation.PageOffset(from, size))
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if err := s.attachBookingRefs(ctx, item); err != nil {
			return nil, err
		}
		if err := s.attachComments(ctx, item); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Search matches available items by name or description. An empty query
// returns an empty list, not an error. The page index equals from, which is
// the historical behavior of this endpoint.
func (s *ItemService) Search(ctx context.Context, text string, from, size int) ([]*models.Item, error) {
	if text == "" {
		return []*models.Item{}, nil
	}
	if !searchTextPattern.MatchString(text) {
		return nil, &validation.IncorrectParameterError{Param: "text"}
	}
	if err := validation.Pagination(from, size); err != nil {
		return nil, err
	}

	items, err := s.items.SearchItems(ctx, text, size, from*size)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.Item{}
	}
	return items, nil
}

// CreateComment accepts a comment only from a user who actually finished an
// approved booking of the item.
func (s *ItemService) CreateComment(ctx context.Context, userID, itemID int64, text string) (*models.Comment, error) {
	author, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	booking, err := s.comments.LatestFinishedBooking(ctx, item.ID, author.ID, models.StatusApproved, time.Now())
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("no finished booking of item %d by user %d: %w",
			itemID, userID, database.ErrNotAvailable)
	}

	comment := &models.Comment{
		ItemID:     item.ID,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Text:       text,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, itemID)
	s.logger.Info().Int64("item_id", itemID).Int64("author_id", userID).Msg("comment created")
	return comment, nil
}

func (s *ItemService) ItemsByRequest(ctx context.Context, requestID int64) ([]*models.Item, error) {
	return s.items.ItemsByRequest(ctx, requestID)
}

func (s *ItemService) checkUserExists(ctx context.Context, userID int64) error {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("user %d: %w", userID, database.ErrNotFound)
	}
	return nil
}

// attachBookingRefs fills the owner-only last/next approved booking views.
func (s *ItemService) attachBookingRefs(ctx context.Context, item *models.Item) error {
	bookings, err := s.comments.ApprovedBookingsByItem(ctx, item.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	var last, next *models.Booking
	for _, b := range bookings {
		if b.Start.Before(now) {
			if last == nil || b.Start.After(last.Start) {
				last = b
			}
		} else if b.Start.After(now) {
			if next == nil || b.Start.Before(next.Start) {
				next = b
			}
		}
	}

	item.LastBooking = last.Ref()
	item.NextBooking = next.Ref()
	return nil
}

func (s *ItemService) attachComments(ctx context.Context, item *models.Item) error {
	comments, err := s.comments.CommentsByItem(ctx, item.ID)
	if err != nil {
		return err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	item.Comments = comments
	return nil
}

func (s *ItemService) cachedView(ctx context.Context, itemID int64) *models.Item {
	if s.cache == nil {
		return nil
	}
	item, err := s.cache.GetItemView(ctx, itemID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("item_id", itemID).Msg("item view cache read failed")
		return nil
	}
	return item
}

func (s *ItemService) storeView(ctx context.Context, item *models.Item) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetItemView(ctx, item); err != nil {
		s.logger.Warn().Err(err).Int64("item_id", item.ID).Msg("item view cache write failed")
	}
}

func (s *ItemService) invalidateCache(ctx context.Context, itemID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateItem(ctx, itemID); err != nil {
		s.logger.Warn().Err(err).Int64("item_id", itemID).Msg("item view cache invalidation failed")
	}
}
