package service

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shareit/internal/database"
	"shareit/internal/models"
	"shareit/internal/validation"
)

func newRequestService(store *mockStore) *RequestService {
	logger := zerolog.New(io.Discard)
	return NewRequestService(store, store, store, &logger)
}

func TestRequestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := new(mockStore)
		svc := newRequestService(store)

		store.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1}, nil)
		store.On("CreateRequest", ctx, mock.AnythingOfType("*models.ItemRequest")).
			Run(func(args mock.Arguments) { args.Get(1).(*models.ItemRequest).ID = 3 }).Return(nil)

		request, err := svc.Create(ctx, 1, &models.ItemRequest{Description: "нужна дрель"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), request.ID)
		assert.Equal(t, int64(1), request.RequestorID)
		assert.NotNil(t, request.Items)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		store := new(mockStore)
		svc := newRequestService(store)

		store.On("GetUser", ctx, int64(9)).Return(nil, database.ErrNotFound)

		_, err := svc.Create(ctx, 9, &models.ItemRequest{Description: "x"})
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestRequestServiceGetOwn(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	svc := newRequestService(store)

	store.On("UserExists", ctx, int64(1)).Return(true, nil)
	store.On("RequestsByRequestor", ctx, int64(1)).Return([]*models.ItemRequest{{ID: 3}}, nil)
	store.On("ItemsByRequest", ctx, int64(3)).Return([]*models.Item{{ID: 7}}, nil)

	requests, err := svc.GetOwn(ctx, 1)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Len(t, requests[0].Items, 1)
}

func TestRequestServiceGetAll(t *testing.T) {
	ctx := context.Background()

	t.Run("ExcludesOwnAndPages", func(t *testing.T) {
		store := new(mockStore)
		svc := newRequestService(store)

		store.On("UserExists", ctx, int64(1)).Return(true, nil)
		store.On("RequestsFromOthers", ctx, int64(1), 10, 0).Return([]*models.ItemRequest{{ID: 4}}, nil)
		store.On("ItemsByRequest", ctx, int64(4)).Return(nil, nil)

		requests, err := svc.GetAll(ctx, 1, 5, 10)
		require.NoError(t, err)
		require.Len(t, requests, 1)
		assert.NotNil(t, requests[0].Items)
	})

	t.Run("BadPagination", func(t *testing.T) {
		store := new(mockStore)
		svc := newRequestService(store)

		store.On("UserExists", ctx, int64(1)).Return(true, nil)

		_, err := svc.GetAll(ctx, 1, 0, -5)
		var incorrect *validation.IncorrectParameterError
		assert.ErrorAs(t, err, &incorrect)
	})
}

func TestRequestServiceGet(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		store := new(mockStore)
		svc := newRequestService(store)

		store.On("UserExists", ctx, int64(1)).Return(true, nil)
		store.On("GetRequest", ctx, int64(99)).Return(nil, database.ErrNotFound)

		_, err := svc.Get(ctx, 1, 99)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("InvalidRequestID", func(t *testing.T) {
		store := new(mockStore)
		svc := newRequestService(store)

		_, err := svc.Get(ctx, 1, 0)
		var incorrect *validation.IncorrectParameterError
		require.ErrorAs(t, err, &incorrect)
		assert.Equal(t, "requestId", incorrect.Param)
	})
}
