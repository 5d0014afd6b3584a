package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-social-shop/internal/models"
	"github.com/pribylovaa/go-social-shop/internal/storage"
	"github.com/pribylovaa/go-social-shop/mocks"
	"github.com/stretchr/testify/require"
)

func TestService_ProductByID(t *testing.T) {
	s, ms, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ctx := context.Background()

	ms.EXPECT().ProductByID(gomock.Any(), "p1").Return(&models.Product{ID: "p1"}, nil)
	p, err := s.ProductByID(ctx, " p1 ")
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)

	ms.EXPECT().ProductByID(gomock.Any(), "p2").Return(nil, storage.ErrNotFound)
	_, err = s.ProductByID(ctx, "p2")
	require.ErrorIs(t, err, ErrNotFound)

	ms.EXPECT().ProductByID(gomock.Any(), "p3").Return(nil, errors.New("boom"))
	_, err = s.ProductByID(ctx, "p3")
	require.ErrorIs(t, err, ErrInternal)

	_, err = s.ProductByID(ctx, "")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestService_CreateProduct(t *testing.T) {
	s, ms, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ctx := context.Background()
	admin := models.Actor{UserID: uuid.New(), Role: models.RoleAdmin}

	_, err := s.CreateProduct(ctx, models.Actor{UserID: uuid.New()}, models.Product{Name: "Mug", Price: 1})
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = s.CreateProduct(ctx, admin, models.Product{Name: "  ", Price: 1})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.CreateProduct(ctx, admin, models.Product{Name: "Mug", Price: -1})
	require.ErrorIs(t, err, ErrInvalidArgument)

	ms.EXPECT().CreateProduct(gomock.Any(), models.Product{Name: "Mug", Price: 12.5, Stock: 3}).
		Return(&models.Product{ID: "p1", Name: "Mug", Price: 12.5, Stock: 3}, nil)
	p, err := s.CreateProduct(ctx, admin, models.Product{Name: " Mug ", Price: 12.5, Stock: 3})
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)
}

func TestService_ProductByID_Cache(t *testing.T) {
	s, ms, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	mc := mocks.NewMockProductCache(ctrl)
	s.SetProductCache(mc)
	s.cfg.Cache.ProductTTL = time.Minute

	ctx := context.Background()
	cached := &models.Product{ID: "p1", Name: "Mug", Price: 10}

	// hit: хранилище не трогаем.
	mc.EXPECT().Get(gomock.Any(), "p1").Return(cached, true, nil)
	p, err := s.ProductByID(ctx, "p1")
	require.NoError(t, err)
	require.Same(t, cached, p)

	// miss: читаем из хранилища и кладём в кэш.
	fresh := &models.Product{ID: "p2", Name: "Tee", Price: 5}
	gomock.InOrder(
		mc.EXPECT().Get(gomock.Any(), "p2").Return(nil, false, nil),
		ms.EXPECT().ProductByID(gomock.Any(), "p2").Return(fresh, nil),
		mc.EXPECT().Set(gomock.Any(), fresh, time.Minute).Return(nil),
	)
	p, err = s.ProductByID(ctx, "p2")
	require.NoError(t, err)
	require.Equal(t, "p2", p.ID)

	// сбой кэша не ломает чтение.
	mc.EXPECT().Get(gomock.Any(), "p3").Return(nil, false, errors.New("redis down"))
	ms.EXPECT().ProductByID(gomock.Any(), "p3").Return(&models.Product{ID: "p3"}, nil)
	mc.EXPECT().Set(gomock.Any(), gomock.Any(), time.Minute).Return(errors.New("redis down"))
	p, err = s.ProductByID(ctx, "p3")
	require.NoError(t, err)
	require.Equal(t, "p3", p.ID)

	// not found не кэшируется.
	mc.EXPECT().Get(gomock.Any(), "p4").Return(nil, false, nil)
	ms.EXPECT().ProductByID(gomock.Any(), "p4").Return(nil, storage.ErrNotFound)
	_, err = s.ProductByID(ctx, "p4")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_CreateProduct_WritesThroughCache(t *testing.T) {
	s, ms, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	mc := mocks.NewMockProductCache(ctrl)
	s.SetProductCache(mc)
	s.cfg.Cache.ProductTTL = time.Minute

	admin := models.Actor{UserID: uuid.New(), Role: models.RoleAdmin}
	created := &models.Product{ID: "p9", Name: "Cap", Price: 3}

	ms.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).Return(created, nil)
	mc.EXPECT().Set(gomock.Any(), created, time.Minute).Return(nil)

	p, err := s.CreateProduct(context.Background(), admin, models.Product{Name: "Cap", Price: 3})
	require.NoError(t, err)
	require.Equal(t, "p9", p.ID)
}
