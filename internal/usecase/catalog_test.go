package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"cakeshop/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogView_MountLoadsOnce(t *testing.T) {
	logger, store, notices := newTestDeps(t)
	shop := newFakeShop()
	release := make(chan struct{})
	shop.products = func() ([]domain.Product, error) {
		<-release
		return []domain.Product{*vanilla()}, nil
	}
	view := NewCatalogView(shop, store, notices, logger)

	assert.True(t, view.Snapshot().Loading, "catalog starts in loading state")

	done := view.Mount(context.Background())
	again := view.Mount(context.Background())
	assert.True(t, view.Snapshot().Loading)

	close(release)
	wait(t, done)
	wait(t, again)

	state := view.Snapshot()
	assert.False(t, state.Loading)
	require.Len(t, state.Products, 1)
	assert.Equal(t, "Vanilla", state.Products[0].Name)
	assert.NoError(t, state.Err)
	assert.Equal(t, 1, shop.count("products"))
}

func TestCatalogView_FailureClearsLoading(t *testing.T) {
	logger, store, notices := newTestDeps(t)
	shop := newFakeShop()
	shop.products = func() ([]domain.Product, error) {
		return nil, &domain.TransportError{Op: "list products", StatusCode: 500}
	}
	view := NewCatalogView(shop, store, notices, logger)

	wait(t, view.Mount(context.Background()))

	state := view.Snapshot()
	assert.False(t, state.Loading)
	assert.Empty(t, state.Products)
	assert.NotNil(t, state.Products)
	assert.Error(t, state.Err)
}

func TestCatalogView_DiscardsResponseAfterUnmount(t *testing.T) {
	logger, store, notices := newTestDeps(t)
	shop := newFakeShop()
	release := make(chan struct{})
	shop.products = func() ([]domain.Product, error) {
		<-release
		return []domain.Product{*vanilla()}, nil
	}
	view := NewCatalogView(shop, store, notices, logger)

	done := view.Mount(context.Background())
	view.Unmount()
	close(release)
	wait(t, done)

	state := view.Snapshot()
	assert.False(t, state.Mounted)
	assert.Empty(t, state.Products)
}

func TestCatalogView_RemountIgnoresOldMount(t *testing.T) {
	logger, store, notices := newTestDeps(t)
	shop := newFakeShop()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	shop.products = func() ([]domain.Product, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
			return []domain.Product{{ID: 99, Name: "Stale"}}, nil
		}
		return []domain.Product{*vanilla()}, nil
	}
	view := NewCatalogView(shop, store, notices, logger)

	oldDone := view.Mount(context.Background())
	<-started
	view.Unmount()
	wait(t, view.Mount(context.Background()))
	close(release)
	wait(t, oldDone)

	state := view.Snapshot()
	require.Len(t, state.Products, 1)
	assert.Equal(t, "Vanilla", state.Products[0].Name)
}

func TestCatalogView_AddToCartWithoutSession(t *testing.T) {
	logger, store, notices := newTestDeps(t)
	shop := newFakeShop()
	view := NewCatalogView(shop, store, notices, logger)

	err := view.AddToCart(context.Background(), 1, 1)

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Zero(t, shop.count("add"))
	assert.Equal(t, []string{NoticeLoginToAdd}, noticeTexts(notices))
}

func TestCatalogView_AddToCart(t *testing.T) {
	logger, store, notices := newTestDeps(t)
	mustSetToken(t, store, "abc")
	shop := newFakeShop()
	view := NewCatalogView(shop, store, notices, logger)

	require.NoError(t, view.AddToCart(context.Background(), 1, 0))

	require.Len(t, shop.addCalls, 1)
	assert.Equal(t, addCall{token: "abc", productID: 1, quantity: 1}, shop.addCalls[0])
	assert.Equal(t, []string{NoticeAddedToCart}, noticeTexts(notices))
	assert.Zero(t, shop.count("products"), "adding must not refresh the catalog")
}

func TestCatalogView_AddToCartFailureIsAcknowledged(t *testing.T) {
	logger, store, notices := newTestDeps(t)
	mustSetToken(t, store, "abc")
	shop := newFakeShop()
	shop.add = func(addCall) error {
		return &domain.TransportError{Op: "add to cart", StatusCode: 409, Message: "sold out"}
	}
	view := NewCatalogView(shop, store, notices, logger)

	err := view.AddToCart(context.Background(), 1, 1)

	var transportErr *domain.TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.Equal(t, []string{"Could not add to cart: sold out"}, noticeTexts(notices))
}
