package usecase

import (
	"context"
	"sync"

	"cakeshop/internal/clients"
	"cakeshop/internal/domain"
	"cakeshop/internal/notify"

	"github.com/sirupsen/logrus"
)

const (
	NoticeLoginToAdd  = "Please login to add to cart"
	NoticeAddedToCart = "Added to cart"
)

type CatalogState struct {
	Mounted  bool
	Loading  bool
	Products []domain.Product
	Err      error
}

// CatalogView loads the product grid once per mount. Responses that arrive
// after Unmount, or for an older mount, are dropped.
type CatalogView struct {
	api     clients.ShopClient
	tokens  TokenSource
	notices *notify.Center
	log     *logrus.Logger

	mu       sync.Mutex
	mounted  bool
	loading  bool
	gen      uint64
	pending  <-chan struct{}
	products []domain.Product
	err      error
}

func NewCatalogView(api clients.ShopClient, tokens TokenSource, notices *notify.Center, logger *logrus.Logger) *CatalogView {
	return &CatalogView{
		api:     api,
		tokens:  tokens,
		notices: notices,
		log:     logger,
		loading: true,
		pending: closedChan(),
	}
}

// Mount starts the product load and returns a channel closed once it settles.
// Mounting an already mounted view returns the pending load.
func (v *CatalogView) Mount(ctx context.Context) <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mounted {
		return v.pending
	}
	v.mounted = true
	v.loading = true
	v.err = nil
	v.gen++
	done := make(chan struct{})
	v.pending = done

	go v.load(ctx, v.gen, done)
	return done
}

func (v *CatalogView) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return
	}
	v.mounted = false
	v.gen++
	v.log.Debug("Catalog: Unmounted")
}

func (v *CatalogView) load(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)
	v.log.Debugf("Catalog: Loading products (generation %d)", gen)

	products, err := v.api.ListProducts(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted || gen != v.gen {
		v.log.Debugf("Catalog: Discarding stale product response (generation %d, current %d)", gen, v.gen)
		return
	}
	v.loading = false
	if err != nil {
		v.log.Warnf("Catalog: Failed to load products: %v", err)
		v.products = []domain.Product{}
		v.err = err
		return
	}
	v.products = products
	v.log.Infof("Catalog: Loaded %d products", len(products))
}

func (v *CatalogView) Snapshot() CatalogState {
	v.mu.Lock()
	defer v.mu.Unlock()
	products := make([]domain.Product, len(v.products))
	copy(products, v.products)
	return CatalogState{
		Mounted:  v.mounted,
		Loading:  v.loading,
		Products: products,
		Err:      v.err,
	}
}

// AddToCart issues one add call. Both outcomes end in a notice; the catalog
// itself is not refreshed. Without a session nothing is sent.
func (v *CatalogView) AddToCart(ctx context.Context, productID int64, quantity int) error {
	token, ok := v.tokens.Token()
	if !ok {
		v.log.Info("Catalog: Add to cart attempted without a session")
		v.notices.Warning(NoticeLoginToAdd)
		return domain.ErrUnauthenticated
	}
	if quantity < 1 {
		quantity = 1
	}

	if _, err := v.api.AddToCart(ctx, token, productID, quantity); err != nil {
		v.log.Warnf("Catalog: Add to cart failed for product %d: %v", productID, err)
		v.notices.Error("Could not add to cart: " + domain.UserMessage(err, "please try again"))
		return err
	}
	v.log.Infof("Catalog: Added product %d (quantity %d) to cart", productID, quantity)
	v.notices.Success(NoticeAddedToCart)
	return nil
}
