package usecase

import (
	"context"
	"fmt"
	"sync"

	"cakeshop/internal/clients"
	"cakeshop/internal/domain"
	"cakeshop/internal/notify"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	StatusPaymentSuccessful = "Payment successful! 🎉"
	NoticeLoginToCheckout   = "Please login to checkout"
)

type CartPhase int

const (
	CartClosed CartPhase = iota
	CartLoading
	CartReady
)

func (p CartPhase) String() string {
	switch p {
	case CartClosed:
		return "closed"
	case CartLoading:
		return "loading"
	case CartReady:
		return "ready"
	default:
		return fmt.Sprintf("CartPhase(%d)", int(p))
	}
}

type StatusKind string

const (
	StatusNone    StatusKind = ""
	StatusSuccess StatusKind = "success"
	StatusFailure StatusKind = "failure"
)

type CartState struct {
	Phase         CartPhase
	Items         []domain.CartItem
	Total         decimal.Decimal
	Status        string
	StatusKind    StatusKind
	Authenticated bool
	CanCheckout   bool
	Err           error
}

func (s CartState) Empty() bool {
	return len(s.Items) == 0
}

// CartView is the cart drawer. Every load gets a new generation and only the
// latest generation may write items, so a slow response from an earlier open
// never overwrites a newer one.
type CartView struct {
	api     clients.ShopClient
	tokens  TokenSource
	notices *notify.Center
	log     *logrus.Logger

	mu         sync.Mutex
	phase      CartPhase
	gen        uint64
	pending    <-chan struct{}
	items      []domain.CartItem
	loadErr    error
	status     string
	statusKind StatusKind
}

func NewCartView(api clients.ShopClient, tokens TokenSource, notices *notify.Center, logger *logrus.Logger) *CartView {
	return &CartView{
		api:     api,
		tokens:  tokens,
		notices: notices,
		log:     logger,
		pending: closedChan(),
	}
}

// Open moves closed -> loading and returns a channel closed when the load
// settles. The previous checkout status is cleared. Opening an open cart
// returns the pending load.
func (v *CartView) Open(ctx context.Context) <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase != CartClosed {
		return v.pending
	}
	v.status = ""
	v.statusKind = StatusNone
	v.log.Debug("Cart: Opened")
	return v.startLoadLocked(ctx)
}

// Reload re-enters loading while open. It does nothing for a closed cart.
func (v *CartView) Reload(ctx context.Context) <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase == CartClosed {
		return closedChan()
	}
	return v.startLoadLocked(ctx)
}

func (v *CartView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase == CartClosed {
		return
	}
	v.phase = CartClosed
	v.gen++
	v.log.Debug("Cart: Closed")
}

func (v *CartView) startLoadLocked(ctx context.Context) <-chan struct{} {
	v.gen++
	done := make(chan struct{})
	v.pending = done

	token, ok := v.tokens.Token()
	if !ok {
		v.log.Debug("Cart: No session, skipping cart request")
		v.items = nil
		v.loadErr = nil
		v.status = ""
		v.statusKind = StatusNone
		v.phase = CartReady
		close(done)
		return done
	}

	v.phase = CartLoading
	go v.load(ctx, v.gen, token, done)
	return done
}

func (v *CartView) load(ctx context.Context, gen uint64, token string, done chan struct{}) {
	defer close(done)
	v.log.Debugf("Cart: Loading items (generation %d)", gen)

	items, err := v.api.ListCart(ctx, token)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase == CartClosed || gen != v.gen {
		v.log.Debugf("Cart: Discarding stale cart response (generation %d, current %d)", gen, v.gen)
		return
	}
	v.phase = CartReady
	if err != nil {
		v.log.Warnf("Cart: Failed to load items: %v", err)
		v.items = nil
		v.loadErr = err
		return
	}
	v.items = items
	v.loadErr = nil
	v.log.Infof("Cart: Loaded %d items", len(items))
}

// Snapshot computes the total from the items it returns.
func (v *CartView) Snapshot() CartState {
	_, authenticated := v.tokens.Token()

	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]domain.CartItem, len(v.items))
	copy(items, v.items)
	return CartState{
		Phase:         v.phase,
		Items:         items,
		Total:         domain.CartTotal(items),
		Status:        v.status,
		StatusKind:    v.statusKind,
		Authenticated: authenticated,
		CanCheckout:   authenticated && v.phase == CartReady && len(items) > 0,
		Err:           v.loadErr,
	}
}

// Checkout pays for the loaded cart. A non-success status is reported through
// the returned result and the cart status line, not as an error. The status
// line is only written if the cart was not closed or reloaded meanwhile.
func (v *CartView) Checkout(ctx context.Context) (*domain.CheckoutResult, error) {
	token, ok := v.tokens.Token()
	if !ok {
		v.log.Info("Cart: Checkout attempted without a session")
		v.notices.Warning(NoticeLoginToCheckout)
		return nil, domain.ErrUnauthenticated
	}

	v.mu.Lock()
	switch {
	case v.phase != CartReady:
		v.mu.Unlock()
		return nil, ErrCartNotReady
	case len(v.items) == 0:
		v.mu.Unlock()
		return nil, domain.ErrEmptyCart
	}
	gen := v.gen
	v.mu.Unlock()

	res, err := v.api.Checkout(ctx, token)

	v.mu.Lock()
	defer v.mu.Unlock()
	// A close, reopen or reload while paying owns the status line now.
	if v.phase == CartClosed || gen != v.gen {
		v.log.Debugf("Cart: Discarding stale checkout result (generation %d, current %d)", gen, v.gen)
		return res, err
	}
	if err != nil {
		v.log.Warnf("Cart: Checkout failed: %v", err)
		v.setStatusLocked(StatusFailure, "Checkout failed: "+domain.UserMessage(err, "could not reach the shop"))
		return nil, err
	}
	if !res.Succeeded() {
		v.log.Warnf("Cart: Checkout returned status %q", res.Status)
		msg := "Payment was not completed."
		if res.Status != "" {
			msg = fmt.Sprintf("Payment was not completed (status: %s).", res.Status)
		}
		v.setStatusLocked(StatusFailure, msg)
		return res, nil
	}
	v.log.Info("Cart: Checkout succeeded")
	v.setStatusLocked(StatusSuccess, StatusPaymentSuccessful)
	return res, nil
}

func (v *CartView) setStatusLocked(kind StatusKind, text string) {
	v.statusKind = kind
	v.status = text
}
