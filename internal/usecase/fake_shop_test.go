package usecase

import (
	"context"
	"sync"

	"cakeshop/internal/clients"
	"cakeshop/internal/domain"
)

type addCall struct {
	token     string
	productID int64
	quantity  int
}

// fakeShop is a scriptable clients.ShopClient. Hooks run inside the call, so
// a hook that blocks on a channel holds the response back.
type fakeShop struct {
	mu sync.Mutex

	login    func(email, password string) (*domain.LoginResult, error)
	register func(name, email, password string) (*domain.Ack, error)
	products func() ([]domain.Product, error)
	cart     func(call int) ([]domain.CartItem, error)
	add      func(addCall) error
	checkout func() (*domain.CheckoutResult, error)

	calls     map[string]int
	addCalls  []addCall
	cartCalls int
}

var _ clients.ShopClient = (*fakeShop)(nil)

func newFakeShop() *fakeShop {
	return &fakeShop{calls: make(map[string]int)}
}

func (f *fakeShop) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeShop) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeShop) Login(_ context.Context, email, password string) (*domain.LoginResult, error) {
	f.record("login")
	if f.login == nil {
		return &domain.LoginResult{Token: "token-" + email}, nil
	}
	return f.login(email, password)
}

func (f *fakeShop) Register(_ context.Context, name, email, password string) (*domain.Ack, error) {
	f.record("register")
	if f.register == nil {
		return &domain.Ack{}, nil
	}
	return f.register(name, email, password)
}

func (f *fakeShop) ListProducts(context.Context) ([]domain.Product, error) {
	f.record("products")
	if f.products == nil {
		return []domain.Product{}, nil
	}
	return f.products()
}

func (f *fakeShop) ListCart(_ context.Context, token string) ([]domain.CartItem, error) {
	f.record("cart")
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	f.mu.Lock()
	call := f.cartCalls
	f.cartCalls++
	f.mu.Unlock()
	if f.cart == nil {
		return []domain.CartItem{}, nil
	}
	return f.cart(call)
}

func (f *fakeShop) AddToCart(_ context.Context, token string, productID int64, quantity int) (*domain.Ack, error) {
	f.record("add")
	c := addCall{token: token, productID: productID, quantity: quantity}
	f.mu.Lock()
	f.addCalls = append(f.addCalls, c)
	f.mu.Unlock()
	if f.add != nil {
		if err := f.add(c); err != nil {
			return nil, err
		}
	}
	return &domain.Ack{}, nil
}

func (f *fakeShop) Checkout(_ context.Context, token string) (*domain.CheckoutResult, error) {
	f.record("checkout")
	if f.checkout == nil {
		return &domain.CheckoutResult{Status: domain.CheckoutSuccess}, nil
	}
	return f.checkout()
}
