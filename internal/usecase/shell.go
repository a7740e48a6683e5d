package usecase

import (
	"context"

	"cakeshop/internal/clients"
	"cakeshop/internal/notify"
	"cakeshop/internal/session"

	"github.com/sirupsen/logrus"
)

// Shell composes the storefront: it owns the session and the modal/drawer
// visibility and resets dependent views when the session changes.
type Shell struct {
	Session *session.Store
	Notices *notify.Center
	Auth    *AuthView
	Catalog *CatalogView
	Cart    *CartView

	ctx         context.Context
	log         *logrus.Logger
	unsubscribe func()
}

// NewShell wires the views. ctx bounds the loads the shell starts on its own
// in response to session changes.
func NewShell(ctx context.Context, api clients.ShopClient, store *session.Store, notices *notify.Center, logger *logrus.Logger) *Shell {
	s := &Shell{
		Session: store,
		Notices: notices,
		Auth:    NewAuthView(api, store, logger),
		Catalog: NewCatalogView(api, store, notices, logger),
		Cart:    NewCartView(api, store, notices, logger),
		ctx:     ctx,
		log:     logger,
	}
	s.unsubscribe = store.Subscribe(s.onSessionChange)
	return s
}

func (s *Shell) onSessionChange(_ string, authenticated bool) {
	s.log.Debugf("Shell: Session changed (authenticated=%t), reloading dependent views", authenticated)
	s.Cart.Reload(s.ctx)
}

func (s *Shell) Authenticated() bool {
	return s.Session.Authenticated()
}

func (s *Shell) OpenLogin()    { s.Auth.Open(ModeLogin) }
func (s *Shell) OpenRegister() { s.Auth.Open(ModeRegister) }

func (s *Shell) Login(ctx context.Context, email, password string) error {
	return s.Auth.Login(ctx, email, password)
}

func (s *Shell) Register(ctx context.Context, name, email, password string) error {
	return s.Auth.Register(ctx, name, email, password)
}

func (s *Shell) Logout() error {
	s.log.Info("Shell: Logging out")
	return s.Session.ClearToken()
}

func (s *Shell) OpenCart(ctx context.Context) <-chan struct{} {
	return s.Cart.Open(ctx)
}

func (s *Shell) CloseCart() {
	s.Cart.Close()
}

// Close detaches the shell from the session and unmounts the catalog. Views
// keep working but no longer react to login/logout.
func (s *Shell) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.Catalog.Unmount()
}
