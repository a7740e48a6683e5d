package cli

import (
	"context"
	"errors"
	"fmt"

	"cakeshop/internal/domain"
	"cakeshop/internal/usecase"
)

// The actions below are shared by the one-shot commands and the shop session.
// They print their own outcome; a returned reportedError needs no further
// output.

func (a *app) listProducts(ctx context.Context) error {
	a.printer.Progress(textLoadingProducts)
	if err := wait(ctx, a.shell.Catalog.Mount(ctx)); err != nil {
		return err
	}
	state := a.shell.Catalog.Snapshot()
	if state.Err != nil {
		a.printer.Error("Could not load products: %s", domain.UserMessage(state.Err, "the shop is unreachable"))
		return reported(state.Err)
	}
	return renderProducts(a.printer, state)
}

func (a *app) refreshProducts(ctx context.Context) error {
	a.shell.Catalog.Unmount()
	return a.listProducts(ctx)
}

func (a *app) login(ctx context.Context, email, password string) error {
	a.shell.OpenLogin()
	a.printer.Progress(usecase.AuthState{Mode: usecase.ModeLogin, Loading: true}.SubmitLabel())

	if err := a.shell.Login(ctx, email, password); err != nil {
		if errors.Is(err, usecase.ErrAuthInProgress) {
			return err
		}
		a.printer.Error("%s", a.shell.Auth.Snapshot().Error)
		return reported(err)
	}
	a.printer.Success("Signed in as %s", email)
	return nil
}

func (a *app) register(ctx context.Context, name, email, password string) error {
	a.shell.OpenRegister()
	a.printer.Progress(usecase.AuthState{Mode: usecase.ModeRegister, Loading: true}.SubmitLabel())

	if err := a.shell.Register(ctx, name, email, password); err != nil {
		if errors.Is(err, usecase.ErrAuthInProgress) {
			return err
		}
		a.printer.Error("%s", a.shell.Auth.Snapshot().Error)
		return reported(err)
	}
	a.printer.Success("Account created for %s. Sign in to continue.", email)
	return nil
}

func (a *app) logout() error {
	if !a.shell.Authenticated() {
		a.printer.Info("Not signed in")
		return nil
	}
	if err := a.shell.Logout(); err != nil {
		return fmt.Errorf("signed out, but the saved session could not be removed: %w", err)
	}
	a.printer.Success("Signed out")
	return nil
}

// showCart opens the cart, or reopens it when it is already open, so the
// items are always fetched fresh.
func (a *app) showCart(ctx context.Context) error {
	a.shell.CloseCart()
	a.printer.Progress(textLoadingCart)
	if err := wait(ctx, a.shell.OpenCart(ctx)); err != nil {
		return err
	}
	state := a.shell.Cart.Snapshot()
	if err := renderCart(a.printer, state); err != nil {
		return err
	}
	if state.Err != nil {
		return reported(state.Err)
	}
	return nil
}

func (a *app) addToCart(ctx context.Context, productID int64, quantity int) error {
	err := a.shell.Catalog.AddToCart(ctx, productID, quantity)
	a.flushNotices()
	if err != nil {
		return reported(err)
	}
	return nil
}

// checkout loads the cart first when it is not open, then pays for it.
func (a *app) checkout(ctx context.Context) error {
	if a.shell.Cart.Snapshot().Phase == usecase.CartClosed {
		a.printer.Progress(textLoadingCart)
	}
	if err := wait(ctx, a.shell.OpenCart(ctx)); err != nil {
		return err
	}

	if state := a.shell.Cart.Snapshot(); state.Err != nil {
		a.printer.Error("Could not load cart: %s", domain.UserMessage(state.Err, "please try again"))
		return reported(state.Err)
	}

	res, err := a.shell.Cart.Checkout(ctx)
	a.flushNotices()
	state := a.shell.Cart.Snapshot()
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return reported(err)
	case errors.Is(err, domain.ErrEmptyCart):
		a.printer.Print(textEmptyCart)
		return reported(err)
	case errors.Is(err, usecase.ErrCartNotReady):
		return err
	case err != nil:
		renderCartStatus(a.printer, state)
		return reported(err)
	}

	renderCartStatus(a.printer, state)
	if !res.Succeeded() {
		return reported(errors.New(state.Status))
	}
	return nil
}
