package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cakeshop/internal/usecase"

	"github.com/spf13/cobra"
)

func (a *app) newShopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shop",
		Short: "Interactive shopping session",
		Long: `Start an interactive session that reads one command per line from stdin.
The catalog is loaded once on start. The cart stays open between commands
and is refreshed when you sign in or out. Type help for the command list.`,
		Args: cobra.NoArgs,
		RunE: a.action(func(cmd *cobra.Command, args []string) error {
			return a.runShop(cmd.Context(), cmd.InOrStdin())
		}),
	}
}

func (a *app) runShop(ctx context.Context, in io.Reader) error {
	out := a.printer.Out()
	a.printer.Print("Welcome to the cake shop. Type help for commands.")
	if err := a.listProducts(ctx); err != nil {
		a.report(err)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, a.prompt())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		quit, err := a.dispatch(ctx, fields[0], fields[1:])
		if err != nil {
			a.report(err)
		}
		if quit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (a *app) dispatch(ctx context.Context, name string, args []string) (bool, error) {
	switch strings.ToLower(name) {
	case "quit", "exit":
		return true, nil
	case "help", "?":
		a.printHelp()
	case "products":
		return false, a.listProducts(ctx)
	case "refresh":
		return false, a.refreshProducts(ctx)
	case "whoami":
		renderNav(a.printer, a.shell.Authenticated())
	case "login":
		if len(args) != 2 {
			return false, errors.New("usage: login <email> <password>")
		}
		if err := a.login(ctx, args[0], args[1]); err != nil {
			return false, err
		}
		return false, a.refreshOpenCart(ctx)
	case "register":
		if len(args) < 3 {
			return false, errors.New("usage: register <email> <password> <name>")
		}
		return false, a.register(ctx, strings.Join(args[2:], " "), args[0], args[1])
	case "logout":
		if err := a.logout(); err != nil {
			return false, err
		}
		return false, a.refreshOpenCart(ctx)
	case "cart":
		return false, a.showCart(ctx)
	case "close":
		a.shell.CloseCart()
		a.printer.Print("Cart closed")
	case "add":
		if len(args) < 1 || len(args) > 2 {
			return false, errors.New("usage: add <productID> [quantity]")
		}
		productID, err := parseProductID(args[0])
		if err != nil {
			return false, err
		}
		quantity := 1
		if len(args) == 2 {
			if quantity, err = parseQuantity(args[1]); err != nil {
				return false, err
			}
		}
		return false, a.addToCart(ctx, productID, quantity)
	case "checkout":
		return false, a.checkout(ctx)
	default:
		return false, fmt.Errorf("unknown command %q (type help)", name)
	}
	return false, nil
}

// refreshOpenCart shows the reload a session change started on an open cart.
func (a *app) refreshOpenCart(ctx context.Context) error {
	if a.shell.Cart.Snapshot().Phase == usecase.CartClosed {
		return nil
	}
	if err := wait(ctx, a.shell.OpenCart(ctx)); err != nil {
		return err
	}
	return renderCart(a.printer, a.shell.Cart.Snapshot())
}

func (a *app) report(err error) {
	var rep *reportedError
	if errors.As(err, &rep) {
		return
	}
	a.printer.Error("%v", err)
}

func (a *app) prompt() string {
	if a.shell.Authenticated() {
		return "cakeshop (signed in)> "
	}
	return "cakeshop> "
}

func (a *app) printHelp() {
	p := a.printer
	p.Print("  products                     list the cakes (refresh reloads them)")
	if a.shell.Authenticated() {
		p.Print("  add <productID> [quantity]   add a cake to the cart")
		p.Print("  cart                         open the cart (close hides it)")
		p.Print("  checkout                     pay for the cart")
		p.Print("  logout                       sign out")
	} else {
		p.Print("  login <email> <password>     sign in")
		p.Print("  register <email> <password> <name>")
		p.Print("                               create an account")
		p.Print("  cart                         open the cart")
	}
	p.Print("  whoami                       show the session state")
	p.Print("  quit                         leave the shop")
}
