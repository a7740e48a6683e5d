package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) newProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the cakes on sale",
		Args:  cobra.NoArgs,
		RunE: a.action(func(cmd *cobra.Command, args []string) error {
			return a.listProducts(cmd.Context())
		}),
	}
}

func (a *app) newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Long: `Sign in with email and password. The session is saved to the state file
and reused by later commands until logout. The password is read from stdin
when --password is not given.`,
		Args: cobra.NoArgs,
		RunE: a.action(func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = promptLine(cmd, "Password: "); err != nil {
					return err
				}
			}
			return a.login(cmd.Context(), email, password)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) newRegisterCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account. Registering does not sign you in; run login
afterwards. The password is read from stdin when --password is not given.`,
		Args: cobra.NoArgs,
		RunE: a.action(func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = promptLine(cmd, "Password: "); err != nil {
					return err
				}
			}
			return a.register(cmd.Context(), name, email, password)
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: a.action(func(cmd *cobra.Command, args []string) error {
			return a.logout()
		}),
	}
}

func (a *app) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show whether a session is saved",
		Args:  cobra.NoArgs,
		RunE: a.action(func(cmd *cobra.Command, args []string) error {
			renderNav(a.printer, a.shell.Authenticated())
			return nil
		}),
	}
}

func (a *app) newCartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cart",
		Short: "Show the cart and its total",
		Args:  cobra.NoArgs,
		RunE: a.action(func(cmd *cobra.Command, args []string) error {
			return a.showCart(cmd.Context())
		}),
	}
}

func (a *app) newAddCmd() *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "add <productID>",
		Short: "Add a cake to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: a.action(func(cmd *cobra.Command, args []string) error {
			productID, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			return a.addToCart(cmd.Context(), productID, quantity)
		}),
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "number of cakes to add")
	return cmd
}

func (a *app) newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Pay for the cart",
		Args:  cobra.NoArgs,
		RunE: a.action(func(cmd *cobra.Command, args []string) error {
			return a.checkout(cmd.Context())
		}),
	}
}

func parseProductID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid product id %q: must be a positive integer", s)
	}
	return id, nil
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid quantity %q: must be a positive integer", s)
	}
	return n, nil
}

func promptLine(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
