// Package cli is the terminal storefront: one-shot commands and an
// interactive shop session on top of the usecase views.
package cli

import (
	"fmt"
	"io"
	"os"

	"cakeshop/config"
	"cakeshop/internal/clients"
	"cakeshop/internal/delivery/cli/output"
	"cakeshop/internal/notify"
	"cakeshop/internal/session"
	"cakeshop/internal/usecase"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

type rootFlags struct {
	apiURL    string
	stateFile string
	logLevel  string
	color     string
	verbose   bool
}

// app holds what one invocation builds in PersistentPreRunE.
type app struct {
	flags   rootFlags
	cfg     *config.Config
	log     *logrus.Logger
	printer *output.Printer
	notices *notify.Center
	shell   *usecase.Shell
}

// NewRootCmd builds a fresh command tree. Every call has its own state.
func NewRootCmd(info BuildInfo) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cakeshop",
		Short: "Cake shop storefront",
		Long: `cakeshop browses the cake catalog, manages your cart and checks out
against the cake shop API.

Example usage:
  cakeshop products                 # List the cakes on sale
  cakeshop register --name Jane --email jane@example.com
  cakeshop login --email jane@example.com
  cakeshop add 1 --quantity 2       # Put two of cake 1 in the cart
  cakeshop cart                     # Show the cart and its total
  cakeshop checkout                 # Pay for the cart
  cakeshop shop                     # Interactive session`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipSetup"] == "true" {
				return nil
			}
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.apiURL, "api-url", "", "API server base URL (overrides CAKESHOP_API_URL)")
	pf.StringVar(&a.flags.stateFile, "state-file", "", "file holding the saved session (overrides CAKESHOP_STATE_FILE)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	pf.StringVar(&a.flags.color, "color", "", "color output: auto, always, never (overrides CAKESHOP_COLOR)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.newProductsCmd(),
		a.newLoginCmd(),
		a.newRegisterCmd(),
		a.newLogoutCmd(),
		a.newWhoamiCmd(),
		a.newCartCmd(),
		a.newAddCmd(),
		a.newCheckoutCmd(),
		a.newShopCmd(),
		newVersionCmd(info),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	stderr := cmd.ErrOrStderr()

	bootstrap := logrus.New()
	bootstrap.SetOutput(stderr)
	bootstrap.SetLevel(logrus.WarnLevel)

	cfg, err := config.Load(bootstrap)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = a.flags.apiURL
	}
	if flags.Changed("state-file") {
		cfg.StateFile = a.flags.stateFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if flags.Changed("color") {
		cfg.Color = a.flags.color
	}
	if a.flags.verbose {
		cfg.LogLevel = logrus.DebugLevel.String()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	a.cfg = cfg

	a.log = cfg.NewLogger(stderr)
	mode, err := output.ParseColorMode(cfg.Color)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	a.printer = output.NewPrinter(out, stderr, output.ResolveColors(mode, isTerminal(out)))

	store := session.NewStore(session.NewFileStorage(cfg.StateFile), a.log)
	api := clients.NewShopHTTPClient(cfg.APIURL, cfg.HTTPTimeout, a.log)
	a.notices = notify.NewCenter(a.log)
	a.shell = usecase.NewShell(cmd.Context(), api, store, a.notices, a.log)

	a.log.Debugf("CLI: Ready (api=%s, state=%s, authenticated=%t)", cfg.APIURL, cfg.StateFile, store.Authenticated())
	return nil
}

// action wraps a command body so the shell is released however it ends.
func (a *app) action(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()
		return fn(cmd, args)
	}
}

func (a *app) close() {
	if a.shell != nil {
		a.shell.Close()
	}
}

// flushNotices prints and dismisses every active notice.
func (a *app) flushNotices() {
	for _, n := range a.notices.Active() {
		a.printer.Notice(n)
	}
	a.notices.DismissAll()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
