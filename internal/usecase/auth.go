package usecase

import (
	"context"
	"fmt"
	"sync"

	"cakeshop/internal/clients"
	"cakeshop/internal/domain"

	"github.com/sirupsen/logrus"
)

type AuthMode string

const (
	ModeLogin    AuthMode = "login"
	ModeRegister AuthMode = "register"
)

func ParseAuthMode(s string) (AuthMode, error) {
	switch AuthMode(s) {
	case ModeLogin, ModeRegister:
		return AuthMode(s), nil
	default:
		return "", fmt.Errorf("invalid auth mode %q: must be login or register", s)
	}
}

type AuthState struct {
	Visible bool
	Mode    AuthMode
	Loading bool
	Error   string
}

// SubmitLabel is the form button text for the current state.
func (s AuthState) SubmitLabel() string {
	switch {
	case s.Mode == ModeRegister && s.Loading:
		return "Creating..."
	case s.Mode == ModeRegister:
		return "Create account"
	case s.Loading:
		return "Signing in..."
	default:
		return "Sign in"
	}
}

// AuthView is the login/register modal: visibility, active mode, one loading
// flag and one error string shared by both forms.
type AuthView struct {
	api     clients.ShopClient
	session TokenWriter
	log     *logrus.Logger

	mu      sync.Mutex
	visible bool
	mode    AuthMode
	loading bool
	err     string
}

func NewAuthView(api clients.ShopClient, session TokenWriter, logger *logrus.Logger) *AuthView {
	return &AuthView{
		api:     api,
		session: session,
		log:     logger,
		mode:    ModeLogin,
	}
}

// Open shows the modal in mode with no leftover error.
func (v *AuthView) Open(mode AuthMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = true
	v.mode = mode
	v.err = ""
}

func (v *AuthView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = false
}

func (v *AuthView) SwitchMode(mode AuthMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
	v.err = ""
}

func (v *AuthView) Snapshot() AuthState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return AuthState{
		Visible: v.visible,
		Mode:    v.mode,
		Loading: v.loading,
		Error:   v.err,
	}
}

func (v *AuthView) begin() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loading {
		return ErrAuthInProgress
	}
	v.loading = true
	v.err = ""
	return nil
}

func (v *AuthView) fail(err error, fallback string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	v.err = domain.UserMessage(err, fallback)
}

// Login stores the token and closes the modal on success. On failure the
// server's message becomes the form error and the modal stays open.
func (v *AuthView) Login(ctx context.Context, email, password string) error {
	if err := v.begin(); err != nil {
		return err
	}

	res, err := v.api.Login(ctx, email, password)
	if err != nil {
		v.log.Warnf("Auth: Login failed for %s: %v", email, err)
		v.fail(err, "Login failed")
		return err
	}

	// Outside the lock: SetToken notifies listeners synchronously.
	if err := v.session.SetToken(res.Token); err != nil {
		v.log.Warnf("Auth: Logged in but the session will not survive a restart: %v", err)
	}

	v.mu.Lock()
	v.loading = false
	v.visible = false
	v.mu.Unlock()
	v.log.Infof("Auth: Logged in as %s", email)
	return nil
}

// Register never logs the user in. On success it flips to login mode and the
// modal stays open so the user signs in with the new credentials.
func (v *AuthView) Register(ctx context.Context, name, email, password string) error {
	if err := v.begin(); err != nil {
		return err
	}

	if _, err := v.api.Register(ctx, name, email, password); err != nil {
		v.log.Warnf("Auth: Registration failed for %s: %v", email, err)
		v.fail(err, "Registration failed")
		return err
	}

	v.mu.Lock()
	v.loading = false
	v.mode = ModeLogin
	v.mu.Unlock()
	v.log.Infof("Auth: Registered %s", email)
	return nil
}
