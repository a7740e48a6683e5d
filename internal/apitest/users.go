package apitest

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

type user struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
}

// userRegistry keeps accounts and the tokens issued to them. Tokens are random
// uuids and never expire.
type userRegistry struct {
	log *logrus.Logger

	mu     sync.RWMutex
	nextID int64
	users  map[string]*user
	tokens map[string]string
}

func newUserRegistry(logger *logrus.Logger) *userRegistry {
	return &userRegistry{
		log:    logger,
		users:  make(map[string]*user),
		tokens: make(map[string]string),
	}
}

func (r *userRegistry) register(name, email, password string) (*user, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, errors.New("user name cannot be empty")
	}
	if !isValidEmail(email) {
		return nil, errors.New("invalid email format")
	}
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}

	// MinCost keeps the test suite fast; the hash is still a real bcrypt hash.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("internal error processing password: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[email]; exists {
		return nil, fmt.Errorf("user with email '%s' already exists", email)
	}
	r.nextID++
	u := &user{ID: r.nextID, Name: name, Email: email, PasswordHash: string(hash)}
	r.users[email] = u
	r.log.Debugf("Users: Registered %s (ID: %d)", email, u.ID)
	return u, nil
}

func (r *userRegistry) authenticate(email, password string) (string, error) {
	email = normalizeEmail(email)

	r.mu.RLock()
	u, ok := r.users[email]
	r.mu.RUnlock()
	if !ok {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("internal error during authentication: %w", err)
	}

	token := uuid.NewString()
	r.mu.Lock()
	r.tokens[token] = email
	r.mu.Unlock()
	return token, nil
}

func (r *userRegistry) lookupToken(token string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email, ok := r.tokens[token]
	return email, ok
}

func (r *userRegistry) revoke(token string) {
	r.mu.Lock()
	delete(r.tokens, token)
	r.mu.Unlock()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	domainParts := strings.Split(parts[1], ".")
	return len(domainParts) >= 2 && domainParts[0] != "" && domainParts[len(domainParts)-1] != ""
}
