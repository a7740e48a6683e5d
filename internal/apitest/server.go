// Package apitest is an in-memory stand-in for the cake shop API server. It
// speaks the same HTTP+JSON contract as the real backend, so the client, the
// views and the CLI can be exercised end to end without one.
package apitest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"cakeshop/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Request is one request as the server received it.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          string
}

// Failure is a canned response served instead of the real handler. Body is
// sent verbatim so malformed payloads can be injected too.
type Failure struct {
	Status int
	Body   string
}

func (f Failure) contentType() string {
	if json.Valid([]byte(f.Body)) {
		return "application/json; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

type cartLine struct {
	ID        int64
	ProductID int64
	Quantity  int
}

type Server struct {
	URL string

	log   *logrus.Logger
	srv   *httptest.Server
	users *userRegistry

	mu             sync.Mutex
	products       []domain.Product
	carts          map[string][]cartLine
	nextLineID     int64
	checkoutStatus string
	failures       map[string][]Failure
	requests       []Request
}

// NewServer starts the fake on a loopback port. Call Close when done.
func NewServer(logger *logrus.Logger) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		log:            logger,
		users:          newUserRegistry(logger),
		carts:          make(map[string][]cartLine),
		checkoutStatus: string(domain.CheckoutSuccess),
		failures:       make(map[string][]Failure),
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), s.recordRequests(), s.injectFailures())

	api := router.Group("/api")
	{
		api.POST("/auth/login", s.handleLogin)
		api.POST("/auth/register", s.handleRegister)
		api.GET("/products", s.handleListProducts)

		protected := api.Group("/")
		protected.Use(s.bearerAuth())
		{
			protected.GET("/cart", s.handleListCart)
			protected.POST("/cart/add", s.handleAddToCart)
			protected.POST("/checkout", s.handleCheckout)
		}
	}
	router.NoRoute(func(c *gin.Context) {
		errorResponse(c, http.StatusNotFound, "route not found")
	})

	s.srv = httptest.NewServer(router)
	s.URL = s.srv.URL
	logger.Debugf("FakeAPI: Listening on %s", s.URL)
	return s
}

func (s *Server) Close() {
	s.srv.Close()
}

// SeedProducts replaces the catalog.
func (s *Server) SeedProducts(products ...domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]domain.Product(nil), products...)
}

// SeedUser registers an account directly, bypassing the HTTP surface.
func (s *Server) SeedUser(name, email, password string) error {
	_, err := s.users.register(name, email, password)
	return err
}

// IssueToken logs the user in directly and returns a valid bearer token.
func (s *Server) IssueToken(email, password string) (string, error) {
	return s.users.authenticate(email, password)
}

// RevokeToken makes token unknown to the server, as if it had expired.
func (s *Server) RevokeToken(token string) {
	s.users.revoke(token)
}

// SetCheckoutStatus changes the status reported by checkout. Only "success"
// empties the cart.
func (s *Server) SetCheckoutStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkoutStatus = status
}

// FailNext queues f for the next request to method and path. Queued failures
// are served in order, one per request.
func (s *Server) FailNext(method, path string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.failures[key] = append(s.failures[key], f)
}

func (s *Server) takeFailure(method, path string) (Failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	queue := s.failures[key]
	if len(queue) == 0 {
		return Failure{}, false
	}
	s.failures[key] = queue[1:]
	return queue[0], true
}

func (s *Server) record(r Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r)
	s.mu.Unlock()
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count is the number of requests received for method and path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// CartQuantity is the quantity of productID in the user's cart.
func (s *Server) CartQuantity(email string, productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range s.carts[normalizeEmail(email)] {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type addToCartRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity"`
}

// productJSON sends the price as a bare JSON number, the way the real
// backend does.
type productJSON struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	ImageURL    string      `json:"imageUrl"`
}

type cartItemJSON struct {
	ID       int64        `json:"id"`
	Product  *productJSON `json:"product"`
	Quantity int          `json:"quantity"`
}

type checkoutResponse struct {
	Status string `json:"status"`
}

func toProductJSON(p domain.Product) *productJSON {
	return &productJSON{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       json.Number(p.Price.String()),
		ImageURL:    p.ImageURL,
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.log.Warnf("FakeAPI: Failed to bind login request: %v", err)
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	token, err := s.users.authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			errorResponse(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.log.Errorf("FakeAPI: Login for %s failed: %v", req.Email, err)
		errorResponse(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.log.Warnf("FakeAPI: Failed to bind register request: %v", err)
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	u, err := s.users.register(req.Name, req.Email, req.Password)
	if err != nil {
		errorResponse(c, registerErrorStatus(err), err.Error())
		return
	}
	ackResponse(c, http.StatusCreated, "User registered successfully", u.ID)
}

func registerErrorStatus(err error) int {
	if strings.Contains(err.Error(), "already exists") {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func (s *Server) handleListProducts(c *gin.Context) {
	s.mu.Lock()
	out := make([]*productJSON, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, toProductJSON(p))
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleListCart(c *gin.Context) {
	email := c.GetString(userEmailKey)

	s.mu.Lock()
	lines := s.carts[email]
	out := make([]cartItemJSON, 0, len(lines))
	for _, line := range lines {
		item := cartItemJSON{ID: line.ID, Quantity: line.Quantity}
		if p, ok := s.productLocked(line.ProductID); ok {
			item.Product = toProductJSON(p)
		}
		out = append(out, item)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleAddToCart(c *gin.Context) {
	email := c.GetString(userEmailKey)

	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Quantity < 1 {
		errorResponse(c, http.StatusBadRequest, "quantity must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.productLocked(req.ProductID); !ok {
		errorResponse(c, http.StatusNotFound, "product not found")
		return
	}

	lines := s.carts[email]
	for i := range lines {
		if lines[i].ProductID == req.ProductID {
			lines[i].Quantity += req.Quantity
			ackResponse(c, http.StatusOK, "Added to cart", lines[i].ID)
			return
		}
	}
	s.nextLineID++
	s.carts[email] = append(lines, cartLine{ID: s.nextLineID, ProductID: req.ProductID, Quantity: req.Quantity})
	ackResponse(c, http.StatusOK, "Added to cart", s.nextLineID)
}

func (s *Server) handleCheckout(c *gin.Context) {
	email := c.GetString(userEmailKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.carts[email]) == 0 {
		errorResponse(c, http.StatusBadRequest, "cart is empty")
		return
	}
	if s.checkoutStatus == string(domain.CheckoutSuccess) {
		delete(s.carts, email)
	}
	c.JSON(http.StatusOK, checkoutResponse{Status: s.checkoutStatus})
}

func (s *Server) productLocked(id int64) (domain.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}
