package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cakeshop/internal/domain"
	"cakeshop/internal/session"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const maxResponseBytes = 1 << 20

// ShopClient is the storefront's view of the API server. Token-requiring
// methods return domain.ErrUnauthenticated for an empty token without
// touching the network.
type ShopClient interface {
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
	Register(ctx context.Context, name, email, password string) (*domain.Ack, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListCart(ctx context.Context, token string) ([]domain.CartItem, error)
	AddToCart(ctx context.Context, token string, productID int64, quantity int) (*domain.Ack, error)
	Checkout(ctx context.Context, token string) (*domain.CheckoutResult, error)
}

var _ ShopClient = (*ShopHTTPClient)(nil)

type ShopHTTPClient struct {
	baseURL string
	client  *http.Client
	log     *logrus.Logger
}

// NewShopHTTPClient builds a client for baseURL. A zero timeout keeps the
// transport default, which is no timeout at all.
func NewShopHTTPClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *ShopHTTPClient {
	return &ShopHTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		log: logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type addToCartRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

func (c *ShopHTTPClient) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "login"
	c.log.Debugf("ShopClient: Calling Login for email: %s", email)

	status, body, err := c.do(ctx, op, http.MethodPost, "/api/auth/login", "", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		msg := serverMessage(body, "Login failed")
		c.log.Warnf("ShopClient: Login for %s rejected with status %d: %s", email, status, msg)
		return nil, &domain.AuthError{Op: op, StatusCode: status, Message: msg}
	}

	var res domain.LoginResult
	if err := json.Unmarshal(body, &res); err != nil {
		c.log.Errorf("ShopClient: Failed to decode login response: %v", err)
		return nil, &domain.TransportError{Op: op, StatusCode: status, Err: fmt.Errorf("failed to decode login response: %w", err)}
	}
	if res.Token == "" {
		c.log.Warnf("ShopClient: Login for %s succeeded without a token", email)
		return nil, &domain.AuthError{Op: op, StatusCode: status, Message: "Login failed"}
	}
	return &res, nil
}

// Register tolerates a body that is not JSON on both success and failure; the
// server's message is used when there is one.
func (c *ShopHTTPClient) Register(ctx context.Context, name, email, password string) (*domain.Ack, error) {
	const op = "register"
	c.log.Debugf("ShopClient: Calling Register for email: %s", email)

	status, body, err := c.do(ctx, op, http.MethodPost, "/api/auth/register", "", registerRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		msg := serverMessage(body, "Registration failed")
		c.log.Warnf("ShopClient: Register for %s rejected with status %d: %s", email, status, msg)
		return nil, &domain.AuthError{Op: op, StatusCode: status, Message: msg}
	}
	return decodeAck(body), nil
}

func (c *ShopHTTPClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "list products"
	c.log.Debug("ShopClient: Calling ListProducts")

	status, body, err := c.do(ctx, op, http.MethodGet, "/api/products", "", nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, c.statusError(op, status, body)
	}

	var products []domain.Product
	if err := json.Unmarshal(body, &products); err != nil {
		c.log.Errorf("ShopClient: Failed to decode products: %v", err)
		return nil, &domain.TransportError{Op: op, StatusCode: status, Err: fmt.Errorf("failed to decode products: %w", err)}
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.log.Debugf("ShopClient: Received %d products", len(products))
	return products, nil
}

func (c *ShopHTTPClient) ListCart(ctx context.Context, token string) ([]domain.CartItem, error) {
	const op = "list cart"
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	c.log.Debug("ShopClient: Calling ListCart")

	status, body, err := c.do(ctx, op, http.MethodGet, "/api/cart", token, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, c.statusError(op, status, body)
	}

	var items []domain.CartItem
	if err := json.Unmarshal(body, &items); err != nil {
		c.log.Errorf("ShopClient: Failed to decode cart: %v", err)
		return nil, &domain.TransportError{Op: op, StatusCode: status, Err: fmt.Errorf("failed to decode cart: %w", err)}
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	c.log.Debugf("ShopClient: Received %d cart items", len(items))
	return items, nil
}

func (c *ShopHTTPClient) AddToCart(ctx context.Context, token string, productID int64, quantity int) (*domain.Ack, error) {
	const op = "add to cart"
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	if quantity < 1 {
		quantity = 1
	}
	c.log.Debugf("ShopClient: Calling AddToCart: ProductID=%d, Quantity=%d", productID, quantity)

	status, body, err := c.do(ctx, op, http.MethodPost, "/api/cart/add", token, addToCartRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, c.statusError(op, status, body)
	}
	return decodeAck(body), nil
}

// Checkout reads the status leniently: a body that does not decode is an empty,
// non-success result rather than an error.
func (c *ShopHTTPClient) Checkout(ctx context.Context, token string) (*domain.CheckoutResult, error) {
	const op = "checkout"
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	c.log.Debug("ShopClient: Calling Checkout")

	status, body, err := c.do(ctx, op, http.MethodPost, "/api/checkout", token, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, c.statusError(op, status, body)
	}

	res := &domain.CheckoutResult{}
	if gjson.ValidBytes(body) {
		res.Status = domain.CheckoutStatus(gjson.GetBytes(body, "status").String())
	} else {
		c.log.Warnf("ShopClient: Checkout response is not JSON, treating as empty")
	}
	c.log.Infof("ShopClient: Checkout finished with status %q", res.Status)
	return res, nil
}

func (c *ShopHTTPClient) do(ctx context.Context, op, method, path, token string, payload any) (int, []byte, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			c.log.Errorf("ShopClient: Failed to marshal %s request: %v", op, err)
			return 0, nil, &domain.TransportError{Op: op, Err: fmt.Errorf("failed to prepare request: %w", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		c.log.Errorf("ShopClient: Failed to create %s request: %v", op, err)
		return 0, nil, &domain.TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header = session.HeaderFor(token)
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	entry := c.log.WithFields(logrus.Fields{
		"op":         op,
		"method":     method,
		"url":        url,
		"request_id": requestID,
	})
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		entry.Errorf("ShopClient: Request failed: %v", err)
		return 0, nil, &domain.TransportError{Op: op, Err: fmt.Errorf("failed to communicate with shop API: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		entry.Errorf("ShopClient: Failed to read response body: %v", err)
		return resp.StatusCode, nil, &domain.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	entry.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"latency_ms":  time.Since(start).Milliseconds(),
	}).Debug("ShopClient: Request completed")
	return resp.StatusCode, body, nil
}

func (c *ShopHTTPClient) statusError(op string, status int, body []byte) error {
	msg := serverMessage(body, "")
	if status >= http.StatusInternalServerError {
		c.log.Errorf("ShopClient: %s failed with status %d. Response body: %s", op, status, string(body))
	} else {
		c.log.Warnf("ShopClient: %s failed with status %d. Response body: %s", op, status, string(body))
	}
	return &domain.TransportError{Op: op, StatusCode: status, Message: msg}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// serverMessage pulls a human readable message out of an error payload. The
// storefront API uses "message"; gateways in front of it use "error".
func serverMessage(body []byte, fallback string) string {
	if !gjson.ValidBytes(body) {
		return fallback
	}
	for _, key := range []string{"message", "error"} {
		if v := gjson.GetBytes(body, key); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return fallback
}

func decodeAck(body []byte) *domain.Ack {
	ack := &domain.Ack{}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return ack
	}
	ack.Raw = raw
	if msg, ok := raw["message"].(string); ok {
		ack.Message = msg
	}
	return ack
}
