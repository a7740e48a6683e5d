package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"cakeshop/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	s := NewServer(logger)
	t.Cleanup(s.Close)
	s.SeedProducts(domain.Product{ID: 1, Name: "Vanilla", Price: decimal.RequireFromString("12.5")})
	return s
}

func send(t *testing.T, method, url, token, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestServer_RegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	status, body := send(t, http.MethodPost, s.URL+"/api/auth/register", "", `{"name":"Jane","email":"Jane@Example.com","password":"Secret123"}`)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Contains(t, body, "User registered successfully")

	status, body = send(t, http.MethodPost, s.URL+"/api/auth/register", "", `{"name":"Jane","email":"jane@example.com","password":"Secret123"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body, "already exists")

	status, body = send(t, http.MethodPost, s.URL+"/api/auth/login", "", `{"email":"jane@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `{"message":"Invalid email or password"}`, body)

	status, body = send(t, http.MethodPost, s.URL+"/api/auth/login", "", `{"email":"jane@example.com","password":"Secret123"}`)
	require.Equal(t, http.StatusOK, status)
	var res loginResponse
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.NotEmpty(t, res.Token)
}

func TestServer_ProductsUseNumericPrices(t *testing.T) {
	s := newTestServer(t)

	status, body := send(t, http.MethodGet, s.URL+"/api/products", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"id":1,"name":"Vanilla","description":"","price":12.5,"imageUrl":""}]`, body)
}

func TestServer_ProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		token  string
		header string
	}{
		{name: "missing header"},
		{name: "unknown token", token: "nope"},
		{name: "wrong scheme", header: "Basic abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, s.URL+"/api/cart", nil)
			require.NoError(t, err)
			switch {
			case tt.header != "":
				req.Header.Set("Authorization", tt.header)
			case tt.token != "":
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestServer_CartAndCheckout(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.SeedUser("Jane", "jane@example.com", "Secret123"))
	token, err := s.IssueToken("jane@example.com", "Secret123")
	require.NoError(t, err)

	status, _ := send(t, http.MethodPost, s.URL+"/api/cart/add", token, `{"productId":1,"quantity":1}`)
	require.Equal(t, http.StatusOK, status)
	status, _ = send(t, http.MethodPost, s.URL+"/api/cart/add", token, `{"productId":1,"quantity":2}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, s.CartQuantity("jane@example.com", 1))

	status, _ = send(t, http.MethodPost, s.URL+"/api/cart/add", token, `{"productId":99,"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, body := send(t, http.MethodGet, s.URL+"/api/cart", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"id":1,"quantity":3,"product":{"id":1,"name":"Vanilla","description":"","price":12.5,"imageUrl":""}}]`, body)

	s.SetCheckoutStatus("declined")
	status, body = send(t, http.MethodPost, s.URL+"/api/checkout", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"declined"}`, body)
	assert.Equal(t, 3, s.CartQuantity("jane@example.com", 1))

	s.SetCheckoutStatus("success")
	status, body = send(t, http.MethodPost, s.URL+"/api/checkout", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"success"}`, body)
	assert.Zero(t, s.CartQuantity("jane@example.com", 1))

	status, _ = send(t, http.MethodPost, s.URL+"/api/checkout", token, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestServer_FailNextIsServedOnce(t *testing.T) {
	s := newTestServer(t)
	s.FailNext(http.MethodGet, "/api/products", Failure{Status: http.StatusBadGateway, Body: "upstream down"})

	status, body := send(t, http.MethodGet, s.URL+"/api/products", "", "")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "upstream down", body)

	status, _ = send(t, http.MethodGet, s.URL+"/api/products", "", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_RecordsRequests(t *testing.T) {
	s := newTestServer(t)

	send(t, http.MethodGet, s.URL+"/api/products", "", "")
	send(t, http.MethodGet, s.URL+"/api/cart", "abc", "")

	assert.Equal(t, 1, s.Count(http.MethodGet, "/api/products"))
	assert.Equal(t, 1, s.Count(http.MethodGet, "/api/cart"))
	reqs := s.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Bearer abc", reqs[1].Authorization)
}

func TestServer_RevokedTokenIsRejected(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.SeedUser("Jane", "jane@example.com", "Secret123"))
	token, err := s.IssueToken("jane@example.com", "Secret123")
	require.NoError(t, err)

	s.RevokeToken(token)

	status, _ := send(t, http.MethodGet, s.URL+"/api/cart", token, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}
