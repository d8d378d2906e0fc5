package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-go/internal/config"
)

func testConfig(apiURL string) *config.Config {
	cfg := &config.Config{
		HTTPPort:    3000,
		MetricsPort: 9090,
		LogLevel:    "info",
		Environment: "development",
	}
	cfg.Auth.ClientID = "client-1"
	cfg.Auth.APIURL = apiURL
	cfg.Auth.BaseURL = "https://shop.example.com"
	cfg.Upstream.Timeout = config.Duration{Duration: 5 * time.Second}
	return cfg
}

func TestClient_AuthorizationURL(t *testing.T) {
	cfg := testConfig("https://shopify.com/authentication/123")
	client := NewClient(cfg, zerolog.Nop())

	rawURL, params, err := client.AuthorizationURL(cfg.RedirectURI())
	require.NoError(t, err)
	require.NotNil(t, params)

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rawURL, "https://shopify.com/authentication/123/oauth/authorize?"))

	q := parsed.Query()
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "openid", q.Get("scope"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "https://shop.example.com/api/auth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, params.State, q.Get("state"))

	// The challenge in the URL must be derived from the returned verifier.
	sum := sha256.Sum256([]byte(params.CodeVerifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), q.Get("code_challenge"))
}

func TestClient_AuthorizationURL_FreshParamsPerCall(t *testing.T) {
	cfg := testConfig("https://shopify.com/authentication/123")
	client := NewClient(cfg, zerolog.Nop())

	_, first, err := client.AuthorizationURL(cfg.RedirectURI())
	require.NoError(t, err)
	_, second, err := client.AuthorizationURL(cfg.RedirectURI())
	require.NoError(t, err)

	assert.NotEqual(t, first.CodeVerifier, second.CodeVerifier)
	assert.NotEqual(t, first.State, second.State)
}

func TestClient_Exchange(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok1","token_type":"bearer","expires_in":3600}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zerolog.Nop())

	token, err := client.Exchange(context.Background(), "abc123", "verifier1", "https://shop.example.com/api/auth/callback")
	require.NoError(t, err)
	assert.Equal(t, "tok1", token.AccessToken)

	// The exchange must be a form-encoded public-client request.
	assert.Equal(t, "client-1", gotForm.Get("client_id"))
	assert.Equal(t, "abc123", gotForm.Get("code"))
	assert.Equal(t, "verifier1", gotForm.Get("code_verifier"))
	assert.Equal(t, "https://shop.example.com/api/auth/callback", gotForm.Get("redirect_uri"))
	assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	assert.Empty(t, gotForm.Get("client_secret"))
}

func TestClient_Exchange_ProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zerolog.Nop())

	_, err := client.Exchange(context.Background(), "abc123", "verifier1", "https://shop.example.com/api/auth/callback")
	require.Error(t, err)

	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, http.StatusBadRequest, exchangeErr.StatusCode)
	assert.Contains(t, exchangeErr.Body, "invalid_grant")
}

func TestClient_Exchange_MissingAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type":"bearer"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zerolog.Nop())

	_, err := client.Exchange(context.Background(), "abc123", "verifier1", "https://shop.example.com/api/auth/callback")
	assert.Error(t, err)
}

func TestClient_Exchange_UnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(testConfig(server.URL), zerolog.Nop())

	_, err := client.Exchange(context.Background(), "abc123", "verifier1", "https://shop.example.com/api/auth/callback")
	require.Error(t, err)

	var exchangeErr *ExchangeError
	assert.False(t, errors.As(err, &exchangeErr), "transport failure must not look like a provider rejection")
}
