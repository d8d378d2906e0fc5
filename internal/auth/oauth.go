package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"storefront-go/internal/config"
	"storefront-go/internal/metrics"
)

// Client drives the Authorization Code + PKCE flow against the commerce
// platform's Customer Account API. The platform issues public clients only,
// so there is no client secret; the code verifier binds the authorization
// code to this deployment instead.
type Client struct {
	oauthConfig *oauth2.Config
	httpClient  *http.Client
	generator   *Generator
	logger      zerolog.Logger
}

// ExchangeError describes a non-success response from the token endpoint.
// The provider body is kept for logging and never shown to the end user.
type ExchangeError struct {
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: status %d: %s", e.StatusCode, e.Body)
}

// NewClient creates an OAuth client from validated configuration.
func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		oauthConfig: &oauth2.Config{
			ClientID: cfg.Auth.ClientID,
			Scopes:   []string{"openid"},
			// RedirectURL stays empty: the redirect URI is passed per call
			// so it appears exactly once in both requests.
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.Auth.APIURL + "/oauth/authorize",
				TokenURL:  cfg.Auth.APIURL + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: &http.Client{Timeout: cfg.Upstream.Timeout.Duration},
		generator:  NewGenerator(),
		logger:     logger.With().Str("component", "oauth").Logger(),
	}
}

// AuthorizationURL generates fresh PKCE parameters and builds the identity
// provider's authorization URL for them. It does not persist anything; the
// caller stores the returned verifier/state pair before redirecting.
func (c *Client) AuthorizationURL(redirectURI string) (string, *Params, error) {
	params, err := c.generator.Generate()
	if err != nil {
		return "", nil, fmt.Errorf("generating PKCE parameters: %w", err)
	}

	url := c.oauthConfig.AuthCodeURL(params.State,
		oauth2.SetAuthURLParam("redirect_uri", redirectURI),
		oauth2.SetAuthURLParam("code_challenge", params.CodeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	c.logger.Debug().
		Str("state", params.State).
		Int("verifier_len", len(params.CodeVerifier)).
		Msg("built authorization URL")

	return url, params, nil
}

// Exchange swaps an authorization code for a token. The form-encoded POST
// carries client_id, code, code_verifier, redirect_uri and
// grant_type=authorization_code. A non-success provider response surfaces
// as *ExchangeError.
func (c *Client) Exchange(ctx context.Context, code, codeVerifier, redirectURI string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	start := time.Now()
	token, err := c.oauthConfig.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
		oauth2.SetAuthURLParam("redirect_uri", redirectURI),
	)
	metrics.TokenExchangeDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			c.logger.Error().
				Int("status", retrieveErr.Response.StatusCode).
				Str("body", string(retrieveErr.Body)).
				Msg("token endpoint rejected exchange")
			return nil, &ExchangeError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       string(retrieveErr.Body),
			}
		}
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	c.logger.Debug().
		Str("token_type", token.TokenType).
		Time("expiry", token.Expiry).
		Msg("token exchange succeeded")

	return token, nil
}
