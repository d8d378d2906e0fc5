package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"storefront-go/internal/customer"
	"storefront-go/internal/metrics"
	"storefront-go/internal/session"
)

//
// OAuth flow handlers
//

// handleAuthCallback is the single entry point of the login flow. A bare
// visit starts a new authorization attempt; a redirect back from the
// identity provider completes or aborts one. Every terminal path except the
// outbound redirect clears the stored PKCE pair so a verifier/state pair is
// valid for exactly one attempt.
func (a *Application) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	state := q.Get("state")
	errParam := q.Get("error")

	if code != "" && state != "" {
		a.completeLogin(w, r, code, state)
		return
	}

	if errParam != "" {
		// The provider aborted the flow, e.g. the customer declined.
		zerolog.Ctx(r.Context()).Warn().Str("error", errParam).Msg("provider returned OAuth error")
		a.Sessions.ClearPKCE(w)
		metrics.CallbackResults.WithLabelValues("provider_error").Inc()
		http.Redirect(w, r, "/login?error="+url.QueryEscape(errParam), http.StatusSeeOther)
		return
	}

	a.startLogin(w, r)
}

// startLogin generates PKCE parameters, persists the verifier/state pair
// and redirects the browser to the provider's authorization endpoint.
func (a *Application) startLogin(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	authURL, params, err := a.Auth.AuthorizationURL(a.Config.RedirectURI())
	if err != nil {
		logger.Error().Err(err).Msg("failed to build authorization URL")
		http.Redirect(w, r, "/login?error=auth_failed", http.StatusSeeOther)
		return
	}

	a.Sessions.StorePKCE(w, session.PKCE{
		CodeVerifier: params.CodeVerifier,
		State:        params.State,
	})
	metrics.LoginFlowsStarted.Inc()

	logger.Debug().Str("state", params.State).Msg("starting login flow")
	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

// completeLogin validates the redirect against the stored PKCE pair, runs
// the code-for-token exchange and finalizes the session.
func (a *Application) completeLogin(w http.ResponseWriter, r *http.Request, code, state string) {
	logger := zerolog.Ctx(r.Context())

	stored, ok := a.Sessions.PKCE(r)
	if !ok {
		logger.Warn().Msg("callback without stored PKCE")
		a.failLogin(w, r, "missing_pkce")
		return
	}

	if stored.State != state {
		logger.Warn().Msg("callback state does not match stored state")
		a.failLogin(w, r, "state_mismatch")
		return
	}

	token, err := a.Auth.Exchange(r.Context(), code, stored.CodeVerifier, a.Config.RedirectURI())
	if err != nil {
		// Provider detail is logged inside the exchanger; the end user only
		// ever sees the bounded auth_failed code.
		logger.Error().Err(err).Msg("token exchange failed")
		a.failLogin(w, r, "exchange_failed")
		return
	}

	a.Sessions.SetAccessToken(w, token.AccessToken)
	a.Sessions.ClearPKCE(w)
	metrics.CallbackResults.WithLabelValues("success").Inc()

	logger.Info().Msg("customer authenticated")
	http.Redirect(w, r, "/account", http.StatusSeeOther)
}

// failLogin is the shared FAILED terminal: clear PKCE, count the outcome
// and send the customer back to the login page with a bounded error code.
func (a *Application) failLogin(w http.ResponseWriter, r *http.Request, result string) {
	a.Sessions.ClearPKCE(w)
	metrics.CallbackResults.WithLabelValues(result).Inc()
	http.Redirect(w, r, "/login?error=auth_failed", http.StatusSeeOther)
}

// handleLogout clears the access token. POST only; responds with JSON.
func (a *Application) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	a.Sessions.ClearAccessToken(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleAuthDebug returns a read-only diagnostic snapshot: which
// configuration values are present and the authorization URL that would be
// built from them. No secrets and no side effects.
func (a *Application) handleAuthDebug(w http.ResponseWriter, r *http.Request) {
	redirectURI := a.Config.RedirectURI()

	oauthURL := ""
	if a.Config.Auth.APIURL != "" && a.Config.Auth.ClientID != "" {
		params := url.Values{
			"client_id":     {a.Config.Auth.ClientID},
			"response_type": {"code"},
			"scope":         {"openid"},
			"redirect_uri":  {redirectURI},
			"state":         {"test"},
		}
		oauthURL = a.Config.Auth.APIURL + "/oauth/authorize?" + params.Encode()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"checks": map[string]any{
			"client_id_set": a.Config.Auth.ClientID != "",
			"api_url_set":   a.Config.Auth.APIURL != "",
			"base_url":      a.Config.Auth.BaseURL,
			"environment":   a.Config.Environment,
			"redirect_uri":  redirectURI,
			"oauth_url":     oauthURL,
			"timestamp":     time.Now().UTC().Format(time.RFC3339),
		},
	})
}

//
// Page handlers
//

// handleHome routes the bare root: authenticated customers land on their
// account, everyone else on the login page. The token is only checked for
// presence here; /account revalidates it upstream.
func (a *Application) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if _, ok := a.Sessions.AccessToken(r); ok {
		http.Redirect(w, r, "/account", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleLoginPage renders the sign-in page, mapping the bounded error code
// from the query string to a human message.
func (a *Application) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	data := loginPageData{
		ErrorMessage: loginErrorMessage(r.URL.Query().Get("error")),
	}
	a.renderPage(w, loginTemplate, data)
}

// handleAccount renders the customer's profile and order history. It runs
// behind requireAuth; the profile and order fetches are independent and
// issued concurrently, both bounded by the request context.
func (a *Application) handleAccount(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		// Only reachable if the middleware was not applied.
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	var (
		wg        sync.WaitGroup
		cust      *customer.Customer
		orders    []customer.Order
		custErr   error
		ordersErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		cust, custErr = a.Customers.GetCustomer(r.Context(), token)
	}()
	go func() {
		defer wg.Done()
		orders, ordersErr = a.Customers.GetOrders(r.Context(), token)
	}()
	wg.Wait()

	if err := errors.Join(custErr, ordersErr); err != nil {
		if errors.Is(err, customer.ErrUnauthenticated) {
			a.Sessions.ClearAccessToken(w)
			metrics.TokenEvictions.Inc()
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to load account data")
		http.Error(w, "Account temporarily unavailable. Please try again.", http.StatusBadGateway)
		return
	}

	a.renderPage(w, accountTemplate, accountPageData{
		Customer: cust,
		Orders:   orders,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
