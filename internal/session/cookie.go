package session

import (
	"net/http"
	"time"
)

// Cookie names owned by the store.
const (
	verifierCookie = "pkce_code_verifier"
	stateCookie    = "oauth_state"
	tokenCookie    = "customer_access_token"
)

const (
	// pkceTTL bounds how long a login attempt may sit between redirect and
	// callback.
	pkceTTL = 10 * time.Minute
	// tokenTTL matches the platform's customer access token lifetime.
	tokenTTL = 7 * 24 * time.Hour
)

// CookieStore implements Store on the request/response cookie jar. All
// cookies are httpOnly with SameSite=Lax; Secure is set for production
// deployments. The access token therefore never reaches client-side code.
type CookieStore struct {
	secure bool
}

// NewCookieStore creates a CookieStore. secure controls the Secure cookie
// attribute and should be true in production.
func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{secure: secure}
}

// StorePKCE writes the verifier and state cookies, overwriting any prior
// values.
func (s *CookieStore) StorePKCE(w http.ResponseWriter, p PKCE) {
	http.SetCookie(w, s.cookie(verifierCookie, p.CodeVerifier, pkceTTL))
	http.SetCookie(w, s.cookie(stateCookie, p.State, pkceTTL))
}

// PKCE reads both PKCE cookies. A missing half fails the whole read.
func (s *CookieStore) PKCE(r *http.Request) (PKCE, bool) {
	verifier, err := r.Cookie(verifierCookie)
	if err != nil {
		return PKCE{}, false
	}
	state, err := r.Cookie(stateCookie)
	if err != nil {
		return PKCE{}, false
	}
	if verifier.Value == "" || state.Value == "" {
		return PKCE{}, false
	}
	return PKCE{CodeVerifier: verifier.Value, State: state.Value}, true
}

// ClearPKCE deletes both PKCE cookies.
func (s *CookieStore) ClearPKCE(w http.ResponseWriter) {
	http.SetCookie(w, s.expired(verifierCookie))
	http.SetCookie(w, s.expired(stateCookie))
}

// SetAccessToken stores the customer access token.
func (s *CookieStore) SetAccessToken(w http.ResponseWriter, token string) {
	http.SetCookie(w, s.cookie(tokenCookie, token, tokenTTL))
}

// AccessToken reads the customer access token.
func (s *CookieStore) AccessToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(tokenCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// ClearAccessToken deletes the customer access token.
func (s *CookieStore) ClearAccessToken(w http.ResponseWriter) {
	http.SetCookie(w, s.expired(tokenCookie))
}

func (s *CookieStore) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *CookieStore) expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
