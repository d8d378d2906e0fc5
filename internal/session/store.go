package session

import "net/http"

// PKCE is the verifier/state pair persisted between the authorization
// redirect and the provider callback.
type PKCE struct {
	CodeVerifier string
	State        string
}

// Store persists the login-flow state that crosses request boundaries.
// Implementations own the storage slots exclusively; no other component
// reads or writes them directly.
type Store interface {
	// StorePKCE writes the verifier/state pair, overwriting any prior pair.
	StorePKCE(w http.ResponseWriter, p PKCE)
	// PKCE reads the stored pair. It fails closed: if either half is
	// absent, ok is false and nothing is returned.
	PKCE(r *http.Request) (p PKCE, ok bool)
	// ClearPKCE deletes the pair unconditionally. Called on every terminal
	// path of the callback so a stale verifier can never be replayed.
	ClearPKCE(w http.ResponseWriter)

	// SetAccessToken stores the bearer credential issued by the provider.
	SetAccessToken(w http.ResponseWriter, token string)
	// AccessToken reads the stored credential.
	AccessToken(r *http.Request) (token string, ok bool)
	// ClearAccessToken deletes the stored credential.
	ClearAccessToken(w http.ResponseWriter)
}
