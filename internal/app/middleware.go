package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront-go/internal/customer"
	"storefront-go/internal/metrics"
)

// contextKey is a custom type to use as a key for context values.
type contextKey string

// tokenContextKey carries the verified access token for protected handlers.
const tokenContextKey = contextKey("accessToken")

// withRequestLog assigns each request an id and a request-scoped logger,
// and writes one access-log line per request.
func (a *Application) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := a.Logger.With().
			Str("request_id", uuid.NewString()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r.WithContext(logger.WithContext(r.Context())))
		logger.Info().
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requireAuth guards a route behind a verified customer session. The
// capability check distinguishes a rejected token from an unreachable
// upstream: only the former evicts the stored token; both deny the request
// with a redirect to the login page.
func (a *Application) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		token, ok := a.Sessions.AccessToken(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		cust, err := a.Customers.Check(r.Context(), token)
		if err != nil {
			if errors.Is(err, customer.ErrUnauthenticated) {
				// Dead token: evict it so the next visit starts clean.
				logger.Info().Msg("evicting rejected access token")
				a.Sessions.ClearAccessToken(w)
				metrics.TokenEvictions.Inc()
			} else {
				// Transient upstream failure: deny without evicting.
				logger.Warn().Err(err).Msg("could not verify session")
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		logger.Debug().Str("customer_id", cust.ID).Msg("session verified")
		next.ServeHTTP(w, withToken(r, token))
	})
}

// withToken adds the verified access token to the request's context.
func withToken(r *http.Request, token string) *http.Request {
	ctx := context.WithValue(r.Context(), tokenContextKey, token)
	return r.WithContext(ctx)
}

// tokenFromContext retrieves the verified access token from the request's
// context.
func tokenFromContext(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenContextKey).(string)
	return token, ok
}
