package httpapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// ctxKey is a private type for request-context keys.
type ctxKey string

const principalKey ctxKey = "principal"

// TokenResolver recovers the account behind a bearer token.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*models.User, error)
}

// NewAuthMiddleware returns middleware that requires a valid bearer token.
// On success the resolved account is injected into the request context; any
// failure ends the request with 401 and no body detail. The reason a token
// was refused only goes to the log.
func NewAuthMiddleware(resolver TokenResolver, logger logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(common.AuthorizationHeaderName)
			token, ok := strings.CutPrefix(header, common.BearerPrefix)
			if !ok || token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			user, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				logger.Warn(r.Context(), "token rejected", "reason", err.Error(), "path", r.URL.Path)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the account resolved by the auth middleware.
// Only valid on requests that passed through it.
func PrincipalFromContext(ctx context.Context) (*models.User, error) {
	user, ok := ctx.Value(principalKey).(*models.User)
	if !ok || user == nil {
		return nil, common.ErrorPrincipalNotFound
	}
	return user, nil
}

// ContextWithPrincipal injects an account into the context, for tests and
// other non-middleware callers.
func ContextWithPrincipal(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, principalKey, user)
}

// NewCORSMiddleware returns middleware that answers CORS for the configured
// origin and short-circuits OPTIONS preflight requests with 204.
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewRecoveryMiddleware converts panics into 500 responses instead of
// killing the process.
func NewRecoveryMiddleware(logger logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error(r.Context(), "panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder wraps http.ResponseWriter and records the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// NewLoggingMiddleware logs one structured line per request. 4xx logs as a
// warning, 5xx as an error.
func NewLoggingMiddleware(logger logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.statusCode,
				"duration_ms", float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond),
			}

			switch {
			case rec.statusCode >= 500:
				logger.Error(r.Context(), "http request", args...)
			case rec.statusCode >= 400:
				logger.Warn(r.Context(), "http request", args...)
			default:
				logger.Info(r.Context(), "http request", args...)
			}
		})
	}
}
