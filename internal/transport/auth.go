package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rpggio/socialxp/internal/domain/ledger"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// CallerHeader lets a client choose its identity when auth is disabled.
const CallerHeader = "X-Caller"

type callerKey struct{}

// CallerResolver resolves the caller address from a bearer token.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, token string) (ledger.Address, error)
}

// CallerFromContext returns the caller address from context, if present.
func CallerFromContext(ctx context.Context) (ledger.Address, bool) {
	caller, ok := ctx.Value(callerKey{}).(ledger.Address)
	return caller, ok
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller ledger.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver CallerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			caller, err := resolver.ResolveCaller(r.Context(), token)
			if err != nil || caller.IsZero() {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// StaticCaller attributes every request to caller unless the request names
// another address in CallerHeader. Use it only when auth is disabled.
func StaticCaller(caller ledger.Address) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who := caller
			if v := r.Header.Get(CallerHeader); v != "" {
				addr, err := ledger.ParseAddress(v)
				if err != nil {
					http.Error(w, "invalid "+CallerHeader+" header", http.StatusBadRequest)
					return
				}
				who = addr
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), who)))
		})
	}
}
