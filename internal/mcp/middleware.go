package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/socialxp/internal/domain/ledger"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const (
	callerKey contextKey = iota
	requestIDKey
)

// getCaller extracts the caller address from context.
func getCaller(ctx context.Context) ledger.Address {
	v, _ := ctx.Value(callerKey).(ledger.Address)
	return v
}

// getRequestID extracts the idempotency key from context.
func getRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// CallerResolver resolves the caller address from a bearer token.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, token string) (ledger.Address, error)
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver CallerResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			caller, err := resolver.ResolveCaller(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}
			if caller.IsZero() {
				return nil, fmt.Errorf("unauthorized: invalid bearer token")
			}

			ctx = context.WithValue(ctx, callerKey, caller)
			return next(ctx, method, req)
		}
	}
}

// noAuthMiddleware injects a default caller when auth is disabled. A local
// client may act as another identity through _meta.caller.
func noAuthMiddleware(defaultCaller ledger.Address) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			caller := defaultCaller
			if v, ok := metaString(req, "caller"); ok {
				addr, err := ledger.ParseAddress(v)
				if err != nil {
					return nil, fmt.Errorf("invalid _meta.caller: %w", err)
				}
				caller = addr
			}
			ctx = context.WithValue(ctx, callerKey, caller)
			return next(ctx, method, req)
		}
	}
}

// requestIDMiddleware extracts the idempotency key from the Idempotency-Key
// header (HTTP) or _meta.request_id (stdio).
func requestIDMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var requestID string

			extra := req.GetExtra()
			if extra != nil && extra.Header != nil {
				requestID = extra.Header.Get("Idempotency-Key")
			}
			if requestID == "" {
				requestID, _ = metaString(req, "request_id")
			}

			if requestID != "" {
				ctx = context.WithValue(ctx, requestIDKey, requestID)
			}
			return next(ctx, method, req)
		}
	}
}

// metaString reads a string from the request's _meta. Some notifications
// carry nil params, and GetMeta panics on a nil underlying value.
func metaString(req sdkmcp.Request, key string) (value string, ok bool) {
	if req == nil {
		return "", false
	}
	params := req.GetParams()
	if params == nil {
		return "", false
	}
	defer func() {
		if recover() != nil {
			value, ok = "", false
		}
	}()
	meta := params.GetMeta()
	if meta == nil {
		return "", false
	}
	value, ok = meta[key].(string)
	return value, ok && value != ""
}
