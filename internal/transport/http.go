package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/socialxp/internal/domain/ledger"
)

// Handler handles ledger method dispatch.
type Handler interface {
	Handle(ctx context.Context, call ledger.Call, method string, params json.RawMessage) (any, error)
}

// Server wires HTTP handlers.
type Server struct {
	handler Handler
}

// NewServer creates an HTTP server router with middleware. /health is public;
// /rpc runs behind identity, which must attach a caller to the context.
func NewServer(handler Handler, identity func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	srv := &Server{handler: handler}

	r.Get("/health", srv.handleHealth)
	r.Group(func(r chi.Router) {
		if identity != nil {
			r.Use(identity)
		}
		r.Use(RequestIDMiddleware)
		r.Post("/rpc", srv.handleRPC)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		code := ErrInvalidReq
		if errors.Is(err, ErrParse) {
			code = ErrParseCode
		}
		WriteError(w, nil, code, err.Error(), nil)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	requestID, _ := RequestIDFromContext(r.Context())
	call := ledger.Call{Caller: caller, RequestID: requestID}

	result, err := s.handler.Handle(r.Context(), call, req.Method, req.Params)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writeErrorObject(w, req.ID, NewError(err))
		return
	}

	WriteResult(w, req.ID, result)
}
