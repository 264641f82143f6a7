package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/socialxp/internal/domain/ledger"
	"github.com/stretchr/testify/require"
)

type testHandler struct {
	method string
	call   ledger.Call
	err    error
}

func (h *testHandler) Handle(_ context.Context, call ledger.Call, method string, params json.RawMessage) (any, error) {
	h.method = method
	h.call = call
	if h.err != nil {
		return nil, h.err
	}
	return map[string]string{"caller": string(call.Caller)}, nil
}

type testCodedError struct {
	code string
}

func (e *testCodedError) Error() string             { return e.code }
func (e *testCodedError) CodeValue() string         { return e.code }
func (e *testCodedError) MessageValue() string      { return "rejected" }
func (e *testCodedError) DetailsValue() any         { return "more" }
func (e *testCodedError) RecoveryHintValue() string { return "retry later" }

func postRPC(t *testing.T, url, body string, headers map[string]string) (*http.Response, Response) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/rpc", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out Response
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHTTPServer_RPC(t *testing.T) {
	handler := &testHandler{}
	resolver := &testResolver{tokenToCaller: map[string]ledger.Address{"token": relayAddr}}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware(resolver)))
	t.Cleanup(server.Close)

	resp, out := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"mint","id":1}`, map[string]string{
		"Authorization": "Bearer token",
		RequestIDHeader: "req-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, out.Error)
	require.Equal(t, "mint", handler.method)
	require.Equal(t, ledger.Call{Caller: relayAddr, RequestID: "req-1"}, handler.call)
}

func TestHTTPServer_RPCRequiresAuth(t *testing.T) {
	handler := &testHandler{}
	resolver := &testResolver{tokenToCaller: map[string]ledger.Address{"token": relayAddr}}
	server := httptest.NewServer(NewServer(handler, AuthMiddleware(resolver)))
	t.Cleanup(server.Close)

	resp, _ := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"mint","id":1}`, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Empty(t, handler.method)
}

func TestHTTPServer_ErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		data string
	}{
		{"unknown method", &testCodedError{code: "METHOD_NOT_FOUND"}, ErrMethodNotFound, "METHOD_NOT_FOUND"},
		{"bad argument", &testCodedError{code: "INVALID_ARGUMENT"}, ErrInvalidParams, "INVALID_ARGUMENT"},
		{"domain rejection", &testCodedError{code: "INSUFFICIENT_CREDIT"}, ErrApplication, "INSUFFICIENT_CREDIT"},
		{"infrastructure", errors.New("disk full"), ErrInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &testHandler{err: tt.err}
			server := httptest.NewServer(NewServer(handler, StaticCaller(relayAddr)))
			t.Cleanup(server.Close)

			_, out := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"burn","id":7}`, nil)
			require.NotNil(t, out.Error)
			require.Equal(t, tt.code, out.Error.Code)
			if tt.data != "" {
				data, ok := out.Error.Data.(map[string]any)
				require.True(t, ok)
				require.Equal(t, tt.data, data["code"])
				require.Equal(t, "retry later", data["recovery_hint"])
			}
		})
	}
}

func TestHTTPServer_InvalidRequest(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, nil))
	t.Cleanup(server.Close)

	_, out := postRPC(t, server.URL, `{"method":"mint"}`, nil)
	require.NotNil(t, out.Error)
	require.Equal(t, ErrInvalidReq, out.Error.Code)

	_, out = postRPC(t, server.URL, `not json`, nil)
	require.NotNil(t, out.Error)
	require.Equal(t, ErrParseCode, out.Error.Code)
}

func TestHTTPServer_Health(t *testing.T) {
	resolver := &testResolver{}
	server := httptest.NewServer(NewServer(&testHandler{}, AuthMiddleware(resolver)))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDMiddleware(t *testing.T) {
	var got string
	var present bool
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, present = RequestIDFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	require.False(t, present)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, present)
	require.Equal(t, "abc", got)
}
