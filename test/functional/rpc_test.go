package functional_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rpggio/socialxp/internal/domain/ledger"
	"github.com/rpggio/socialxp/internal/testserver"
	"github.com/stretchr/testify/require"
)

var (
	alice = "0x00000000000000000000000000000000000000a1"
	bob   = "0x00000000000000000000000000000000000000b2"
)

func testAddress(s string) ledger.Address {
	return ledger.MustParseAddress(s)
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func rpcCall(t *testing.T, ts *testserver.TestServer, token, requestID, method string, params any) rpcResponse {
	t.Helper()

	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		payload["params"] = params
	}

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if requestID != "" {
		req.Header.Set("Idempotency-Key", requestID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(bodyBytes))
	}

	var result rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

// mustCall fails the test on an RPC error and decodes the result into out.
func mustCall(t *testing.T, ts *testserver.TestServer, token, method string, params, out any) {
	t.Helper()
	resp := rpcCall(t, ts, token, "", method, params)
	require.Nil(t, resp.Error, "RPC error on %s: %+v", method, resp.Error)
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Result, out))
	}
}

func errorCode(t *testing.T, resp rpcResponse) string {
	t.Helper()
	require.NotNil(t, resp.Error, "expected an error")
	code, _ := resp.Error.Data["code"].(string)
	return code
}

type project struct {
	Deposit     uint64 `json:"deposit"`
	Owner       string `json:"owner"`
	TotalSupply uint64 `json:"total_supply"`
}

type receipt struct {
	Event struct {
		Name   string            `json:"name"`
		Args   map[string]string `json:"args"`
		TxHash string            `json:"tx_hash"`
	} `json:"event"`
	Fee       uint64 `json:"fee"`
	Transfers []struct {
		To     string `json:"to"`
		Amount uint64 `json:"amount"`
	} `json:"transfers"`
	Replayed bool `json:"replayed"`
}

func TestFunctional_Authentication(t *testing.T) {
	ts := testserver.New(t)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBufferString(`{"jsonrpc":"2.0","method":"get_fees","id":1}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err = http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBufferString(`{"jsonrpc":"2.0","method":"get_fees","id":1}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer nope")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp2.StatusCode)

	health, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)
}

func TestFunctional_RewardWorkflow(t *testing.T) {
	ts := testserver.New(t)
	require.NoError(t, ts.AddAPIKey("alice-token", testAddress(alice)))

	var dep receipt
	mustCall(t, ts, "alice-token", "deposit", map[string]any{"project_id": "chat-1", "amount": 1000}, &dep)
	require.Equal(t, "Deposit", dep.Event.Name)
	require.NotEmpty(t, dep.Event.TxHash)

	mustCall(t, ts, testserver.RelayToken, "set_project_owner", map[string]any{"project_id": "chat-1", "account": alice}, nil)
	mustCall(t, ts, testserver.RelayToken, "set_project_member", map[string]any{"project_id": "chat-1", "member_id": "42", "account": bob}, nil)
	mustCall(t, ts, testserver.RelayToken, "mint", map[string]any{"project_id": "chat-1", "account": alice, "amount": 5}, nil)
	mustCall(t, ts, testserver.RelayToken, "mint", map[string]any{"project_id": "chat-1", "account": bob, "amount": 9}, nil)
	mustCall(t, ts, testserver.RelayToken, "burn", map[string]any{"project_id": "chat-1", "account": bob, "amount": 2}, nil)

	var proj project
	mustCall(t, ts, testserver.RelayToken, "get_project", map[string]any{"project_id": "chat-1"}, &proj)
	// 1000 - owner 50 - member 50 - 2 mints 140 - burn 70
	require.Equal(t, uint64(690), proj.Deposit)
	require.Equal(t, alice, proj.Owner)
	require.Equal(t, uint64(12), proj.TotalSupply)

	var board struct {
		Entries []struct {
			Position int    `json:"position"`
			Account  string `json:"account"`
			Balance  uint64 `json:"balance"`
		} `json:"entries"`
	}
	mustCall(t, ts, testserver.RelayToken, "sort", map[string]any{"project_id": "chat-1"}, &board)
	require.Len(t, board.Entries, 2)
	require.Equal(t, bob, board.Entries[0].Account)
	require.Equal(t, uint64(7), board.Entries[0].Balance)
	require.Equal(t, alice, board.Entries[1].Account)

	var pos struct {
		Position int `json:"position"`
	}
	mustCall(t, ts, testserver.RelayToken, "position", map[string]any{"project_id": "chat-1", "account": alice}, &pos)
	require.Equal(t, 2, pos.Position)

	var events struct {
		Events []struct {
			Name string `json:"name"`
		} `json:"events"`
	}
	mustCall(t, ts, testserver.RelayToken, "recent_events", map[string]any{"project_id": "chat-1"}, &events)
	require.Len(t, events.Events, 6)
	require.Equal(t, "Burn", events.Events[0].Name)
}

func TestFunctional_ErrorCodes(t *testing.T) {
	ts := testserver.New(t)
	require.NoError(t, ts.AddAPIKey("alice-token", testAddress(alice)))

	resp := rpcCall(t, ts, "alice-token", "", "mint", map[string]any{"project_id": "p", "account": alice, "amount": 1})
	require.Equal(t, "UNAUTHORIZED", errorCode(t, resp))
	require.Equal(t, -32000, resp.Error.Code)

	resp = rpcCall(t, ts, testserver.RelayToken, "", "mint", map[string]any{"project_id": "p", "account": alice, "amount": 1})
	require.Equal(t, "INSUFFICIENT_CREDIT", errorCode(t, resp))
	require.Equal(t, "top up required", resp.Error.Message)

	resp = rpcCall(t, ts, testserver.RelayToken, "", "mint", map[string]any{"project_id": "p", "account": "nobody", "amount": 1})
	require.Equal(t, "INVALID_ARGUMENT", errorCode(t, resp))
	require.Equal(t, -32602, resp.Error.Code)

	resp = rpcCall(t, ts, testserver.RelayToken, "", "teleport", nil)
	require.Equal(t, -32601, resp.Error.Code)
}

func TestFunctional_TimeLockAcrossRequests(t *testing.T) {
	ts := testserver.New(t)
	mustCall(t, ts, testserver.OwnerToken, "deposit", map[string]any{"project_id": "p", "amount": 500}, nil)

	mustCall(t, ts, testserver.RelayToken, "set_project_member", map[string]any{"project_id": "p", "member_id": "7", "account": alice}, nil)

	ts.Advance(23 * time.Hour)
	resp := rpcCall(t, ts, testserver.RelayToken, "", "set_project_member", map[string]any{"project_id": "p", "member_id": "7", "account": bob})
	require.Equal(t, "RATE_LIMITED", errorCode(t, resp))

	ts.Advance(time.Hour)
	mustCall(t, ts, testserver.RelayToken, "set_project_member", map[string]any{"project_id": "p", "member_id": "7", "account": bob}, nil)

	var member struct {
		Address string `json:"address"`
	}
	mustCall(t, ts, testserver.RelayToken, "get_member", map[string]any{"project_id": "p", "member_id": "7"}, &member)
	require.Equal(t, bob, member.Address)
}

func TestFunctional_IdempotencyKey(t *testing.T) {
	ts := testserver.New(t)

	first := rpcCall(t, ts, testserver.OwnerToken, "payment-1", "deposit", map[string]any{"project_id": "p", "amount": 300})
	require.Nil(t, first.Error)
	second := rpcCall(t, ts, testserver.OwnerToken, "payment-1", "deposit", map[string]any{"project_id": "p", "amount": 300})
	require.Nil(t, second.Error)

	var r receipt
	require.NoError(t, json.Unmarshal(second.Result, &r))
	require.True(t, r.Replayed)

	var proj project
	mustCall(t, ts, testserver.OwnerToken, "get_project", map[string]any{"project_id": "p"}, &proj)
	require.Equal(t, uint64(300), proj.Deposit)

	// A key is bound to the call it first applied.
	resp := rpcCall(t, ts, testserver.OwnerToken, "payment-1", "deposit", map[string]any{"project_id": "p", "amount": 5})
	require.Equal(t, "REQUEST_CONFLICT", errorCode(t, resp))
	require.Equal(t, -32000, resp.Error.Code)

	resp = rpcCall(t, ts, testserver.RelayToken, "payment-1", "mint", map[string]any{"project_id": "p", "account": alice, "amount": 1})
	require.Equal(t, "REQUEST_CONFLICT", errorCode(t, resp))

	mustCall(t, ts, testserver.OwnerToken, "get_project", map[string]any{"project_id": "p"}, &proj)
	require.Equal(t, uint64(300), proj.Deposit)
	require.Zero(t, proj.TotalSupply)
}

func TestFunctional_SplitCustody(t *testing.T) {
	ts := testserver.New(t, testserver.WithRelayBPS(9_000))

	var r receipt
	mustCall(t, ts, testserver.OwnerToken, "deposit", map[string]any{"project_id": "p", "amount": 100}, &r)
	require.Len(t, r.Transfers, 2)

	var proj project
	mustCall(t, ts, testserver.OwnerToken, "get_project", map[string]any{"project_id": "p"}, &proj)
	require.Equal(t, uint64(90), proj.Deposit)
}

func TestFunctional_AdminAndAudit(t *testing.T) {
	ts := testserver.New(t)
	mustCall(t, ts, testserver.RelayToken, "deposit", map[string]any{"project_id": "a", "amount": 100}, nil)
	mustCall(t, ts, testserver.RelayToken, "deposit", map[string]any{"project_id": "b", "amount": 250}, nil)

	resp := rpcCall(t, ts, testserver.RelayToken, "", "audit_total_credit", nil)
	require.Equal(t, "UNAUTHORIZED", errorCode(t, resp))

	var audit struct {
		TotalCredit uint64 `json:"total_credit"`
	}
	mustCall(t, ts, testserver.OwnerToken, "audit_total_credit", nil, &audit)
	require.Equal(t, uint64(350), audit.TotalCredit)

	newFees := map[string]any{"fees": map[string]any{"project_member_fee": 1, "project_owner_fee": 1, "mint_fee": 2, "burn_fee": 2}}
	mustCall(t, ts, testserver.OwnerToken, "set_fees", newFees, nil)

	var cost struct {
		Cost uint64 `json:"cost"`
	}
	mustCall(t, ts, testserver.RelayToken, "fee_cost", map[string]any{"units": 2}, &cost)
	require.Equal(t, uint64(20), cost.Cost)

	mustCall(t, ts, testserver.RelayToken, "mint", map[string]any{"project_id": "a", "account": alice, "amount": 1}, nil)
	var proj project
	mustCall(t, ts, testserver.RelayToken, "get_project", map[string]any{"project_id": "a"}, &proj)
	require.Equal(t, uint64(80), proj.Deposit)
}

func TestFunctional_ChatCommands(t *testing.T) {
	ts := testserver.New(t)
	mustCall(t, ts, testserver.OwnerToken, "deposit", map[string]any{"project_id": "-100", "amount": 1000}, nil)

	run := func(sender string, creator bool, text string) string {
		var reply struct {
			Text string `json:"text"`
		}
		mustCall(t, ts, testserver.RelayToken, "run_command", map[string]any{
			"chat_id":           "-100",
			"sender_id":         sender,
			"sender_is_creator": creator,
			"text":              text,
		}, &reply)
		return reply.Text
	}

	require.Contains(t, run("42", false, "/connect "+alice), "connected")
	require.Contains(t, run("42", false, "/mint 5 42"), "Only the group creator")
	require.Contains(t, run("1", true, "/mint 5 42"), "Transaction: 0x")
	require.Contains(t, run("42", false, "/me"), "XP: 5")
}
