package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/socialxp/internal/command"
	"github.com/rpggio/socialxp/internal/domain/event"
	"github.com/rpggio/socialxp/internal/domain/ledger"
	"github.com/rpggio/socialxp/internal/mcp"
	"github.com/rpggio/socialxp/internal/sqlite"
	"github.com/rpggio/socialxp/internal/transport"
	"github.com/stretchr/testify/require"
)

// Well-known identities of every test server.
var (
	Relay    = ledger.MustParseAddress("0x1000000000000000000000000000000000000001")
	Owner    = ledger.MustParseAddress("0x2000000000000000000000000000000000000002")
	Treasury = ledger.MustParseAddress("0x3000000000000000000000000000000000000003")
)

// Fees is the schedule of every test server. At the default unit price of 10
// the costs are 50 (owner, member) and 70 (mint, burn).
var Fees = ledger.FeeSchedule{
	ProjectMemberFee: 5,
	ProjectOwnerFee:  5,
	MintFee:          7,
	BurnFee:          7,
}

const (
	RelayToken = "relay-token"
	OwnerToken = "owner-token"
	UnitPrice  = 10
)

// TestServer is an in-process ledger behind the JSON-RPC endpoint (/rpc) and
// the streamable MCP endpoint (/mcp), over an in-memory database.
type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	Keys   *sqlite.APIKeyResolver
	Ledger *ledger.Service
	Events *event.Service
	Price  *ledger.StaticPrice

	mu  sync.Mutex
	now time.Time
}

// Option adjusts the ledger configuration of a test server.
type Option func(*ledger.Config)

// WithRelayBPS selects a split custody policy paying the rest to Treasury.
func WithRelayBPS(bps uint32) Option {
	return func(cfg *ledger.Config) {
		cfg.RelayBPS = bps
		cfg.Treasury = Treasury
	}
}

// New starts a test server. RelayToken and OwnerToken are registered.
func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	cfg := ledger.Config{
		Relay:       Relay,
		Owner:       Owner,
		RelayBPS:    10_000,
		DefaultFees: Fees,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ts := &TestServer{
		DB:    db,
		Keys:  sqlite.NewAPIKeyResolver(db),
		Price: ledger.NewStaticPrice(UnitPrice),
		now:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	ts.Events = event.NewService(sqlite.NewEventRepository(db), nil)
	ts.Ledger, err = ledger.NewService(sqlite.NewStore(db), ts.Price, cfg, nil,
		ledger.WithClock(ts.Now),
		ledger.WithPublisher(ts.Events),
	)
	require.NoError(t, err)

	services := mcp.Services{
		Ledger:   ts.Ledger,
		Events:   ts.Events,
		Commands: command.NewDispatcher(ts.Ledger, nil),
	}
	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services,
		Resolver:      ts.Keys,
		AuthEnabled:   true,
		TransportMode: "http",
	})

	identity := transport.AuthMiddleware(ts.Keys)
	router := transport.NewServer(mcp.NewHandler(services), identity)
	router.With(identity).Get("/events", transport.EventStream(ts.Events))
	router.Handle("/mcp", sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{Stateless: true},
	))
	ts.Server = httptest.NewServer(router)

	require.NoError(t, ts.AddAPIKey(RelayToken, Relay))
	require.NoError(t, ts.AddAPIKey(OwnerToken, Owner))

	t.Cleanup(func() {
		ts.Server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey registers a bearer token for address.
func (ts *TestServer) AddAPIKey(token string, address ledger.Address) error {
	return ts.Keys.AddKey(context.Background(), token, address, "test")
}

// Now returns the ledger's current time.
func (ts *TestServer) Now() time.Time {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.now
}

// Advance moves the ledger clock forward.
func (ts *TestServer) Advance(d time.Duration) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.now = ts.now.Add(d)
}
