package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpggio/socialxp/internal/command"
	"github.com/rpggio/socialxp/internal/domain/event"
	"github.com/rpggio/socialxp/internal/domain/ledger"
)

// LedgerService defines ledger operations needed by MCP.
type LedgerService interface {
	Relay() ledger.Address
	Treasury() ledger.Address
	Admin(ctx context.Context) (ledger.Admin, error)

	Deposit(ctx context.Context, call ledger.Call, projectID string, amount uint64) (*ledger.Receipt, error)
	SetProjectOwner(ctx context.Context, call ledger.Call, projectID string, account ledger.Address) (*ledger.Receipt, error)
	SetProjectMember(ctx context.Context, call ledger.Call, projectID, memberID string, account ledger.Address) (*ledger.Receipt, error)
	Mint(ctx context.Context, call ledger.Call, projectID string, account ledger.Address, amount uint64) (*ledger.Receipt, error)
	Burn(ctx context.Context, call ledger.Call, projectID string, account ledger.Address, amount uint64) (*ledger.Receipt, error)
	SetFees(ctx context.Context, call ledger.Call, fees ledger.FeeSchedule) (*ledger.Receipt, error)
	TransferOwnership(ctx context.Context, call ledger.Call, newOwner ledger.Address) (*ledger.Receipt, error)
	AcceptOwnership(ctx context.Context, call ledger.Call) (*ledger.Receipt, error)

	Project(ctx context.Context, projectID string) (*ledger.Project, error)
	Member(ctx context.Context, projectID, memberID string) (*ledger.Member, error)
	BalanceOf(ctx context.Context, projectID string, account ledger.Address) (uint64, error)
	TotalSupply(ctx context.Context, projectID string) (uint64, error)
	Position(ctx context.Context, projectID string, account ledger.Address) (int, error)
	Sort(ctx context.Context, projectID string, limit int) (ledger.Leaderboard, error)
	Fees(ctx context.Context) (ledger.FeeSchedule, error)
	FeeCost(ctx context.Context, units uint64) (uint64, error)
	AuditTotalCredit(ctx context.Context, call ledger.Call) (uint64, error)
}

// EventService defines event log operations needed by MCP.
type EventService interface {
	Recent(ctx context.Context, opts event.ListOptions) ([]event.Event, error)
}

// CommandDispatcher runs chat commands.
type CommandDispatcher interface {
	Handle(ctx context.Context, msg command.Message) (command.Reply, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Ledger   LedgerService
	Events   EventService
	Commands CommandDispatcher
}

// Handler dispatches ledger methods. It backs both the MCP tools and the
// plain JSON-RPC endpoint.
type Handler struct {
	ledger   LedgerService
	events   EventService
	commands CommandDispatcher
}

// NewHandler creates a new handler.
func NewHandler(services Services) *Handler {
	return &Handler{
		ledger:   services.Ledger,
		events:   services.Events,
		commands: services.Commands,
	}
}

// Handle dispatches one method call on behalf of call.Caller. Domain errors
// are returned as *APIError.
func (h *Handler) Handle(ctx context.Context, call ledger.Call, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, call, method, params)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, call ledger.Call, method string, params json.RawMessage) (any, error) {
	switch method {
	case "deposit":
		var req DepositParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.ledger.Deposit(ctx, call, req.ProjectID, req.Amount)
	case "set_project_owner":
		var req SetProjectOwnerParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		account, err := parseAddress("account", req.Account)
		if err != nil {
			return nil, err
		}
		return h.ledger.SetProjectOwner(ctx, call, req.ProjectID, account)
	case "set_project_member":
		var req SetProjectMemberParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		account, err := parseAddress("account", req.Account)
		if err != nil {
			return nil, err
		}
		return h.ledger.SetProjectMember(ctx, call, req.ProjectID, req.MemberID, account)
	case "mint", "burn":
		var req TokenParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		account, err := parseAddress("account", req.Account)
		if err != nil {
			return nil, err
		}
		if method == "mint" {
			return h.ledger.Mint(ctx, call, req.ProjectID, account, req.Amount)
		}
		return h.ledger.Burn(ctx, call, req.ProjectID, account, req.Amount)
	case "set_fees":
		var req SetFeesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.ledger.SetFees(ctx, call, req.Fees)
	case "transfer_ownership":
		var req TransferOwnershipParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		newOwner, err := parseAddress("new_owner", req.NewOwner)
		if err != nil {
			return nil, err
		}
		return h.ledger.TransferOwnership(ctx, call, newOwner)
	case "accept_ownership":
		return h.ledger.AcceptOwnership(ctx, call)
	case "get_project":
		var req ProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.ledger.Project(ctx, req.ProjectID)
	case "get_member":
		var req MemberParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.ledger.Member(ctx, req.ProjectID, req.MemberID)
	case "balance_of":
		var req AccountParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		account, err := parseAddress("account", req.Account)
		if err != nil {
			return nil, err
		}
		balance, err := h.ledger.BalanceOf(ctx, req.ProjectID, account)
		if err != nil {
			return nil, err
		}
		return BalanceResponse{ProjectID: req.ProjectID, Account: account, Balance: balance}, nil
	case "total_supply":
		var req ProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		supply, err := h.ledger.TotalSupply(ctx, req.ProjectID)
		if err != nil {
			return nil, err
		}
		return SupplyResponse{ProjectID: req.ProjectID, TotalSupply: supply}, nil
	case "position":
		var req AccountParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		account, err := parseAddress("account", req.Account)
		if err != nil {
			return nil, err
		}
		position, err := h.ledger.Position(ctx, req.ProjectID, account)
		if err != nil {
			return nil, err
		}
		return PositionResponse{ProjectID: req.ProjectID, Account: account, Position: position}, nil
	case "sort":
		var req SortParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		board, err := h.ledger.Sort(ctx, req.ProjectID, req.Limit)
		if err != nil {
			return nil, err
		}
		resp := LeaderboardResponse{ProjectID: req.ProjectID, Entries: make([]LeaderboardEntry, 0, board.Len())}
		for i, account := range board.Accounts {
			resp.Entries = append(resp.Entries, LeaderboardEntry{
				Position: i + 1,
				Account:  account,
				Balance:  board.Balances[i],
			})
		}
		return resp, nil
	case "get_fees":
		fees, err := h.ledger.Fees(ctx)
		if err != nil {
			return nil, err
		}
		return FeesResponse{Fees: fees}, nil
	case "fee_cost":
		var req FeeCostParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		price, err := h.ledger.FeeCost(ctx, 1)
		if err != nil {
			return nil, err
		}
		cost, err := h.ledger.FeeCost(ctx, req.Units)
		if err != nil {
			return nil, err
		}
		return FeeCostResponse{Units: req.Units, UnitPrice: price, Cost: cost}, nil
	case "audit_total_credit":
		total, err := h.ledger.AuditTotalCredit(ctx, call)
		if err != nil {
			return nil, err
		}
		return AuditResponse{TotalCredit: total}, nil
	case "get_admin":
		admin, err := h.ledger.Admin(ctx)
		if err != nil {
			return nil, err
		}
		return AdminResponse{
			Relay:        h.ledger.Relay(),
			Owner:        admin.Owner,
			PendingOwner: admin.PendingOwner,
			Treasury:     h.ledger.Treasury(),
			Caller:       call.Caller,
		}, nil
	case "recent_events":
		var req RecentEventsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if h.events == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
		}
		opts := event.ListOptions{
			ProjectID: req.ProjectID,
			AfterSeq:  req.AfterSeq,
			Limit:     req.Limit,
		}
		if req.Name != "" {
			name := event.Name(req.Name)
			opts.Name = &name
		}
		events, err := h.events.Recent(ctx, opts)
		if err != nil {
			return nil, err
		}
		if events == nil {
			events = []event.Event{}
		}
		return EventsResponse{Events: events}, nil
	case "run_command":
		var req RunCommandParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if h.commands == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
		}
		// Only the relay's bot speaks for chat users.
		if call.Caller.IsZero() || call.Caller != h.ledger.Relay() {
			return nil, fmt.Errorf("%w: commands are accepted from the relay only", ledger.ErrUnauthorized)
		}
		reply, err := h.commands.Handle(ctx, command.Message{
			ID:              req.UpdateID,
			ChatID:          req.ChatID,
			SenderID:        req.SenderID,
			SenderIsCreator: req.SenderIsCreator,
			Text:            req.Text,
		})
		if err != nil {
			return nil, err
		}
		return CommandResponse{Text: reply.Text, TxHash: reply.TxHash}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrInvalidArgument, err)
	}
	return nil
}

func parseAddress(field, s string) (ledger.Address, error) {
	addr, err := ledger.ParseAddress(s)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return addr, nil
}
