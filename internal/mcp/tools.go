package mcp

import (
	"context"
	"encoding/json"

	"github.com/rpggio/socialxp/internal/domain/ledger"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools exposes every handler method as an MCP tool.
func registerTools(server *sdkmcp.Server, h *Handler) {
	// Credit ledger
	addTool[DepositParams](server, h, "deposit", "Credit a project with value paid by the caller. The relay share is credited; under a split custody policy the rest goes to the treasury.")
	addTool[ProjectParams](server, h, "get_project", "Get a project's credit, owner, total supply and update times. Unknown projects read as zero.")
	addTool[FeeCostParams](server, h, "fee_cost", "Convert fee units into credit at the current unit price")

	// Project registry
	addTool[SetProjectOwnerParams](server, h, "set_project_owner", "Assign the project owner (relay only, at most once per 24 hours, charges the owner fee)")
	addTool[SetProjectMemberParams](server, h, "set_project_member", "Bind a member id to an address (relay only, at most once per 24 hours per member, charges the member fee)")
	addTool[MemberParams](server, h, "get_member", "Get the address bound to a member id")

	// Token ledger
	addTool[TokenParams](server, h, "mint", "Issue tokens to an account (relay only, charges the mint fee)")
	addTool[TokenParams](server, h, "burn", "Destroy tokens held by an account (relay only, charges the burn fee)")
	addTool[AccountParams](server, h, "balance_of", "Get an account's token balance in a project")
	addTool[ProjectParams](server, h, "total_supply", "Get the sum of all token balances in a project")

	// Ranking
	addTool[AccountParams](server, h, "position", "Get an account's 1-based rank. Equal balances share a rank.")
	addTool[SortParams](server, h, "sort", "List holders by descending balance, ties in first-seen order")

	// Administration
	addTool[emptyParams](server, h, "get_fees", "Get the fee schedule in force")
	addTool[SetFeesParams](server, h, "set_fees", "Replace the whole fee schedule (owner only)")
	addTool[emptyParams](server, h, "audit_total_credit", "Sum the credit of every project (owner only)")
	addTool[emptyParams](server, h, "get_admin", "Get the relay, owner, pending owner, treasury and the resolved caller")
	addTool[TransferOwnershipParams](server, h, "transfer_ownership", "Start handing the owner role to another address (owner only)")
	addTool[emptyParams](server, h, "accept_ownership", "Complete a pending ownership transfer (pending owner only)")

	// Notifications and chat
	addTool[RecentEventsParams](server, h, "recent_events", "List stored ledger events, newest first")
	addTool[RunCommandParams](server, h, "run_command", "Execute a chat command such as /mint or /leadership and return the reply text (relay only)")
}

// addTool registers one tool that forwards its arguments to Handler.Handle.
// Domain errors come back as tool results flagged IsError whose text is the
// JSON form of the APIError.
func addTool[In any](server *sdkmcp.Server, h *Handler, name, description string) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        name,
		Description: description,
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
		params, err := json.Marshal(in)
		if err != nil {
			return nil, nil, err
		}
		call := ledger.Call{Caller: getCaller(ctx), RequestID: getRequestID(ctx)}
		out, err := h.Handle(ctx, call, name, params)
		if err != nil {
			return toolError(err), nil, nil
		}
		return nil, out, nil
	})
}

func toolError(err error) *sdkmcp.CallToolResult {
	payload := any(err.Error())
	if apiErr := MapError(err); apiErr != nil {
		payload = apiErr
	}
	text, _ := json.Marshal(payload)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(text)}},
	}
}
