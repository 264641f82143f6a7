package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `socialxp is a multi-tenant reward ledger. Each project (usually a chat id) has a credit
balance, an owner, member address bindings and a token balance sheet used to rank members.

Roles:
- Relay: the single bot identity allowed to assign roles, mint and burn.
- Owner: the administrator who sets fees and audits total credit.
- Anyone may deposit credit for a project.

Workflow:
1) Check funding: get_project and fee_cost. Privileged calls charge fee units times the unit price.
2) Bind identities: set_project_member / set_project_owner (each binding changes at most once per 24h).
3) Reward: mint and burn. Read back with balance_of, position and sort.
4) Audit: recent_events shows every applied change with its transaction id.

Every mutating tool returns a receipt with the event and its tx_hash. Pass an idempotency key
(Idempotency-Key header over HTTP, _meta.request_id over stdio) to make retries safe.

Docs:
- socialxp://docs/index
- socialxp://docs/fees
- socialxp://docs/errors
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "socialxp://docs/index",
		Name:        "docs_index",
		Title:       "socialxp docs index",
		Description: "Entry point: data model, roles and what to read next.",
		Content: `# socialxp: Agent Docs Index

## Data model

- Project: credit (deposit), owner address, total token supply. Created implicitly on first write.
- Member: a platform user id bound to an address inside one project.
- Holder: an account with a token balance in a project. Holders are never removed, even at zero.
- Event: one applied change (Deposit, SetProjectOwner, SetProjectMember, Mint, Burn, SetFees,
  OwnershipTransferStarted, OwnershipTransferred) with a tx_hash.

## Invariants

- total_supply equals the sum of balances in the project.
- credit only grows through deposit and only shrinks through fees.
- A rejected call changes nothing.

## Ranking

- position = 1 + number of holders with a strictly larger balance. Equal balances share a position.
- sort orders by balance descending; ties keep the order in which holders first received tokens.

## Next

- socialxp://docs/fees for pricing
- socialxp://docs/errors for error codes and recovery
`,
	},
	{
		URI:         "socialxp://docs/fees",
		Name:        "docs_fees",
		Title:       "Fees and custody",
		Description: "How fee units, the unit price and deposit custody interact.",
		Content: `# Fees and custody

Each privileged operation has a fee in units (get_fees). The credit charged is
units * unit price, where the unit price is set by the server operator (fee_cost shows it).

| Operation          | Schedule field      |
|--------------------|---------------------|
| set_project_member | project_member_fee  |
| set_project_owner  | project_owner_fee   |
| mint               | mint_fee            |
| burn               | burn_fee            |

A call is refused with INSUFFICIENT_CREDIT when the project's credit is below the cost.
A zero fee needs no credit.

Deposits are forwarded out of the ledger. Under the default custody policy the relay
receives the whole amount and the project is credited the same amount. Under a split
policy the relay receives relay_bps/10000 of it, the treasury the rest, and the project
is credited the relay share. The receipt lists both transfers.
`,
	},
	{
		URI:         "socialxp://docs/errors",
		Name:        "docs_errors",
		Title:       "Error codes",
		Description: "Error codes returned by tools and how to recover.",
		Content: `# Error codes

| Code                 | Meaning                                      | Recovery                           |
|----------------------|----------------------------------------------|------------------------------------|
| INVALID_ARGUMENT     | empty id, zero amount, bad or null address   | fix the input                      |
| UNAUTHORIZED         | caller is not the relay / owner              | call with the right identity       |
| RATE_LIMITED         | binding changed less than 24 hours ago       | retry after the time in details    |
| INSUFFICIENT_CREDIT  | fee exceeds the project's credit             | deposit, then retry                |
| INSUFFICIENT_BALANCE | burn exceeds the account's balance           | burn at most the balance           |
| REQUEST_CONFLICT     | request id already used for a different call | use a fresh request id             |
| METHOD_NOT_FOUND     | unknown tool or method                       | list tools                         |

Errors are never partial: state is unchanged after any error.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
