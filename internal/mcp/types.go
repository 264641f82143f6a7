package mcp

import (
	"github.com/rpggio/socialxp/internal/domain/event"
	"github.com/rpggio/socialxp/internal/domain/ledger"
)

type emptyParams struct{}

type DepositParams struct {
	ProjectID string `json:"project_id" jsonschema:"project (chat) id to credit"`
	Amount    uint64 `json:"amount" jsonschema:"credit units paid by the caller"`
}

type SetProjectOwnerParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
	Account   string `json:"account" jsonschema:"owner address, 0x-prefixed hex"`
}

type SetProjectMemberParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
	MemberID  string `json:"member_id" jsonschema:"platform user id of the member"`
	Account   string `json:"account" jsonschema:"member address, 0x-prefixed hex"`
}

type TokenParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
	Account   string `json:"account" jsonschema:"holder address, 0x-prefixed hex"`
	Amount    uint64 `json:"amount" jsonschema:"token amount, positive"`
}

type ProjectParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
}

type MemberParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
	MemberID  string `json:"member_id" jsonschema:"platform user id of the member"`
}

type AccountParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
	Account   string `json:"account" jsonschema:"holder address, 0x-prefixed hex"`
}

type SortParams struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum entries, 0 for all"`
}

type FeeCostParams struct {
	Units uint64 `json:"units" jsonschema:"fee units to price"`
}

type SetFeesParams struct {
	Fees ledger.FeeSchedule `json:"fees" jsonschema:"complete replacement fee schedule in fee units"`
}

type TransferOwnershipParams struct {
	NewOwner string `json:"new_owner" jsonschema:"address that must accept the role"`
}

type RecentEventsParams struct {
	ProjectID string `json:"project_id,omitempty" jsonschema:"only events of this project"`
	Name      string `json:"name,omitempty" jsonschema:"only events with this name, e.g. Mint"`
	AfterSeq  int64  `json:"after_seq,omitempty" jsonschema:"only events after this sequence number"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of events"`
}

type RunCommandParams struct {
	UpdateID        string `json:"update_id,omitempty" jsonschema:"platform update id, used to apply redeliveries once"`
	ChatID          string `json:"chat_id" jsonschema:"chat the message was sent in"`
	SenderID        string `json:"sender_id" jsonschema:"platform user id of the sender"`
	SenderIsCreator bool   `json:"sender_is_creator,omitempty" jsonschema:"whether the sender created the chat"`
	Text            string `json:"text" jsonschema:"message text, e.g. /mint 10 @alice"`
}

type BalanceResponse struct {
	ProjectID string         `json:"project_id"`
	Account   ledger.Address `json:"account"`
	Balance   uint64         `json:"balance"`
}

type PositionResponse struct {
	ProjectID string         `json:"project_id"`
	Account   ledger.Address `json:"account"`
	Position  int            `json:"position"`
}

type SupplyResponse struct {
	ProjectID   string `json:"project_id"`
	TotalSupply uint64 `json:"total_supply"`
}

type LeaderboardEntry struct {
	Position int            `json:"position"`
	Account  ledger.Address `json:"account"`
	Balance  uint64         `json:"balance"`
}

type LeaderboardResponse struct {
	ProjectID string             `json:"project_id"`
	Entries   []LeaderboardEntry `json:"entries"`
}

type FeeCostResponse struct {
	Units     uint64 `json:"units"`
	UnitPrice uint64 `json:"unit_price"`
	Cost      uint64 `json:"cost"`
}

type FeesResponse struct {
	Fees ledger.FeeSchedule `json:"fees"`
}

type AuditResponse struct {
	TotalCredit uint64 `json:"total_credit"`
}

type AdminResponse struct {
	Relay        ledger.Address `json:"relay"`
	Owner        ledger.Address `json:"owner"`
	PendingOwner ledger.Address `json:"pending_owner,omitempty"`
	Treasury     ledger.Address `json:"treasury,omitempty"`
	Caller       ledger.Address `json:"caller,omitempty"`
}

type EventsResponse struct {
	Events []event.Event `json:"events"`
}

type CommandResponse struct {
	Text   string `json:"text"`
	TxHash string `json:"tx_hash,omitempty"`
}
