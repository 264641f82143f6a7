package ledger

import (
	"time"

	"github.com/rpggio/socialxp/internal/domain/event"
)

// Project is a tenant of the ledger. A missing row is the zero Project.
type Project struct {
	ID               string    `json:"id"`
	Deposit          uint64    `json:"deposit"`
	DepositUpdatedAt time.Time `json:"deposit_updated_at"`
	Owner            Address   `json:"owner"`
	OwnerUpdatedAt   time.Time `json:"owner_updated_at"`
	TotalSupply      uint64    `json:"total_supply"`
	CreatedAt        time.Time `json:"created_at"`
}

// Member binds a project member id to an address.
type Member struct {
	ProjectID string    `json:"project_id"`
	MemberID  string    `json:"member_id"`
	Address   Address   `json:"address"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Holding is one balance entry. Seq is the per-project first-seen order and
// is zero until the entry is first stored.
type Holding struct {
	Account Address `json:"account"`
	Balance uint64  `json:"balance"`
	Seq     int64   `json:"seq"`
}

// Admin holds the administrative owner and any pending ownership transfer.
type Admin struct {
	Owner        Address `json:"owner"`
	PendingOwner Address `json:"pending_owner,omitempty"`
}

// Leaderboard is the descending-sorted balance sheet of a project.
type Leaderboard struct {
	Accounts []Address `json:"accounts"`
	Balances []uint64  `json:"balances"`
}

// Len returns the number of ranked accounts.
func (l Leaderboard) Len() int {
	return len(l.Accounts)
}

// Call carries the identity of the caller and an optional idempotency key.
type Call struct {
	Caller    Address
	RequestID string
}

// Transfer describes value forwarded out of the ledger on deposit.
type Transfer struct {
	To     Address `json:"to"`
	Amount uint64  `json:"amount"`
}

// Receipt is the result of a mutating operation.
type Receipt struct {
	Event     event.Event `json:"event"`
	Fee       uint64      `json:"fee,omitempty"`
	Transfers []Transfer  `json:"transfers,omitempty"`
	Replayed  bool        `json:"replayed,omitempty"`
}
