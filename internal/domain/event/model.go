package event

import "time"

// Name identifies the kind of state change an event reports.
type Name string

const (
	NameDeposit                  Name = "Deposit"
	NameSetProjectOwner          Name = "SetProjectOwner"
	NameSetProjectMember         Name = "SetProjectMember"
	NameMint                     Name = "Mint"
	NameBurn                     Name = "Burn"
	NameSetFees                  Name = "SetFees"
	NameOwnershipTransferStarted Name = "OwnershipTransferStarted"
	NameOwnershipTransferred     Name = "OwnershipTransferred"
)

// Event is one notification emitted by a successful ledger mutation.
type Event struct {
	ID            string            `json:"id"`
	Seq           int64             `json:"seq"`
	Name          Name              `json:"name"`
	ProjectID     string            `json:"project_id,omitempty"`
	Args          map[string]string `json:"args"`
	RequestID     string            `json:"request_id,omitempty"`
	RequestDigest string            `json:"-"` // fingerprint of the call the request id applied
	TxHash        string            `json:"tx_hash"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Arg returns a named argument or the empty string.
func (e Event) Arg(key string) string {
	return e.Args[key]
}
