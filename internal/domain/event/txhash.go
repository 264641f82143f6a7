package event

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

var hashEncMode cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("event: building cbor encoder: %v", err))
	}
	hashEncMode = em
}

// hashPayload is the canonical view of an event that feeds the transaction id.
// Seq is excluded because it is assigned by the store after stamping.
type hashPayload struct {
	ID        string            `cbor:"1,keyasint"`
	Name      string            `cbor:"2,keyasint"`
	ProjectID string            `cbor:"3,keyasint"`
	Args      map[string]string `cbor:"4,keyasint"`
	RequestID string            `cbor:"5,keyasint"`
	CreatedAt int64             `cbor:"6,keyasint"`
}

// ComputeTxHash returns the hex BLAKE3 digest of the event's canonical CBOR form.
func ComputeTxHash(ev Event) (string, error) {
	payload := hashPayload{
		ID:        ev.ID,
		Name:      string(ev.Name),
		ProjectID: ev.ProjectID,
		Args:      ev.Args,
		RequestID: ev.RequestID,
		CreatedAt: ev.CreatedAt.UnixNano(),
	}
	data, err := hashEncMode.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding event: %w", err)
	}
	sum := blake3.Sum256(data)
	return "0x" + hex.EncodeToString(sum[:]), nil
}

// Stamp assigns the identity fields of a freshly built event.
func Stamp(ev *Event, now time.Time) error {
	if ev == nil || ev.Name == "" {
		return ErrInvalidInput
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now.UTC()
	}
	if ev.Args == nil {
		ev.Args = map[string]string{}
	}
	hash, err := ComputeTxHash(*ev)
	if err != nil {
		return err
	}
	ev.TxHash = hash
	return nil
}
