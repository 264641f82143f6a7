package ledger

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// request describes one mutation for idempotent replay. A request id replays
// only the mutation it was first applied to: same operation, caller and args.
type request struct {
	op   string
	call Call
	args []string
	// authorize checks the caller's role before a stored result is returned.
	// Nil for operations open to any caller.
	authorize func(ctx context.Context, repos Repositories) error
}

func newRequest(op string, call Call, args ...string) request {
	return request{op: op, call: call, args: args}
}

func (r request) relayOnly(s *Service) request {
	r.authorize = func(context.Context, Repositories) error {
		return s.requireRelay(r.call)
	}
	return r
}

func (r request) ownerOnly(s *Service) request {
	r.authorize = func(ctx context.Context, repos Repositories) error {
		_, err := s.requireOwner(ctx, repos, r.call)
		return err
	}
	return r
}

// digest fingerprints the operation, caller and arguments.
func (r request) digest() (string, error) {
	fields := append([]string{r.op, r.call.Caller.String()}, r.args...)
	data, err := cbor.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func formatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}
