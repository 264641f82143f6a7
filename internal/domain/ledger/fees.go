package ledger

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
)

// maxAmount is the largest amount the durable store can represent.
const maxAmount = math.MaxInt64

// FeeSchedule holds the fee units charged per privileged operation.
type FeeSchedule struct {
	ProjectMemberFee uint64 `json:"project_member_fee" yaml:"project_member_fee"`
	ProjectOwnerFee  uint64 `json:"project_owner_fee" yaml:"project_owner_fee"`
	MintFee          uint64 `json:"mint_fee" yaml:"mint_fee"`
	BurnFee          uint64 `json:"burn_fee" yaml:"burn_fee"`
}

// DefaultFees is the schedule in force until the owner replaces it.
func DefaultFees() FeeSchedule {
	return FeeSchedule{
		ProjectMemberFee: 50_000,
		ProjectOwnerFee:  50_000,
		MintFee:          70_000,
		BurnFee:          70_000,
	}
}

func (f FeeSchedule) args() map[string]string {
	return map[string]string{
		"project_member_fee": strconv.FormatUint(f.ProjectMemberFee, 10),
		"project_owner_fee":  strconv.FormatUint(f.ProjectOwnerFee, 10),
		"mint_fee":           strconv.FormatUint(f.MintFee, 10),
		"burn_fee":           strconv.FormatUint(f.BurnFee, 10),
	}
}

// feeCost converts fee units at unitPrice. ok is false when the product
// exceeds what any deposit could hold.
func feeCost(units, unitPrice uint64) (uint64, bool) {
	hi, lo := bits.Mul64(units, unitPrice)
	if hi != 0 || lo > maxAmount {
		return 0, false
	}
	return lo, true
}

// chargeFee debits the fee from proj in place. The caller persists proj in
// the same transaction as the operation it pays for.
func chargeFee(proj *Project, units, unitPrice uint64) (uint64, error) {
	cost, ok := feeCost(units, unitPrice)
	if !ok || cost > proj.Deposit {
		return 0, fmt.Errorf("%w: project %q needs %d, has %d", ErrInsufficientCredit, proj.ID, cost, proj.Deposit)
	}
	proj.Deposit -= cost
	return cost, nil
}

func addAmount(a, b uint64) (uint64, error) {
	if b > maxAmount || a > maxAmount-b {
		return 0, fmt.Errorf("%w: amount overflows", ErrInvalidArgument)
	}
	return a + b, nil
}

// splitBPS returns the share of amount selected by bps basis points.
func splitBPS(amount uint64, bps uint32) uint64 {
	hi, lo := bits.Mul64(amount, uint64(bps))
	q, _ := bits.Div64(hi, lo, 10_000)
	return q
}
