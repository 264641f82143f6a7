package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/socialxp/internal/domain/event"
)

// SetFees replaces the whole fee schedule. Owner only.
func (s *Service) SetFees(ctx context.Context, call Call, fees FeeSchedule) (*Receipt, error) {
	return s.apply(ctx, newRequest("set_fees", call,
		formatAmount(fees.ProjectMemberFee), formatAmount(fees.ProjectOwnerFee),
		formatAmount(fees.MintFee), formatAmount(fees.BurnFee),
	).ownerOnly(s), func(ctx context.Context, repos Repositories, _ time.Time) (*Receipt, error) {
		if _, err := s.requireOwner(ctx, repos, call); err != nil {
			return nil, err
		}
		if err := repos.Settings.SaveFees(ctx, fees); err != nil {
			return nil, fmt.Errorf("saving fees: %w", err)
		}
		return &Receipt{Event: event.Event{
			Name: event.NameSetFees,
			Args: fees.args(),
		}}, nil
	})
}

// Fees returns the fee schedule in force.
func (s *Service) Fees(ctx context.Context) (FeeSchedule, error) {
	var fees FeeSchedule
	err := s.view(ctx, func(ctx context.Context, repos Repositories) error {
		f, err := loadFees(ctx, repos, s.cfg.DefaultFees)
		fees = f
		return err
	})
	return fees, err
}

// AuditTotalCredit sums the deposit of every project. Owner only.
func (s *Service) AuditTotalCredit(ctx context.Context, call Call) (uint64, error) {
	var total uint64
	err := s.view(ctx, func(ctx context.Context, repos Repositories) error {
		if _, err := s.requireOwner(ctx, repos, call); err != nil {
			return err
		}
		sum, err := repos.Projects.TotalDeposit(ctx)
		if err != nil {
			return fmt.Errorf("summing deposits: %w", err)
		}
		total = sum
		return nil
	})
	return total, err
}
