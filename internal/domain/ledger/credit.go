package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rpggio/socialxp/internal/domain/event"
)

// Deposit credits a project with value paid by the caller. The value itself
// is forwarded to the relay (and the treasury, under a split policy); the
// project keeps a credit counter for the relay share.
func (s *Service) Deposit(ctx context.Context, call Call, projectID string, amount uint64) (*Receipt, error) {
	return s.apply(ctx, newRequest("deposit", call, projectID, formatAmount(amount)), func(ctx context.Context, repos Repositories, now time.Time) (*Receipt, error) {
		if err := requireProjectID(projectID); err != nil {
			return nil, err
		}
		if amount == 0 {
			return nil, fmt.Errorf("%w: deposit amount must be positive", ErrInvalidArgument)
		}
		if amount > maxAmount {
			return nil, fmt.Errorf("%w: amount overflows", ErrInvalidArgument)
		}
		if call.Caller.IsZero() {
			return nil, fmt.Errorf("%w: payer is the null address", ErrInvalidArgument)
		}

		proj, err := loadProject(ctx, repos, projectID, now)
		if err != nil {
			return nil, err
		}

		relayShare := splitBPS(amount, s.cfg.RelayBPS)
		credited, err := addAmount(proj.Deposit, relayShare)
		if err != nil {
			return nil, err
		}
		// Credit summed across all projects stays within maxAmount.
		total, err := repos.Projects.TotalDeposit(ctx)
		if err != nil {
			return nil, fmt.Errorf("summing deposits: %w", err)
		}
		if _, err := addAmount(total, relayShare); err != nil {
			return nil, err
		}
		proj.Deposit = credited
		proj.DepositUpdatedAt = now
		if err := repos.Projects.Save(ctx, proj); err != nil {
			return nil, fmt.Errorf("saving project: %w", err)
		}

		transfers := []Transfer{{To: s.cfg.Relay, Amount: relayShare}}
		if rest := amount - relayShare; rest > 0 {
			transfers = append(transfers, Transfer{To: s.cfg.Treasury, Amount: rest})
		}

		return &Receipt{
			Event: event.Event{
				Name:      event.NameDeposit,
				ProjectID: projectID,
				Args: map[string]string{
					"amount":   strconv.FormatUint(amount, 10),
					"payer":    call.Caller.String(),
					"credited": strconv.FormatUint(relayShare, 10),
				},
			},
			Transfers: transfers,
		}, nil
	})
}

// Project returns a project record, or the zero record if it was never touched.
func (s *Service) Project(ctx context.Context, projectID string) (*Project, error) {
	if err := requireProjectID(projectID); err != nil {
		return nil, err
	}
	var proj *Project
	err := s.view(ctx, func(ctx context.Context, repos Repositories) error {
		p, err := loadProject(ctx, repos, projectID, time.Time{})
		proj = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return proj, nil
}

// FeeCost converts fee units into credit at the current unit price.
func (s *Service) FeeCost(ctx context.Context, units uint64) (uint64, error) {
	price, err := s.unitPrice(ctx)
	if err != nil {
		return 0, err
	}
	cost, ok := feeCost(units, price)
	if !ok {
		return 0, fmt.Errorf("%w: fee cost overflows", ErrInvalidArgument)
	}
	return cost, nil
}
