package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rpggio/socialxp/internal/domain/event"
	"github.com/rpggio/socialxp/internal/repository"
)

// Mint issues amount tokens of a project to account.
func (s *Service) Mint(ctx context.Context, call Call, projectID string, account Address, amount uint64) (*Receipt, error) {
	return s.apply(ctx, newRequest("mint", call, projectID, account.String(), formatAmount(amount)).relayOnly(s), func(ctx context.Context, repos Repositories, now time.Time) (*Receipt, error) {
		if err := s.checkTokenCall(call, projectID, account, amount); err != nil {
			return nil, err
		}

		proj, err := loadProject(ctx, repos, projectID, now)
		if err != nil {
			return nil, err
		}
		holding, err := loadHolding(ctx, repos, projectID, account)
		if err != nil {
			return nil, err
		}
		supply, err := addAmount(proj.TotalSupply, amount)
		if err != nil {
			return nil, err
		}

		fee, err := s.chargeTokenFee(ctx, repos, proj, func(f FeeSchedule) uint64 { return f.MintFee })
		if err != nil {
			return nil, err
		}

		// supply bounds every balance, so this cannot overflow once supply fits
		holding.Balance += amount
		proj.TotalSupply = supply
		if err := repos.Projects.Save(ctx, proj); err != nil {
			return nil, fmt.Errorf("saving project: %w", err)
		}
		if err := repos.Holders.Save(ctx, projectID, holding); err != nil {
			return nil, fmt.Errorf("saving holding: %w", err)
		}

		return &Receipt{
			Event: event.Event{
				Name:      event.NameMint,
				ProjectID: projectID,
				Args: map[string]string{
					"account": account.String(),
					"amount":  strconv.FormatUint(amount, 10),
				},
			},
			Fee: fee,
		}, nil
	})
}

// Burn destroys amount tokens held by account.
func (s *Service) Burn(ctx context.Context, call Call, projectID string, account Address, amount uint64) (*Receipt, error) {
	return s.apply(ctx, newRequest("burn", call, projectID, account.String(), formatAmount(amount)).relayOnly(s), func(ctx context.Context, repos Repositories, now time.Time) (*Receipt, error) {
		if err := s.checkTokenCall(call, projectID, account, amount); err != nil {
			return nil, err
		}

		proj, err := loadProject(ctx, repos, projectID, now)
		if err != nil {
			return nil, err
		}
		holding, err := loadHolding(ctx, repos, projectID, account)
		if err != nil {
			return nil, err
		}
		if amount > holding.Balance {
			return nil, fmt.Errorf("%w: %s holds %d, burning %d", ErrInsufficientBalance, account, holding.Balance, amount)
		}

		fee, err := s.chargeTokenFee(ctx, repos, proj, func(f FeeSchedule) uint64 { return f.BurnFee })
		if err != nil {
			return nil, err
		}

		holding.Balance -= amount
		proj.TotalSupply -= amount
		if err := repos.Projects.Save(ctx, proj); err != nil {
			return nil, fmt.Errorf("saving project: %w", err)
		}
		if err := repos.Holders.Save(ctx, projectID, holding); err != nil {
			return nil, fmt.Errorf("saving holding: %w", err)
		}

		return &Receipt{
			Event: event.Event{
				Name:      event.NameBurn,
				ProjectID: projectID,
				Args: map[string]string{
					"account": account.String(),
					"amount":  strconv.FormatUint(amount, 10),
				},
			},
			Fee: fee,
		}, nil
	})
}

// BalanceOf returns the token balance of account in a project.
func (s *Service) BalanceOf(ctx context.Context, projectID string, account Address) (uint64, error) {
	if err := requireProjectID(projectID); err != nil {
		return 0, err
	}
	var balance uint64
	err := s.view(ctx, func(ctx context.Context, repos Repositories) error {
		h, err := loadHolding(ctx, repos, projectID, account)
		if err != nil {
			return err
		}
		balance = h.Balance
		return nil
	})
	return balance, err
}

// TotalSupply returns the sum of all balances in a project.
func (s *Service) TotalSupply(ctx context.Context, projectID string) (uint64, error) {
	proj, err := s.Project(ctx, projectID)
	if err != nil {
		return 0, err
	}
	return proj.TotalSupply, nil
}

func (s *Service) checkTokenCall(call Call, projectID string, account Address, amount uint64) error {
	if err := s.requireRelay(call); err != nil {
		return err
	}
	if err := requireProjectID(projectID); err != nil {
		return err
	}
	if account.IsZero() {
		return fmt.Errorf("%w: account is the null address", ErrInvalidArgument)
	}
	if amount == 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}
	return nil
}

func (s *Service) chargeTokenFee(ctx context.Context, repos Repositories, proj *Project, pick func(FeeSchedule) uint64) (uint64, error) {
	fees, err := loadFees(ctx, repos, s.cfg.DefaultFees)
	if err != nil {
		return 0, err
	}
	price, err := s.unitPrice(ctx)
	if err != nil {
		return 0, err
	}
	return chargeFee(proj, pick(fees), price)
}

func loadHolding(ctx context.Context, repos Repositories, projectID string, account Address) (*Holding, error) {
	h, err := repos.Holders.Get(ctx, projectID, account)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading holding: %w", err)
	}
	return &Holding{Account: account}, nil
}
