package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/socialxp/internal/domain/event"
	"github.com/rpggio/socialxp/internal/repository"
)

// Relay returns the identity allowed to run privileged project operations.
func (s *Service) Relay() Address {
	return s.cfg.Relay
}

// Treasury returns the account receiving the non-relay share of deposits.
func (s *Service) Treasury() Address {
	return s.cfg.Treasury
}

// Admin returns the administrative owner and any pending transfer.
func (s *Service) Admin(ctx context.Context) (Admin, error) {
	var admin Admin
	err := s.view(ctx, func(ctx context.Context, repos Repositories) error {
		a, err := s.loadAdmin(ctx, repos)
		if err != nil {
			return err
		}
		admin = *a
		return nil
	})
	return admin, err
}

// TransferOwnership starts a two-phase handover of the administrative role.
func (s *Service) TransferOwnership(ctx context.Context, call Call, newOwner Address) (*Receipt, error) {
	return s.apply(ctx, newRequest("transfer_ownership", call, newOwner.String()).ownerOnly(s), func(ctx context.Context, repos Repositories, _ time.Time) (*Receipt, error) {
		admin, err := s.requireOwner(ctx, repos, call)
		if err != nil {
			return nil, err
		}
		if newOwner.IsZero() {
			return nil, fmt.Errorf("%w: new owner is the null address", ErrInvalidArgument)
		}
		admin.PendingOwner = newOwner
		if err := repos.Settings.SaveAdmin(ctx, *admin); err != nil {
			return nil, fmt.Errorf("saving admin: %w", err)
		}
		return &Receipt{Event: event.Event{
			Name: event.NameOwnershipTransferStarted,
			Args: map[string]string{
				"previous_owner": admin.Owner.String(),
				"new_owner":      newOwner.String(),
			},
		}}, nil
	})
}

// AcceptOwnership completes a pending transfer; only the pending owner may call it.
func (s *Service) AcceptOwnership(ctx context.Context, call Call) (*Receipt, error) {
	return s.apply(ctx, newRequest("accept_ownership", call).ownerOnly(s), func(ctx context.Context, repos Repositories, _ time.Time) (*Receipt, error) {
		admin, err := s.loadAdmin(ctx, repos)
		if err != nil {
			return nil, err
		}
		if admin.PendingOwner.IsZero() || call.Caller != admin.PendingOwner {
			return nil, fmt.Errorf("%w: caller is not the pending owner", ErrUnauthorized)
		}
		previous := admin.Owner
		admin.Owner = admin.PendingOwner
		admin.PendingOwner = ""
		if err := repos.Settings.SaveAdmin(ctx, *admin); err != nil {
			return nil, fmt.Errorf("saving admin: %w", err)
		}
		return &Receipt{Event: event.Event{
			Name: event.NameOwnershipTransferred,
			Args: map[string]string{
				"previous_owner": previous.String(),
				"new_owner":      admin.Owner.String(),
			},
		}}, nil
	})
}

func (s *Service) requireRelay(call Call) error {
	if call.Caller.IsZero() || call.Caller != s.cfg.Relay {
		return fmt.Errorf("%w: caller is not the relay", ErrUnauthorized)
	}
	return nil
}

func (s *Service) requireOwner(ctx context.Context, repos Repositories, call Call) (*Admin, error) {
	admin, err := s.loadAdmin(ctx, repos)
	if err != nil {
		return nil, err
	}
	if call.Caller.IsZero() || call.Caller != admin.Owner {
		return nil, fmt.Errorf("%w: caller is not the owner", ErrUnauthorized)
	}
	return admin, nil
}

func (s *Service) loadAdmin(ctx context.Context, repos Repositories) (*Admin, error) {
	admin, err := repos.Settings.Admin(ctx)
	if err == nil {
		return admin, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading admin: %w", err)
	}
	return &Admin{Owner: s.cfg.Owner}, nil
}
