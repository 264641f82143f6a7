package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/socialxp/internal/domain/event"
	"github.com/rpggio/socialxp/internal/repository"
)

// UpdateInterval is the minimum time between two assignments of the same role.
const UpdateInterval = 24 * time.Hour

func checkUpdateInterval(last, now time.Time) error {
	if last.IsZero() {
		return nil
	}
	if now.Sub(last) < UpdateInterval {
		return fmt.Errorf("%w: can only update every 24 hours, next update at %s",
			ErrRateLimited, last.Add(UpdateInterval).Format(time.RFC3339))
	}
	return nil
}

// SetProjectOwner binds the per-project owner role.
func (s *Service) SetProjectOwner(ctx context.Context, call Call, projectID string, account Address) (*Receipt, error) {
	return s.apply(ctx, newRequest("set_project_owner", call, projectID, account.String()).relayOnly(s), func(ctx context.Context, repos Repositories, now time.Time) (*Receipt, error) {
		if err := s.requireRelay(call); err != nil {
			return nil, err
		}
		if err := requireProjectID(projectID); err != nil {
			return nil, err
		}
		if account.IsZero() {
			return nil, fmt.Errorf("%w: owner is the null address", ErrInvalidArgument)
		}

		proj, err := loadProject(ctx, repos, projectID, now)
		if err != nil {
			return nil, err
		}
		if err := checkUpdateInterval(proj.OwnerUpdatedAt, now); err != nil {
			return nil, err
		}

		fees, err := loadFees(ctx, repos, s.cfg.DefaultFees)
		if err != nil {
			return nil, err
		}
		price, err := s.unitPrice(ctx)
		if err != nil {
			return nil, err
		}
		fee, err := chargeFee(proj, fees.ProjectOwnerFee, price)
		if err != nil {
			return nil, err
		}

		proj.Owner = account
		proj.OwnerUpdatedAt = now
		if err := repos.Projects.Save(ctx, proj); err != nil {
			return nil, fmt.Errorf("saving project: %w", err)
		}

		return &Receipt{
			Event: event.Event{
				Name:      event.NameSetProjectOwner,
				ProjectID: projectID,
				Args:      map[string]string{"account": account.String()},
			},
			Fee: fee,
		}, nil
	})
}

// SetProjectMember binds memberID to account within a project.
func (s *Service) SetProjectMember(ctx context.Context, call Call, projectID, memberID string, account Address) (*Receipt, error) {
	return s.apply(ctx, newRequest("set_project_member", call, projectID, memberID, account.String()).relayOnly(s), func(ctx context.Context, repos Repositories, now time.Time) (*Receipt, error) {
		if err := s.requireRelay(call); err != nil {
			return nil, err
		}
		if err := requireProjectID(projectID); err != nil {
			return nil, err
		}
		if memberID == "" {
			return nil, fmt.Errorf("%w: member id required", ErrInvalidArgument)
		}
		if account.IsZero() {
			return nil, fmt.Errorf("%w: member address is the null address", ErrInvalidArgument)
		}

		member, err := loadMember(ctx, repos, projectID, memberID)
		if err != nil {
			return nil, err
		}
		if err := checkUpdateInterval(member.UpdatedAt, now); err != nil {
			return nil, err
		}

		proj, err := loadProject(ctx, repos, projectID, now)
		if err != nil {
			return nil, err
		}
		fees, err := loadFees(ctx, repos, s.cfg.DefaultFees)
		if err != nil {
			return nil, err
		}
		price, err := s.unitPrice(ctx)
		if err != nil {
			return nil, err
		}
		fee, err := chargeFee(proj, fees.ProjectMemberFee, price)
		if err != nil {
			return nil, err
		}
		if err := repos.Projects.Save(ctx, proj); err != nil {
			return nil, fmt.Errorf("saving project: %w", err)
		}

		member.Address = account
		member.UpdatedAt = now
		if err := repos.Members.Save(ctx, member); err != nil {
			return nil, fmt.Errorf("saving member: %w", err)
		}

		return &Receipt{
			Event: event.Event{
				Name:      event.NameSetProjectMember,
				ProjectID: projectID,
				Args: map[string]string{
					"member_id": memberID,
					"account":   account.String(),
				},
			},
			Fee: fee,
		}, nil
	})
}

// Member returns a member binding, or the zero binding if never assigned.
func (s *Service) Member(ctx context.Context, projectID, memberID string) (*Member, error) {
	if err := requireProjectID(projectID); err != nil {
		return nil, err
	}
	if memberID == "" {
		return nil, fmt.Errorf("%w: member id required", ErrInvalidArgument)
	}
	var member *Member
	err := s.view(ctx, func(ctx context.Context, repos Repositories) error {
		m, err := loadMember(ctx, repos, projectID, memberID)
		member = m
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func loadMember(ctx context.Context, repos Repositories, projectID, memberID string) (*Member, error) {
	m, err := repos.Members.Get(ctx, projectID, memberID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading member: %w", err)
	}
	return &Member{ProjectID: projectID, MemberID: memberID}, nil
}
