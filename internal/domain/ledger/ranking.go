package ledger

import (
	"context"
	"fmt"
)

// Position returns the 1-based leaderboard rank of account: one plus the
// number of holders with a strictly larger balance. Equal balances share a
// position, and an account with no tokens ranks after every holder above zero.
func (s *Service) Position(ctx context.Context, projectID string, account Address) (int, error) {
	if err := requireProjectID(projectID); err != nil {
		return 0, err
	}
	var position int
	err := s.view(ctx, func(ctx context.Context, repos Repositories) error {
		h, err := loadHolding(ctx, repos, projectID, account)
		if err != nil {
			return err
		}
		above, err := repos.Holders.CountAbove(ctx, projectID, h.Balance)
		if err != nil {
			return fmt.Errorf("counting holders: %w", err)
		}
		position = above + 1
		return nil
	})
	return position, err
}

// Sort returns the project's holders by descending balance, ties broken by
// first-seen order. Holders burned down to zero remain listed. limit <= 0
// returns every holder.
func (s *Service) Sort(ctx context.Context, projectID string, limit int) (Leaderboard, error) {
	if err := requireProjectID(projectID); err != nil {
		return Leaderboard{}, err
	}
	board := Leaderboard{Accounts: []Address{}, Balances: []uint64{}}
	err := s.view(ctx, func(ctx context.Context, repos Repositories) error {
		holdings, err := repos.Holders.List(ctx, projectID, limit)
		if err != nil {
			return fmt.Errorf("listing holders: %w", err)
		}
		for _, h := range holdings {
			board.Accounts = append(board.Accounts, h.Account)
			board.Balances = append(board.Balances, h.Balance)
		}
		return nil
	})
	return board, err
}
