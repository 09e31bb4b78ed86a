package marketplace

import (
	"context"

	"github.com/donaldgifford/marketplace/pkg/types"
)

// ListDeposits returns deposits for stores the session user belongs to.
func (s *Session) ListDeposits(ctx context.Context) (*types.DepositList, error) {
	var resp types.DepositList
	if err := s.get(ctx, "/api/deposits.php", nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListDisputes returns the most recent disputes.
func (s *Session) ListDisputes(ctx context.Context) (*types.DisputeList, error) {
	var resp types.DisputeList
	if err := s.get(ctx, "/api/disputes.php", nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
