package marketplace

import (
	"context"
	"net/url"
	"strconv"

	"github.com/donaldgifford/marketplace/pkg/types"
)

// Admin endpoints require a session whose user has the admin role; other
// users get ErrForbidden.

// GetConfig returns the system configuration.
func (s *Session) GetConfig(ctx context.Context) (types.Config, error) {
	cfg := types.Config{}
	if err := s.get(ctx, "/admin/config.php", nil, true, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UpdateConfig posts settings as form fields. The mapping is passed through
// unchanged: the server defines which keys it recognizes and ignores the rest.
func (s *Session) UpdateConfig(ctx context.Context, settings map[string]string) (*types.Ack, error) {
	form := url.Values{}
	for k, v := range settings {
		form.Set(k, v)
	}

	var resp types.Ack
	if err := s.post(ctx, "/admin/config.php", form, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTokens returns the accepted token registry.
func (s *Session) ListTokens(ctx context.Context) (*types.TokenList, error) {
	var resp types.TokenList
	if err := s.get(ctx, "/admin/tokens.php", nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddToken registers an accepted token. contractAddress is omitted when empty
// (native currency).
func (s *Session) AddToken(
	ctx context.Context,
	chainID int,
	symbol, contractAddress string,
) (*types.TokenAdded, error) {
	form := url.Values{
		"chain_id": {strconv.Itoa(chainID)},
		"symbol":   {symbol},
	}
	if contractAddress != "" {
		form.Set("contract_address", contractAddress)
	}

	var resp types.TokenAdded
	if err := s.post(ctx, "/admin/tokens.php", form, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveToken removes an accepted token by id.
func (s *Session) RemoveToken(ctx context.Context, id int64) (*types.Ack, error) {
	form := url.Values{"id": {strconv.FormatInt(id, 10)}}

	var resp types.Ack
	if err := s.post(ctx, "/admin/tokens-remove.php", form, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
