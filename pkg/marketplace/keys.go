package marketplace

import (
	"context"
	"net/url"
	"strconv"

	"github.com/donaldgifford/marketplace/pkg/types"
)

// ListKeys returns the session user's API keys, without secrets.
func (s *Session) ListKeys(ctx context.Context) (*types.KeyList, error) {
	var resp types.KeyList
	if err := s.get(ctx, "/api/keys.php", nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateKey creates an API key labelled name. The returned APIKey cannot be
// retrieved again.
func (s *Session) CreateKey(ctx context.Context, name string) (*types.APIKeyCreated, error) {
	form := url.Values{}
	if name != "" {
		form.Set("name", name)
	}

	var resp types.APIKeyCreated
	if err := s.post(ctx, "/api/keys.php", form, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RevokeKey revokes the API key with the given id.
func (s *Session) RevokeKey(ctx context.Context, id int64) (*types.Ack, error) {
	form := url.Values{"id": {strconv.FormatInt(id, 10)}}

	var resp types.Ack
	if err := s.post(ctx, "/api/keys-revoke.php", form, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAuthUser returns the user owning the client's API key.
func (c *Client) GetAuthUser(ctx context.Context) (types.Record, error) {
	var user types.Record
	if err := c.get(ctx, "/api/auth-user.php", nil, true, &user); err != nil {
		return nil, err
	}
	return user, nil
}
