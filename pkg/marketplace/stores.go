package marketplace

import (
	"context"
	"net/url"

	"github.com/donaldgifford/marketplace/pkg/types"
)

// ListStores returns all stores. No authentication.
func (c *Client) ListStores(ctx context.Context) (*types.StoreList, error) {
	var resp types.StoreList
	if err := c.get(ctx, "/api/stores.php", nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListItems returns items, filtered by store when storeUUID is non-empty.
// An empty storeUUID sends no store_uuid parameter at all.
func (c *Client) ListItems(ctx context.Context, storeUUID string) (*types.ItemList, error) {
	q := url.Values{}
	if storeUUID != "" {
		q.Set("store_uuid", storeUUID)
	}

	var resp types.ItemList
	if err := c.get(ctx, "/api/items.php", q, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateStore creates a store owned by the session user. agree is the
// vendorship terms flag, sent as "1" or "0".
func (s *Session) CreateStore(
	ctx context.Context,
	storename, description string,
	agree bool,
) (*types.Created, error) {
	form := url.Values{
		"storename":        {storename},
		"description":      {description},
		"vendorship_agree": {formBool(agree)},
	}

	var resp types.Created
	if err := s.post(ctx, "/api/stores.php", form, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateItem creates an item in the given store.
func (s *Session) CreateItem(
	ctx context.Context,
	name, storeUUID, description string,
) (*types.Created, error) {
	form := url.Values{
		"name":        {name},
		"store_uuid":  {storeUUID},
		"description": {description},
	}

	var resp types.Created
	if err := s.post(ctx, "/api/items.php", form, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func formBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
