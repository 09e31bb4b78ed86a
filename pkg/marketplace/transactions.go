package marketplace

import (
	"context"
	"net/url"
	"strconv"

	"github.com/donaldgifford/marketplace/pkg/types"
)

// Transaction defaults applied when the corresponding field is zero.
const (
	DefaultChainID  = 1
	DefaultCurrency = "ETH"
)

// TransactionParams are the form fields of a new transaction.
type TransactionParams struct {
	PackageUUID    string
	RequiredAmount float64
	// ChainID is the EVM chain; zero means DefaultChainID.
	ChainID int
	// Currency is the symbol; empty means DefaultCurrency.
	Currency string
	// RefundAddress is omitted from the form when empty.
	RefundAddress string
}

func (p *TransactionParams) form() url.Values {
	chainID := p.ChainID
	if chainID == 0 {
		chainID = DefaultChainID
	}
	currency := p.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	form := url.Values{
		"package_uuid":    {p.PackageUUID},
		"required_amount": {strconv.FormatFloat(p.RequiredAmount, 'f', -1, 64)},
		"chain_id":        {strconv.Itoa(chainID)},
		"currency":        {currency},
	}
	if p.RefundAddress != "" {
		form.Set("refund_address", p.RefundAddress)
	}
	return form
}

// ListTransactions returns recent transactions. Works with an API key client
// or a Session.
func (c *Client) ListTransactions(ctx context.Context) (*types.TransactionList, error) {
	var resp types.TransactionList
	if err := c.get(ctx, "/api/transactions.php", nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTransaction opens an escrow transaction for a package.
func (s *Session) CreateTransaction(
	ctx context.Context,
	params *TransactionParams,
) (*types.TransactionCreated, error) {
	var resp types.TransactionCreated
	if err := s.post(ctx, "/api/transactions.php", params.form(), true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
