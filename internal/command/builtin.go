package command

import (
	"context"
	"encoding/json"

	"github.com/donaldgifford/marketplace/pkg/marketplace"
	"github.com/donaldgifford/marketplace/pkg/types"
)

// Builtin returns the registry of marketplace commands.
func Builtin() *Registry {
	return NewRegistry(
		Descriptor{
			Name:        "health",
			Description: "Health check (GET /)",
			Auth:        AuthNone,
			Handler:     health,
		},
		Descriptor{
			Name:        "register",
			Description: "Register a new user account",
			Auth:        AuthNone,
			Params: []Param{
				{Name: ParamUsername, Type: TypeString, Description: "Username to register", Required: true},
				{Name: ParamPassword, Type: TypeString, Description: "Password for the new account", Required: true},
			},
			Handler: register,
		},
		Descriptor{
			Name:        "list-stores",
			Description: "List all stores (public)",
			Auth:        AuthNone,
			Handler:     listStores,
		},
		Descriptor{
			Name:        "list-items",
			Description: "List items, optionally filtered by store UUID",
			Auth:        AuthNone,
			Params: []Param{
				{Name: "store_uuid", Type: TypeString, Description: "Filter by store UUID"},
			},
			Handler: listItems,
		},
		Descriptor{
			Name:        "get-auth-user",
			Description: "Get current user for API key",
			Auth:        AuthAPIKey,
			Handler:     getAuthUser,
		},
		Descriptor{
			Name:        "list-transactions",
			Description: "List transactions (API key)",
			Auth:        AuthAPIKey,
			Handler:     listTransactions,
		},
		Descriptor{
			Name:        "create-store",
			Description: "Create a store (session: username + password)",
			Auth:        AuthSession,
			Params: []Param{
				{Name: "storename", Type: TypeString, Description: "Store name (max 16 chars)", Required: true},
				{Name: "description", Type: TypeString, Description: "Store description", Default: ""},
				{Name: "vendorship_agree", Type: TypeBoolean, Description: "Agree to vendorship terms (1 or 0)", Default: true},
			},
			Handler: createStore,
		},
		Descriptor{
			Name:        "create-item",
			Description: "Create an item (session)",
			Auth:        AuthSession,
			Params: []Param{
				{Name: "name", Type: TypeString, Description: "Item name", Required: true},
				{Name: "store_uuid", Type: TypeString, Description: "Store UUID", Required: true},
				{Name: "description", Type: TypeString, Description: "Item description", Default: ""},
			},
			Handler: createItem,
		},
		Descriptor{
			Name:        "create-transaction",
			Description: "Create a transaction (session)",
			Auth:        AuthSession,
			Params: []Param{
				{Name: "package_uuid", Type: TypeString, Description: "Package UUID", Required: true},
				{Name: "required_amount", Type: TypeNumber, Description: "Amount in crypto", Required: true},
				{
					Name:        "chain_id",
					Type:        TypeInteger,
					Description: "EVM chain ID (default 1)",
					Default:     marketplace.DefaultChainID,
					Positive:    true,
				},
				{
					Name:        "currency",
					Type:        TypeString,
					Description: "Currency symbol (default ETH)",
					Default:     marketplace.DefaultCurrency,
				},
				{Name: "refund_address", Type: TypeString, Description: "EVM refund address"},
			},
			Handler: createTransaction,
		},
		Descriptor{
			Name:        "list-keys",
			Description: "List API keys for current user (session)",
			Auth:        AuthSession,
			Handler:     listKeys,
		},
		Descriptor{
			Name:        "create-key",
			Description: "Create API key (session). Save returned api_key; it cannot be retrieved later.",
			Auth:        AuthSession,
			Params: []Param{
				{Name: "name", Type: TypeString, Description: "Key label", Default: ""},
			},
			Handler: createKey,
		},
		Descriptor{
			Name:        "revoke-key",
			Description: "Revoke an API key (session)",
			Auth:        AuthSession,
			Params: []Param{
				{Name: "key_id", Type: TypeInteger, Description: "Key ID from list-keys", Required: true},
			},
			Handler: revokeKey,
		},
		Descriptor{
			Name:        "list-deposits",
			Description: "List deposits for current user's stores (session)",
			Auth:        AuthSession,
			Handler:     listDeposits,
		},
		Descriptor{
			Name:        "list-disputes",
			Description: "List disputes (session)",
			Auth:        AuthSession,
			Handler:     listDisputes,
		},
		Descriptor{
			Name:        "get-config",
			Description: "Get system configuration (session, admin)",
			Auth:        AuthSession,
			Handler:     getConfig,
		},
		Descriptor{
			Name: "update-config",
			Description: "Update system configuration (session, admin). " +
				"Settings are passed through; the server defines the recognized keys.",
			Auth: AuthSession,
			Params: []Param{
				{Name: "settings", Type: TypeObject, Description: "Key/value settings to update", Required: true},
			},
			Handler: updateConfig,
		},
		Descriptor{
			Name:        "list-tokens",
			Description: "List accepted tokens (session, admin)",
			Auth:        AuthSession,
			Handler:     listTokens,
		},
		Descriptor{
			Name:        "add-token",
			Description: "Add an accepted token (session, admin)",
			Auth:        AuthSession,
			Params: []Param{
				{Name: "chain_id", Type: TypeInteger, Description: "EVM chain ID", Required: true, Positive: true},
				{Name: "symbol", Type: TypeString, Description: "Token symbol", Required: true},
				{Name: "contract_address", Type: TypeString, Description: "Token contract address; empty for native currency"},
			},
			Handler: addToken,
		},
		Descriptor{
			Name:        "remove-token",
			Description: "Remove an accepted token (session, admin)",
			Auth:        AuthSession,
			Params: []Param{
				{Name: "token_id", Type: TypeInteger, Description: "Token ID from list-tokens", Required: true},
			},
			Handler: removeToken,
		},
	)
}

func health(ctx context.Context, call *Call) (Fields, error) {
	msg, err := call.Client.Health(ctx)
	if err != nil {
		return nil, err
	}
	return Fields{"message": msg}, nil
}

func register(ctx context.Context, call *Call) (Fields, error) {
	msg, err := call.Client.Register(ctx, call.Args.String(ParamUsername), call.Args.String(ParamPassword))
	if err != nil {
		return nil, err
	}
	return Fields{"message": msg}, nil
}

func listStores(ctx context.Context, call *Call) (Fields, error) {
	resp, err := call.Client.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	return Fields{"stores": records(resp.Stores)}, nil
}

func listItems(ctx context.Context, call *Call) (Fields, error) {
	resp, err := call.Client.ListItems(ctx, call.Args.String("store_uuid"))
	if err != nil {
		return nil, err
	}
	return Fields{"items": records(resp.Items)}, nil
}

func getAuthUser(ctx context.Context, call *Call) (Fields, error) {
	user, err := call.Client.GetAuthUser(ctx)
	if err != nil {
		return nil, err
	}
	if len(user) == 0 {
		user = json.RawMessage("null")
	}
	return Fields{"user": user}, nil
}

func listTransactions(ctx context.Context, call *Call) (Fields, error) {
	resp, err := call.Client.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return Fields{"transactions": records(resp.Transactions)}, nil
}

func createStore(ctx context.Context, call *Call) (Fields, error) {
	a := call.Args
	resp, err := call.Session.CreateStore(ctx, a.String("storename"), a.String("description"), a.Bool("vendorship_agree"))
	if err != nil {
		return nil, err
	}
	return Fields{"uuid": resp.UUID, "message": "Store created: " + resp.UUID}, nil
}

func createItem(ctx context.Context, call *Call) (Fields, error) {
	a := call.Args
	resp, err := call.Session.CreateItem(ctx, a.String("name"), a.String("store_uuid"), a.String("description"))
	if err != nil {
		return nil, err
	}
	return Fields{"uuid": resp.UUID, "message": "Item created: " + resp.UUID}, nil
}

func createTransaction(ctx context.Context, call *Call) (Fields, error) {
	a := call.Args
	resp, err := call.Session.CreateTransaction(ctx, &marketplace.TransactionParams{
		PackageUUID:    a.String("package_uuid"),
		RequiredAmount: a.Float("required_amount"),
		ChainID:        int(a.Int("chain_id")),
		Currency:       a.String("currency"),
		RefundAddress:  a.String("refund_address"),
	})
	if err != nil {
		return nil, err
	}
	return Fields{
		"uuid":                   resp.UUID,
		"escrow_address_pending": resp.EscrowAddressPending,
		"message":                "Transaction created: " + resp.UUID,
	}, nil
}

func listKeys(ctx context.Context, call *Call) (Fields, error) {
	resp, err := call.Session.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	return Fields{"keys": records(resp.Keys)}, nil
}

func createKey(ctx context.Context, call *Call) (Fields, error) {
	resp, err := call.Session.CreateKey(ctx, call.Args.String("name"))
	if err != nil {
		return nil, err
	}
	return Fields{
		"id":         resp.ID,
		"name":       resp.Name,
		"key_prefix": resp.KeyPrefix,
		"api_key":    resp.APIKey,
		"created_at": resp.CreatedAt,
		"message":    "Save api_key; it cannot be retrieved later.",
	}, nil
}

func revokeKey(ctx context.Context, call *Call) (Fields, error) {
	if _, err := call.Session.RevokeKey(ctx, call.Args.Int("key_id")); err != nil {
		return nil, err
	}
	return Fields{"message": "API key revoked"}, nil
}

func listDeposits(ctx context.Context, call *Call) (Fields, error) {
	resp, err := call.Session.ListDeposits(ctx)
	if err != nil {
		return nil, err
	}
	return Fields{"deposits": records(resp.Deposits)}, nil
}

func listDisputes(ctx context.Context, call *Call) (Fields, error) {
	resp, err := call.Session.ListDisputes(ctx)
	if err != nil {
		return nil, err
	}
	return Fields{"disputes": records(resp.Disputes)}, nil
}

func getConfig(ctx context.Context, call *Call) (Fields, error) {
	cfg, err := call.Session.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = types.Config{}
	}
	return Fields{"config": cfg}, nil
}

func updateConfig(ctx context.Context, call *Call) (Fields, error) {
	settings := call.Args.Object("settings")
	if _, err := call.Session.UpdateConfig(ctx, settings); err != nil {
		return nil, err
	}
	return Fields{"message": "Configuration updated", "updated": len(settings)}, nil
}

func listTokens(ctx context.Context, call *Call) (Fields, error) {
	resp, err := call.Session.ListTokens(ctx)
	if err != nil {
		return nil, err
	}
	return Fields{"tokens": records(resp.Tokens)}, nil
}

func addToken(ctx context.Context, call *Call) (Fields, error) {
	a := call.Args
	resp, err := call.Session.AddToken(ctx, int(a.Int("chain_id")), a.String("symbol"), a.String("contract_address"))
	if err != nil {
		return nil, err
	}
	return Fields{"id": resp.ID, "message": "Token added: " + resp.ID.String()}, nil
}

func removeToken(ctx context.Context, call *Call) (Fields, error) {
	if _, err := call.Session.RemoveToken(ctx, call.Args.Int("token_id")); err != nil {
		return nil, err
	}
	return Fields{"message": "Token removed"}, nil
}

// records keeps list payloads as JSON arrays even when the server omitted them.
func records(rs []types.Record) []types.Record {
	if rs == nil {
		return []types.Record{}
	}
	return rs
}
