// Package types defines the response payloads returned by the marketplace API.
package types

import "encoding/json"

// Record is a single row returned by a list endpoint. Rows are kept as raw
// JSON: the server owns their schema and echoes of them stay byte-stable.
type Record = json.RawMessage

// StoreList is returned by GET /api/stores.php.
type StoreList struct {
	Stores []Record `json:"stores"`
}

// ItemList is returned by GET /api/items.php.
type ItemList struct {
	Items []Record `json:"items"`
}

// TransactionList is returned by GET /api/transactions.php.
type TransactionList struct {
	Transactions []Record `json:"transactions"`
}

// KeyList is returned by GET /api/keys.php. Entries never include the secret.
type KeyList struct {
	Keys []Record `json:"keys"`
}

// DepositList is returned by GET /api/deposits.php.
type DepositList struct {
	Deposits []Record `json:"deposits"`
}

// DisputeList is returned by GET /api/disputes.php.
type DisputeList struct {
	Disputes []Record `json:"disputes"`
}

// TokenList is returned by GET /admin/tokens.php.
type TokenList struct {
	Tokens []Record `json:"tokens"`
}

// Created is returned when a store or an item is created.
type Created struct {
	OK   bool   `json:"ok"`
	UUID string `json:"uuid"`
}

// TransactionCreated is returned by POST /api/transactions.php.
type TransactionCreated struct {
	OK                   bool   `json:"ok"`
	UUID                 string `json:"uuid"`
	EscrowAddressPending bool   `json:"escrow_address_pending"`
}

// APIKeyCreated is returned by POST /api/keys.php. APIKey is only ever shown
// in this response.
type APIKeyCreated struct {
	ID        json.Number `json:"id"`
	Name      string      `json:"name"`
	KeyPrefix string      `json:"key_prefix"`
	APIKey    string      `json:"api_key"`
	CreatedAt string      `json:"created_at"`
}

// TokenAdded is returned by POST /admin/tokens.php.
type TokenAdded struct {
	OK bool        `json:"ok"`
	ID json.Number `json:"id"`
}

// Ack is the bare acknowledgement returned by mutating admin and key endpoints.
type Ack struct {
	OK bool `json:"ok"`
}

// Config is the admin key/value configuration. Values are whatever the
// server stores, usually strings or null.
type Config map[string]any
