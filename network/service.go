package network

import "context"

// TxSource looks up prior transactions and outputs. Token builders need the
// full raw transaction behind merge and swap inputs.
type TxSource interface {
	// GetRawTx returns the raw transaction bytes for the given txid.
	GetRawTx(ctx context.Context, txid string) ([]byte, error)

	// GetUTXO returns an unspent output by txid and output index.
	GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error)
}

// Broadcaster submits finished transactions.
type Broadcaster interface {
	// BroadcastTx submits a raw transaction hex and returns its txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)
}

// BlockchainService is a node that can both serve and accept transactions.
type BlockchainService interface {
	TxSource
	Broadcaster
}

// UTXO is an unspent output as reported by a node.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"amount"` // satoshis
	ScriptPubKey  string `json:"script_pubkey"`
	Confirmations int64  `json:"confirmations"`
}
