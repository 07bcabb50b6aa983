package network

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
)

var _ BlockchainService = (*RPCClient)(nil)

// btcToSat converts a BTC amount as reported by the node to satoshis.
func btcToSat(btc float64) uint64 {
	return uint64(math.Round(btc * 1e8))
}

// GetRawTx calls `getrawtransaction "txid" false`.
func (c *RPCClient) GetRawTx(ctx context.Context, txid string) ([]byte, error) {
	var rawHex string
	if err := c.Call(ctx, "getrawtransaction", []any{txid, false}, &rawHex); err != nil {
		return nil, err
	}
	if rawHex == "" {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, txid)
	}
	data, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid tx hex: %w", ErrInvalidResponse, err)
	}
	return data, nil
}

type gettxoutResult struct {
	Value         float64 `json:"value"`
	Confirmations int64   `json:"confirmations"`
	ScriptPubKey  struct {
		Hex string `json:"hex"`
	} `json:"scriptPubKey"`
}

// GetUTXO calls `gettxout "txid" vout`. A spent or unknown output comes back
// as JSON null and is reported as ErrTxNotFound.
func (c *RPCClient) GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error) {
	var result *gettxoutResult
	if err := c.Call(ctx, "gettxout", []any{txid, vout}, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: output %s:%d is spent", ErrTxNotFound, txid, vout)
	}
	return &UTXO{
		TxID:          txid,
		Vout:          vout,
		Amount:        btcToSat(result.Value),
		ScriptPubKey:  result.ScriptPubKey.Hex,
		Confirmations: result.Confirmations,
	}, nil
}

// BroadcastTx calls `sendrawtransaction "hex"`.
func (c *RPCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", []any{rawTxHex}, &txid); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBroadcastRejected, err)
	}
	return txid, nil
}
