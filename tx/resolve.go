package tx

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/bitfsorg/libstas-go/network"
)

// ResolveMergeInput fetches the transaction behind txid and returns it as a
// MergeInput for output vout.
func ResolveMergeInput(ctx context.Context, src network.TxSource, txid string, vout uint32) (MergeInput, error) {
	if src == nil {
		return MergeInput{}, fmt.Errorf("%w: tx source", ErrNilParam)
	}
	raw, err := src.GetRawTx(ctx, txid)
	if err != nil {
		return MergeInput{}, fmt.Errorf("fetch %s: %w", txid, err)
	}
	in := MergeInput{TxHex: hex.EncodeToString(raw), Vout: vout}
	if _, err := UTXOFromTx(in.TxHex, vout); err != nil {
		return MergeInput{}, err
	}
	return in, nil
}

// ResolveUTXO looks up an unspent output and returns it as a UTXO.
func ResolveUTXO(ctx context.Context, src network.TxSource, txid string, vout uint32) (*UTXO, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: tx source", ErrNilParam)
	}
	u, err := src.GetUTXO(ctx, txid, vout)
	if err != nil {
		return nil, fmt.Errorf("fetch %s:%d: %w", txid, vout, err)
	}
	return NewUTXO(u.TxID, u.Vout, u.Amount, u.ScriptPubKey)
}

// Broadcast submits a completed result and returns the node's txid.
func Broadcast(ctx context.Context, b network.Broadcaster, r *Result) (string, error) {
	if b == nil {
		return "", fmt.Errorf("%w: broadcaster", ErrNilParam)
	}
	if r == nil || r.Tx == nil {
		return "", fmt.Errorf("%w: result", ErrNilParam)
	}
	t, err := r.Signed()
	if err != nil {
		return "", err
	}
	return b.BroadcastTx(ctx, hex.EncodeToString(t.Bytes()))
}
