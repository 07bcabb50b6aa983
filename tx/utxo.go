package tx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// TxIDHexLen is the length of a transaction id in hex.
const TxIDHexLen = 64

// UTXO is a spendable output. TxID is in display (big-endian) hex and
// Script is the hex locking script.
type UTXO struct {
	TxID     string `json:"txid"`
	Vout     uint32 `json:"vout"`
	Satoshis uint64 `json:"satoshis"`
	Script   string `json:"script"`
}

// NewUTXO returns a validated UTXO.
func NewUTXO(txid string, vout uint32, satoshis uint64, scriptHex string) (*UTXO, error) {
	u := &UTXO{TxID: txid, Vout: vout, Satoshis: satoshis, Script: scriptHex}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks the txid and script encodings.
func (u *UTXO) Validate() error {
	if u == nil {
		return fmt.Errorf("%w: utxo", ErrNilParam)
	}
	if len(u.TxID) != TxIDHexLen {
		return fmt.Errorf("%w: txid must be %d hex characters, received %q", ErrInvalidUTXO, TxIDHexLen, u.TxID)
	}
	if _, err := hex.DecodeString(u.TxID); err != nil {
		return fmt.Errorf("%w: txid: %w", ErrInvalidUTXO, err)
	}
	if u.Script == "" {
		return fmt.Errorf("%w: expected script but got empty string", ErrInvalidUTXO)
	}
	if _, err := hex.DecodeString(u.Script); err != nil {
		return fmt.Errorf("%w: script: %w", ErrInvalidUTXO, err)
	}
	return nil
}

// ScriptBytes returns the decoded locking script.
func (u *UTXO) ScriptBytes() []byte {
	b, _ := hex.DecodeString(u.Script)
	return b
}

func (u *UTXO) lockingScript() *script.Script {
	return script.NewFromBytes(u.ScriptBytes())
}

func (u *UTXO) hash() (*chainhash.Hash, error) {
	h, err := chainhash.NewHashFromHex(u.TxID)
	if err != nil {
		return nil, fmt.Errorf("%w: txid: %w", ErrInvalidUTXO, err)
	}
	return h, nil
}

// UTXOFromJSON decodes a UTXO from loosely-typed JSON, rejecting values a
// plain struct decode would coerce or drop: non-numeric or negative vout and
// satoshis, and non-string txid or script.
func UTXOFromJSON(data []byte) (*UTXO, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidUTXO, err)
	}

	txid, ok := raw["txid"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: expected string value for txid but got %v", ErrInvalidUTXO, raw["txid"])
	}
	scriptHex, ok := raw["script"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: expected string value for script but got %v", ErrInvalidUTXO, raw["script"])
	}
	vout, ok := wholeNumber(raw["vout"])
	if !ok || vout > math.MaxUint32 {
		return nil, fmt.Errorf("%w: expected number value for vout but got %v", ErrInvalidUTXO, raw["vout"])
	}
	sats, ok := wholeNumber(raw["satoshis"])
	if !ok {
		return nil, fmt.Errorf("%w: expected number value for satoshis but got %v", ErrInvalidUTXO, raw["satoshis"])
	}
	return NewUTXO(txid, uint32(vout), sats, scriptHex)
}

func wholeNumber(v any) (uint64, bool) {
	f, ok := v.(float64)
	if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxUint64 {
		return 0, false
	}
	return uint64(f), true
}

// UTXOFromTx returns output vout of a raw transaction as a UTXO.
func UTXOFromTx(txHex string, vout uint32) (*UTXO, error) {
	t, err := transaction.NewTransactionFromHex(txHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTx, err)
	}
	return utxoFromParsed(t, vout)
}

func utxoFromParsed(t *transaction.Transaction, vout uint32) (*UTXO, error) {
	if int(vout) >= len(t.Outputs) {
		return nil, fmt.Errorf("%w: output %d out of range (%d outputs)", ErrInvalidTx, vout, len(t.Outputs))
	}
	out := t.Outputs[vout]
	return &UTXO{
		TxID:     t.TxID().String(),
		Vout:     vout,
		Satoshis: out.Satoshis,
		Script:   hex.EncodeToString(*out.LockingScript),
	}, nil
}
