package tx

import (
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/transaction"
	sighash "github.com/bsv-blockchain/go-sdk/transaction/sighash"
)

// KeyRef identifies the key that controls an input. Private may be nil, in
// which case the builder leaves the input unsigned and records a
// SigningObligation for it.
type KeyRef struct {
	Public  *ec.PublicKey
	Private *ec.PrivateKey
}

// Signer returns a KeyRef that signs with priv.
func Signer(priv *ec.PrivateKey) KeyRef {
	if priv == nil {
		return KeyRef{}
	}
	return KeyRef{Public: priv.PubKey(), Private: priv}
}

// PublicOnly returns a KeyRef that yields signing obligations.
func PublicOnly(pub *ec.PublicKey) KeyRef {
	return KeyRef{Public: pub}
}

func (k KeyRef) publicKey() *ec.PublicKey {
	if k.Public != nil {
		return k.Public
	}
	if k.Private != nil {
		return k.Private.PubKey()
	}
	return nil
}

func (k KeyRef) valid() bool {
	return k.publicKey() != nil
}

func (k KeyRef) pkh() []byte {
	return k.publicKey().Hash()
}

// Payment is the fee-paying input. A nil *Payment selects zero-fee mode.
type Payment struct {
	UTXO *UTXO
	Key  KeyRef
}

// Funding carries the fee and change settings shared by every fee-paying
// builder.
type Funding struct {
	Payment *Payment

	// ZeroChange suppresses the change output; the whole surplus goes to the miner.
	ZeroChange bool

	// TxCost is the fee in satoshis. FeeEstimator.Build fills it in.
	TxCost uint64

	// ZeroChangeThreshold overrides DefaultZeroChangeThreshold when non-zero.
	ZeroChangeThreshold uint64

	estimating bool
}

func (f *Funding) zeroFee() bool {
	return f.Payment == nil
}

func (f *Funding) threshold() uint64 {
	if f.ZeroChangeThreshold != 0 {
		return f.ZeroChangeThreshold
	}
	return DefaultZeroChangeThreshold
}

// Destination is a token or payment recipient.
type Destination struct {
	Address  string `json:"address"`
	Satoshis uint64 `json:"satoshis"`
}

// IssueData is one issuance output.
type IssueData struct {
	Address  string   `json:"addr"`
	Satoshis uint64   `json:"satoshis"`
	Data     []string `json:"data,omitempty"`
}

// MergeInput names a token output by its full prior transaction. The raw
// bytes are needed to build the merge unlocking script.
type MergeInput struct {
	TxHex string `json:"txHex"`
	Vout  uint32 `json:"vout"`
}

// WantedData describes what a swap maker asks for. An empty Script asks for
// native satoshis paid to the maker.
type WantedData struct {
	Script   string `json:"script,omitempty"`
	Satoshis uint64 `json:"satoshis"`
}

// SigningObligation describes an input that still needs a signature. The
// signer appends <sig> <pubkey> to the input's unlocking script.
type SigningObligation struct {
	InputIndex int          `json:"inputIndex"`
	Satoshis   uint64       `json:"satoshis"`
	Script     string       `json:"script"`
	SigHash    sighash.Flag `json:"sighash"`
	PublicKey  string       `json:"publicKey"`
	IsToken    bool         `json:"stas"`
}

// Result is the outcome of every builder: the transaction plus any inputs
// left for an external signer.
type Result struct {
	Tx          *transaction.Transaction
	Obligations []SigningObligation
}

// Complete reports whether every input is signed.
func (r *Result) Complete() bool {
	return len(r.Obligations) == 0
}

// Signed returns the transaction if every input is signed.
func (r *Result) Signed() (*transaction.Transaction, error) {
	if !r.Complete() {
		return nil, fmt.Errorf("%w: %d pending", ErrUnsignedInputs, len(r.Obligations))
	}
	return r.Tx, nil
}

// Hex returns the serialized transaction.
func (r *Result) Hex() string {
	return hex.EncodeToString(r.Tx.Bytes())
}
