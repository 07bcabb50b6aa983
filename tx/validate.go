package tx

import (
	"bytes"
	"fmt"
	"math/bits"

	"github.com/bsv-blockchain/go-sdk/script"

	"github.com/bitfsorg/libstas-go/token"
)

const (
	// DefaultZeroChangeThreshold is the largest surplus a zero-change build
	// may leave to the miner.
	DefaultZeroChangeThreshold = uint64(10)

	// AddressMinLen and AddressMaxLen bound the length of a base58 address.
	AddressMinLen = 26
	AddressMaxLen = 35
)

func checkKey(k KeyRef, field string) error {
	if !k.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidPublicKey, field)
	}
	return nil
}

func checkUTXO(u *UTXO, field string) error {
	if u == nil {
		return fmt.Errorf("%w: %s", ErrNilParam, field)
	}
	if err := u.Validate(); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// validate enforces that a payment carries both a UTXO and a key.
func (f *Funding) validate() error {
	if f.Payment == nil {
		return nil
	}
	hasUTXO := f.Payment.UTXO != nil
	hasKey := f.Payment.Key.valid()
	switch {
	case hasKey && !hasUTXO:
		return fmt.Errorf("%w: payment key provided but payment utxo is nil", ErrZeroFeeMismatch)
	case !hasKey && hasUTXO:
		return fmt.Errorf("%w: payment utxo provided but payment key is nil", ErrZeroFeeMismatch)
	case !hasKey && !hasUTXO:
		return fmt.Errorf("%w: empty payment", ErrZeroFeeMismatch)
	}
	return checkUTXO(f.Payment.UTXO, "payment utxo")
}

// decodeAddress returns the public key hash of a base58 P2PKH address.
func decodeAddress(addr string) ([]byte, error) {
	if len(addr) < AddressMinLen || len(addr) > AddressMaxLen {
		return nil, fmt.Errorf("%w: length must be between %d and %d, received %q",
			ErrInvalidAddress, AddressMinLen, AddressMaxLen, addr)
	}
	a, err := script.NewAddressFromString(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, addr, err)
	}
	return []byte(a.PublicKeyHash), nil
}

// checkDestinations validates a destination list against the ceiling for
// kind under protocol p and returns the decoded key hashes.
func checkDestinations(dests []Destination, kind token.DestinationKind, p token.Protocol) ([][]byte, error) {
	if len(dests) == 0 {
		return nil, fmt.Errorf("%w: %s destinations are empty", ErrInvalidParams, kind)
	}
	if limit := token.MaxDestinations(kind, p); len(dests) > limit {
		return nil, fmt.Errorf("%w: max number of %s destinations is %d, received %d",
			ErrTooManyDestinations, kind, limit, len(dests))
	}
	pkhs := make([][]byte, len(dests))
	for i, d := range dests {
		if d.Satoshis == 0 {
			return nil, fmt.Errorf("%w: destination %d has zero satoshis", ErrInvalidParams, i)
		}
		pkh, err := decodeAddress(d.Address)
		if err != nil {
			return nil, fmt.Errorf("destination %d: %w", i, err)
		}
		pkhs[i] = pkh
	}
	return pkhs, nil
}

// checkIssuerDestination rejects a token output addressed to its own
// redeemer. STAS-20 tokens are exempt.
func checkIssuerDestination(redeemPKH, destPKH []byte, p token.Protocol) error {
	if p != token.STAS20 && bytes.Equal(redeemPKH, destPKH) {
		return ErrIssuerDestination
	}
	return nil
}

func checkZeroChange(paymentSats, txCost, threshold uint64) error {
	if paymentSats < txCost {
		return fmt.Errorf("%w: payment of %d does not cover cost %d", ErrInsufficientFunds, paymentSats, txCost)
	}
	if change := paymentSats - txCost; change > threshold {
		return fmt.Errorf("%w: change amount %d, threshold %d", ErrZeroChangeThreshold, change, threshold)
	}
	return nil
}

func checkTokenSatoshis(tokenSats uint64, schema *token.Schema, contract *UTXO) error {
	switch {
	case tokenSats == 0:
		return fmt.Errorf("%w: invalid value for token satoshis, received 0", ErrInvalidParams)
	case schema.SatsPerToken > tokenSats:
		return fmt.Errorf("%w: satsPerToken of %d is greater than token satoshis %d",
			ErrInvalidParams, schema.SatsPerToken, tokenSats)
	case tokenSats%schema.SatsPerToken != 0:
		return fmt.Errorf("%w: token satoshis %d must be divisible by satsPerToken %d",
			ErrInvalidParams, tokenSats, schema.SatsPerToken)
	case tokenSats > contract.Satoshis:
		return fmt.Errorf("%w: token supply of %d is greater than contract amount %d",
			ErrInvalidParams, tokenSats, contract.Satoshis)
	}
	return nil
}

// addSatoshis returns a+b, and false when the sum overflows.
func addSatoshis(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

func checkSwapAmounts(takerInput, wanted uint64, extras []Destination) error {
	extra, err := sumDestinations(extras)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSwapAmountMismatch, err)
	}
	total, ok := addSatoshis(wanted, extra)
	if !ok {
		return fmt.Errorf("%w: wanted %d plus extras %d overflows", ErrSwapAmountMismatch, wanted, extra)
	}
	if takerInput != total {
		return fmt.Errorf("%w: provided input amount %d, total output amount is %d",
			ErrSwapAmountMismatch, takerInput, total)
	}
	return nil
}

// tokenScript decodes and classifies the locking script of u.
func tokenScript(u *UTXO) (*token.Script, []byte, error) {
	raw := u.ScriptBytes()
	if !token.IsToken(raw) {
		return nil, nil, fmt.Errorf("%w: utxo %s:%d", ErrNotToken, u.TxID, u.Vout)
	}
	d, err := token.Decode(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrNotToken, err)
	}
	return d, raw, nil
}
