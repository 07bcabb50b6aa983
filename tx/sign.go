package tx

import (
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	sighash "github.com/bsv-blockchain/go-sdk/transaction/sighash"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	"github.com/bitfsorg/libstas-go/token"
)

// Sighash modes used by the builders.
const (
	// SigHashAll commits to every input and output.
	SigHashAll = sighash.AllForkID

	// SigHashSingle commits to the signed input and its paired output only,
	// so a swap offer stays valid after the taker extends the transaction.
	SigHashSingle = sighash.Single | sighash.AnyOneCanPay | sighash.ForkID
)

// signInput returns a DER signature over input idx with the sighash byte
// appended. The input's source output must be set.
func signInput(t *transaction.Transaction, idx int, priv *ec.PrivateKey, flag sighash.Flag) ([]byte, error) {
	h, err := t.CalcInputSignatureHash(uint32(idx), flag)
	if err != nil {
		return nil, fmt.Errorf("%w: sighash for input %d: %w", ErrSigningFailed, idx, err)
	}
	sig, err := priv.Sign(h)
	if err != nil {
		return nil, fmt.Errorf("%w: input %d: %w", ErrSigningFailed, idx, err)
	}
	return append(sig.Serialize(), byte(flag)), nil
}

// Sign completes the obligations of r whose public key matches one of keys.
// Obligations with no matching key are kept.
func (r *Result) Sign(keys ...*ec.PrivateKey) error {
	if r == nil || r.Tx == nil {
		return fmt.Errorf("%w: result", ErrNilParam)
	}
	byPub := make(map[string]*ec.PrivateKey, len(keys))
	for _, k := range keys {
		if k == nil {
			continue
		}
		byPub[hex.EncodeToString(k.PubKey().Compressed())] = k
	}

	remaining, err := SignObligations(r.Tx, r.Obligations, byPub)
	if err != nil {
		return err
	}
	r.Obligations = remaining
	return nil
}

// SignObligations signs the inputs described by obligations using keys,
// indexed by hex compressed public key, and appends <sig> <pubkey> to each
// input's unlocking script. The source output recorded in the obligation is
// attached first, so t may have been parsed from hex. It returns the
// obligations that had no key.
func SignObligations(t *transaction.Transaction, obligations []SigningObligation, keys map[string]*ec.PrivateKey) ([]SigningObligation, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: transaction", ErrNilParam)
	}

	var remaining []SigningObligation
	for _, ob := range obligations {
		priv, ok := keys[ob.PublicKey]
		if !ok {
			remaining = append(remaining, ob)
			continue
		}
		if ob.InputIndex < 0 || ob.InputIndex >= len(t.Inputs) {
			return nil, fmt.Errorf("%w: obligation for input %d, tx has %d inputs",
				ErrSigningFailed, ob.InputIndex, len(t.Inputs))
		}
		lock, err := hex.DecodeString(ob.Script)
		if err != nil {
			return nil, fmt.Errorf("%w: obligation script: %w", ErrSigningFailed, err)
		}

		in := t.Inputs[ob.InputIndex]
		in.SetSourceTxOutput(&transaction.TransactionOutput{
			Satoshis:      ob.Satoshis,
			LockingScript: script.NewFromBytes(lock),
		})

		sig, err := signInput(t, ob.InputIndex, priv, ob.SigHash)
		if err != nil {
			return nil, err
		}
		var prefix []byte
		if in.UnlockingScript != nil {
			prefix = *in.UnlockingScript
		}
		unlock, err := token.NewBuilder().
			Append(prefix).
			PushData(sig).
			PushData(priv.PubKey().Compressed()).
			Script()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScriptBuild, err)
		}
		in.UnlockingScript = unlock
	}
	return remaining, nil
}

// BuildP2PKHScript creates a P2PKH locking script for the given public key hash.
func BuildP2PKHScript(pubKeyHash []byte) ([]byte, error) {
	if len(pubKeyHash) != token.PKHLen {
		return nil, fmt.Errorf("%w: public key hash must be %d bytes", ErrScriptBuild, token.PKHLen)
	}
	addr, err := script.NewAddressFromPublicKeyHash(pubKeyHash, true)
	if err != nil {
		return nil, fmt.Errorf("%w: address from hash: %w", ErrScriptBuild, err)
	}
	lockScript, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock: %w", ErrScriptBuild, err)
	}
	return []byte(*lockScript), nil
}

// BuildP2PKHOutput creates a TransactionOutput with a P2PKH locking script
// for the given public key hash (20 bytes) and satoshi amount.
func BuildP2PKHOutput(pubKeyHash []byte, satoshis uint64) (*transaction.TransactionOutput, error) {
	lock, err := BuildP2PKHScript(pubKeyHash)
	if err != nil {
		return nil, err
	}
	return &transaction.TransactionOutput{
		Satoshis:      satoshis,
		LockingScript: script.NewFromBytes(lock),
	}, nil
}

// AddressFromPublicKey renders the P2PKH address of pub.
func AddressFromPublicKey(pub *ec.PublicKey, mainnet bool) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("%w: public key", ErrNilParam)
	}
	addr, err := script.NewAddressFromPublicKey(pub, mainnet)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return addr.AddressString, nil
}
