package tx

import (
	"encoding/hex"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	sighash "github.com/bsv-blockchain/go-sdk/transaction/sighash"
	"github.com/gookit/slog"

	"github.com/bitfsorg/libstas-go/token"
)

// outputData is the (amount, owner) pair an unlocking fragment commits to
// for one output.
type outputData struct {
	satoshis uint64
	pkh      []byte
}

// assembly is a transaction under construction together with the source
// output of every input and the obligations collected so far.
type assembly struct {
	op          string
	tx          *transaction.Transaction
	sources     []*transaction.TransactionOutput
	obligations []SigningObligation
}

func newAssembly(op string) *assembly {
	return &assembly{op: op, tx: transaction.NewTransaction()}
}

// adoptAssembly wraps an existing transaction, such as a parsed swap offer.
// Source outputs of its inputs must be supplied with setSource.
func adoptAssembly(op string, t *transaction.Transaction) *assembly {
	return &assembly{
		op:      op,
		tx:      t,
		sources: make([]*transaction.TransactionOutput, len(t.Inputs)),
	}
}

func (a *assembly) addInput(u *UTXO) error {
	txid, err := u.hash()
	if err != nil {
		return err
	}
	empty := script.Script{}
	a.tx.AddInput(&transaction.TransactionInput{
		SourceTXID:       txid,
		SourceTxOutIndex: u.Vout,
		SequenceNumber:   transaction.DefaultSequenceNumber,
		UnlockingScript:  &empty,
	})
	a.sources = append(a.sources, nil)
	a.setSource(len(a.tx.Inputs)-1, u.Satoshis, u.ScriptBytes())
	return nil
}

func (a *assembly) setSource(idx int, satoshis uint64, lock []byte) {
	out := &transaction.TransactionOutput{
		Satoshis:      satoshis,
		LockingScript: script.NewFromBytes(lock),
	}
	a.tx.Inputs[idx].SetSourceTxOutput(out)
	a.sources[idx] = out
}

func (a *assembly) addOutput(lock []byte, satoshis uint64) {
	a.tx.AddOutput(&transaction.TransactionOutput{
		Satoshis:      satoshis,
		LockingScript: script.NewFromBytes(lock),
	})
}

func (a *assembly) addP2PKH(pkh []byte, satoshis uint64) error {
	out, err := BuildP2PKHOutput(pkh, satoshis)
	if err != nil {
		return err
	}
	a.tx.AddOutput(out)
	return nil
}

// addChange adds the payment input's change output unless the build is
// zero-fee or zero-change. The returned pair is nil when no output was added.
func (a *assembly) addChange(f *Funding) (*outputData, error) {
	if f.zeroFee() {
		return nil, nil
	}
	paid := f.Payment.UTXO.Satoshis
	if f.ZeroChange {
		if f.estimating {
			return nil, nil
		}
		return nil, checkZeroChange(paid, f.TxCost, f.threshold())
	}
	if paid < f.TxCost {
		return nil, fmt.Errorf("%w: payment of %d does not cover cost %d", ErrInsufficientFunds, paid, f.TxCost)
	}

	pkh := f.Payment.Key.pkh()
	change := paid - f.TxCost
	if err := a.addP2PKH(pkh, change); err != nil {
		return nil, err
	}
	return &outputData{satoshis: change, pkh: pkh}, nil
}

// addDataNote appends a zero-value OP_FALSE OP_RETURN output carrying the
// encoded data pushes.
func (a *assembly) addDataNote(data []byte) {
	note := append([]byte{script.Op0, script.OpRETURN}, data...)
	a.addOutput(note, 0)
}

// preimage returns the sighash preimage of input idx under SIGHASH_ALL|FORKID.
func (a *assembly) preimage(idx int) ([]byte, error) {
	p, err := a.tx.CalcInputPreimage(uint32(idx), SigHashAll)
	if err != nil {
		return nil, fmt.Errorf("%w: preimage for input %d: %w", ErrScriptBuild, idx, err)
	}
	return p, nil
}

// finalize completes input idx. With a private key the unlocking script is
// fragment <sig> <pubkey>; without one it is fragment alone and an
// obligation is recorded.
func (a *assembly) finalize(idx int, fragment []byte, key KeyRef, flag sighash.Flag, isToken bool) error {
	in := a.tx.Inputs[idx]
	pub := key.publicKey()

	if key.Private == nil {
		in.UnlockingScript = script.NewFromBytes(fragment)
		src := a.sources[idx]
		a.obligations = append(a.obligations, SigningObligation{
			InputIndex: idx,
			Satoshis:   src.Satoshis,
			Script:     hex.EncodeToString(*src.LockingScript),
			SigHash:    flag,
			PublicKey:  hex.EncodeToString(pub.Compressed()),
			IsToken:    isToken,
		})
		return nil
	}

	sig, err := signInput(a.tx, idx, key.Private, flag)
	if err != nil {
		return err
	}
	unlock, err := token.NewBuilder().
		Append(fragment).
		PushData(sig).
		PushData(pub.Compressed()).
		Script()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScriptBuild, err)
	}
	in.UnlockingScript = unlock
	return nil
}

// finalizePayment signs or defers the payment input, which is always last.
func (a *assembly) finalizePayment(f *Funding) error {
	if f.zeroFee() {
		return nil
	}
	return a.finalize(len(a.tx.Inputs)-1, nil, f.Payment.Key, SigHashAll, false)
}

// paymentOutpoint returns the payment input's vout and its txid in
// internal (reversed) byte order.
func (a *assembly) paymentOutpoint(f *Funding) (uint32, []byte, error) {
	h, err := f.Payment.UTXO.hash()
	if err != nil {
		return 0, nil, err
	}
	return f.Payment.UTXO.Vout, h.CloneBytes(), nil
}

func (a *assembly) result() *Result {
	logger.WithFields(slog.M{
		"op":          a.op,
		"txid":        a.tx.TxID().String(),
		"inputs":      len(a.tx.Inputs),
		"outputs":     len(a.tx.Outputs),
		"obligations": len(a.obligations),
	}).Debug("transaction built")

	return &Result{Tx: a.tx, Obligations: a.obligations}
}
