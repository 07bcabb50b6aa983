package tx

import (
	"fmt"

	"github.com/bitfsorg/libstas-go/token"
)

// tokenOutput is an output created by a single-token spend, together with
// the owner hash its unlocking pair commits to.
type tokenOutput struct {
	script   []byte
	satoshis uint64
	pkh      []byte
}

// singleSpend describes a spend of one token input: transfer, split, redeem
// and redeem-split differ only in the outputs they create.
type singleSpend struct {
	op      string
	owner   KeyRef
	utxo    *UTXO
	outputs []tokenOutput
	stas789 bool
	stas20  bool
	data    []byte
}

// build assembles, unlocks and signs a single-token spend. Input 0 is the
// token, the payment input (if any) comes last; outputs are the token
// outputs, change, then the STAS-20 data note.
func (s *singleSpend) build(f *Funding) (*Result, error) {
	a := newAssembly(s.op)
	if err := a.addInput(s.utxo); err != nil {
		return nil, err
	}
	if !f.zeroFee() {
		if err := a.addInput(f.Payment.UTXO); err != nil {
			return nil, err
		}
	}

	outs := make([]outputData, 0, len(s.outputs)+1)
	for _, o := range s.outputs {
		a.addOutput(o.script, o.satoshis)
		outs = append(outs, outputData{satoshis: o.satoshis, pkh: o.pkh})
	}
	change, err := a.addChange(f)
	if err != nil {
		return nil, err
	}
	if change != nil {
		outs = append(outs, *change)
	}
	if s.stas20 && len(s.data) > 0 {
		a.addDataNote(s.data)
	}

	fragment, err := a.spendFragment(outs, f, s.stas789, s.stas20, s.data)
	if err != nil {
		return nil, err
	}
	if err := a.finalize(0, fragment, s.owner, SigHashAll, true); err != nil {
		return nil, err
	}
	if err := a.finalizePayment(f); err != nil {
		return nil, err
	}
	return a.result(), nil
}

// encodeData converts caller data items to script pushes. Nil means no data.
func encodeData(items []string) ([]byte, error) {
	if len(items) == 0 {
		return nil, nil
	}
	b, err := token.EncodeMetadata(items)
	if err != nil {
		return nil, fmt.Errorf("%w: data: %w", ErrScriptBuild, err)
	}
	return b, nil
}

// sumDestinations returns the total satoshis of dests. A total that does not
// fit in a uint64 is an ErrAmountMismatch.
func sumDestinations(dests []Destination) (uint64, error) {
	var total uint64
	for i, d := range dests {
		var ok bool
		if total, ok = addSatoshis(total, d.Satoshis); !ok {
			return 0, fmt.Errorf("%w: destination %d overflows the output total", ErrAmountMismatch, i)
		}
	}
	return total, nil
}

// rewriteTo returns one token output per destination, each a copy of src
// owned by the destination, refusing destinations equal to the redeemer.
func rewriteTo(src *token.Script, raw []byte, dests []Destination, pkhs [][]byte) ([]tokenOutput, error) {
	outs := make([]tokenOutput, len(dests))
	for i, d := range dests {
		if err := checkIssuerDestination(src.RedeemPKH, pkhs[i], src.Protocol); err != nil {
			return nil, err
		}
		lock, err := token.RewriteOwner(pkhs[i], raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScriptBuild, err)
		}
		outs[i] = tokenOutput{script: lock, satoshis: d.Satoshis, pkh: pkhs[i]}
	}
	return outs, nil
}
