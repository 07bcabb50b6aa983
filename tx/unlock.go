package tx

import (
	"bytes"

	"github.com/bsv-blockchain/go-sdk/script"

	"github.com/bitfsorg/libstas-go/token"
)

// pushOutputs writes one (amount, owner) pair per output. When slot is
// non-nil it is written directly after the first pair.
func pushOutputs(b *token.Builder, outs []outputData, slot func(*token.Builder)) {
	for i, o := range outs {
		b.PushNumber(o.satoshis).PushData(o.pkh)
		if i == 0 && slot != nil {
			slot(b)
		}
	}
}

// dataSlot pushes the encoded data, or OP_FALSE when there is none.
func dataSlot(data []byte) func(*token.Builder) {
	return func(b *token.Builder) {
		if len(data) == 0 {
			b.PushOp(script.Op0)
			return
		}
		b.PushData(data)
	}
}

// spendFragment builds the unsigned unlocking data for input 0 of a
// single-token spend (transfer, split, redeem, redeem-split):
//
//	<amount> <pkh> ... [data slot after the first pair, STAS-789]
//	zero fee:  OP_FALSE OP_FALSE [data slot, STAS-20] OP_FALSE OP_FALSE
//	otherwise: [OP_FALSE OP_FALSE if zero change] [data slot, STAS-20] <vout> <txid>
//	OP_0 <preimage>
func (a *assembly) spendFragment(outs []outputData, f *Funding, stas789, stas20 bool, data []byte) ([]byte, error) {
	b := token.NewBuilder()

	var after789 func(*token.Builder)
	if stas789 {
		after789 = dataSlot(data)
	}
	pushOutputs(b, outs, after789)

	if f.zeroFee() {
		b.PushOp(script.Op0, script.Op0)
		if stas20 {
			dataSlot(data)(b)
		}
		b.PushOp(script.Op0, script.Op0)
	} else {
		if f.ZeroChange {
			b.PushOp(script.Op0, script.Op0)
		}
		if stas20 {
			dataSlot(data)(b)
		}
		vout, txid, err := a.paymentOutpoint(f)
		if err != nil {
			return nil, err
		}
		b.PushNumber(uint64(vout)).PushData(txid)
	}

	pre, err := a.preimage(0)
	if err != nil {
		return nil, err
	}
	b.PushOp(script.Op0).PushData(pre)
	return b.Bytes()
}

// mergeSide is the counterpart token input of a merge, as seen from the
// input being unlocked.
type mergeSide struct {
	vout   uint32
	pieces [][]byte
}

// splitPieces cuts rawTx at every occurrence of the shared script tail and
// returns the pieces in reverse order. The unlocking script replays them so
// the template can rebuild the prior transaction around its own tail.
func splitPieces(rawTx, tail []byte) [][]byte {
	parts := bytes.Split(rawTx, tail)
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}

// mergeFragment builds the unsigned unlocking data for one input of a merge
// or merge-split. other describes the opposite token input.
func (a *assembly) mergeFragment(idx int, outs []outputData, f *Funding, stas20 bool, data []byte, other mergeSide) ([]byte, error) {
	b := token.NewBuilder()
	for i, o := range outs {
		b.PushNumber(a.tx.Outputs[i].Satoshis).PushData(o.pkh)
	}

	var vout uint32
	var txid []byte
	if !f.zeroFee() {
		var err error
		if vout, txid, err = a.paymentOutpoint(f); err != nil {
			return nil, err
		}
	}

	switch {
	case f.zeroFee():
		b.PushOp(script.Op0, script.Op0)
		if stas20 {
			dataSlot(data)(b)
		}
		b.PushOp(script.Op0, script.Op0)
	case f.ZeroChange:
		b.PushOp(script.Op0, script.Op0)
		if stas20 {
			dataSlot(data)(b)
		}
		b.PushNumber(uint64(vout)).PushData(txid)
	default:
		if stas20 {
			dataSlot(data)(b)
		}
		b.PushNumber(uint64(vout)).PushData(txid)
	}

	b.PushNumber(uint64(other.vout))
	for _, p := range other.pieces {
		b.PushData(p)
	}
	b.PushNumber(uint64(len(other.pieces)))

	pre, err := a.preimage(idx)
	if err != nil {
		return nil, err
	}
	b.PushData(pre)
	return b.Bytes()
}
