package tx

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/bitfsorg/libstas-go/token"
)

// SwapOfferParams are the inputs of BuildSwapOffer.
type SwapOfferParams struct {
	Maker     KeyRef
	MakerUTXO *UTXO
	Wanted    WantedData
}

// SwapAcceptParams are the inputs of BuildSwapAccept.
type SwapAcceptParams struct {
	OfferTxHex      string
	Taker           KeyRef
	MakerInputTxHex string
	TakerInputTxHex string
	TakerVout       uint32
	// Extras receive the rest of the taker input, as tokens when the taker
	// input is a token.
	Extras []Destination
	Funding
}

// SwapSignParams are the inputs of BuildSwapSign.
type SwapSignParams struct {
	SwapTxHex       string
	TakerInputTxHex string
	Maker           KeyRef
	ZeroChange      bool
}

// BuildSwapOffer creates the maker's half of an atomic swap: one input and
// the output the maker wants in return. The input is signed with
// SigHashSingle so the taker can add inputs and outputs afterwards.
func BuildSwapOffer(p *SwapOfferParams) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: swap offer params", ErrNilParam)
	}
	if err := checkKey(p.Maker, "maker public key"); err != nil {
		return nil, err
	}
	if err := checkUTXO(p.MakerUTXO, "maker utxo"); err != nil {
		return nil, err
	}
	if p.Wanted.Satoshis == 0 {
		return nil, fmt.Errorf("%w: wanted satoshis must be greater than 0", ErrInvalidParams)
	}

	makerPKH := p.Maker.pkh()
	var wanted []byte
	if p.Wanted.Script == "" {
		lock, err := BuildP2PKHScript(makerPKH)
		if err != nil {
			return nil, err
		}
		wanted = lock
	} else {
		raw, err := hex.DecodeString(p.Wanted.Script)
		if err != nil {
			return nil, fmt.Errorf("%w: wanted script: %w", ErrInvalidParams, err)
		}
		if !token.IsToken(raw) {
			return nil, fmt.Errorf("%w: wanted script", ErrNotToken)
		}
		if wanted, err = token.RewriteOwner(makerPKH, raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScriptBuild, err)
		}
	}

	a := newAssembly("swapOffer")
	if err := a.addInput(p.MakerUTXO); err != nil {
		return nil, err
	}
	a.addOutput(wanted, p.Wanted.Satoshis)
	if err := a.finalize(0, nil, p.Maker, SigHashSingle, false); err != nil {
		return nil, err
	}
	return a.result(), nil
}

// swapShape is what both parties' unlocking fragments commit to.
type swapShape struct {
	pairs      []outputData
	stas789    bool
	stas20     bool
	zeroFee    bool
	zeroChange bool
	payVout    uint32
	payTxid    []byte
}

// fragment writes the shared part of a swap unlocking script followed by
// the counterpart's prior transaction and this input's preimage.
func (s *swapShape) fragment(otherVout uint32, otherTx, preimage []byte) ([]byte, error) {
	b := token.NewBuilder()
	for i, o := range s.pairs {
		b.PushNumber(o.satoshis).PushData(o.pkh)
		if i == 0 && s.stas789 {
			b.PushOp(script.Op0)
		}
	}
	if s.zeroFee {
		b.PushOp(script.Op0, script.Op0)
	}
	if s.zeroChange || s.zeroFee {
		b.PushOp(script.Op0, script.Op0)
	}
	if s.stas20 {
		b.PushOp(script.Op0)
	}
	if !s.zeroFee {
		b.PushNumber(uint64(s.payVout)).PushData(s.payTxid)
	}
	b.PushNumber(uint64(otherVout)).
		PushData(otherTx).
		PushOp(script.Op1).
		PushData(preimage)
	return b.Bytes()
}

func parseRawTx(txHex, field string) (*transaction.Transaction, []byte, error) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrInvalidTx, field, err)
	}
	t, err := transaction.NewTransactionFromBytes(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrInvalidTx, field, err)
	}
	return t, raw, nil
}

// ownerOf returns bytes [3, 23) of a P2PKH or token locking script.
func ownerOf(lock []byte) ([]byte, error) {
	if len(lock) < token.BodyOffset {
		return nil, fmt.Errorf("%w: output script of %d bytes has no owner hash", ErrInvalidTx, len(lock))
	}
	return lock[3 : 3+token.PKHLen], nil
}

func lockOrP2PKH(src []byte, pkh []byte) ([]byte, error) {
	if token.IsToken(src) {
		lock, err := token.RewriteOwner(pkh, src)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScriptBuild, err)
		}
		return lock, nil
	}
	return BuildP2PKHScript(pkh)
}

// BuildSwapAccept completes a swap offer from the taker side. The taker
// input is added as input 1; output 1 gives the maker's input to the taker
// and Extras hand out the rest of the taker input. A token maker input gets
// its unlocking data prepended to the maker's signature.
func BuildSwapAccept(p *SwapAcceptParams) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: swap accept params", ErrNilParam)
	}
	if err := checkKey(p.Taker, "taker public key"); err != nil {
		return nil, err
	}
	if err := p.Funding.validate(); err != nil {
		return nil, err
	}

	offer, err := transaction.NewTransactionFromHex(p.OfferTxHex)
	if err != nil {
		return nil, fmt.Errorf("%w: offer: %w", ErrInvalidTx, err)
	}
	if len(offer.Inputs) != 1 || len(offer.Outputs) != 1 {
		return nil, fmt.Errorf("%w: offer must have one input and one output, has %d and %d",
			ErrInvalidTx, len(offer.Inputs), len(offer.Outputs))
	}
	makerTx, makerRaw, err := parseRawTx(p.MakerInputTxHex, "maker input tx")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(makerTx.TxID().CloneBytes(), offer.Inputs[0].SourceTXID.CloneBytes()) {
		return nil, fmt.Errorf("%w: maker input tx %s is not spent by the offer", ErrInvalidTx, makerTx.TxID())
	}
	takerTx, takerRaw, err := parseRawTx(p.TakerInputTxHex, "taker input tx")
	if err != nil {
		return nil, err
	}

	makerVout := offer.Inputs[0].SourceTxOutIndex
	maker, err := utxoFromParsed(makerTx, makerVout)
	if err != nil {
		return nil, fmt.Errorf("maker input: %w", err)
	}
	taker, err := utxoFromParsed(takerTx, p.TakerVout)
	if err != nil {
		return nil, fmt.Errorf("taker input: %w", err)
	}
	makerPKH, err := ownerOf(*offer.Outputs[0].LockingScript)
	if err != nil {
		return nil, err
	}

	makerScript, takerScript := maker.ScriptBytes(), taker.ScriptBytes()
	makerProto, takerProto := token.Classify(makerScript), token.Classify(takerScript)

	var extraPKHs [][]byte
	if len(p.Extras) > 0 {
		if extraPKHs, err = checkDestinations(p.Extras, token.KindSwap, takerProto); err != nil {
			return nil, err
		}
	}
	if !p.estimating {
		if err := checkSwapAmounts(taker.Satoshis, offer.Outputs[0].Satoshis, p.Extras); err != nil {
			return nil, err
		}
	}

	a := adoptAssembly("swapAccept", offer)
	a.setSource(0, maker.Satoshis, makerScript)
	if err := a.addInput(taker); err != nil {
		return nil, err
	}

	takerPKH := p.Taker.pkh()
	wanted, err := lockOrP2PKH(makerScript, takerPKH)
	if err != nil {
		return nil, err
	}
	a.addOutput(wanted, maker.Satoshis)

	pairs := []outputData{
		{satoshis: offer.Outputs[0].Satoshis, pkh: makerPKH},
		{satoshis: maker.Satoshis, pkh: takerPKH},
	}
	for i, d := range p.Extras {
		lock, err := lockOrP2PKH(takerScript, extraPKHs[i])
		if err != nil {
			return nil, err
		}
		a.addOutput(lock, d.Satoshis)
		pairs = append(pairs, outputData{satoshis: d.Satoshis, pkh: extraPKHs[i]})
	}

	if !p.zeroFee() {
		if err := a.addInput(p.Payment.UTXO); err != nil {
			return nil, err
		}
	}
	change, err := a.addChange(&p.Funding)
	if err != nil {
		return nil, err
	}
	if change != nil {
		pairs = append(pairs, *change)
	}

	shape := &swapShape{
		pairs:      pairs,
		stas789:    makerProto == token.STAS789 || takerProto == token.STAS789,
		stas20:     makerProto == token.STAS20 || takerProto == token.STAS20,
		zeroFee:    p.zeroFee(),
		zeroChange: p.ZeroChange,
	}
	if !p.zeroFee() {
		if shape.payVout, shape.payTxid, err = a.paymentOutpoint(&p.Funding); err != nil {
			return nil, err
		}
	}

	if makerProto != token.Unknown {
		pre, err := a.preimage(0)
		if err != nil {
			return nil, err
		}
		frag, err := shape.fragment(taker.Vout, takerRaw, pre)
		if err != nil {
			return nil, err
		}
		in := a.tx.Inputs[0]
		var existing []byte
		if in.UnlockingScript != nil {
			existing = *in.UnlockingScript
		}
		in.UnlockingScript = script.NewFromBytes(append(frag, existing...))
	}

	var takerFrag []byte
	if takerProto != token.Unknown {
		pre, err := a.preimage(1)
		if err != nil {
			return nil, err
		}
		if takerFrag, err = shape.fragment(makerVout, makerRaw, pre); err != nil {
			return nil, err
		}
	}
	if err := a.finalize(1, takerFrag, p.Taker, SigHashAll, takerProto != token.Unknown); err != nil {
		return nil, err
	}
	if err := a.finalizePayment(&p.Funding); err != nil {
		return nil, err
	}
	return a.result(), nil
}

// BuildSwapSign completes the maker input of an accepted swap whose offer
// was left unsigned. The maker's spent output is reconstructed from output
// 1, which carries the maker's former script rewritten to the taker.
func BuildSwapSign(p *SwapSignParams) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: swap sign params", ErrNilParam)
	}
	if err := checkKey(p.Maker, "maker public key"); err != nil {
		return nil, err
	}
	swap, err := transaction.NewTransactionFromHex(p.SwapTxHex)
	if err != nil {
		return nil, fmt.Errorf("%w: swap: %w", ErrInvalidTx, err)
	}
	if len(swap.Inputs) < 2 || len(swap.Outputs) < 2 {
		return nil, fmt.Errorf("%w: swap must have at least two inputs and outputs", ErrInvalidTx)
	}
	_, takerRaw, err := parseRawTx(p.TakerInputTxHex, "taker input tx")
	if err != nil {
		return nil, err
	}

	takerLock := []byte(*swap.Outputs[1].LockingScript)
	if len(takerLock) < token.BodyOffset {
		return nil, fmt.Errorf("%w: output 1 has no owner hash", ErrInvalidTx)
	}
	ownerScript := make([]byte, 0, len(takerLock))
	ownerScript = append(ownerScript, takerLock[:3]...)
	ownerScript = append(ownerScript, p.Maker.pkh()...)
	ownerScript = append(ownerScript, takerLock[3+token.PKHLen:]...)

	a := adoptAssembly("swapSign", swap)
	a.setSource(0, swap.Outputs[1].Satoshis, ownerScript)

	ownerIsToken := token.IsToken(ownerScript)
	var frag []byte
	if ownerIsToken {
		takerOut0 := token.Classify(*swap.Outputs[0].LockingScript)
		shape := &swapShape{
			stas789:    takerOut0 == token.STAS789,
			stas20:     takerOut0 == token.STAS20 || token.Classify(takerLock) == token.STAS20,
			zeroFee:    len(swap.Inputs) < 3,
			zeroChange: p.ZeroChange,
		}
		for i, out := range swap.Outputs {
			pkh, err := ownerOf(*out.LockingScript)
			if err != nil {
				return nil, fmt.Errorf("output %d: %w", i, err)
			}
			shape.pairs = append(shape.pairs, outputData{satoshis: out.Satoshis, pkh: pkh})
		}
		if !shape.zeroFee {
			pay := swap.Inputs[2]
			shape.payVout = pay.SourceTxOutIndex
			shape.payTxid = pay.SourceTXID.CloneBytes()
		}
		pre, err := a.preimage(0)
		if err != nil {
			return nil, err
		}
		if frag, err = shape.fragment(swap.Inputs[1].SourceTxOutIndex, takerRaw, pre); err != nil {
			return nil, err
		}
	}
	if err := a.finalize(0, frag, p.Maker, SigHashAll, ownerIsToken); err != nil {
		return nil, err
	}
	return a.result(), nil
}
