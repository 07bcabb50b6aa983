package tx

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/bitfsorg/libstas-go/token"
)

// MergeParams are the inputs of BuildMerge. Owners[i] controls Inputs[i].
type MergeParams struct {
	Owners      [2]KeyRef
	Inputs      [2]MergeInput
	Destination string
	Data        []string
	Funding
}

// MergeSplitParams are the inputs of BuildMergeSplit.
type MergeSplitParams struct {
	Owners       [2]KeyRef
	Inputs       [2]MergeInput
	Destinations []Destination
	Data         []string
	Funding
}

// mergeSource is a resolved merge input.
type mergeSource struct {
	utxo *UTXO
	raw  []byte
}

func resolveMergeInputs(inputs [2]MergeInput) ([2]mergeSource, error) {
	var out [2]mergeSource
	for i, in := range inputs {
		raw, err := hex.DecodeString(in.TxHex)
		if err != nil {
			return out, fmt.Errorf("%w: merge input %d: %w", ErrInvalidTx, i, err)
		}
		t, err := transaction.NewTransactionFromBytes(raw)
		if err != nil {
			return out, fmt.Errorf("%w: merge input %d: %w", ErrInvalidTx, i, err)
		}
		u, err := utxoFromParsed(t, in.Vout)
		if err != nil {
			return out, fmt.Errorf("merge input %d: %w", i, err)
		}
		out[i] = mergeSource{utxo: u, raw: raw}
	}
	return out, nil
}

// mergeTokens validates both merge inputs and returns them with the decoded
// script of the first. Both must be distinct outpoints holding tokens of the
// same lineage, and their total must fit in a uint64.
func mergeTokens(owners [2]KeyRef, inputs [2]MergeInput, f *Funding) ([2]mergeSource, *token.Script, error) {
	var srcs [2]mergeSource
	for i, k := range owners {
		if err := checkKey(k, fmt.Sprintf("owner %d public key", i+1)); err != nil {
			return srcs, nil, err
		}
	}
	if err := f.validate(); err != nil {
		return srcs, nil, err
	}
	srcs, err := resolveMergeInputs(inputs)
	if err != nil {
		return srcs, nil, err
	}
	if srcs[0].utxo.TxID == srcs[1].utxo.TxID && srcs[0].utxo.Vout == srcs[1].utxo.Vout {
		return srcs, nil, fmt.Errorf("%w: both merge inputs spend %s:%d", ErrInvalidParams, srcs[0].utxo.TxID, srcs[0].utxo.Vout)
	}
	if _, ok := addSatoshis(srcs[0].utxo.Satoshis, srcs[1].utxo.Satoshis); !ok {
		return srcs, nil, fmt.Errorf("%w: merge inputs overflow", ErrAmountMismatch)
	}

	first, raw1, err := tokenScript(srcs[0].utxo)
	if err != nil {
		return srcs, nil, err
	}
	second, raw2, err := tokenScript(srcs[1].utxo)
	if err != nil {
		return srcs, nil, err
	}
	tail1, err := token.LineageTail(raw1)
	if err != nil {
		return srcs, nil, err
	}
	tail2, err := token.LineageTail(raw2)
	if err != nil {
		return srcs, nil, err
	}
	if first.Protocol != second.Protocol || !bytes.Equal(tail1, tail2) {
		return srcs, nil, ErrLineageMismatch
	}
	return srcs, first, nil
}

// buildMerge spends both merge inputs into outs. Each token input's
// unlocking script carries the other input's prior transaction, cut at the
// shared script body.
func buildMerge(op string, owners [2]KeyRef, srcs [2]mergeSource, outs []tokenOutput, stas20 bool, data []byte, f *Funding) (*Result, error) {
	a := newAssembly(op)
	for _, s := range srcs {
		if err := a.addInput(s.utxo); err != nil {
			return nil, err
		}
	}
	if !f.zeroFee() {
		if err := a.addInput(f.Payment.UTXO); err != nil {
			return nil, err
		}
	}

	pairs := make([]outputData, 0, len(outs)+1)
	for _, o := range outs {
		a.addOutput(o.script, o.satoshis)
		pairs = append(pairs, outputData{satoshis: o.satoshis, pkh: o.pkh})
	}
	change, err := a.addChange(f)
	if err != nil {
		return nil, err
	}
	if change != nil {
		pairs = append(pairs, *change)
	}
	if stas20 && len(data) > 0 {
		a.addDataNote(data)
	}

	// The cut point starts at OP_EQUALVERIFY, right after the owner hash.
	cut := srcs[0].utxo.ScriptBytes()[token.BodyOffset-2:]
	sides := [2]mergeSide{
		{vout: srcs[0].utxo.Vout, pieces: splitPieces(srcs[0].raw, cut)},
		{vout: srcs[1].utxo.Vout, pieces: splitPieces(srcs[1].raw, cut)},
	}

	// Fragments are computed before either input is signed; the preimages
	// do not cover unlocking scripts.
	fragments := make([][]byte, 2)
	for i := range srcs {
		frag, err := a.mergeFragment(i, pairs, f, stas20, data, sides[1-i])
		if err != nil {
			return nil, err
		}
		fragments[i] = frag
	}
	for i := range srcs {
		if err := a.finalize(i, fragments[i], owners[i], SigHashAll, true); err != nil {
			return nil, err
		}
	}
	if err := a.finalizePayment(f); err != nil {
		return nil, err
	}
	return a.result(), nil
}

// BuildMerge combines two token UTXOs of the same lineage into one output
// owned by Destination.
func BuildMerge(p *MergeParams) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: merge params", ErrNilParam)
	}
	srcs, first, err := mergeTokens(p.Owners, p.Inputs, &p.Funding)
	if err != nil {
		return nil, err
	}
	destPKH, err := decodeAddress(p.Destination)
	if err != nil {
		return nil, err
	}
	if err := checkIssuerDestination(first.RedeemPKH, destPKH, first.Protocol); err != nil {
		return nil, err
	}
	data, err := encodeData(p.Data)
	if err != nil {
		return nil, err
	}

	lock, err := token.RewriteOwner(destPKH, srcs[0].utxo.ScriptBytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptBuild, err)
	}
	outs := []tokenOutput{{
		script:   lock,
		satoshis: srcs[0].utxo.Satoshis + srcs[1].utxo.Satoshis,
		pkh:      destPKH,
	}}
	return buildMerge("merge", p.Owners, srcs, outs, first.Protocol == token.STAS20, data, &p.Funding)
}

// BuildMergeSplit combines two token UTXOs of the same lineage and splits
// the total across Destinations.
func BuildMergeSplit(p *MergeSplitParams) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: merge split params", ErrNilParam)
	}
	srcs, first, err := mergeTokens(p.Owners, p.Inputs, &p.Funding)
	if err != nil {
		return nil, err
	}
	if !first.Splittable() {
		return nil, ErrNotSplittable
	}
	pkhs, err := checkDestinations(p.Destinations, token.KindMergeSplit, first.Protocol)
	if err != nil {
		return nil, err
	}
	in := srcs[0].utxo.Satoshis + srcs[1].utxo.Satoshis
	total, err := sumDestinations(p.Destinations)
	if err != nil {
		return nil, err
	}
	if total != in {
		return nil, fmt.Errorf("%w: input %d, outputs %d", ErrAmountMismatch, in, total)
	}
	data, err := encodeData(p.Data)
	if err != nil {
		return nil, err
	}
	outs, err := rewriteTo(first, srcs[0].utxo.ScriptBytes(), p.Destinations, pkhs)
	if err != nil {
		return nil, err
	}
	return buildMerge("mergeSplit", p.Owners, srcs, outs, first.Protocol == token.STAS20, data, &p.Funding)
}
