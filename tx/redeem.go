package tx

import (
	"bytes"
	"fmt"

	"github.com/bitfsorg/libstas-go/token"
)

// RedeemParams are the inputs of BuildRedeem.
type RedeemParams struct {
	Owner     KeyRef
	TokenUTXO *UTXO
	Data      []string
	Funding
}

// RedeemSplitParams are the inputs of BuildRedeemSplit. Destinations keep
// their share as tokens; the rest of the input is redeemed.
type RedeemSplitParams struct {
	Owner        KeyRef
	TokenUTXO    *UTXO
	Destinations []Destination
	Data         []string
	Funding
}

// checkRedeemer enforces that STAS-20 tokens are redeemed by their issuer.
func checkRedeemer(owner KeyRef, src *token.Script, f *Funding) error {
	if src.Protocol != token.STAS20 || f.estimating {
		return nil
	}
	if !bytes.Equal(owner.pkh(), src.RedeemPKH) {
		return ErrRedeemerMismatch
	}
	return nil
}

// BuildRedeem converts a token UTXO back into a plain P2PKH output paid to
// the token's embedded redeem hash.
func BuildRedeem(p *RedeemParams) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: redeem params", ErrNilParam)
	}
	if err := checkKey(p.Owner, "owner public key"); err != nil {
		return nil, err
	}
	if err := checkUTXO(p.TokenUTXO, "token utxo"); err != nil {
		return nil, err
	}
	if err := p.Funding.validate(); err != nil {
		return nil, err
	}
	src, _, err := tokenScript(p.TokenUTXO)
	if err != nil {
		return nil, err
	}
	if err := checkRedeemer(p.Owner, src, &p.Funding); err != nil {
		return nil, err
	}
	data, err := encodeData(p.Data)
	if err != nil {
		return nil, err
	}

	lock, err := BuildP2PKHScript(src.RedeemPKH)
	if err != nil {
		return nil, err
	}
	s := &singleSpend{
		op:      "redeem",
		owner:   p.Owner,
		utxo:    p.TokenUTXO,
		outputs: []tokenOutput{{script: lock, satoshis: p.TokenUTXO.Satoshis, pkh: src.RedeemPKH}},
		stas789: src.Protocol == token.STAS789,
		stas20:  src.Protocol == token.STAS20,
		data:    data,
	}
	return s.build(&p.Funding)
}

// BuildRedeemSplit redeems part of a token UTXO. Output 0 pays the input
// amount less the destination total to the redeem hash; each destination
// then receives a token output.
func BuildRedeemSplit(p *RedeemSplitParams) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: redeem split params", ErrNilParam)
	}
	if err := checkKey(p.Owner, "owner public key"); err != nil {
		return nil, err
	}
	if err := checkUTXO(p.TokenUTXO, "token utxo"); err != nil {
		return nil, err
	}
	if err := p.Funding.validate(); err != nil {
		return nil, err
	}
	src, raw, err := tokenScript(p.TokenUTXO)
	if err != nil {
		return nil, err
	}
	if !src.Splittable() {
		return nil, ErrNotSplittable
	}
	if err := checkRedeemer(p.Owner, src, &p.Funding); err != nil {
		return nil, err
	}
	pkhs, err := checkDestinations(p.Destinations, token.KindRedeemSplit, src.Protocol)
	if err != nil {
		return nil, err
	}
	total, err := sumDestinations(p.Destinations)
	if err != nil {
		return nil, err
	}
	if total >= p.TokenUTXO.Satoshis {
		return nil, fmt.Errorf("%w: destinations take %d of %d, nothing left to redeem",
			ErrAmountMismatch, total, p.TokenUTXO.Satoshis)
	}
	data, err := encodeData(p.Data)
	if err != nil {
		return nil, err
	}

	redeemLock, err := BuildP2PKHScript(src.RedeemPKH)
	if err != nil {
		return nil, err
	}
	rest, err := rewriteTo(src, raw, p.Destinations, pkhs)
	if err != nil {
		return nil, err
	}
	outs := append([]tokenOutput{{
		script:   redeemLock,
		satoshis: p.TokenUTXO.Satoshis - total,
		pkh:      src.RedeemPKH,
	}}, rest...)

	s := &singleSpend{
		op:      "redeemSplit",
		owner:   p.Owner,
		utxo:    p.TokenUTXO,
		outputs: outs,
		stas20:  src.Protocol == token.STAS20,
		data:    data,
	}
	return s.build(&p.Funding)
}
