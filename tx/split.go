package tx

import (
	"fmt"

	"github.com/bitfsorg/libstas-go/token"
)

// SplitParams are the inputs of BuildSplit.
type SplitParams struct {
	Owner        KeyRef
	TokenUTXO    *UTXO
	Destinations []Destination
	Data         []string
	Funding
}

// BuildSplit divides a token UTXO across up to MaxDestinations(KindSplit)
// owners. The destination amounts must add up to the token amount.
func BuildSplit(p *SplitParams) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: split params", ErrNilParam)
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
	pkhs, err := checkDestinations(p.Destinations, token.KindSplit, src.Protocol)
	if err != nil {
		return nil, err
	}
	total, err := sumDestinations(p.Destinations)
	if err != nil {
		return nil, err
	}
	if total != p.TokenUTXO.Satoshis {
		return nil, fmt.Errorf("%w: input %d, outputs %d", ErrAmountMismatch, p.TokenUTXO.Satoshis, total)
	}
	data, err := encodeData(p.Data)
	if err != nil {
		return nil, err
	}
	outs, err := rewriteTo(src, raw, p.Destinations, pkhs)
	if err != nil {
		return nil, err
	}

	s := &singleSpend{
		op:      "split",
		owner:   p.Owner,
		utxo:    p.TokenUTXO,
		outputs: outs,
		stas20:  src.Protocol == token.STAS20,
		data:    data,
	}
	return s.build(&p.Funding)
}
