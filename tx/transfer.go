package tx

import (
	"fmt"

	"github.com/bitfsorg/libstas-go/token"
)

// TransferParams are the inputs of BuildTransfer.
type TransferParams struct {
	Owner       KeyRef
	TokenUTXO   *UTXO
	Destination string
	// Data rides in the unlocking script. STAS-789 tokens also append it to
	// the new locking script; STAS-20 tokens add a data note output.
	Data []string
	Funding
}

// BuildTransfer moves a token UTXO to a new owner. Only the owner hash of the
// locking script changes and the amount is carried over.
func BuildTransfer(p *TransferParams) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: transfer params", ErrNilParam)
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
	destPKH, err := decodeAddress(p.Destination)
	if err != nil {
		return nil, err
	}
	if err := checkIssuerDestination(src.RedeemPKH, destPKH, src.Protocol); err != nil {
		return nil, err
	}
	data, err := encodeData(p.Data)
	if err != nil {
		return nil, err
	}

	lock, err := token.RewriteOwner(destPKH, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptBuild, err)
	}
	if src.Protocol == token.STAS789 && len(data) > 0 {
		lock = append(lock, data...)
	}

	s := &singleSpend{
		op:      "transfer",
		owner:   p.Owner,
		utxo:    p.TokenUTXO,
		outputs: []tokenOutput{{script: lock, satoshis: p.TokenUTXO.Satoshis, pkh: destPKH}},
		stas789: src.Protocol == token.STAS789,
		stas20:  src.Protocol == token.STAS20,
		data:    data,
	}
	return s.build(&p.Funding)
}
