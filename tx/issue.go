package tx

import (
	"fmt"

	"github.com/bitfsorg/libstas-go/token"
)

// IssuanceParams are the inputs of BuildIssuance.
type IssuanceParams struct {
	Issuer       KeyRef
	ContractUTXO *UTXO
	IssueData    []IssueData
	Splittable   bool
	Symbol       string
	Protocol     token.Protocol
	Funding
}

// BuildIssuance spends a contract output into one fresh token output per
// IssueData entry. Every token names the issuer as its redeemer. The issued
// amounts must add up to the contract output.
func BuildIssuance(p *IssuanceParams) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: issuance params", ErrNilParam)
	}
	if err := checkKey(p.Issuer, "issuer public key"); err != nil {
		return nil, err
	}
	if len(p.IssueData) == 0 {
		return nil, fmt.Errorf("%w: issue data is empty", ErrInvalidParams)
	}
	if err := checkUTXO(p.ContractUTXO, "contract utxo"); err != nil {
		return nil, err
	}
	protocol, err := token.ParseProtocol(string(p.Protocol))
	if err != nil {
		return nil, err
	}
	if err := token.ValidateSymbol(p.Symbol); err != nil {
		return nil, err
	}
	if sym, ok := token.ContractSymbol(p.ContractUTXO.ScriptBytes()); !ok || sym != p.Symbol {
		return nil, fmt.Errorf("%w: symbol %q does not match contract schema symbol %q", ErrInvalidParams, p.Symbol, sym)
	}
	if err := p.Funding.validate(); err != nil {
		return nil, err
	}

	owners := make([][]byte, len(p.IssueData))
	var total uint64
	for i, d := range p.IssueData {
		if d.Satoshis == 0 {
			return nil, fmt.Errorf("%w: issue data %d must have satoshis greater than 0", ErrInvalidParams, i)
		}
		pkh, err := decodeAddress(d.Address)
		if err != nil {
			return nil, fmt.Errorf("issue data %d: %w", i, err)
		}
		owners[i] = pkh
		var ok bool
		if total, ok = addSatoshis(total, d.Satoshis); !ok {
			return nil, fmt.Errorf("%w: issue data %d overflows the issued total", ErrAmountMismatch, i)
		}
	}
	if total != p.ContractUTXO.Satoshis {
		return nil, fmt.Errorf("%w: issued %d, contract holds %d", ErrAmountMismatch, total, p.ContractUTXO.Satoshis)
	}

	a := newAssembly("issuance")
	if err := a.addInput(p.ContractUTXO); err != nil {
		return nil, err
	}
	if !p.zeroFee() {
		if err := a.addInput(p.Payment.UTXO); err != nil {
			return nil, err
		}
	}

	redeemPKH := p.Issuer.pkh()
	for i, d := range p.IssueData {
		var meta []byte
		if len(d.Data) > 0 {
			if meta, err = token.EncodeMetadata(d.Data); err != nil {
				return nil, err
			}
		}
		s, err := token.BuildIssuanceScript(owners[i], redeemPKH, meta, p.Splittable, p.Symbol, protocol)
		if err != nil {
			return nil, fmt.Errorf("%w: issue data %d: %w", ErrScriptBuild, i, err)
		}
		a.addOutput(s, d.Satoshis)
	}
	if _, err := a.addChange(&p.Funding); err != nil {
		return nil, err
	}

	if err := a.finalize(0, nil, p.Issuer, SigHashAll, false); err != nil {
		return nil, err
	}
	if err := a.finalizePayment(&p.Funding); err != nil {
		return nil, err
	}
	return a.result(), nil
}
