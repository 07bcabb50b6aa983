package tx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"

	"github.com/bitfsorg/libstas-go/token"
)

// ContractParams are the inputs of BuildContract.
type ContractParams struct {
	Issuer        KeyRef
	ContractUTXO  *UTXO
	Schema        *token.Schema
	TokenSatoshis uint64
	Funding
}

// BuildContractScript returns the contract locking script: a P2PKH to the
// issuer followed by OP_FALSE OP_RETURN <schema JSON>.
func BuildContractScript(issuerPKH []byte, schema *token.Schema) ([]byte, error) {
	p2pkh, err := BuildP2PKHScript(issuerPKH)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: encode schema: %w", ErrScriptBuild, err)
	}
	b, err := token.NewBuilder().
		Append(p2pkh).
		PushOp(script.Op0, script.OpRETURN).
		PushData(payload).
		Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptBuild, err)
	}
	return b, nil
}

// BuildContract funds a token contract. Output 0 carries TokenSatoshis under
// the contract script; any contract UTXO surplus returns to the issuer as
// output 1, followed by payment change. An empty schema tokenId is set to
// the issuer's public key hash; a different one is rejected.
func BuildContract(p *ContractParams) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: contract params", ErrNilParam)
	}
	if err := checkKey(p.Issuer, "issuer public key"); err != nil {
		return nil, err
	}
	if p.Schema == nil {
		return nil, fmt.Errorf("%w: token schema", ErrNilParam)
	}
	if err := checkUTXO(p.ContractUTXO, "contract utxo"); err != nil {
		return nil, err
	}

	issuerPKH := p.Issuer.pkh()
	schema := *p.Schema
	if schema.TokenID == "" {
		schema.TokenID = hex.EncodeToString(issuerPKH)
	}
	if schema.TokenID != hex.EncodeToString(issuerPKH) {
		return nil, fmt.Errorf("%w: token id %s does not match issuer pkh %x", ErrInvalidParams, schema.TokenID, issuerPKH)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if err := checkTokenSatoshis(p.TokenSatoshis, &schema, p.ContractUTXO); err != nil {
		return nil, err
	}
	if err := p.Funding.validate(); err != nil {
		return nil, err
	}

	contractScript, err := BuildContractScript(issuerPKH, &schema)
	if err != nil {
		return nil, err
	}

	a := newAssembly("contract")
	if err := a.addInput(p.ContractUTXO); err != nil {
		return nil, err
	}
	if !p.zeroFee() {
		if err := a.addInput(p.Payment.UTXO); err != nil {
			return nil, err
		}
	}

	a.addOutput(contractScript, p.TokenSatoshis)
	if surplus := p.ContractUTXO.Satoshis - p.TokenSatoshis; surplus > 0 {
		if err := a.addP2PKH(issuerPKH, surplus); err != nil {
			return nil, err
		}
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
