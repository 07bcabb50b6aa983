package tx

import (
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/gookit/slog"

	"github.com/bitfsorg/libstas-go/config"
)

// Fee template values. The template key and payment outpoint never appear
// on chain; they only give the throwaway build its worst-case shape.
const (
	templateWIF         = "L5MgGTPJRMqHyUX5UsD4JWMwMUFGdFwVL73vvcRmuPhVD1Avzugr"
	templateTxID        = "1234567890123456789012345678901234567890123456789012345678901234"
	templatePaymentSats = uint64(100000)
	templateTxCost      = uint64(1)
)

// DefaultFeeRate is the fee rate in satoshis per 1000 bytes.
const DefaultFeeRate = uint64(50)

// EstimateFee returns ceil(size * feeRate / 1000). A zero rate uses
// DefaultFeeRate.
func EstimateFee(size int, feeRate uint64) uint64 {
	if feeRate == 0 {
		feeRate = DefaultFeeRate
	}
	return (uint64(size)*feeRate + 999) / 1000
}

// FeeTemplates is the fixed key and payment used for throwaway builds.
type FeeTemplates struct {
	Key     *ec.PrivateKey
	Address string
	Payment *UTXO
	TxCost  uint64
}

// NewFeeTemplates returns the stock templates, with the template address
// rendered for mainnet or testnet.
func NewFeeTemplates(mainnet bool) (*FeeTemplates, error) {
	key, err := ec.PrivateKeyFromWif(templateWIF)
	if err != nil {
		return nil, fmt.Errorf("%w: template key: %w", ErrInvalidParams, err)
	}
	pkh := key.PubKey().Hash()
	addr, err := AddressFromPublicKey(key.PubKey(), mainnet)
	if err != nil {
		return nil, err
	}
	lock, err := BuildP2PKHScript(pkh)
	if err != nil {
		return nil, err
	}
	payment, err := NewUTXO(templateTxID, 0, templatePaymentSats, hex.EncodeToString(lock))
	if err != nil {
		return nil, err
	}
	return &FeeTemplates{Key: key, Address: addr, Payment: payment, TxCost: templateTxCost}, nil
}

// SplitDestinations returns n template destinations totalling total: n-1
// one-satoshi entries followed by the remainder.
func (t *FeeTemplates) SplitDestinations(n int, total uint64) []Destination {
	if n <= 0 {
		return nil
	}
	dests := make([]Destination, 0, n)
	for i := 0; i < n-1; i++ {
		dests = append(dests, Destination{Address: t.Address, Satoshis: 1})
	}
	rest := uint64(0)
	if total > uint64(n-1) {
		rest = total - uint64(n-1)
	}
	return append(dests, Destination{Address: t.Address, Satoshis: rest})
}

func (t *FeeTemplates) signer() KeyRef {
	return Signer(t.Key)
}

// fund points f at the template payment for a throwaway build.
func (t *FeeTemplates) fund(f *Funding) {
	f.Payment = &Payment{UTXO: t.Payment, Key: t.signer()}
	f.TxCost = t.TxCost
	f.estimating = true
}

// Priceable is implemented by the params of every fee-paying builder.
type Priceable interface {
	funding() *Funding
	// templated returns a copy with keys, addresses and payment replaced by
	// the fee templates.
	templated(t *FeeTemplates) (Priceable, error)
	build() (*Result, error)
}

// FeeEstimator prices builds by running them against FeeTemplates.
type FeeEstimator struct {
	Templates           *FeeTemplates
	FeeRate             uint64 // satoshis per 1000 bytes
	SignatureAllowance  uint64
	ZeroChangeThreshold uint64
}

// NewFeeEstimator returns an estimator using the fee settings of cfg.
func NewFeeEstimator(cfg config.Config) (*FeeEstimator, error) {
	if cfg.FeeRate == 0 {
		return nil, config.ErrInvalidFeeRate
	}
	templates, err := NewFeeTemplates(cfg.Mainnet())
	if err != nil {
		return nil, err
	}
	return &FeeEstimator{
		Templates:           templates,
		FeeRate:             cfg.FeeRate,
		SignatureAllowance:  cfg.SignatureAllowance,
		ZeroChangeThreshold: cfg.ZeroChangeThreshold,
	}, nil
}

// Estimate returns the fee for op: the size of a signed template build
// priced at FeeRate, plus SignatureAllowance.
func (e *FeeEstimator) Estimate(op Priceable) (uint64, error) {
	if op == nil {
		return 0, fmt.Errorf("%w: operation", ErrNilParam)
	}
	tmpl, err := op.templated(e.Templates)
	if err != nil {
		return 0, err
	}
	e.Templates.fund(tmpl.funding())

	r, err := tmpl.build()
	if err != nil {
		return 0, fmt.Errorf("fee estimate: %w", err)
	}
	size := len(r.Tx.Bytes())
	cost := EstimateFee(size, e.FeeRate) + e.SignatureAllowance

	logger.WithFields(slog.M{
		"size":    size,
		"feeRate": e.FeeRate,
		"cost":    cost,
	}).Debug("fee estimated")
	return cost, nil
}

// Build estimates the fee of op, stores it as op's TxCost and runs the real
// build. Zero-fee operations are built directly.
func (e *FeeEstimator) Build(op Priceable) (*Result, error) {
	if op == nil {
		return nil, fmt.Errorf("%w: operation", ErrNilParam)
	}
	f := op.funding()
	if f.ZeroChangeThreshold == 0 {
		f.ZeroChangeThreshold = e.ZeroChangeThreshold
	}
	if f.zeroFee() {
		return op.build()
	}
	cost, err := e.Estimate(op)
	if err != nil {
		return nil, err
	}
	f.TxCost = cost
	return op.build()
}

func (p *ContractParams) funding() *Funding { return &p.Funding }
func (p *IssuanceParams) funding() *Funding { return &p.Funding }
func (p *TransferParams) funding() *Funding { return &p.Funding }
func (p *SplitParams) funding() *Funding { return &p.Funding }
func (p *MergeParams) funding() *Funding { return &p.Funding }
func (p *MergeSplitParams) funding() *Funding { return &p.Funding }
func (p *RedeemParams) funding() *Funding { return &p.Funding }
func (p *RedeemSplitParams) funding() *Funding { return &p.Funding }
func (p *SwapAcceptParams) funding() *Funding { return &p.Funding }

func (p *ContractParams) build() (*Result, error) { return BuildContract(p) }
func (p *IssuanceParams) build() (*Result, error) { return BuildIssuance(p) }
func (p *TransferParams) build() (*Result, error) { return BuildTransfer(p) }
func (p *SplitParams) build() (*Result, error) { return BuildSplit(p) }
func (p *MergeParams) build() (*Result, error) { return BuildMerge(p) }
func (p *MergeSplitParams) build() (*Result, error) { return BuildMergeSplit(p) }
func (p *RedeemParams) build() (*Result, error) { return BuildRedeem(p) }
func (p *RedeemSplitParams) build() (*Result, error) { return BuildRedeemSplit(p) }
func (p *SwapAcceptParams) build() (*Result, error) { return BuildSwapAccept(p) }

func (p *ContractParams) templated(t *FeeTemplates) (Priceable, error) {
	c := *p
	c.Issuer = t.signer()
	if p.Schema != nil {
		schema := *p.Schema
		schema.TokenID = ""
		c.Schema = &schema
	}
	if p.ContractUTXO != nil {
		u := *t.Payment
		u.Satoshis = p.ContractUTXO.Satoshis
		c.ContractUTXO = &u
	}
	return &c, nil
}

func (p *IssuanceParams) templated(t *FeeTemplates) (Priceable, error) {
	c := *p
	c.Issuer = t.signer()
	return &c, nil
}

func (p *TransferParams) templated(t *FeeTemplates) (Priceable, error) {
	c := *p
	c.Owner = t.signer()
	c.Destination = t.Address
	return &c, nil
}

func (p *SplitParams) templated(t *FeeTemplates) (Priceable, error) {
	c := *p
	c.Owner = t.signer()
	if p.TokenUTXO != nil {
		c.Destinations = t.SplitDestinations(len(p.Destinations), p.TokenUTXO.Satoshis)
	}
	return &c, nil
}

func (p *MergeParams) templated(t *FeeTemplates) (Priceable, error) {
	c := *p
	c.Owners = [2]KeyRef{t.signer(), t.signer()}
	c.Destination = t.Address
	return &c, nil
}

func (p *MergeSplitParams) templated(t *FeeTemplates) (Priceable, error) {
	c := *p
	c.Owners = [2]KeyRef{t.signer(), t.signer()}
	srcs, err := resolveMergeInputs(p.Inputs)
	if err != nil {
		return nil, err
	}
	total := srcs[0].utxo.Satoshis + srcs[1].utxo.Satoshis
	c.Destinations = t.SplitDestinations(len(p.Destinations), total)
	return &c, nil
}

func (p *RedeemParams) templated(t *FeeTemplates) (Priceable, error) {
	c := *p
	c.Owner = t.signer()
	return &c, nil
}

func (p *RedeemSplitParams) templated(t *FeeTemplates) (Priceable, error) {
	c := *p
	c.Owner = t.signer()
	total, err := sumDestinations(p.Destinations)
	if err != nil {
		return nil, err
	}
	c.Destinations = t.SplitDestinations(len(p.Destinations), total)
	return &c, nil
}

func (p *SwapAcceptParams) templated(t *FeeTemplates) (Priceable, error) {
	c := *p
	c.Taker = t.signer()
	c.Extras = nil
	for range p.Extras {
		c.Extras = append(c.Extras, Destination{Address: t.Address, Satoshis: 1})
	}
	return &c, nil
}
