package tx

import (
	"encoding/hex"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libstas-go/token"
)

// layoutTxID has distinct bytes so a missing reversal shows up.
const layoutTxID = "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"

// step is one expected unlocking instruction: an opcode, or a data push
// when data is non-nil.
type step struct {
	op   byte
	data []byte
}

func op(o ...byte) []step {
	out := make([]step, len(o))
	for i, b := range o {
		out[i] = step{op: b}
	}
	return out
}

func push(d []byte) []step {
	return []step{{data: d}}
}

func seq(parts ...[]step) []step {
	var out []step
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// reversedLayoutTxID is layoutTxID in internal byte order.
func reversedLayoutTxID(t *testing.T) []byte {
	t.Helper()
	b, err := hex.DecodeString(layoutTxID)
	require.NoError(t, err)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// layoutPayment pays from layoutTxID:3.
func layoutPayment(t *testing.T, priv *ec.PrivateKey, sats uint64) *Payment {
	t.Helper()
	return &Payment{UTXO: p2pkhUTXO(t, layoutTxID, 3, priv.PubKey(), sats), Key: Signer(priv)}
}

func preimageOf(t *testing.T, tr *transaction.Transaction, idx int) []byte {
	t.Helper()
	pre, err := tr.CalcInputPreimage(uint32(idx), SigHashAll)
	require.NoError(t, err)
	return pre
}

// requireFragment checks the unlocking script of input idx, minus its
// trailing <sig> <pubkey>, against want.
func requireFragment(t *testing.T, tr *transaction.Transaction, idx int, want []step) {
	t.Helper()
	ins := unlockingPushes(t, tr, idx)
	require.GreaterOrEqual(t, len(ins), 2)
	ins = ins[:len(ins)-2]
	require.Len(t, ins, len(want))
	for i, w := range want {
		if w.data == nil {
			assert.Equal(t, w.op, ins[i].Op, "instruction %d", i)
			continue
		}
		assert.True(t, ins[i].IsPush(), "instruction %d is not a push", i)
		assert.Equal(t, w.data, ins[i].Data, "instruction %d", i)
	}
}

func TestSpendFragment_Layout(t *testing.T) {
	issuer, _ := generateTestKeyPair(t)
	alice, alicePub := generateTestKeyPair(t)
	payer, payerPub := generateTestKeyPair(t)
	_, bobPub := generateTestKeyPair(t)
	_, carolPub := generateTestKeyPair(t)
	bob, carol, payPKH := bobPub.Hash(), carolPub.Hash(), payerPub.Hash()
	txid := reversedLayoutTxID(t)
	data, err := token.EncodeMetadata([]string{"invoice-42"})
	require.NoError(t, err)

	transfer := func(t *testing.T, p token.Protocol, f Funding, items ...string) *Result {
		t.Helper()
		issue := issueTokens(t, issuer, p, true, IssueData{Address: testAddress(t, alicePub), Satoshis: 5})
		r, err := BuildTransfer(&TransferParams{
			Owner:       Signer(alice),
			TokenUTXO:   outputUTXO(t, issue, 0),
			Destination: testAddress(t, bobPub),
			Data:        items,
			Funding:     f,
		})
		require.NoError(t, err)
		return r
	}

	t.Run("payment", func(t *testing.T) {
		// 228 - 100 leaves 128, which needs a sign byte.
		r := transfer(t, token.STAS50, Funding{Payment: layoutPayment(t, payer, 228), TxCost: 100})
		requireFragment(t, r.Tx, 0, seq(
			op(script.Op5), push(bob),
			push([]byte{0x80, 0x00}), push(payPKH),
			op(script.Op3), push(txid),
			op(script.Op0), push(preimageOf(t, r.Tx, 0)),
		))
	})

	t.Run("zero change", func(t *testing.T) {
		r := transfer(t, token.STAS50, Funding{Payment: layoutPayment(t, payer, 105), TxCost: 100, ZeroChange: true})
		requireFragment(t, r.Tx, 0, seq(
			op(script.Op5), push(bob),
			op(script.Op0, script.Op0),
			op(script.Op3), push(txid),
			op(script.Op0), push(preimageOf(t, r.Tx, 0)),
		))
	})

	t.Run("zero fee", func(t *testing.T) {
		r := transfer(t, token.STAS50, Funding{})
		requireFragment(t, r.Tx, 0, seq(
			op(script.Op5), push(bob),
			op(script.Op0, script.Op0, script.Op0, script.Op0),
			op(script.Op0), push(preimageOf(t, r.Tx, 0)),
		))
	})

	t.Run("split amounts", func(t *testing.T) {
		issue := issueTokens(t, issuer, token.Legacy, true, IssueData{Address: testAddress(t, alicePub), Satoshis: 300})
		r, err := BuildSplit(&SplitParams{
			Owner:     Signer(alice),
			TokenUTXO: outputUTXO(t, issue, 0),
			Destinations: []Destination{
				{Address: testAddress(t, bobPub), Satoshis: 16},
				{Address: testAddress(t, carolPub), Satoshis: 17},
				{Address: testAddress(t, carolPub), Satoshis: 267},
			},
		})
		require.NoError(t, err)
		requireFragment(t, r.Tx, 0, seq(
			op(script.Op16), push(bob),
			push([]byte{0x11}), push(carol),
			push([]byte{0x0b, 0x01}), push(carol),
			op(script.Op0, script.Op0, script.Op0, script.Op0),
			op(script.Op0), push(preimageOf(t, r.Tx, 0)),
		))
	})

	t.Run("STAS-789 slot follows the first pair", func(t *testing.T) {
		r := transfer(t, token.STAS789, Funding{Payment: layoutPayment(t, payer, 228), TxCost: 100})
		requireFragment(t, r.Tx, 0, seq(
			op(script.Op5), push(bob),
			op(script.Op0),
			push([]byte{0x80, 0x00}), push(payPKH),
			op(script.Op3), push(txid),
			op(script.Op0), push(preimageOf(t, r.Tx, 0)),
		))

		r = transfer(t, token.STAS789, Funding{}, "invoice-42")
		requireFragment(t, r.Tx, 0, seq(
			op(script.Op5), push(bob),
			push(data),
			op(script.Op0, script.Op0, script.Op0, script.Op0),
			op(script.Op0), push(preimageOf(t, r.Tx, 0)),
		))
	})

	t.Run("STAS-20 slot precedes the payment outpoint", func(t *testing.T) {
		r := transfer(t, token.STAS20, Funding{Payment: layoutPayment(t, payer, 228), TxCost: 100}, "invoice-42")
		requireFragment(t, r.Tx, 0, seq(
			op(script.Op5), push(bob),
			push([]byte{0x80, 0x00}), push(payPKH),
			push(data),
			op(script.Op3), push(txid),
			op(script.Op0), push(preimageOf(t, r.Tx, 0)),
		))

		r = transfer(t, token.STAS20, Funding{Payment: layoutPayment(t, payer, 105), TxCost: 100, ZeroChange: true}, "invoice-42")
		requireFragment(t, r.Tx, 0, seq(
			op(script.Op5), push(bob),
			op(script.Op0, script.Op0),
			push(data),
			op(script.Op3), push(txid),
			op(script.Op0), push(preimageOf(t, r.Tx, 0)),
		))

		r = transfer(t, token.STAS20, Funding{})
		requireFragment(t, r.Tx, 0, seq(
			op(script.Op5), push(bob),
			op(script.Op0, script.Op0),
			op(script.Op0),
			op(script.Op0, script.Op0),
			op(script.Op0), push(preimageOf(t, r.Tx, 0)),
		))
	})
}

func TestMergeFragment_Layout(t *testing.T) {
	issuer, _ := generateTestKeyPair(t)
	alice, alicePub := generateTestKeyPair(t)
	payer, payerPub := generateTestKeyPair(t)
	_, bobPub := generateTestKeyPair(t)
	bob, payPKH := bobPub.Hash(), payerPub.Hash()
	txid := reversedLayoutTxID(t)

	issue := issueTokens(t, issuer, token.STAS50, true,
		IssueData{Address: testAddress(t, alicePub), Satoshis: 3},
		IssueData{Address: testAddress(t, alicePub), Satoshis: 4},
	)
	cut := lockBytes(issue.Tx, 0)[token.BodyOffset-2:]
	pieces := splitPieces(issue.Tx.Bytes(), cut)
	require.Len(t, pieces, 3)
	replay := func(vout byte) []step {
		out := op(vout)
		for _, p := range pieces {
			out = append(out, push(p)...)
		}
		return append(out, op(script.Op3)...)
	}

	merge := func(t *testing.T, f Funding) *Result {
		t.Helper()
		r, err := BuildMerge(&MergeParams{
			Owners:      [2]KeyRef{Signer(alice), Signer(alice)},
			Inputs:      [2]MergeInput{{TxHex: issue.Hex(), Vout: 0}, {TxHex: issue.Hex(), Vout: 1}},
			Destination: testAddress(t, bobPub),
			Funding:     f,
		})
		require.NoError(t, err)
		return r
	}

	t.Run("payment", func(t *testing.T) {
		r := merge(t, Funding{Payment: layoutPayment(t, payer, 228), TxCost: 100})
		head := seq(
			op(script.Op7), push(bob),
			push([]byte{0x80, 0x00}), push(payPKH),
			op(script.Op3), push(txid),
		)
		requireFragment(t, r.Tx, 0, seq(head, replay(script.Op1), push(preimageOf(t, r.Tx, 0))))
		requireFragment(t, r.Tx, 1, seq(head, replay(script.Op0), push(preimageOf(t, r.Tx, 1))))
	})

	t.Run("zero change", func(t *testing.T) {
		r := merge(t, Funding{Payment: layoutPayment(t, payer, 105), TxCost: 100, ZeroChange: true})
		requireFragment(t, r.Tx, 0, seq(
			op(script.Op7), push(bob),
			op(script.Op0, script.Op0),
			op(script.Op3), push(txid),
			replay(script.Op1),
			push(preimageOf(t, r.Tx, 0)),
		))
	})

	t.Run("zero fee", func(t *testing.T) {
		r := merge(t, Funding{})
		requireFragment(t, r.Tx, 0, seq(
			op(script.Op7), push(bob),
			op(script.Op0, script.Op0, script.Op0, script.Op0),
			replay(script.Op1),
			push(preimageOf(t, r.Tx, 0)),
		))
	})
}

func TestSwapFragment_Layout(t *testing.T) {
	payer, payerPub := generateTestKeyPair(t)
	txid := reversedLayoutTxID(t)

	accept := func(t *testing.T, f *swapFixture, funding Funding) *Result {
		t.Helper()
		r, err := BuildSwapAccept(&SwapAcceptParams{
			OfferTxHex:      f.offer(t, Signer(f.maker)).Hex(),
			Taker:           Signer(f.taker),
			MakerInputTxHex: f.makerTxHex,
			TakerInputTxHex: f.takerTxHex,
			Extras:          []Destination{{Address: testAddress(t, f.takerPub), Satoshis: 2}},
			Funding:         funding,
		})
		require.NoError(t, err)
		return r
	}
	pairs := func(f *swapFixture) []step {
		return seq(
			op(script.Op10), push(f.makerPub.Hash()),
			op(script.Op7), push(f.takerPub.Hash()),
			op(script.Op2), push(f.takerPub.Hash()),
		)
	}
	tail := func(t *testing.T, f *swapFixture, r *Result) []step {
		takerRaw, err := hex.DecodeString(f.takerTxHex)
		require.NoError(t, err)
		return seq(op(script.Op0), push(takerRaw), op(script.Op1), push(preimageOf(t, r.Tx, 0)))
	}

	t.Run("zero fee", func(t *testing.T) {
		f := newSwapFixture(t, 12)
		r := accept(t, f, Funding{})
		requireFragment(t, r.Tx, 0, seq(
			pairs(f),
			op(script.Op0, script.Op0, script.Op0, script.Op0),
			tail(t, f, r),
		))
	})

	t.Run("payment", func(t *testing.T) {
		f := newSwapFixture(t, 12)
		r := accept(t, f, Funding{Payment: layoutPayment(t, payer, 228), TxCost: 100})
		requireFragment(t, r.Tx, 0, seq(
			pairs(f),
			push([]byte{0x80, 0x00}), push(payerPub.Hash()),
			op(script.Op3), push(txid),
			tail(t, f, r),
		))
	})

	t.Run("zero change", func(t *testing.T) {
		f := newSwapFixture(t, 12)
		r := accept(t, f, Funding{Payment: layoutPayment(t, payer, 105), TxCost: 100, ZeroChange: true})
		requireFragment(t, r.Tx, 0, seq(
			pairs(f),
			op(script.Op0, script.Op0),
			op(script.Op3), push(txid),
			tail(t, f, r),
		))
	})
}
