package tx

import (
	"encoding/hex"
	"strings"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/transaction"
	sighash "github.com/bsv-blockchain/go-sdk/transaction/sighash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libstas-go/token"
)

var (
	seedTxID    = strings.Repeat("ab", 32)
	paymentTxID = strings.Repeat("cd", 32)
)

func generateTestKeyPair(t *testing.T) (*ec.PrivateKey, *ec.PublicKey) {
	t.Helper()
	privKey, err := ec.NewPrivateKey()
	require.NoError(t, err)
	return privKey, privKey.PubKey()
}

func testAddress(t *testing.T, pub *ec.PublicKey) string {
	t.Helper()
	addr, err := AddressFromPublicKey(pub, true)
	require.NoError(t, err)
	return addr
}

func p2pkhUTXO(t *testing.T, txid string, vout uint32, pub *ec.PublicKey, sats uint64) *UTXO {
	t.Helper()
	lock, err := BuildP2PKHScript(pub.Hash())
	require.NoError(t, err)
	u, err := NewUTXO(txid, vout, sats, hex.EncodeToString(lock))
	require.NoError(t, err)
	return u
}

func testPayment(t *testing.T, priv *ec.PrivateKey, sats uint64) *Payment {
	t.Helper()
	return &Payment{UTXO: p2pkhUTXO(t, paymentTxID, 1, priv.PubKey(), sats), Key: Signer(priv)}
}

// seedTx returns an unsigned transaction paying each amount to pub.
func seedTx(t *testing.T, pub *ec.PublicKey, amounts ...uint64) *transaction.Transaction {
	t.Helper()
	var total uint64
	for _, a := range amounts {
		total += a
	}
	a := newAssembly("seed")
	require.NoError(t, a.addInput(p2pkhUTXO(t, seedTxID, 7, pub, total)))
	for _, amt := range amounts {
		require.NoError(t, a.addP2PKH(pub.Hash(), amt))
	}
	return a.tx
}

// testContractUTXO returns a contract output for symbol "TT" holding sats.
func testContractUTXO(t *testing.T, issuer *ec.PublicKey, sats uint64) *UTXO {
	t.Helper()
	schema := token.DefaultSchema()
	schema.Symbol = "TT"
	schema.TokenID = hex.EncodeToString(issuer.Hash())
	schema.TotalSupply = sats
	lock, err := BuildContractScript(issuer.Hash(), &schema)
	require.NoError(t, err)
	u, err := NewUTXO(seedTxID, 0, sats, hex.EncodeToString(lock))
	require.NoError(t, err)
	return u
}

// issueTokens issues one token output per entry of data and returns the
// signed issuance.
func issueTokens(t *testing.T, issuer *ec.PrivateKey, p token.Protocol, splittable bool, data ...IssueData) *Result {
	t.Helper()
	var total uint64
	for _, d := range data {
		total += d.Satoshis
	}
	r, err := BuildIssuance(&IssuanceParams{
		Issuer:       Signer(issuer),
		ContractUTXO: testContractUTXO(t, issuer.PubKey(), total),
		IssueData:    data,
		Splittable:   splittable,
		Symbol:       "TT",
		Protocol:     p,
	})
	require.NoError(t, err)
	require.True(t, r.Complete())
	return r
}

func outputUTXO(t *testing.T, r *Result, vout uint32) *UTXO {
	t.Helper()
	u, err := UTXOFromTx(r.Hex(), vout)
	require.NoError(t, err)
	return u
}

func unlockingPushes(t *testing.T, tr *transaction.Transaction, idx int) []token.Instruction {
	t.Helper()
	ins, err := token.Instructions(*tr.Inputs[idx].UnlockingScript)
	require.NoError(t, err)
	return ins
}

// requireValidSig checks that input idx ends in <sig> <pub> and that the
// signature verifies against the input's sighash.
func requireValidSig(t *testing.T, tr *transaction.Transaction, idx int, pub *ec.PublicKey, flag sighash.Flag) {
	t.Helper()
	ins := unlockingPushes(t, tr, idx)
	require.GreaterOrEqual(t, len(ins), 2)
	sigPush, pubPush := ins[len(ins)-2].Data, ins[len(ins)-1].Data
	assert.Equal(t, pub.Compressed(), pubPush)
	require.NotEmpty(t, sigPush)
	require.Equal(t, byte(flag), sigPush[len(sigPush)-1])

	sig, err := ec.ParseDERSignature(sigPush[:len(sigPush)-1])
	require.NoError(t, err)
	h, err := tr.CalcInputSignatureHash(uint32(idx), flag)
	require.NoError(t, err)
	assert.True(t, sig.Verify(h, pub), "signature on input %d does not verify", idx)
}

func lockBytes(tr *transaction.Transaction, vout int) []byte {
	return []byte(*tr.Outputs[vout].LockingScript)
}
