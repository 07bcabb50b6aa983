package tx

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libstas-go/token"
)

// TestTokenLifecycle walks one STAS-20 token from contract to redemption.
func TestTokenLifecycle(t *testing.T) {
	issuer, issuerPub := generateTestKeyPair(t)
	alice, alicePub := generateTestKeyPair(t)
	bob, bobPub := generateTestKeyPair(t)
	carol, carolPub := generateTestKeyPair(t)

	// Contract: 200 in, 10 under the contract script, 190 back to the issuer.
	schema := token.DefaultSchema()
	schema.Symbol = "TT"
	contract, err := BuildContract(&ContractParams{
		Issuer:        Signer(issuer),
		ContractUTXO:  p2pkhUTXO(t, seedTxID, 0, issuerPub, 200),
		Schema:        &schema,
		TokenSatoshis: 10,
	})
	require.NoError(t, err)
	require.True(t, contract.Complete())
	require.Len(t, contract.Tx.Outputs, 2)
	assert.Equal(t, uint64(10), contract.Tx.Outputs[0].Satoshis)
	assert.Equal(t, uint64(190), contract.Tx.Outputs[1].Satoshis)
	issuerLock, err := BuildP2PKHScript(issuerPub.Hash())
	require.NoError(t, err)
	assert.Equal(t, issuerLock, lockBytes(contract.Tx, 1))
	sym, ok := token.ContractSymbol(lockBytes(contract.Tx, 0))
	require.True(t, ok)
	assert.Equal(t, "TT", sym)
	requireValidSig(t, contract.Tx, 0, issuerPub, SigHashAll)

	// Issue all 10 to alice.
	issue, err := BuildIssuance(&IssuanceParams{
		Issuer:       Signer(issuer),
		ContractUTXO: outputUTXO(t, contract, 0),
		IssueData:    []IssueData{{Address: testAddress(t, alicePub), Satoshis: 10}},
		Splittable:   true,
		Symbol:       "TT",
		Protocol:     token.STAS20,
	})
	require.NoError(t, err)
	require.Len(t, issue.Tx.Outputs, 1)
	issued := lockBytes(issue.Tx, 0)
	assert.Equal(t, token.STAS20, token.Classify(issued))
	requireValidSig(t, issue.Tx, 0, issuerPub, SigHashAll)
	lineage, err := token.LineageTail(issued)
	require.NoError(t, err)

	// alice -> bob
	transfer, err := BuildTransfer(&TransferParams{
		Owner:       Signer(alice),
		TokenUTXO:   outputUTXO(t, issue, 0),
		Destination: testAddress(t, bobPub),
	})
	require.NoError(t, err)
	owner, err := token.ExtractOwnerPKH(lockBytes(transfer.Tx, 0))
	require.NoError(t, err)
	assert.Equal(t, bobPub.Hash(), owner)
	assert.Equal(t, uint64(10), transfer.Tx.Outputs[0].Satoshis)
	requireValidSig(t, transfer.Tx, 0, alicePub, SigHashAll)

	// bob splits 5 / 5 to alice and carol.
	split, err := BuildSplit(&SplitParams{
		Owner:     Signer(bob),
		TokenUTXO: outputUTXO(t, transfer, 0),
		Destinations: []Destination{
			{Address: testAddress(t, alicePub), Satoshis: 5},
			{Address: testAddress(t, carolPub), Satoshis: 5},
		},
	})
	require.NoError(t, err)
	require.Len(t, split.Tx.Outputs, 2)
	requireValidSig(t, split.Tx, 0, bobPub, SigHashAll)

	// alice and carol merge back into one output owned by the issuer.
	merge, err := BuildMerge(&MergeParams{
		Owners: [2]KeyRef{Signer(alice), Signer(carol)},
		Inputs: [2]MergeInput{
			{TxHex: split.Hex(), Vout: 0},
			{TxHex: split.Hex(), Vout: 1},
		},
		Destination: testAddress(t, issuerPub),
	})
	require.NoError(t, err)
	require.Len(t, merge.Tx.Inputs, 2)
	require.Len(t, merge.Tx.Outputs, 1)
	assert.Equal(t, uint64(10), merge.Tx.Outputs[0].Satoshis)
	merged := lockBytes(merge.Tx, 0)
	tail, err := token.LineageTail(merged)
	require.NoError(t, err)
	assert.Equal(t, lineage, tail)
	requireValidSig(t, merge.Tx, 0, alicePub, SigHashAll)
	requireValidSig(t, merge.Tx, 1, carolPub, SigHashAll)

	// The issuer redeems the merged token into plain satoshis.
	redeem, err := BuildRedeem(&RedeemParams{
		Owner:     Signer(issuer),
		TokenUTXO: outputUTXO(t, merge, 0),
	})
	require.NoError(t, err)
	require.Len(t, redeem.Tx.Outputs, 1)
	assert.Equal(t, uint64(10), redeem.Tx.Outputs[0].Satoshis)
	assert.Equal(t, issuerLock, lockBytes(redeem.Tx, 0))
	requireValidSig(t, redeem.Tx, 0, issuerPub, SigHashAll)
}

func TestBuildContract_TokenID(t *testing.T) {
	issuer, issuerPub := generateTestKeyPair(t)
	_, otherPub := generateTestKeyPair(t)

	schema := token.DefaultSchema()
	schema.TokenID = hex.EncodeToString(otherPub.Hash())
	_, err := BuildContract(&ContractParams{
		Issuer:        Signer(issuer),
		ContractUTXO:  p2pkhUTXO(t, seedTxID, 0, issuerPub, 10),
		Schema:        &schema,
		TokenSatoshis: 10,
	})
	assert.ErrorIs(t, err, ErrInvalidParams)

	// The caller's schema is left untouched.
	schema.TokenID = ""
	r, err := BuildContract(&ContractParams{
		Issuer:        Signer(issuer),
		ContractUTXO:  p2pkhUTXO(t, seedTxID, 0, issuerPub, 10),
		Schema:        &schema,
		TokenSatoshis: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, schema.TokenID)
	assert.Len(t, r.Tx.Outputs, 1, "no surplus output when the whole contract utxo is used")
}

func TestBuildContract_TokenSatoshis(t *testing.T) {
	issuer, issuerPub := generateTestKeyPair(t)

	tests := []struct {
		name         string
		tokenSats    uint64
		satsPerToken uint64
		contractSats uint64
	}{
		{"zero", 0, 1, 10},
		{"below sats per token", 5, 10, 10},
		{"not divisible", 15, 10, 20},
		{"above contract", 20, 1, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			schema := token.DefaultSchema()
			schema.SatsPerToken = tc.satsPerToken
			_, err := BuildContract(&ContractParams{
				Issuer:        Signer(issuer),
				ContractUTXO:  p2pkhUTXO(t, seedTxID, 0, issuerPub, tc.contractSats),
				Schema:        &schema,
				TokenSatoshis: tc.tokenSats,
			})
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestBuildIssuance_Errors(t *testing.T) {
	issuer, issuerPub := generateTestKeyPair(t)
	_, alicePub := generateTestKeyPair(t)
	alice := testAddress(t, alicePub)

	base := func() *IssuanceParams {
		return &IssuanceParams{
			Issuer:       Signer(issuer),
			ContractUTXO: testContractUTXO(t, issuerPub, 10),
			IssueData:    []IssueData{{Address: alice, Satoshis: 10}},
			Symbol:       "TT",
			Protocol:     token.Legacy,
		}
	}

	p := base()
	p.IssueData[0].Satoshis = 9
	_, err := BuildIssuance(p)
	assert.ErrorIs(t, err, ErrAmountMismatch)

	p = base()
	p.Symbol = "OTHER"
	_, err = BuildIssuance(p)
	assert.ErrorIs(t, err, ErrInvalidParams)

	p = base()
	p.Protocol = "STAS-1"
	_, err = BuildIssuance(p)
	assert.ErrorIs(t, err, token.ErrUnknownProtocol)

	p = base()
	p.IssueData[0].Address = "not-an-address"
	_, err = BuildIssuance(p)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	p = base()
	p.IssueData = nil
	_, err = BuildIssuance(p)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = BuildIssuance(nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestBuildIssuance_Metadata(t *testing.T) {
	issuer, _ := generateTestKeyPair(t)
	_, alicePub := generateTestKeyPair(t)

	r := issueTokens(t, issuer, token.STAS50, false,
		IssueData{Address: testAddress(t, alicePub), Satoshis: 3, Data: []string{"serial-1"}},
		IssueData{Address: testAddress(t, alicePub), Satoshis: 4},
	)
	require.Len(t, r.Tx.Outputs, 2)

	md, err := token.ExtractMetadata(lockBytes(r.Tx, 0))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("serial-1")}, md)

	flag, ok := token.ExtractFlags(lockBytes(r.Tx, 1))
	require.True(t, ok)
	assert.Equal(t, token.FlagNotSplittable, flag)
}
