package network

import "context"

// MockBlockchainService is a test double for BlockchainService. A nil
// function field makes the corresponding method fail with ErrNotConfigured.
type MockBlockchainService struct {
	GetRawTxFn    func(ctx context.Context, txid string) ([]byte, error)
	GetUTXOFn     func(ctx context.Context, txid string, vout uint32) (*UTXO, error)
	BroadcastTxFn func(ctx context.Context, rawTxHex string) (string, error)
}

var _ BlockchainService = (*MockBlockchainService)(nil)

func (m *MockBlockchainService) GetRawTx(ctx context.Context, txid string) ([]byte, error) {
	if m.GetRawTxFn == nil {
		return nil, ErrNotConfigured
	}
	return m.GetRawTxFn(ctx, txid)
}
func (m *MockBlockchainService) GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error) {
	if m.GetUTXOFn == nil {
		return nil, ErrNotConfigured
	}
	return m.GetUTXOFn(ctx, txid, vout)
}
func (m *MockBlockchainService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	if m.BroadcastTxFn == nil {
		return "", ErrNotConfigured
	}
	return m.BroadcastTxFn(ctx, rawTxHex)
}
