package network

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/gookit/slog"
	"go.etcd.io/bbolt"

	"github.com/bitfsorg/libstas-go/config"
)

var bucketRawTxs = []byte("raw_txs")

// TxCache persists raw transactions in bbolt, keyed by txid in internal
// byte order. Transactions are immutable, so entries never expire.
type TxCache struct {
	db *bbolt.DB
}

// OpenTxCache opens or creates the cache at dbPath. The parent directory is
// created if it does not exist.
func OpenTxCache(dbPath string) (*TxCache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("network: create cache directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("network: open tx cache: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRawTxs)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("network: create tx cache bucket: %w", err)
	}
	return &TxCache{db: db}, nil
}

// Close closes the underlying database.
func (c *TxCache) Close() error { return c.db.Close() }

func cacheKey(txid string) ([]byte, error) {
	h, err := chainhash.NewHashFromHex(txid)
	if err != nil {
		return nil, fmt.Errorf("%w: txid %q: %w", ErrInvalidResponse, txid, err)
	}
	return h.CloneBytes(), nil
}

// Put stores raw under its own txid and returns that txid. Storing the same
// transaction twice is a no-op.
func (c *TxCache) Put(raw []byte) (string, error) {
	t, err := transaction.NewTransactionFromBytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	id := t.TxID()
	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRawTxs).Put(id.CloneBytes(), raw)
	})
	if err != nil {
		return "", fmt.Errorf("network: put tx: %w", err)
	}
	return id.String(), nil
}

// Get returns the raw transaction for txid, or ErrTxNotFound.
func (c *TxCache) Get(txid string) ([]byte, error) {
	key, err := cacheKey(txid)
	if err != nil {
		return nil, err
	}
	var raw []byte
	err = c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketRawTxs).Get(key)
		if v == nil {
			return ErrTxNotFound
		}
		raw = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Len returns the number of cached transactions.
func (c *TxCache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketRawTxs).Stats().KeyN
		return nil
	})
	return n, err
}

// CachedService serves raw transactions from a TxCache before asking the
// wrapped service, and caches what it fetches and broadcasts. UTXO lookups
// always go to the wrapped service since spentness changes.
type CachedService struct {
	inner BlockchainService
	cache *TxCache
}

var _ BlockchainService = (*CachedService)(nil)

// NewCachedService wraps inner with cache.
func NewCachedService(inner BlockchainService, cache *TxCache) *CachedService {
	return &CachedService{inner: inner, cache: cache}
}

func (s *CachedService) GetRawTx(ctx context.Context, txid string) ([]byte, error) {
	if raw, err := s.cache.Get(txid); err == nil {
		return raw, nil
	}
	raw, err := s.inner.GetRawTx(ctx, txid)
	if err != nil {
		return nil, err
	}
	got, err := s.cache.Put(raw)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(got, txid) {
		return nil, fmt.Errorf("%w: node returned tx %s for %s", ErrInvalidResponse, got, txid)
	}
	slog.WithFields(slog.M{"txid": txid, "bytes": len(raw)}).Debug("tx cached")
	return raw, nil
}

func (s *CachedService) GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error) {
	return s.inner.GetUTXO(ctx, txid, vout)
}

// BroadcastTx submits rawTxHex and caches it once the node accepts it, so
// later merges and swaps of its outputs need no lookup.
func (s *CachedService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	txid, err := s.inner.BroadcastTx(ctx, rawTxHex)
	if err != nil {
		return "", err
	}
	raw, err := hex.DecodeString(rawTxHex)
	if err != nil {
		return txid, nil
	}
	if _, err := s.cache.Put(raw); err != nil {
		slog.WithFields(slog.M{"txid": txid, "error": err}).Warn("broadcast tx not cached")
	}
	return txid, nil
}

// Open returns the node client described by cfg, fronted by a TxCache when
// cfg.TxCachePath is set. The returned function releases the cache.
func Open(cfg config.Config) (BlockchainService, func() error, error) {
	rpc, err := ResolveConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	client := NewRPCClient(*rpc)
	if cfg.TxCachePath == "" {
		return client, func() error { return nil }, nil
	}
	cache, err := OpenTxCache(cfg.TxCachePath)
	if err != nil {
		return nil, nil, err
	}
	return NewCachedService(client, cache), cache.Close, nil
}
