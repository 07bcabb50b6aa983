package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gookit/slog"
)

// RPCClient talks JSON-RPC 1.0 to a node. It implements BlockchainService.
type RPCClient struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewRPCClient returns a client for cfg. Basic auth is sent when User is set.
func NewRPCClient(cfg RPCConfig) *RPCClient {
	return &RPCClient{
		url:  cfg.URL,
		user: cfg.User,
		pass: cfg.Password,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Call invokes method and decodes the result into result, which may be nil.
// Transport failures wrap ErrConnectionFailed and undecodable replies wrap
// ErrInvalidResponse. Node-side errors carry the node's code and message.
func (c *RPCClient) Call(ctx context.Context, method string, params []any, result any) error {
	if params == nil {
		params = []any{}
	}
	id := c.nextID.Add(1)
	body, err := json.Marshal(rpcRequest{JSONRPC: "1.0", ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("network: marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("network: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	slog.WithFields(slog.M{"method": method, "id": id}).Debug("rpc call")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Nodes answer RPC errors with HTTP 500 and a JSON body, so decode
	// before looking at the status.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrConnectionFailed, err)
	}
	var out rpcResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, truncate(raw, 256))
		}
		return fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, err)
	}
	if out.Error != nil {
		return fmt.Errorf("network: rpc error %d: %s", out.Error.Code, out.Error.Message)
	}
	if out.ID != id {
		return fmt.Errorf("%w: response id %d, want %d", ErrInvalidResponse, out.ID, id)
	}

	if result != nil && out.Result != nil {
		if err := json.Unmarshal(out.Result, result); err != nil {
			return fmt.Errorf("%w: unmarshal result: %w", ErrInvalidResponse, err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
