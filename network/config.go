package network

import (
	"fmt"

	"github.com/bitfsorg/libstas-go/config"
)

// RPCConfig holds the connection parameters for a node's JSON-RPC interface.
type RPCConfig struct {
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// NetworkPresets holds fallback endpoints per network. Mainnet has none and
// must be configured explicitly.
var NetworkPresets = map[string]RPCConfig{
	"testnet": {URL: "http://localhost:18332"},
}

// ResolveConfig returns the RPC settings of cfg, falling back to the network
// preset when no URL is set.
func ResolveConfig(cfg config.Config) (*RPCConfig, error) {
	var out RPCConfig
	if preset, ok := NetworkPresets[cfg.Network]; ok {
		out = preset
	}
	if cfg.RPCURL != "" {
		out.URL = cfg.RPCURL
	}
	if cfg.RPCUser != "" {
		out.User = cfg.RPCUser
	}
	if cfg.RPCPassword != "" {
		out.Password = cfg.RPCPassword
	}
	if out.URL == "" {
		return nil, fmt.Errorf("%w: %s requires rpc_url (or %s_RPC_URL)", ErrNotConfigured, cfg.Network, config.EnvPrefix)
	}
	return &out, nil
}
