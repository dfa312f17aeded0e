// Package rpc implements the JSON-RPC 2.0 client used to read chain state.
//
// Two transports are supported: websocket (ws, wss) and plain HTTP POST
// (http, https). Both exchange the same positional-parameter JSON bodies.
// Keys, values and block hashes travel as 0x-prefixed hex strings.
package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Client is a request/response channel to a chain node. Calls are issued
// one at a time; implementations are not required to support pipelining.
type Client interface {
	// FinalizedHead returns the hash of the latest finalized block.
	FinalizedHead(ctx context.Context) (string, error)

	// GetKeysPaged returns up to count storage keys under prefix, strictly
	// after startKey (nil to start from the beginning), read at block `at`
	// ("" for the node's best block).
	GetKeysPaged(ctx context.Context, prefix []byte, count uint32, startKey []byte, at string) ([][]byte, error)

	// GetStorage returns the value stored under key at block `at`. An
	// absent value is returned as nil with no error.
	GetStorage(ctx context.Context, key []byte, at string) ([]byte, error)

	Close() error
}

// Dial connects to endpoint, choosing the transport from the URI scheme.
func Dial(ctx context.Context, endpoint string) (Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	switch u.Scheme {
	case "ws", "wss":
		caller, err := dialWS(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		return &client{caller: caller}, nil
	case "http", "https":
		return &client{caller: newHTTPCaller(endpoint)}, nil
	default:
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}

// caller executes one JSON-RPC call and returns the raw result.
type caller interface {
	call(ctx context.Context, method string, params []any) (json.RawMessage, error)
	Close() error
}

type request struct {
	Version string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

// Error is a JSON-RPC error object returned by the node.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type client struct {
	caller caller
}

func (c *client) FinalizedHead(ctx context.Context) (string, error) {
	raw, err := c.caller.call(ctx, "chain_getFinalizedHead", []any{})
	if err != nil {
		return "", err
	}
	var head string
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", fmt.Errorf("chain_getFinalizedHead: decode result: %w", err)
	}
	return head, nil
}

func (c *client) GetKeysPaged(ctx context.Context, prefix []byte, count uint32, startKey []byte, at string) ([][]byte, error) {
	params := []any{encodeHex(prefix), count, bytesOrNull(startKey), stringOrNull(at)}
	raw, err := c.caller.call(ctx, "state_getKeysPaged", params)
	if err != nil {
		return nil, err
	}
	var hexKeys []string
	if err := json.Unmarshal(raw, &hexKeys); err != nil {
		return nil, fmt.Errorf("state_getKeysPaged: decode result: %w", err)
	}
	keys := make([][]byte, 0, len(hexKeys))
	for _, h := range hexKeys {
		key, err := decodeHex(h)
		if err != nil {
			return nil, fmt.Errorf("state_getKeysPaged: key %q: %w", h, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (c *client) GetStorage(ctx context.Context, key []byte, at string) ([]byte, error) {
	params := []any{encodeHex(key), stringOrNull(at)}
	raw, err := c.caller.call(ctx, "state_getStorage", params)
	if err != nil {
		return nil, err
	}
	// Null means no value under the key at this block.
	if string(raw) == "null" {
		return nil, nil
	}
	var h string
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("state_getStorage: decode result: %w", err)
	}
	value, err := decodeHex(h)
	if err != nil {
		return nil, fmt.Errorf("state_getStorage: value %q: %w", h, err)
	}
	return value, nil
}

func (c *client) Close() error {
	return c.caller.Close()
}

func encodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

// bytesOrNull hex-encodes b, or passes JSON null when b is nil so trailing
// optional parameters keep their positions.
func bytesOrNull(b []byte) any {
	if b == nil {
		return nil
	}
	return encodeHex(b)
}

func stringOrNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}
