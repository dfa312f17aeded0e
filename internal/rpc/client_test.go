package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcHandler implements a minimal chain node for both transports.
func rpcHandler(t *testing.T) func(req request) response {
	return func(req request) response {
		switch req.Method {
		case "chain_getFinalizedHead":
			assert.Empty(t, req.Params)
			return response{ID: req.ID, Result: json.RawMessage(`"0xdeadbeef"`)}

		case "state_getKeysPaged":
			require.Len(t, req.Params, 4)
			prefix, ok := req.Params[0].(string)
			require.True(t, ok, "prefix must always be a hex string")
			assert.True(t, strings.HasPrefix(prefix, "0x"))
			count, ok := req.Params[1].(float64)
			require.True(t, ok)
			assert.Equal(t, float64(2), count)

			if req.Params[2] == nil {
				return response{ID: req.ID, Result: json.RawMessage(`["0x01", "0x02"]`)}
			}
			start, _ := req.Params[2].(string)
			assert.Equal(t, "0x02", start)
			assert.Equal(t, "0xdeadbeef", req.Params[3])
			return response{ID: req.ID, Result: json.RawMessage(`["0x03"]`)}

		case "state_getStorage":
			require.Len(t, req.Params, 2)
			key, _ := req.Params[0].(string)
			switch key {
			case "0x01":
				return response{ID: req.ID, Result: json.RawMessage(`"0xaabb"`)}
			case "0x02":
				// Absent value.
				return response{ID: req.ID, Result: json.RawMessage(`null`)}
			default:
				return response{ID: req.ID, Error: &Error{Code: -32000, Message: "unknown key"}}
			}

		default:
			return response{ID: req.ID, Error: &Error{Code: -32601, Message: "method not found"}}
		}
	}
}

func newHTTPServer(t *testing.T) *httptest.Server {
	handle := rpcHandler(t)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(handle(req)))
	}))
}

func newWSServer(t *testing.T) *httptest.Server {
	handle := rpcHandler(t)
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			var req request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			// Unsolicited messages (subscriptions etc.) must be skipped by
			// the client.
			if err := conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "method": "chain_newHead", "params": []any{}}); err != nil {
				return
			}
			if err := conn.WriteJSON(handle(req)); err != nil {
				return
			}
		}
	}))
}

func exerciseClient(t *testing.T, c Client) {
	ctx := context.Background()

	head, err := c.FinalizedHead(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", head)

	keys, err := c.GetKeysPaged(ctx, []byte{}, 2, nil, "")
	require.NoError(t, err)
	require.Equal(t, [][]byte{{0x01}, {0x02}}, keys)

	keys, err = c.GetKeysPaged(ctx, []byte{}, 2, []byte{0x02}, head)
	require.NoError(t, err)
	require.Equal(t, [][]byte{{0x03}}, keys)

	value, err := c.GetStorage(ctx, []byte{0x01}, head)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb}, value)

	value, err = c.GetStorage(ctx, []byte{0x02}, head)
	require.NoError(t, err)
	assert.Nil(t, value, "absent value is nil, not an error")

	_, err = c.GetStorage(ctx, []byte{0xff}, head)
	require.Error(t, err)
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.Code)
}

func TestHTTPClient(t *testing.T) {
	srv := newHTTPServer(t)
	defer srv.Close()

	c, err := Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	defer c.Close()

	exerciseClient(t, c)
}

func TestWSClient(t *testing.T) {
	srv := newWSServer(t)
	defer srv.Close()

	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, err := Dial(context.Background(), endpoint)
	require.NoError(t, err)
	defer c.Close()

	exerciseClient(t, c)
}

func TestDialRejectsUnknownScheme(t *testing.T) {
	_, err := Dial(context.Background(), "ftp://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported endpoint scheme")
}

func TestDialWSFailure(t *testing.T) {
	// Nothing listens here; dialing must fail rather than defer the error.
	_, err := Dial(context.Background(), "ws://127.0.0.1:1")
	require.Error(t, err)
}
