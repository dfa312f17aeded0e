package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultHandshakeTimeout = 30 * time.Second

// wsCaller is a single-connection websocket transport. One request is in
// flight at a time; replies that do not match the pending request id
// (subscriptions, stale replies) are skipped.
type wsCaller struct {
	conn *websocket.Conn

	mu     sync.Mutex
	nextID uint64
}

func dialWS(ctx context.Context, endpoint string) (*wsCaller, error) {
	dialer := websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", endpoint, err)
	}
	return &wsCaller{conn: conn}, nil
}

func (w *wsCaller) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextID++
	id := w.nextID

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := w.conn.SetWriteDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if err := w.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	req := request{Version: "2.0", ID: id, Method: method, Params: params}
	if err := w.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("%s: write: %w", method, err)
	}

	for {
		var resp response
		if err := w.conn.ReadJSON(&resp); err != nil {
			return nil, fmt.Errorf("%s: read: %w", method, err)
		}
		if resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("%s: %w", method, resp.Error)
		}
		return resp.Result, nil
	}
}

func (w *wsCaller) Close() error {
	return w.conn.Close()
}
