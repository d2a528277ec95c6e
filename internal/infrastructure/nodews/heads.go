// Package nodews follows finalized heads over the node's websocket
// endpoint, giving the poller a push-based block source instead of
// polling sidecar.
package nodews

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/websocket"

	"github.com/b-harvest/gasp-e2e/internal/application/ports"
)

const (
	subscribeMethod = "chain_subscribeFinalizedHeads"
	writeTimeout    = 5 * time.Second
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcMessage struct {
	ID     *int            `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Params *struct {
		Result struct {
			Number string `json:"number"`
		} `json:"result"`
	} `json:"params"`
}

// Heads is a ports.BlockSource fed by a finalized head subscription.
type Heads struct {
	conn   *websocket.Conn
	logger log.Logger

	mu      sync.Mutex
	height  uint64
	err     error
	changed chan struct{}
	done    chan struct{}
}

// Ensure Heads implements ports.BlockSource.
var _ ports.BlockSource = (*Heads)(nil)

// Dial connects to endpoint and subscribes to finalized heads. The first
// head is awaited before returning.
func Dial(ctx context.Context, endpoint string, logger log.Logger) (*Heads, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	req := rpcRequest{JSONRPC: "2.0", ID: 1, Method: subscribeMethod, Params: []any{}}
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to heads: %w", err)
	}

	h := &Heads{
		conn:    conn,
		logger:  logger,
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go h.readLoop()

	if _, err := h.waitFor(ctx, 1); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func (h *Heads) readLoop() {
	defer close(h.done)
	for {
		var msg rpcMessage
		if err := h.conn.ReadJSON(&msg); err != nil {
			h.fail(err)
			return
		}
		if msg.Error != nil {
			h.fail(fmt.Errorf("subscription error %d: %s", msg.Error.Code, msg.Error.Message))
			return
		}
		if msg.Params == nil {
			continue
		}
		n, err := parseBlockNumber(msg.Params.Result.Number)
		if err != nil {
			h.logger.Warn("ignoring malformed head", "number", msg.Params.Result.Number, "err", err)
			continue
		}
		h.publish(n)
	}
}

func (h *Heads) publish(n uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= h.height {
		return
	}
	h.height = n
	close(h.changed)
	h.changed = make(chan struct{})
}

func (h *Heads) fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err == nil {
		h.err = err
	}
	close(h.changed)
	h.changed = make(chan struct{})
}

// waitFor blocks until a head of at least height has been published.
func (h *Heads) waitFor(ctx context.Context, height uint64) (uint64, error) {
	for {
		h.mu.Lock()
		current, err, changed := h.height, h.err, h.changed
		h.mu.Unlock()

		if current >= height {
			return current, nil
		}
		if err != nil {
			return 0, fmt.Errorf("head subscription closed: %w", err)
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-changed:
		}
	}
}

// BlockHeight returns the latest finalized head seen on the subscription.
func (h *Heads) BlockHeight(ctx context.Context) (uint64, error) {
	return h.waitFor(ctx, 1)
}

// NextBlock waits for a head above the one current when it is called.
// Heads published while the caller was busy elsewhere do not count.
func (h *Heads) NextBlock(ctx context.Context) (uint64, error) {
	h.mu.Lock()
	last := h.height
	h.mu.Unlock()
	return h.waitFor(ctx, last+1)
}

// Close ends the subscription.
func (h *Heads) Close() error {
	err := h.conn.Close()
	<-h.done
	return err
}

func parseBlockNumber(s string) (uint64, error) {
	if strings.HasPrefix(s, "0x") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// withHeads is a chain whose block observation comes from a head
// subscription.
type withHeads struct {
	ports.Chain
	heads *Heads
}

// Attach returns c with BlockHeight and NextBlock served by heads. Closing
// the result closes both.
func Attach(c ports.Chain, heads *Heads) ports.Chain {
	return &withHeads{Chain: c, heads: heads}
}

func (w *withHeads) BlockHeight(ctx context.Context) (uint64, error) {
	return w.heads.BlockHeight(ctx)
}

func (w *withHeads) NextBlock(ctx context.Context) (uint64, error) {
	return w.heads.NextBlock(ctx)
}

func (w *withHeads) Close() error {
	herr := w.heads.Close()
	if err := w.Chain.Close(); err != nil {
		return err
	}
	return herr
}
