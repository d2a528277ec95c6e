package nodews

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b-harvest/gasp-e2e/internal/application/poll"
)

func headNotification(n uint64) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","method":"chain_finalizedHead","params":{"subscription":"s1","result":{"number":"0x%x","parentHash":"0x00"}}}`, n)
}

// startNode serves a head subscription that publishes first, then every
// height sent on next.
func startNode(t *testing.T, first uint64, next <-chan uint64) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req rpcRequest
		if err := conn.ReadJSON(&req); err != nil || req.Method != subscribeMethod {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":1,"result":"s1"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(headNotification(first)))
		for n := range next {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(headNotification(n))); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHeads_FollowsSubscription(t *testing.T) {
	next := make(chan uint64, 4)
	defer close(next)
	endpoint := startNode(t, 16, next)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	heads, err := Dial(ctx, endpoint, nil)
	require.NoError(t, err)
	defer heads.Close()

	h, err := heads.BlockHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), h)

	next <- 16 // duplicates are ignored
	next <- 17
	n, err := heads.waitFor(ctx, 17)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), n)
}

func TestHeads_NextBlockWaitsForFreshHead(t *testing.T) {
	next := make(chan uint64, 4)
	endpoint := startNode(t, 10, next)

	heads, err := Dial(context.Background(), endpoint, nil)
	require.NoError(t, err)
	defer heads.Close()

	// Heads arrive while nobody is asking for blocks.
	next <- 11
	next <- 12
	next <- 13
	_, err = heads.waitFor(context.Background(), 13)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = poll.New(heads).WaitForNBlocks(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	done := make(chan uint64, 1)
	go func() {
		n, _ := heads.NextBlock(context.Background())
		done <- n
	}()
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for h := uint64(14); ; h++ {
		select {
		case n := <-done:
			close(next)
			assert.Greater(t, n, uint64(13))
			return
		case <-ticker.C:
			next <- h
		}
	}
}

func TestHeads_NextBlockHonoursContext(t *testing.T) {
	next := make(chan uint64)
	defer close(next)
	endpoint := startNode(t, 5, next)

	heads, err := Dial(context.Background(), endpoint, nil)
	require.NoError(t, err)
	defer heads.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = heads.NextBlock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDial_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1", nil)
	assert.Error(t, err)
}

func TestParseBlockNumber(t *testing.T) {
	n, err := parseBlockNumber("0x1a")
	require.NoError(t, err)
	assert.Equal(t, uint64(26), n)

	n, err = parseBlockNumber("42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), n)

	_, err = parseBlockNumber("0xzz")
	assert.Error(t, err)
}
