package poll

import (
	"context"
	"errors"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepBlocks produces a new block on every NextBlock call.
type stepBlocks struct {
	height    uint64
	nextCalls int
	err       error
}

func (s *stepBlocks) BlockHeight(context.Context) (uint64, error) {
	return s.height, nil
}

func (s *stepBlocks) NextBlock(context.Context) (uint64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.nextCalls++
	s.height++
	return s.height, nil
}

func TestWaitUntilAmountChanged_ReturnsNewValue(t *testing.T) {
	blocks := &stepBlocks{height: 10}
	p := New(blocks, WithMaxAttempts(5))

	fetches := 0
	got, err := p.WaitUntilAmountChanged(context.Background(), math.NewInt(100), func(context.Context) (math.Int, error) {
		fetches++
		if fetches < 3 {
			return math.NewInt(100), nil
		}
		return math.NewInt(150), nil
	})

	require.NoError(t, err)
	assert.True(t, got.Equal(math.NewInt(150)))
	assert.Equal(t, 3, fetches)
	assert.Equal(t, fetches, blocks.nextCalls, "one fetch per block")
}

func TestWaitUntilAmountChanged_TimesOut(t *testing.T) {
	blocks := &stepBlocks{}
	p := New(blocks, WithMaxAttempts(4))

	fetches := 0
	_, err := p.WaitUntilAmountChanged(context.Background(), math.NewInt(7), func(context.Context) (math.Int, error) {
		fetches++
		return math.NewInt(7), nil
	})

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, 4, fetches)
	assert.Equal(t, 4, blocks.nextCalls)
}

func TestWaitUntilChanged_FetchErrorStops(t *testing.T) {
	p := New(&stepBlocks{}, WithMaxAttempts(4))
	boom := errors.New("boom")

	_, err := WaitUntilChanged(context.Background(), p, "a", func(context.Context) (string, error) {
		return "", boom
	}, func(a, b string) bool { return a == b })

	require.ErrorIs(t, err, boom)
	assert.False(t, IsTimeout(err))
}

func TestWaitUntilBlockHeight(t *testing.T) {
	t.Run("already reached returns without waiting", func(t *testing.T) {
		blocks := &stepBlocks{height: 50}
		h, err := New(blocks).WaitUntilBlockHeight(context.Background(), 40, 10)
		require.NoError(t, err)
		assert.Equal(t, uint64(50), h)
		assert.Zero(t, blocks.nextCalls)
	})

	t.Run("waits until target", func(t *testing.T) {
		blocks := &stepBlocks{height: 5}
		h, err := New(blocks).WaitUntilBlockHeight(context.Background(), 8, 10)
		require.NoError(t, err)
		assert.Equal(t, uint64(8), h)
		assert.Equal(t, 3, blocks.nextCalls)
	})

	t.Run("times out after max blocks", func(t *testing.T) {
		blocks := &stepBlocks{height: 1}
		_, err := New(blocks).WaitUntilBlockHeight(context.Background(), 100, 3)
		require.Error(t, err)
		assert.True(t, IsTimeout(err))
		assert.Equal(t, 3, blocks.nextCalls)
	})
}

func TestWaitForNBlocks(t *testing.T) {
	blocks := &stepBlocks{}
	require.NoError(t, New(blocks).WaitForNBlocks(context.Background(), 3))
	assert.Equal(t, 3, blocks.nextCalls)

	broken := &stepBlocks{err: context.Canceled}
	err := New(broken).WaitForNBlocks(context.Background(), 2)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWaitUntil(t *testing.T) {
	t.Run("true on first check", func(t *testing.T) {
		blocks := &stepBlocks{}
		err := New(blocks).WaitUntil(context.Background(), "phase", 5, func(context.Context) (bool, error) { return true, nil })
		require.NoError(t, err)
		assert.Zero(t, blocks.nextCalls)
	})

	t.Run("bounded", func(t *testing.T) {
		blocks := &stepBlocks{}
		err := New(blocks).WaitUntil(context.Background(), "phase", 2, func(context.Context) (bool, error) { return false, nil })
		require.Error(t, err)
		assert.True(t, IsTimeout(err))
		assert.Contains(t, err.Error(), "phase")
		assert.Equal(t, 2, blocks.nextCalls)
	})
}
