package draw

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopSerializes(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	var (
		wg      sync.WaitGroup
		running int
		maxSeen int
		count   int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop.Do(ctx, func() error {
				running++
				if running > maxSeen {
					maxSeen = running
				}
				count++
				running--
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, count)
	assert.Equal(t, 1, maxSeen)

	cancel()
	assert.NoError(t, <-done)
}

func TestLoopReturnsError(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	boom := errors.New("boom")
	assert.Equal(t, boom, loop.Do(ctx, func() error { return boom }))
}

func TestLoopDoCancelled(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := loop.Do(ctx, func() error {
		ran = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}
