package auth

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct{ calls int32 }

func (s *countingSweeper) Sweep() int {
	atomic.AddInt32(&s.calls, 1)
	return 1
}

func TestRunSweeper_stopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a, b := &countingSweeper{}, &countingSweeper{}

	done := make(chan struct{})
	go func() {
		RunSweeper(ctx, 5*time.Millisecond, a, b)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&a.calls) >= 2 && atomic.LoadInt32(&b.calls) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
	assert.Equal(t, atomic.LoadInt32(&a.calls), atomic.LoadInt32(&b.calls))
}
