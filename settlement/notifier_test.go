package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestRaiseWakesAllWaiters(t *testing.T) {
	n := NewNotifier()

	const waiters = 5

	var group errgroup.Group
	for i := 0; i < waiters; i++ {
		group.Go(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return n.Wait(ctx)
		})
	}

	require.Eventually(t, func() bool {
		return n.waiters() == waiters
	}, 5*time.Second, time.Millisecond)

	n.Raise()

	require.NoError(t, group.Wait())
	assert.Zero(t, n.waiters())
}

func TestRaiseWithoutWaitersIsNotRemembered(t *testing.T) {
	n := NewNotifier()

	n.Raise()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := n.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubscribeObservesNextRaiseOnly(t *testing.T) {
	n := NewNotifier()

	before := n.Subscribe()
	n.Raise()
	after := n.Subscribe()

	select {
	case <-before:
	default:
		t.Fatalf("expected subscription before raise to be signalled")
	}

	select {
	case <-after:
		t.Fatalf("expected subscription after raise to stay pending")
	default:
	}

	n.Raise()

	assert.NoError(t, n.WaitOn(context.Background(), after))
}

func TestWaitHonorsCancellation(t *testing.T) {
	n := NewNotifier()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.Wait(ctx), context.Canceled)
}

func TestWaitOnSubscriptionTakenBeforeRaise(t *testing.T) {
	n := NewNotifier()

	signal := n.Subscribe()

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- n.WaitOn(ctx, signal)
	}()

	require.Eventually(t, func() bool {
		return n.waiters() == 1
	}, 5*time.Second, time.Millisecond)

	n.Raise()

	require.NoError(t, <-done)
	assert.Zero(t, n.waiters())
}
