// Package settlement signals inbound payment settlements to whoever is
// waiting for one.
package settlement

import (
	"context"
	"sync"
)

// Notifier is a broadcast signal without payload or history. Raise wakes
// every waiter that subscribed before the call; a Raise without waiters is
// lost.
type Notifier struct {
	mtx     sync.Mutex
	next    chan struct{}
	blocked int
}

func NewNotifier() *Notifier {
	return &Notifier{
		next: make(chan struct{}),
	}
}

// Subscribe returns a channel that is closed by the next Raise.
func (n *Notifier) Subscribe() <-chan struct{} {
	n.mtx.Lock()
	defer n.mtx.Unlock()

	return n.next
}

// Wait blocks until the next Raise or until ctx is done.
func (n *Notifier) Wait(ctx context.Context) error {
	return n.WaitOn(ctx, n.Subscribe())
}

// WaitOn blocks until a channel from Subscribe is closed or ctx is done.
func (n *Notifier) WaitOn(ctx context.Context, signal <-chan struct{}) error {
	n.mtx.Lock()
	n.blocked++
	n.mtx.Unlock()

	defer func() {
		n.mtx.Lock()
		n.blocked--
		n.mtx.Unlock()
	}()

	select {
	case <-signal:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) Raise() {
	n.mtx.Lock()
	defer n.mtx.Unlock()

	close(n.next)
	n.next = make(chan struct{})
}

// waiters returns the number of callers currently blocked in WaitOn. Tests
// use it to raise only once everyone waits.
func (n *Notifier) waiters() int {
	n.mtx.Lock()
	defer n.mtx.Unlock()

	return n.blocked
}
