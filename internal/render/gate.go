package render

import "context"

// Gate bounds the number of concurrent document assemblies. Each render
// decodes every referenced image into an uncompressed bitmap, so peak memory
// scales with images-per-report times concurrent renders; the gate caps that
// product. It is purely a memory bound, not a correctness mechanism.
//
// Waiters queue on the channel's blocked-sender list, which the runtime
// services in FIFO order.
type Gate struct {
	slots chan struct{}
}

// NewGate creates a gate admitting at most n concurrent holders.
func NewGate(n int) *Gate {
	if n < 1 {
		n = 1
	}
	return &Gate{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot frees up or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot. Must pair with a successful Acquire.
func (g *Gate) Release() {
	<-g.slots
}

// InUse reports the number of currently held slots.
func (g *Gate) InUse() int {
	return len(g.slots)
}
