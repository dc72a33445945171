// Package shutdown provides the process-wide cooperative cancellation
// signal every long-running component selects on.
package shutdown

import "context"

// Coordinator is the Go-native form of a global quitter: a context whose
// cancellation every suspended goroutine in the process observes. Components
// never invent their own shutdown channel; they derive a child context from
// the one handed to them at construction and select on its Done() channel
// alongside whatever else they're waiting for.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a Coordinator wrapping a fresh cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{ctx: ctx, cancel: cancel}
}

// Context returns the context components should derive their own from.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// Shutdown cancels the context, waking every goroutine selecting on it.
func (c *Coordinator) Shutdown() {
	c.cancel()
}

// Done reports whether shutdown has been requested.
func (c *Coordinator) Done() <-chan struct{} {
	return c.ctx.Done()
}
