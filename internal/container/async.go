// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"time"
)

// Pending is the handle of an operation dispatched on its own goroutine.
// Failures are only observable through Wait.
type Pending struct {
	done chan struct{}
	err  error
}

func dispatch(fn func() error) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.err = fn()
	}()
	return p
}

// Done is closed when the operation has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the operation finishes and returns its error.
func (p *Pending) Wait() error {
	<-p.done
	return p.err
}

// StartAsync is Start dispatched on a goroutine.
func (c *Controller) StartAsync(ctx context.Context, interactive bool) *Pending {
	return dispatch(func() error {
		return c.Start(ctx, interactive)
	})
}

// RunAsync is Run dispatched on a goroutine. The command output is discarded.
func (c *Controller) RunAsync(ctx context.Context, command string) *Pending {
	return dispatch(func() error {
		_, err := c.Run(ctx, command)
		return err
	})
}

// RunArgsAsync is RunArgs dispatched on a goroutine. An empty argv runs the
// image's default command.
func (c *Controller) RunArgsAsync(ctx context.Context, argv []string) *Pending {
	return dispatch(func() error {
		_, err := c.RunArgs(ctx, argv)
		return err
	})
}

// StopAsync is Stop dispatched on a goroutine.
func (c *Controller) StopAsync(ctx context.Context, grace time.Duration) *Pending {
	return dispatch(func() error {
		return c.Stop(ctx, grace)
	})
}

// RemoveAsync is Remove dispatched on a goroutine.
func (c *Controller) RemoveAsync(ctx context.Context, force bool) *Pending {
	return dispatch(func() error {
		return c.Remove(ctx, force)
	})
}
