// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"time"
)

// Condition names a state a wait primitive can wait for.
type Condition string

const (
	ConditionExists  Condition = "exists"
	ConditionRunning Condition = "running"
	ConditionReady   Condition = "ready"
	ConditionRemoved Condition = "removed"
	ConditionStopped Condition = "stopped"
	ConditionUnready Condition = "unready"
)

// Conditions lists every supported wait condition.
var Conditions = []Condition{
	ConditionExists, ConditionRunning, ConditionReady,
	ConditionRemoved, ConditionStopped, ConditionUnready,
}

// WaitUntilExists waits until the container exists.
func (c *Controller) WaitUntilExists(ctx context.Context, maxWait time.Duration) (bool, error) {
	return c.WaitFor(ctx, ConditionExists, maxWait)
}

// WaitUntilRunning waits until the container is running.
func (c *Controller) WaitUntilRunning(ctx context.Context, maxWait time.Duration) (bool, error) {
	return c.WaitFor(ctx, ConditionRunning, maxWait)
}

// WaitUntilReady waits until the container exists and is running.
func (c *Controller) WaitUntilReady(ctx context.Context, maxWait time.Duration) (bool, error) {
	return c.WaitFor(ctx, ConditionReady, maxWait)
}

// WaitUntilRemoved waits until the container no longer exists.
func (c *Controller) WaitUntilRemoved(ctx context.Context, maxWait time.Duration) (bool, error) {
	return c.WaitFor(ctx, ConditionRemoved, maxWait)
}

// WaitUntilStopped waits until the container exists but is not running.
func (c *Controller) WaitUntilStopped(ctx context.Context, maxWait time.Duration) (bool, error) {
	return c.WaitFor(ctx, ConditionStopped, maxWait)
}

// WaitUntilUnready waits until the container is not both existing and running.
func (c *Controller) WaitUntilUnready(ctx context.Context, maxWait time.Duration) (bool, error) {
	return c.WaitFor(ctx, ConditionUnready, maxWait)
}

// WaitFor samples the predicate for cond every poll interval until it holds or
// maxWait elapses (DefaultMaxWait when maxWait <= 0). A timeout is not an error:
// it returns false and the caller re-checks state. Predicate errors and context
// cancellation end the wait early.
func (c *Controller) WaitFor(ctx context.Context, cond Condition, maxWait time.Duration) (bool, error) {
	pred, err := c.predicate(cond)
	if err != nil {
		return false, err
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	limit := int(maxWait / c.pollInterval)

	start := time.Now()
	samples := 1
	met, err := pred(ctx)
	for sleeps := 0; err == nil && !met && sleeps < limit; sleeps++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(c.pollInterval):
			met, err = pred(ctx)
			samples++
		}
	}
	elapsed := time.Since(start)

	c.observer.ObserveWait(string(cond), met, samples, elapsed)
	c.logger.Debug("wait finished",
		"container", c.name,
		"condition", string(cond),
		"met", met,
		"samples", samples,
		"elapsed", elapsed.Round(time.Millisecond))
	if err != nil {
		return false, err
	}
	return met, nil
}

func (c *Controller) predicate(cond Condition) (func(context.Context) (bool, error), error) {
	not := func(pred func(context.Context) (bool, error)) func(context.Context) (bool, error) {
		return func(ctx context.Context) (bool, error) {
			ok, err := pred(ctx)
			return !ok, err
		}
	}

	switch cond {
	case ConditionExists:
		return c.Exists, nil
	case ConditionRunning:
		return c.Running, nil
	case ConditionReady:
		return c.Ready, nil
	case ConditionRemoved:
		return not(c.Exists), nil
	case ConditionStopped:
		return func(ctx context.Context) (bool, error) {
			state, err := c.State(ctx)
			return state == StateExists, err
		}, nil
	case ConditionUnready:
		return not(c.Ready), nil
	default:
		return nil, &ConfigError{Field: "condition", Value: string(cond), Reason: "unknown wait condition"}
	}
}
