// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

type waitRecord struct {
	condition string
	met       bool
	samples   int
}

type recordingObserver struct {
	mu    sync.Mutex
	waits []waitRecord
	verbs []string
}

func (o *recordingObserver) ObserveInvocation(_, verb, _ string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.verbs = append(o.verbs, verb)
}

func (o *recordingObserver) ObserveWait(condition string, met bool, samples int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.waits = append(o.waits, waitRecord{condition, met, samples})
}

func (o *recordingObserver) last() waitRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.waits[len(o.waits)-1]
}

func TestWaitUntil_AlreadySatisfied(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name    string
		running *bool
		wait    func(*Controller) (bool, error)
	}{
		{"exists", ptr(false), func(c *Controller) (bool, error) { return c.WaitUntilExists(ctx, time.Second) }},
		{"running", ptr(true), func(c *Controller) (bool, error) { return c.WaitUntilRunning(ctx, time.Second) }},
		{"ready", ptr(true), func(c *Controller) (bool, error) { return c.WaitUntilReady(ctx, time.Second) }},
		{"removed", nil, func(c *Controller) (bool, error) { return c.WaitUntilRemoved(ctx, time.Second) }},
		{"stopped", ptr(false), func(c *Controller) (bool, error) { return c.WaitUntilStopped(ctx, time.Second) }},
		{"unready", ptr(false), func(c *Controller) (bool, error) { return c.WaitUntilUnready(ctx, time.Second) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			obs := &recordingObserver{}
			c, fe := newTestController(t, Config{Observer: obs})
			if tt.running != nil {
				fe.put("t1", *tt.running)
			}

			met, err := tt.wait(c)
			if err != nil || !met {
				t.Fatalf("wait = %v, %v; want true", met, err)
			}
			if rec := obs.last(); rec.samples != 1 || rec.condition != tt.name {
				t.Errorf("wait record = %+v, want a single %s sample", rec, tt.name)
			}
			if n := fe.mutatingCalls(); n != 0 {
				t.Errorf("wait issued %d mutating calls", n)
			}
		})
	}
}

func TestWaitUntil_SoftTimeout(t *testing.T) {
	t.Parallel()
	obs := &recordingObserver{}
	c, _ := newTestController(t, Config{Observer: obs, PollInterval: time.Millisecond})

	met, err := c.WaitUntilExists(context.Background(), 5*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitUntilExists() error = %v, want nil on timeout", err)
	}
	if met {
		t.Error("WaitUntilExists() = true for a container that never appears")
	}
	if rec := obs.last(); rec.samples != 6 {
		t.Errorf("samples = %d, want 6 (one initial sample plus five polls)", rec.samples)
	}
}

func TestWaitUntil_ObservesTransition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, fe := newTestController(t, Config{})

	go func() {
		time.Sleep(20 * time.Millisecond)
		fe.put("t1", true)
	}()

	met, err := c.WaitUntilReady(ctx, 2*time.Second)
	if err != nil || !met {
		t.Fatalf("WaitUntilReady() = %v, %v; want true", met, err)
	}
}

func TestWaitUntil_ContextCancelled(t *testing.T) {
	t.Parallel()
	c, _ := newTestController(t, Config{PollInterval: 50 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	met, err := c.WaitUntilRunning(ctx, time.Minute)
	if met || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitUntilRunning() = %v, %v; want false, context.DeadlineExceeded", met, err)
	}
}

func TestWaitFor_UnknownCondition(t *testing.T) {
	t.Parallel()
	c, _ := newTestController(t, Config{})

	if _, err := c.WaitFor(context.Background(), Condition("paused"), time.Second); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("WaitFor(paused) error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestWaitFor_DebugLog(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	c, fe := newTestController(t, Config{Logger: logger})
	fe.put("t1", true)

	if _, err := c.WaitUntilReady(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitUntilReady() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"wait finished", "condition=ready", "met=true", "samples=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q does not contain %q", out, want)
		}
	}
}

func TestWaitFor_QuietLoggerByDefault(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})
	c, _ := newTestController(t, Config{Logger: logger})

	if _, err := c.WaitUntilRemoved(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitUntilRemoved() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("info-level logger wrote %q", buf.String())
	}
}
