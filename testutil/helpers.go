package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/transcribot/component"
)

// DefaultWait bounds Eventually.
const DefaultWait = 3 * time.Second

// THelper wraps a testing.T with component and polling helpers.
type THelper struct {
	t       *testing.T
	ctx     context.Context
	timeout time.Duration
}

// T wraps t.
func T(t *testing.T) *THelper {
	return &THelper{t: t, ctx: context.Background(), timeout: DefaultWait}
}

// WithContext sets the context passed to Start and Stop.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// WithTimeout overrides the Eventually deadline and the Stop budget.
func (h *THelper) WithTimeout(d time.Duration) *THelper {
	h.timeout = d
	return h
}

// Setup starts c and stops it when the test ends.
func (h *THelper) Setup(c component.Component) {
	h.t.Helper()
	if err := c.Start(h.ctx); err != nil {
		h.t.Fatalf("failed to start component %s: %v", c.Name(), err)
	}
	h.t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(h.ctx, h.timeout)
		defer cancel()
		if err := c.Stop(ctx); err != nil {
			h.t.Errorf("failed to stop component %s: %v", c.Name(), err)
		}
	})
}

// Eventually polls cond until it holds or the deadline passes.
func (h *THelper) Eventually(what string, cond func() bool) {
	h.t.Helper()
	if !Poll(h.timeout, cond) {
		h.t.Fatalf("timed out waiting for %s", what)
	}
}

// Poll reports whether cond held before d elapsed.
func Poll(d time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(d)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}
