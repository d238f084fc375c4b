// Package resource bounds the load the cache layer may put on a remote
// store: a cap on in-flight requests and a byte-per-second budget for
// request and response payloads.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds remote request limits.
type Config struct {
	// MaxConcurrentRequests is the maximum number of in-flight remote
	// requests. If 0, defaults to 1.
	MaxConcurrentRequests int64

	// IOLimitBytesPerSec is the maximum payload throughput across all
	// requests. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller enforces the configured limits. A nil Controller enforces
// nothing; all methods are nil-safe.
type Controller struct {
	cfg Config

	reqSem   *semaphore.Weighted
	inFlight atomic.Int64

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = 1
	}

	c := &Controller{
		cfg:    cfg,
		reqSem: semaphore.NewWeighted(cfg.MaxConcurrentRequests),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireRequest reserves a request slot, blocking until one is available or
// ctx is canceled. Every successful acquire must be paired with
// ReleaseRequest.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.reqSem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.inFlight.Add(1)
	return nil
}

// TryAcquireRequest reserves a request slot without blocking.
func (c *Controller) TryAcquireRequest() bool {
	if c == nil {
		return true
	}
	if !c.reqSem.TryAcquire(1) {
		return false
	}
	c.inFlight.Add(1)
	return true
}

// ReleaseRequest releases a request slot.
func (c *Controller) ReleaseRequest() {
	if c == nil {
		return
	}
	c.reqSem.Release(1)
	c.inFlight.Add(-1)
}

// InFlight returns the number of requests currently holding a slot.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

// AcquireIO waits until the byte budget admits n more payload bytes, or ctx
// is canceled.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil || n <= 0 {
		return nil
	}
	// Requests larger than the burst are admitted in burst-sized slices;
	// WaitN rejects n > burst outright.
	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
