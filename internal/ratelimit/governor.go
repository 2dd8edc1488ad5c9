// Package ratelimit tracks the API's primary hourly quota and gates requests
// that are certain to be rejected, converting a guaranteed failure into a
// bounded wait. Secondary (abuse) rate limits are handled at the transport
// layer and retried by the fetcher; this governor only models the primary
// quota advertised in response metadata.
package ratelimit

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/go-github/v84/github"
)

// State is a snapshot of the quota as last reported by the API.
type State struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
	Known     bool
}

// Governor serializes quota accounting across all in-flight fetches.
// BeforeRequest and AfterResponse each form a single critical section so two
// concurrent callers can never both observe the last remaining slot.
type Governor struct {
	mu    sync.Mutex
	state State

	logger *log.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewGovernor returns a Governor with no quota knowledge; until the first
// response is inspected it is a passthrough.
func NewGovernor(logger *log.Logger) *Governor {
	return &Governor{
		logger: logger,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BeforeRequest blocks until the quota window resets when the quota is known
// to be exhausted. The wait itself happens outside the lock so unrelated
// fetches are not blocked. Every caller that arrives before the reset waits
// out the same absolute deadline; once the window has passed, ResetAt is in
// the past and callers flow through until the next response inspection.
func (g *Governor) BeforeRequest(ctx context.Context) error {
	g.mu.Lock()
	var wait time.Duration
	if g.state.Known && g.state.Remaining == 0 {
		if d := g.state.ResetAt.Sub(g.now()); d > 0 {
			wait = d
		}
	}
	g.mu.Unlock()

	if wait == 0 {
		return nil
	}
	g.logger.Printf("rate limit exhausted, waiting %s for quota reset", wait.Round(time.Second))
	return g.sleep(ctx, wait)
}

// AfterResponse updates the quota from response metadata. A response without
// rate metadata leaves the state untouched.
func (g *Governor) AfterResponse(resp *github.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = State{
		Remaining: resp.Rate.Remaining,
		Limit:     resp.Rate.Limit,
		ResetAt:   resp.Rate.Reset.Time,
		Known:     true,
	}
}

// Snapshot returns the current quota state for logging.
func (g *Governor) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
