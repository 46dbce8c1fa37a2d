package agentrunner

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Group starts and awaits several Runners together, the way the
// teacher's own runtime phases agent startup in StartAgentsPhased: launch
// every Runner concurrently, then wait for each one to report
// IsRunning() before returning, bailing out early if the context is
// canceled or a Start call fails.
type Group struct {
	runners      []*Runner
	pollInterval time.Duration
}

// NewGroup builds a Group over the given runners. pollInterval controls
// how often StartAll polls IsRunning (set as each worker enters OnStart)
// or IsClosed while waiting for each worker; it defaults to 1ms if zero
// or negative.
func NewGroup(pollInterval time.Duration, runners ...*Runner) *Group {
	if pollInterval <= 0 {
		pollInterval = time.Millisecond
	}
	return &Group{runners: runners, pollInterval: pollInterval}
}

// StartAll starts every runner concurrently and waits for each to
// report IsRunning() == true, or for ctx to be done.
func (g *Group) StartAll(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)

	for _, r := range g.runners {
		r := r
		eg.Go(func() error {
			if err := r.Start(); err != nil {
				return err
			}
			return g.waitForRunning(egCtx, r)
		})
	}

	return eg.Wait()
}

func (g *Group) waitForRunning(ctx context.Context, r *Runner) error {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		if r.IsRunning() || r.IsClosed() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// CloseAll closes every runner in the group, collecting and returning
// the first non-nil error (after attempting every Close).
func (g *Group) CloseAll(timeout time.Duration) error {
	var first error
	for _, r := range g.runners {
		if err := r.Close(timeout); err != nil && first == nil {
			first = err
		}
	}
	return first
}
