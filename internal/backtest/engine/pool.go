package engine

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Task is one unit of pool-scheduled work. It receives the Pool's shared
// context so it can check ctx.Done() at its own natural boundaries — this
// package never cancels a Task mid-bar, only between folds (SPEC_FULL.md
// §5's cooperative cancellation).
type Task func(ctx context.Context) error

// Pool runs a bounded number of Tasks concurrently, optionally throttled
// by a token-bucket rate limiter, grounded on
// internal/infrastructure/async/concurrency.go's WorkerPool/Task shape and
// internal/net/ratelimit/limiter.go's *rate.Limiter usage — generalized
// from a network-call throttle to a per-symbol dispatch throttle.
type Pool struct {
	sem     chan struct{}
	limiter *rate.Limiter
}

// NewPool builds a Pool admitting at most maxConcurrent Tasks at once. If
// ratePerSec is positive, dispatch of new Tasks is additionally limited to
// that many per second (burst 1); a non-positive ratePerSec disables the
// limiter entirely.
func NewPool(maxConcurrent int, ratePerSec float64) *Pool {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	p := &Pool{sem: make(chan struct{}, maxConcurrent)}
	if ratePerSec > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}
	return p
}

// Run dispatches every task, blocking the dispatch loop (never an
// in-flight task) on ctx cancellation or rate-limiter backpressure, and
// returns the first non-nil error any task produced once all tasks have
// finished. A cancelled ctx causes any task not yet dispatched to be
// skipped with ctx.Err() rather than started.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	results := make(chan error, len(tasks))
	var wg sync.WaitGroup

	for _, task := range tasks {
		select {
		case <-ctx.Done():
			results <- ctx.Err()
			continue
		default:
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				results <- err
				continue
			}
		}

		p.sem <- struct{}{}
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			defer func() { <-p.sem }()
			results <- t(ctx)
		}(task)
	}

	wg.Wait()
	close(results)

	var first error
	for err := range results {
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}
