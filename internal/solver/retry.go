package solver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gescholt/globtim/internal/poly"
)

// RetrySolver wraps a primary backend with a timeout, a retry budget and a
// ladder of alternate strategies. On failure or timeout it walks the
// alternates; once every attempt is exhausted it surfaces the last error, and
// the caller degrades to an empty candidate set instead of aborting the run.
// A cancelled or timed-out solve never corrupts the system that triggered it:
// the system is read-only to backends.
type RetrySolver struct {
	Primary    Solver
	Alternates []Solver
	MaxRetries int
	Timeout    time.Duration
}

func (s *RetrySolver) Name() string { return "retry(" + s.Primary.Name() + ")" }

// Solve tries the primary backend, then the alternates, up to MaxRetries
// total attempts. Singular systems are not retried: no strategy can solve
// them.
func (s *RetrySolver) Solve(ctx context.Context, sys *poly.System) ([]Solution, error) {
	backends := append([]Solver{s.Primary}, s.Alternates...)
	attempts := s.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		backend := backends[attempt%len(backends)]

		start := time.Now()
		sols, err := solveWithTimeout(ctx, backend, sys, s.Timeout)
		if err == nil {
			slog.Info("Root solve succeeded",
				"backend", backend.Name(),
				"attempt", attempt,
				"solutions", len(sols),
				"elapsed", time.Since(start),
			)
			return sols, nil
		}

		var singular *SingularSystemError
		if errors.As(err, &singular) {
			return nil, err
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}

		lastErr = err
		slog.Warn("Root solve attempt failed",
			"backend", backend.Name(),
			"attempt", attempt,
			"error", err,
		)
	}
	return nil, lastErr
}
