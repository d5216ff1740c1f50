package approx

import (
	"fmt"
	"log/slog"
)

// Transition is the controller's verdict after observing a fit residual.
type Transition int

const (
	// Escalate means the residual is above tolerance and the degree was
	// incremented; refit and observe again.
	Escalate Transition = iota

	// Converged means the residual met the tolerance; terminal success.
	Converged

	// LimitReached means the degree cap was hit without convergence;
	// terminal soft failure, the caller keeps the best approximant seen.
	LimitReached
)

func (t Transition) String() string {
	switch t {
	case Escalate:
		return "escalate"
	case Converged:
		return "converged"
	case LimitReached:
		return "degree-limit-reached"
	}
	return "unknown"
}

// EscalationController drives repeated fitting at increasing degree. It is a
// small bounded state machine: state is the current degree in
// [minDegree, maxDegree], and every observation either terminates or steps
// the degree by a fixed increment. Termination is guaranteed regardless of
// how the residual behaves.
type EscalationController struct {
	minDegree int
	maxDegree int
	step      int
	tolerance float64

	degree   int
	done     bool
	terminal Transition
}

// NewEscalationController validates the degree bounds and returns a
// controller positioned at minDegree.
func NewEscalationController(minDegree, maxDegree, step int, tolerance float64) (*EscalationController, error) {
	if minDegree < 0 {
		return nil, fmt.Errorf("minDegree %d must be non-negative", minDegree)
	}
	if maxDegree < minDegree {
		return nil, fmt.Errorf("maxDegree %d must be >= minDegree %d", maxDegree, minDegree)
	}
	if step <= 0 {
		return nil, fmt.Errorf("degree step %d must be positive", step)
	}
	if tolerance < 0 {
		return nil, fmt.Errorf("tolerance %g must be non-negative", tolerance)
	}
	return &EscalationController{
		minDegree: minDegree,
		maxDegree: maxDegree,
		step:      step,
		tolerance: tolerance,
		degree:    minDegree,
	}, nil
}

// Degree returns the degree to fit next.
func (c *EscalationController) Degree() int { return c.degree }

// Done reports whether a terminal state was reached.
func (c *EscalationController) Done() bool { return c.done }

// Terminal returns the terminal transition once Done is true.
func (c *EscalationController) Terminal() Transition { return c.terminal }

// Observe feeds the residual of the fit at the current degree into the state
// machine and returns the transition taken.
func (c *EscalationController) Observe(residual float64) Transition {
	if c.done {
		return c.terminal
	}
	if residual <= c.tolerance {
		c.done = true
		c.terminal = Converged
		slog.Info("Degree escalation converged",
			"degree", c.degree,
			"residual", residual,
			"tolerance", c.tolerance,
		)
		return Converged
	}
	if c.degree >= c.maxDegree {
		c.done = true
		c.terminal = LimitReached
		slog.Warn("Degree cap reached without convergence",
			"maxDegree", c.maxDegree,
			"residual", residual,
			"tolerance", c.tolerance,
		)
		return LimitReached
	}
	c.degree += c.step
	if c.degree > c.maxDegree {
		c.degree = c.maxDegree
	}
	slog.Debug("Escalating degree", "degree", c.degree, "residual", residual)
	return Escalate
}
