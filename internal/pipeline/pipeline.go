// Package pipeline orchestrates the full surrogate run: grid sampling,
// degree escalation, gradient-system extraction, root solving, filtering,
// coordinate mapping and classification.
package pipeline

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/gescholt/globtim/internal/approx"
	"github.com/gescholt/globtim/internal/basis"
	"github.com/gescholt/globtim/internal/critical"
	"github.com/gescholt/globtim/internal/domain"
	"github.com/gescholt/globtim/internal/objective"
	"github.com/gescholt/globtim/internal/poly"
	"github.com/gescholt/globtim/internal/solver"
)

// FitRecord is one degree-escalation iteration, streamed to the run trace.
type FitRecord struct {
	Degree            int       `json:"degree"`
	Residual          float64   `json:"residual"`
	Condition         float64   `json:"condition"`
	CoeffsBeforePrune int       `json:"coeffsBeforePrune"`
	CoeffsAfterPrune  int       `json:"coeffsAfterPrune"`
	Elapsed           float64   `json:"elapsedSeconds"`
	Timestamp         time.Time `json:"timestamp"`
}

// Result is the output of one pipeline run: the terminal approximant, the
// classified critical-point set, the accumulated warnings, and the fit
// history.
type Result struct {
	RunID       string              `json:"runId"`
	Spec        *domain.Spec        `json:"spec"`
	Approximant *approx.Approximant `json:"approximant"`
	Points      []critical.Point    `json:"points"`
	Warnings    []Warning           `json:"warnings"`
	History     []FitRecord         `json:"history"`
	Elapsed     time.Duration       `json:"elapsed"`
}

// Trace receives fit records as the escalation loop produces them. May be
// nil.
type Trace func(FitRecord)

// Run executes the whole pipeline for one domain. A nil solver selects the
// default Newton backend sized by cfg.SolverSeedsPerDim. Construction-time
// problems (bad configuration) fail immediately; everything downstream of a
// built approximant degrades to warnings on the result.
func Run(ctx context.Context, cfg Config, fn objective.Function, slv solver.Solver, trace Trace) (*Result, error) {
	spec, family, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if slv == nil {
		slv = solver.NewNewtonGrid(cfg.SolverSeedsPerDim)
	}
	if fn.Dim != 0 && fn.Dim != cfg.Dimension {
		return nil, &domain.ConstructionError{
			Field:  "dimension",
			Reason: "objective " + fn.Name + " is fixed to another dimension",
		}
	}

	start := time.Now()
	res := &Result{RunID: uuid.New().String(), Spec: spec}

	slog.Info("Starting pipeline run",
		"run_id", res.RunID,
		"objective", fn.Name,
		"dimension", cfg.Dimension,
		"basis", cfg.Basis,
		"gn", cfg.GN,
	)

	// The grid depends only on (spec, GN, scheme), all fixed for the run,
	// so it is built once and the objective sampled once per grid point.
	grid, err := domain.NewGrid(spec, cfg.GN, cfg.NodeScheme())
	if err != nil {
		return nil, err
	}
	samples := sampleObjective(ctx, grid, fn.Eval, cfg.workers())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	best, err := escalate(cfg, grid, samples, family, res, trace)
	if err != nil {
		return nil, err
	}
	best.Sparsify(cfg.SparsifyThreshold)
	res.Approximant = best
	if best.IllConditioned {
		res.Warnings = append(res.Warnings, warningf(WarnIllConditioned,
			"condition number %.3g exceeds bound %.3g at degree %d", best.Condition, cfg.ConditionBound, best.Degree))
	}

	points, warns := extract(ctx, cfg, spec, fn, best, slv)
	res.Points = points
	res.Warnings = append(res.Warnings, warns...)
	res.Elapsed = time.Since(start)

	slog.Info("Pipeline run complete",
		"run_id", res.RunID,
		"degree", best.Degree,
		"residual", best.Residual,
		"points", len(res.Points),
		"warnings", len(res.Warnings),
		"elapsed", res.Elapsed,
	)
	return res, nil
}

// escalate drives the bounded degree loop and returns the best (lowest
// residual) approximant seen.
func escalate(cfg Config, grid *domain.Grid, samples []float64, family basis.Family, res *Result, trace Trace) (*approx.Approximant, error) {
	ctrl, err := approx.NewEscalationController(cfg.MinDegree, cfg.MaxDegree, cfg.DegreeStep, cfg.Tolerance)
	if err != nil {
		return nil, err
	}

	var best *approx.Approximant
	for !ctrl.Done() {
		itStart := time.Now()
		a, err := approx.Fit(grid, samples, family, ctrl.Degree(), cfg.ConditionBound)
		if err != nil {
			return nil, err
		}
		if best == nil || a.Residual < best.Residual {
			best = a
		}

		rec := FitRecord{
			Degree:            a.Degree,
			Residual:          a.Residual,
			Condition:         a.Condition,
			CoeffsBeforePrune: a.CoeffsBeforePrune,
			CoeffsAfterPrune:  a.CoeffsAfterPrune,
			Elapsed:           time.Since(itStart).Seconds(),
			Timestamp:         time.Now(),
		}
		res.History = append(res.History, rec)
		if trace != nil {
			trace(rec)
		}

		ctrl.Observe(a.Residual)
	}

	if ctrl.Terminal() == approx.LimitReached {
		res.Warnings = append(res.Warnings, warningf(WarnDegreeLimit,
			"residual %.3g above tolerance %.3g at maxDegree %d; returning best approximant",
			best.Residual, cfg.Tolerance, cfg.MaxDegree))
	}
	return best, nil
}

// extract converts the approximant to its gradient system, solves it, and
// filters, maps and classifies the surviving candidates.
func extract(ctx context.Context, cfg Config, spec *domain.Spec, fn objective.Function, a *approx.Approximant, slv solver.Solver) ([]critical.Point, []Warning) {
	var warns []Warning

	surrogate, err := poly.FromBasis(a.Basis, a.Indices, a.Coeffs)
	if err != nil {
		warns = append(warns, warningf(WarnSolverFailure, "gradient system construction failed: %v", err))
		return nil, warns
	}
	sys := poly.GradientSystem(surrogate)

	retry := &solver.RetrySolver{
		Primary:    slv,
		Alternates: []solver.Solver{solver.NewMayfly(8*cfg.Dimension, 200, 20, 1)},
		MaxRetries: cfg.MaxSolverRetries,
		Timeout:    cfg.SolverTimeout,
	}
	raw, err := retry.Solve(ctx, sys)
	if err != nil {
		// Degrade: no critical points recovered at this degree.
		warns = append(warns, warningf(WarnSolverFailure, "root solving failed after retries: %v", err))
		return nil, warns
	}

	fcfg := critical.DefaultFilterConfig()
	normalized := critical.Filter(raw, fcfg)

	hess := hessianSource(spec, fn, sys)
	points := make([]critical.Point, 0, len(normalized))
	for _, npt := range normalized {
		kind, eig, cerr := critical.Classify(npt, hess, cfg.EigenvalueEpsilon)
		if cerr != nil {
			warns = append(warns, warningf(WarnClassificationAmbiguous, "%v", cerr))
		} else if kind == critical.Degenerate {
			warns = append(warns, warningf(WarnClassificationAmbiguous,
				"near-singular Hessian at %v; point kept as degenerate", npt))
		}
		actual := spec.ToActual(npt)
		points = append(points, critical.Point{
			Normalized:  npt,
			Actual:      actual,
			Value:       fn.Eval(actual),
			Kind:        kind,
			Eigenvalues: eig,
			RefDistance: refDistance(fn, actual),
		})
	}
	return points, warns
}

// refDistance returns the max-norm distance from the recovered point to the
// nearest known stationary point, or zero when the objective has none listed.
func refDistance(fn objective.Function, actual domain.Actual) float64 {
	if len(fn.Stationary) == 0 {
		return 0
	}
	best := math.Inf(1)
	for _, sp := range fn.Stationary {
		d := 0.0
		for i := range sp.X {
			d = math.Max(d, math.Abs(sp.X[i]-actual[i]))
		}
		best = math.Min(best, d)
	}
	return best
}

// hessianSource prefers the objective's analytic Hessian (rescaled into
// normalized coordinates by the chain rule) and falls back to the surrogate.
func hessianSource(spec *domain.Spec, fn objective.Function, sys *poly.System) critical.HessianSource {
	if fn.Hess == nil {
		return sys
	}
	return &objectiveHessian{spec: spec, hess: fn.Hess}
}

type objectiveHessian struct {
	spec *domain.Spec
	hess func(x []float64) *mat.SymDense
}

// Hessian evaluates the objective Hessian at the actual-space image of the
// normalized point and applies the affine chain rule
// H_norm[i][j] = range_i · range_j · H_actual[i][j].
func (o *objectiveHessian) Hessian(x []float64) *mat.SymDense {
	actual := o.spec.ToActual(domain.Normalized(x))
	ha := o.hess(actual)
	n := o.spec.Dimension
	h := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			h.SetSym(i, j, o.spec.Range[i]*o.spec.Range[j]*ha.At(i, j))
		}
	}
	return h
}

// sampleObjective evaluates the objective at every grid point with a bounded
// worker pool. Evaluations are independent and side-effect-free, so there is
// no shared mutable state beyond the output slice slots.
func sampleObjective(ctx context.Context, grid *domain.Grid, fn objective.Func, workers int) []float64 {
	out := make([]float64, grid.Len())
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	chunk := (grid.Len() + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > grid.Len() {
			hi = grid.Len()
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if i%256 == 0 && ctx.Err() != nil {
					return
				}
				out[i] = fn([]float64(grid.Actual[i]))
			}
		}(lo, hi)
	}
	wg.Wait()
	return out
}
