package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/gescholt/globtim/internal/critical"
	"github.com/gescholt/globtim/internal/domain"
	"github.com/gescholt/globtim/internal/objective"
	"github.com/gescholt/globtim/internal/solver"
)

func testConfig(dim int, center, rng []float64) Config {
	cfg := DefaultConfig()
	cfg.Dimension = dim
	cfg.Center = center
	cfg.Range = rng
	return cfg
}

func mustLookup(t *testing.T, name string) objective.Function {
	t.Helper()
	f, err := objective.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%q) failed: %v", name, err)
	}
	return f
}

func hasWarning(warns []Warning, code WarningCode) bool {
	for _, w := range warns {
		if w.Code == code {
			return true
		}
	}
	return false
}

// TestRunDefaultSolverFromConfig passes no solver and relies on the pipeline
// building its Newton backend from SolverSeedsPerDim.
func TestRunDefaultSolverFromConfig(t *testing.T) {
	cfg := testConfig(2, []float64{0, 0}, []float64{1})
	cfg.GN = 8
	cfg.MinDegree = 2
	cfg.MaxDegree = 6
	cfg.Tolerance = 1e-8
	cfg.SolverSeedsPerDim = 4

	res, err := Run(context.Background(), cfg, mustLookup(t, "sphere"), nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Points) != 1 {
		t.Fatalf("Found %d critical points, want 1: %v", len(res.Points), res.Points)
	}
	if res.Points[0].Kind != critical.Minimum {
		t.Errorf("Kind = %s, want minimum", res.Points[0].Kind)
	}
}

func TestRunSphereSingleMinimum(t *testing.T) {
	cfg := testConfig(2, []float64{0, 0}, []float64{1})
	cfg.GN = 8
	cfg.MinDegree = 2
	cfg.MaxDegree = 6
	cfg.Tolerance = 1e-8

	res, err := Run(context.Background(), cfg, mustLookup(t, "sphere"), solver.NewNewtonGrid(6), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.RunID == "" {
		t.Error("Missing run ID")
	}
	if res.Approximant.Residual > cfg.Tolerance {
		t.Errorf("Residual %g above tolerance", res.Approximant.Residual)
	}
	if len(res.History) == 0 {
		t.Error("Missing fit history")
	}

	if len(res.Points) != 1 {
		t.Fatalf("Found %d critical points, want 1: %v", len(res.Points), res.Points)
	}
	pt := res.Points[0]
	if pt.Kind != critical.Minimum {
		t.Errorf("Kind = %s, want minimum", pt.Kind)
	}
	for d, v := range pt.Actual {
		if math.Abs(v) > 1e-6 {
			t.Errorf("Coordinate %d = %g, want 0", d, v)
		}
	}
	if math.Abs(pt.Value) > 1e-10 {
		t.Errorf("Value = %g, want 0", pt.Value)
	}
	for _, l := range pt.Eigenvalues {
		if math.Abs(l-2) > 1e-6 {
			t.Errorf("Eigenvalues = %v, want [2 2]", pt.Eigenvalues)
		}
	}
}

func TestRunFivePointRecoversAllFive(t *testing.T) {
	fn := mustLookup(t, "fivepoint")
	cfg := testConfig(2, fn.RefCenter, fn.RefRange)
	cfg.GN = 12
	cfg.MinDegree = 4
	cfg.MaxDegree = 8
	cfg.Tolerance = 1e-8

	res, err := Run(context.Background(), cfg, fn, solver.NewNewtonGrid(8), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Points) != 5 {
		t.Fatalf("Found %d critical points, want 5: %v", len(res.Points), res.Points)
	}

	counts := map[critical.Kind]int{}
	for _, pt := range res.Points {
		counts[pt.Kind]++

		// Every recovered point sits near one analytic stationary point.
		best := math.Inf(1)
		for _, sp := range fn.Stationary {
			d := 0.0
			for k := range sp.X {
				d = math.Max(d, math.Abs(sp.X[k]-pt.Actual[k]))
			}
			best = math.Min(best, d)
		}
		if best > 0.05 {
			t.Errorf("Point %v is %g away from every analytic point", pt.Actual, best)
		}
		if math.Abs(pt.RefDistance-best) > 1e-12 {
			t.Errorf("RefDistance = %g, want %g", pt.RefDistance, best)
		}
	}
	if counts[critical.Minimum] != 2 || counts[critical.Saddle] != 2 || counts[critical.Maximum] != 1 {
		t.Errorf("Kind counts = %v, want 2 minima, 2 saddles, 1 maximum", counts)
	}
}

func TestRunCompositeCountLaw(t *testing.T) {
	if testing.Short() {
		t.Skip("4-D run")
	}
	fn := mustLookup(t, "composite4d")
	cfg := testConfig(4, fn.RefCenter, fn.RefRange)
	cfg.GN = 6
	cfg.MinDegree = 4
	cfg.MaxDegree = 4
	cfg.Tolerance = 1e-8

	res, err := Run(context.Background(), cfg, fn, solver.NewNewtonGrid(5), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Points) != 9 {
		t.Fatalf("Found %d critical points, want 9", len(res.Points))
	}
	minima := 0
	for _, pt := range res.Points {
		if pt.Kind == critical.Minimum {
			minima++
		}
	}
	if minima != 4 {
		t.Errorf("Found %d minima, want 4", minima)
	}
}

func TestRunDegenerateHessianWarns(t *testing.T) {
	// x^4 + y^4 has a single stationary point with a zero Hessian; the
	// classifier must keep it as degenerate and warn rather than drop it.
	quartic := objective.Function{
		Name: "quartic-flat",
		Dim:  2,
		Eval: func(x []float64) float64 {
			return x[0]*x[0]*x[0]*x[0] + x[1]*x[1]*x[1]*x[1]
		},
	}
	cfg := testConfig(2, []float64{0, 0}, []float64{1})
	cfg.GN = 10
	cfg.MinDegree = 4
	cfg.MaxDegree = 6
	cfg.Tolerance = 1e-8

	res, err := Run(context.Background(), cfg, quartic, solver.NewNewtonGrid(6), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Points) == 0 {
		t.Fatal("No critical points recovered")
	}
	for _, pt := range res.Points {
		if pt.Kind != critical.Degenerate {
			t.Errorf("Kind = %s at %v, want degenerate", pt.Kind, pt.Actual)
		}
		for d, v := range pt.Actual {
			if math.Abs(v) > 1e-3 {
				t.Errorf("Coordinate %d = %g, want near 0", d, v)
			}
		}
	}
	if !hasWarning(res.Warnings, WarnClassificationAmbiguous) {
		t.Errorf("Missing %s warning, got %v", WarnClassificationAmbiguous, res.Warnings)
	}
}

func TestRunDegreeLimitWarns(t *testing.T) {
	// A transcendental objective cannot meet an absurd tolerance; the run
	// completes with the degree-limit warning and the best approximant.
	wavy := objective.Function{
		Name: "wavy",
		Eval: func(x []float64) float64 {
			return math.Sin(5*x[0]) * math.Cos(3*x[1])
		},
	}
	cfg := testConfig(2, []float64{0, 0}, []float64{1})
	cfg.GN = 8
	cfg.MinDegree = 2
	cfg.MaxDegree = 4
	cfg.Tolerance = 1e-14

	res, err := Run(context.Background(), cfg, wavy, solver.NewNewtonGrid(4), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !hasWarning(res.Warnings, WarnDegreeLimit) {
		t.Errorf("Missing %s warning, got %v", WarnDegreeLimit, res.Warnings)
	}
	if res.Approximant == nil {
		t.Error("Best approximant missing despite degree limit")
	}
}

func TestRunTraceReceivesEveryFit(t *testing.T) {
	cfg := testConfig(2, []float64{0, 0}, []float64{1})
	cfg.GN = 8
	cfg.MinDegree = 2
	cfg.MaxDegree = 6
	cfg.Tolerance = 1e-8

	var traced []FitRecord
	res, err := Run(context.Background(), cfg, mustLookup(t, "sphere"), solver.NewNewtonGrid(4), func(r FitRecord) {
		traced = append(traced, r)
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(traced) != len(res.History) {
		t.Errorf("Trace saw %d records, history has %d", len(traced), len(res.History))
	}
	for i, r := range traced {
		if r.Degree != res.History[i].Degree {
			t.Errorf("Trace record %d degree %d, history %d", i, r.Degree, res.History[i].Degree)
		}
	}
}

func TestRunRejectsDimensionMismatch(t *testing.T) {
	cfg := testConfig(3, []float64{0, 0, 0}, []float64{1})
	_, err := Run(context.Background(), cfg, mustLookup(t, "fivepoint"), solver.NewNewtonGrid(4), nil)
	if err == nil {
		t.Fatal("Expected dimension mismatch error")
	}
	var ce *domain.ConstructionError
	if !errors.As(err, &ce) {
		t.Errorf("Got %v, want ConstructionError", err)
	}
}

func TestRunRejectsSparseGrid(t *testing.T) {
	cfg := testConfig(2, []float64{0, 0}, []float64{1})
	cfg.GN = 4
	cfg.MaxDegree = 10
	_, err := Run(context.Background(), cfg, mustLookup(t, "sphere"), solver.NewNewtonGrid(4), nil)
	if err == nil {
		t.Fatal("Expected under-determined grid error")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig(2, []float64{0, 0}, []float64{1})
	cfg.GN = 12
	_, err := Run(ctx, cfg, mustLookup(t, "sphere"), solver.NewNewtonGrid(6), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Got %v, want context.Canceled", err)
	}
}

func TestObjectiveHessianChainRule(t *testing.T) {
	// On a box with range 2 the normalized Hessian picks up a factor 4.
	spec, err := domain.NewSpec(1, []float64{0}, []float64{2})
	if err != nil {
		t.Fatal(err)
	}
	src := &objectiveHessian{
		spec: spec,
		hess: func(x []float64) *mat.SymDense {
			h := mat.NewSymDense(1, nil)
			h.SetSym(0, 0, 2)
			return h
		},
	}
	h := src.Hessian([]float64{0})
	if got := h.At(0, 0); math.Abs(got-8) > 1e-15 {
		t.Errorf("Scaled Hessian = %g, want 8", got)
	}
}

func TestSampleObjectiveMatchesSerial(t *testing.T) {
	spec, _ := domain.NewSpec(2, []float64{0, 0}, []float64{1})
	grid, err := domain.NewGrid(spec, 10, domain.NodesChebyshev)
	if err != nil {
		t.Fatal(err)
	}
	fn := func(x []float64) float64 { return x[0]*x[0] - x[1] }

	parallel := sampleObjective(context.Background(), grid, fn, 8)
	for i, pt := range grid.Actual {
		if want := fn(pt); parallel[i] != want {
			t.Fatalf("Sample %d = %g, want %g", i, parallel[i], want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad dimension", func(c *Config) { c.Dimension = 0 }},
		{"bad basis", func(c *Config) { c.Basis = "hermite" }},
		{"zero gn", func(c *Config) { c.GN = 0 }},
		{"gn below degree", func(c *Config) { c.GN = 5; c.MaxDegree = 10 }},
		{"inverted degrees", func(c *Config) { c.MinDegree = 8; c.MaxDegree = 4 }},
		{"zero step", func(c *Config) { c.DegreeStep = 0 }},
		{"negative tolerance", func(c *Config) { c.Tolerance = -1 }},
		{"zero eigenvalue epsilon", func(c *Config) { c.EigenvalueEpsilon = 0 }},
		{"negative retries", func(c *Config) { c.MaxSolverRetries = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if _, _, err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	cfg := DefaultConfig()
	if _, _, err := cfg.Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}

func TestRunElapsedRecorded(t *testing.T) {
	cfg := testConfig(2, []float64{0, 0}, []float64{1})
	cfg.GN = 8
	cfg.MinDegree = 2
	cfg.MaxDegree = 4
	res, err := Run(context.Background(), cfg, mustLookup(t, "sphere"), solver.NewNewtonGrid(4), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Elapsed <= 0 || res.Elapsed > time.Minute {
		t.Errorf("Elapsed = %v", res.Elapsed)
	}
}
