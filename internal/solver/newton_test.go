package solver

import (
	"context"
	"errors"
	"math"
	"math/big"
	"sort"
	"testing"

	"github.com/gescholt/globtim/internal/poly"
)

// quadratic builds p = Σ x_i^2, whose gradient vanishes only at the origin.
func quadratic(n int) *poly.System {
	p := poly.New(n)
	exps := make([]int, n)
	for d := 0; d < n; d++ {
		for i := range exps {
			exps[i] = 0
		}
		exps[d] = 2
		p.AddTerm(big.NewRat(1, 1), exps)
	}
	return poly.GradientSystem(p)
}

// doubleWell builds p = x^4/4 - x^2/2 in one variable; the gradient
// x^3 - x has roots -1, 0, 1.
func doubleWell() *poly.System {
	p := poly.New(1)
	p.AddTerm(big.NewRat(1, 4), []int{4})
	p.AddTerm(big.NewRat(-1, 2), []int{2})
	return poly.GradientSystem(p)
}

func realRoots(t *testing.T, sols []Solution) [][]float64 {
	t.Helper()
	out := make([][]float64, 0, len(sols))
	for _, s := range sols {
		out = append(out, s.Real())
	}
	return out
}

func TestNewtonFindsOrigin(t *testing.T) {
	slv := NewNewtonGrid(4)
	sols, err := slv.Solve(context.Background(), quadratic(2))
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	for _, root := range realRoots(t, sols) {
		for _, v := range root {
			if math.Abs(v) > 1e-8 {
				t.Errorf("Root %v is not the origin", root)
			}
		}
	}
}

func TestNewtonFindsAllDoubleWellRoots(t *testing.T) {
	slv := NewNewtonGrid(8)
	sols, err := slv.Solve(context.Background(), doubleWell())
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	// Collect distinct roots.
	var roots []float64
	for _, s := range sols {
		v := real(s[0])
		found := false
		for _, r := range roots {
			if math.Abs(r-v) < 1e-6 {
				found = true
				break
			}
		}
		if !found {
			roots = append(roots, v)
		}
	}
	sort.Float64s(roots)

	want := []float64{-1, 0, 1}
	if len(roots) != len(want) {
		t.Fatalf("Found roots %v, want %v", roots, want)
	}
	for i, w := range want {
		if math.Abs(roots[i]-w) > 1e-8 {
			t.Errorf("Root %d = %g, want %g", i, roots[i], w)
		}
	}
}

func TestNewtonDeterministic(t *testing.T) {
	slv := NewNewtonGrid(6)
	a, err := slv.Solve(context.Background(), doubleWell())
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	b, err := slv.Solve(context.Background(), doubleWell())
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("Solution counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i][0] != b[i][0] {
			t.Errorf("Solution %d differs between runs", i)
		}
	}
}

func TestNewtonRejectsSingularSystem(t *testing.T) {
	// A constant surrogate has an identically zero gradient.
	sys := poly.GradientSystem(poly.NewConstant(2, big.NewRat(5, 1)))
	slv := NewNewtonGrid(4)
	_, err := slv.Solve(context.Background(), sys)
	if err == nil {
		t.Fatal("Expected singular system error")
	}
	var singular *SingularSystemError
	if !errors.As(err, &singular) {
		t.Errorf("Got %v, want SingularSystemError", err)
	}
}

func TestNewtonHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slv := NewNewtonGrid(20)
	_, err := slv.Solve(ctx, quadratic(3))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Got %v, want context.Canceled", err)
	}
}

func TestPolishConvergesNearRoot(t *testing.T) {
	sys := doubleWell()
	root, ok := Polish(sys, []float64{0.9})
	if !ok {
		t.Fatal("Polish did not converge")
	}
	if math.Abs(root[0]-1) > 1e-10 {
		t.Errorf("Polished root %g, want 1", root[0])
	}
}
