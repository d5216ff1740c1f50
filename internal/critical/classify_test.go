package critical

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// fixedHessian returns the same matrix regardless of the query point.
type fixedHessian struct{ h *mat.SymDense }

func (f fixedHessian) Hessian(x []float64) *mat.SymDense { return f.h }

func symFromDiag(diag ...float64) *mat.SymDense {
	h := mat.NewSymDense(len(diag), nil)
	for i, v := range diag {
		h.SetSym(i, i, v)
	}
	return h
}

func TestClassifyDefiniteCases(t *testing.T) {
	cases := []struct {
		name string
		h    *mat.SymDense
		want Kind
	}{
		{"minimum", symFromDiag(2, 2), Minimum},
		{"maximum", symFromDiag(-1, -3), Maximum},
		{"saddle", symFromDiag(2, -2), Saddle},
		{"degenerate", symFromDiag(2, 1e-12), Degenerate},
		{"degenerate negative", symFromDiag(-2, 0), Degenerate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, eig, err := Classify([]float64{0, 0}, fixedHessian{tc.h}, 1e-8)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if kind != tc.want {
				t.Errorf("Kind = %s, want %s", kind, tc.want)
			}
			if len(eig) != 2 {
				t.Errorf("Expected 2 eigenvalues, got %v", eig)
			}
		})
	}
}

func TestClassifyUsesEigenvaluesNotDiagonal(t *testing.T) {
	// [[0, 1], [1, 0]] has eigenvalues ±1: a saddle despite the zero
	// diagonal.
	h := mat.NewSymDense(2, []float64{0, 1, 1, 0})
	kind, eig, err := Classify([]float64{0, 0}, fixedHessian{h}, 1e-8)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if kind != Saddle {
		t.Errorf("Kind = %s, want %s (eigenvalues %v)", kind, Saddle, eig)
	}
}

func TestClassifyEpsilonBand(t *testing.T) {
	h := symFromDiag(0.5, 2)

	// A generous epsilon swallows the smaller eigenvalue.
	kind, _, err := Classify([]float64{0, 0}, fixedHessian{h}, 1.0)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if kind != Degenerate {
		t.Errorf("Kind = %s, want %s", kind, Degenerate)
	}

	kind, _, err = Classify([]float64{0, 0}, fixedHessian{h}, 1e-8)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if kind != Minimum {
		t.Errorf("Kind = %s, want %s", kind, Minimum)
	}
}
