package critical

import (
	"log/slog"
	"math"
	"math/cmplx"
	"sort"

	"github.com/gescholt/globtim/internal/domain"
	"github.com/gescholt/globtim/internal/solver"
)

// FilterConfig parameterizes the reduction of a raw solution set to clean,
// real, in-box candidates.
type FilterConfig struct {
	// RealnessTolerance is the largest imaginary magnitude a coordinate may
	// carry and still count as real.
	RealnessTolerance float64

	// BoundaryTolerance admits points this far outside [-1,1]^n, so roots
	// sitting exactly on ±1 survive floating error; admitted points are
	// clamped onto the box.
	BoundaryTolerance float64

	// DedupeEpsilon merges solutions within this distance (max-norm) into
	// one representative, the cluster centroid.
	DedupeEpsilon float64
}

// DefaultFilterConfig returns the tolerances used by the pipeline unless
// overridden. DedupeEpsilon has to absorb the solver's positional slop: a
// Newton iteration on a quartic root stops once the gradient drops below its
// residual tolerance, which can leave distinct starts ~1e-5 apart around the
// same root.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		RealnessTolerance: 1e-8,
		BoundaryTolerance: 1e-6,
		DedupeEpsilon:     1e-4,
	}
}

// Filter reduces raw solver output to deduplicated real points in [-1,1]^n,
// sorted lexicographically by coordinate. External solvers may emit solutions
// in any order, so the canonical sort is what keeps downstream comparisons
// reproducible.
func Filter(raw []solver.Solution, cfg FilterConfig) []domain.Normalized {
	var reals []domain.Normalized
	dropped := struct{ complexN, outOfBox int }{}

	for _, sol := range raw {
		pt, ok := realize(sol, cfg.RealnessTolerance)
		if !ok {
			dropped.complexN++
			continue
		}
		if !clampIntoBox(pt, cfg.BoundaryTolerance) {
			dropped.outOfBox++
			continue
		}
		reals = append(reals, pt)
	}

	merged := dedupe(reals, cfg.DedupeEpsilon)
	sortLex(merged)

	slog.Debug("Filtered raw solutions",
		"raw", len(raw),
		"complex", dropped.complexN,
		"outOfBox", dropped.outOfBox,
		"merged", len(reals)-len(merged),
		"kept", len(merged),
	)
	return merged
}

func realize(sol solver.Solution, tol float64) (domain.Normalized, bool) {
	pt := make(domain.Normalized, len(sol))
	for i, c := range sol {
		if math.Abs(imag(c)) > tol || cmplx.IsNaN(c) {
			return nil, false
		}
		pt[i] = real(c)
	}
	return pt, true
}

func clampIntoBox(pt domain.Normalized, tol float64) bool {
	for i, v := range pt {
		if v < -1-tol || v > 1+tol {
			return false
		}
		pt[i] = math.Max(-1, math.Min(1, v))
	}
	return true
}

// dedupe clusters points transitively: a point joins a cluster when it lies
// within eps (max-norm) of any member, not only the seed, so a chain of
// solver copies spaced just under eps still collapses to one centroid. Input
// order independence comes from sorting first.
func dedupe(pts []domain.Normalized, eps float64) []domain.Normalized {
	if len(pts) == 0 {
		return nil
	}
	sortLex(pts)

	used := make([]bool, len(pts))
	var out []domain.Normalized
	for i := range pts {
		if used[i] {
			continue
		}
		cluster := []domain.Normalized{pts[i]}
		used[i] = true
		for grew := true; grew; {
			grew = false
			for j := i + 1; j < len(pts); j++ {
				if used[j] {
					continue
				}
				for _, m := range cluster {
					if maxDist(m, pts[j]) <= eps {
						cluster = append(cluster, pts[j])
						used[j] = true
						grew = true
						break
					}
				}
			}
		}
		out = append(out, centroid(cluster))
	}
	return out
}

func maxDist(a, b domain.Normalized) float64 {
	d := 0.0
	for i := range a {
		d = math.Max(d, math.Abs(a[i]-b[i]))
	}
	return d
}

func centroid(cluster []domain.Normalized) domain.Normalized {
	n := len(cluster[0])
	c := make(domain.Normalized, n)
	for _, p := range cluster {
		for i := 0; i < n; i++ {
			c[i] += p[i]
		}
	}
	for i := 0; i < n; i++ {
		c[i] /= float64(len(cluster))
	}
	return c
}

func sortLex(pts []domain.Normalized) {
	sort.Slice(pts, func(i, j int) bool {
		for k := range pts[i] {
			if pts[i][k] != pts[j][k] {
				return pts[i][k] < pts[j][k]
			}
		}
		return false
	})
}
