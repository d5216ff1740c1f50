package pipeline

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gescholt/globtim/internal/critical"
	"github.com/gescholt/globtim/internal/domain"
	"github.com/gescholt/globtim/internal/objective"
	"github.com/gescholt/globtim/internal/solver"
)

// SubdomainResult pairs one cell's pipeline result with its label.
type SubdomainResult struct {
	Label  string  `json:"label"`
	Result *Result `json:"result"`
	Err    error   `json:"-"`
}

// DecomposedResult is the merged outcome of a decomposed run. Points carry
// the label of the one cell that owns them under the half-open assignment
// rule; points claimed by a cell but assigned elsewhere are dropped as
// cross-boundary duplicates, so each physical critical point appears once.
type DecomposedResult struct {
	RunID      string            `json:"runId"`
	Parent     *domain.Spec      `json:"parent"`
	Subdomains []SubdomainResult `json:"subdomains"`
	Points     []critical.Point  `json:"points"`
	Warnings   []Warning         `json:"warnings"`
	Elapsed    time.Duration     `json:"elapsed"`
}

// RunDecomposed partitions the box cfg.Splits-ways per dimension and runs the
// full pipeline per cell on a bounded worker pool. A nil solver selects the
// same default as Run. Cells are independent, so workers share nothing but
// the solver (stateless) and the objective (side-effect-free).
func RunDecomposed(ctx context.Context, cfg Config, fn objective.Function, slv solver.Solver) (*DecomposedResult, error) {
	parent, _, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	cells, err := domain.Partition(parent, cfg.Splits)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out := &DecomposedResult{
		RunID:      uuid.New().String(),
		Parent:     parent,
		Subdomains: make([]SubdomainResult, len(cells)),
	}

	workers := cfg.workers()
	if workers > len(cells) {
		workers = len(cells)
	}
	slog.Info("Starting decomposed run",
		"run_id", out.RunID,
		"cells", len(cells),
		"workers", workers,
	)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out.Subdomains[i] = runCell(ctx, cfg, fn, slv, cells[i])
			}
		}()
	}
	for i := range cells {
		select {
		case <-ctx.Done():
			// Stop handing out work; started cells finish on their own.
		case jobs <- i:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mergePoints(out, cells)
	out.Elapsed = time.Since(start)
	slog.Info("Decomposed run complete",
		"run_id", out.RunID,
		"points", len(out.Points),
		"warnings", len(out.Warnings),
		"elapsed", out.Elapsed,
	)
	return out, nil
}

func runCell(ctx context.Context, cfg Config, fn objective.Function, slv solver.Solver, cell domain.Subdomain) SubdomainResult {
	spec, err := cell.Spec()
	if err != nil {
		return SubdomainResult{Label: cell.Label, Err: err}
	}

	cellCfg := cfg
	cellCfg.Center = spec.Center
	cellCfg.Range = spec.Range
	cellCfg.Splits = 0

	res, err := Run(ctx, cellCfg, fn, slv, nil)
	if err != nil {
		slog.Warn("Subdomain run failed", "label", cell.Label, "error", err)
	}
	return SubdomainResult{Label: cell.Label, Result: res, Err: err}
}

// mergePoints collects per-cell points, keeps only those the assignment rule
// gives to the producing cell, deduplicates across cell boundaries, and sorts
// the merged set canonically. The ownership rule alone is not enough: solver
// jitter can scatter copies of a boundary point into different cells, each of
// which then legitimately owns its copy.
func mergePoints(out *DecomposedResult, cells []domain.Subdomain) {
	for i := range out.Subdomains {
		sub := &out.Subdomains[i]
		if sub.Err != nil {
			out.Warnings = append(out.Warnings, warningf(WarnSolverFailure,
				"subdomain %s failed: %v", sub.Label, sub.Err))
			continue
		}
		for _, w := range sub.Result.Warnings {
			w.Message = "subdomain " + sub.Label + ": " + w.Message
			out.Warnings = append(out.Warnings, w)
		}
		for _, pt := range sub.Result.Points {
			owner, ok := domain.Assign(pt.Actual, cells)
			if !ok {
				out.Warnings = append(out.Warnings, warningf(WarnUnassignedPoint,
					"point %v from subdomain %s lies outside every cell", pt.Actual, sub.Label))
				continue
			}
			if owner.Label != sub.Label {
				// Cross-boundary duplicate; the owning cell reports it.
				continue
			}
			pt.Subdomain = owner.Label
			out.Points = append(out.Points, pt)
		}
	}

	sort.Slice(out.Points, func(i, j int) bool {
		a, b := out.Points[i].Actual, out.Points[j].Actual
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	out.Points = dedupeMerged(out.Points, mergeEpsilon(out.Parent))
}

// mergeEpsilon scales the per-cell dedupe tolerance, stated in normalized
// coordinates, to the parent box's actual coordinates.
func mergeEpsilon(parent *domain.Spec) float64 {
	eps := critical.DefaultFilterConfig().DedupeEpsilon
	widest := 0.0
	for _, r := range parent.Range {
		widest = math.Max(widest, r)
	}
	return eps * widest
}

// dedupeMerged collapses points within eps (max-norm, transitive) of each
// other into the first representative in canonical order. Per-cell filtering
// already deduplicated within a cell; this pass catches copies of the same
// point reported by neighboring cells.
func dedupeMerged(pts []critical.Point, eps float64) []critical.Point {
	if len(pts) == 0 {
		return pts
	}
	used := make([]bool, len(pts))
	out := make([]critical.Point, 0, len(pts))
	for i := range pts {
		if used[i] {
			continue
		}
		used[i] = true
		cluster := []int{i}
		for grew := true; grew; {
			grew = false
			for j := i + 1; j < len(pts); j++ {
				if used[j] {
					continue
				}
				for _, m := range cluster {
					if actualDist(pts[m].Actual, pts[j].Actual) <= eps {
						cluster = append(cluster, j)
						used[j] = true
						grew = true
						break
					}
				}
			}
		}
		out = append(out, pts[i])
	}
	return out
}

func actualDist(a, b []float64) float64 {
	d := 0.0
	for k := range a {
		d = math.Max(d, math.Abs(a[k]-b[k]))
	}
	return d
}
