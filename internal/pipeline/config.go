package pipeline

import (
	"fmt"
	"runtime"
	"time"

	"github.com/gescholt/globtim/internal/basis"
	"github.com/gescholt/globtim/internal/domain"
)

// Config is the full configuration surface the core consumes. Everything
// else (log routing, data directories, scheduling) belongs to the tooling
// around the core.
type Config struct {
	Dimension int       `json:"dimension"`
	Center    []float64 `json:"center"`
	Range     []float64 `json:"range"`

	Basis string `json:"basis"`
	GN    int    `json:"gn"`

	MinDegree  int     `json:"minDegree"`
	MaxDegree  int     `json:"maxDegree"`
	DegreeStep int     `json:"degreeStep"`
	Tolerance  float64 `json:"tolerance"`

	SparsifyThreshold float64 `json:"sparsifyThreshold"`
	ConditionBound    float64 `json:"conditionBound"`

	// EigenvalueEpsilon is the half-width of the band around zero inside
	// which a Hessian eigenvalue counts as degenerate. It has to cover the
	// eigenvalue error induced by the solver's positional slop, which for a
	// quartic surrogate reaches well above machine epsilon.
	EigenvalueEpsilon float64 `json:"eigenvalueEpsilon"`

	MaxSolverRetries int           `json:"maxSolverRetries"`
	SolverTimeout    time.Duration `json:"solverTimeout"`

	// SolverSeedsPerDim sizes the default Newton start grid when Run is
	// given no solver.
	SolverSeedsPerDim int `json:"solverSeedsPerDim"`

	// Workers bounds parallel objective evaluation and subdomain runs.
	// Zero means one worker per CPU.
	Workers int `json:"workers"`

	// Splits partitions the box Splits-ways per dimension before running;
	// zero or one disables decomposition.
	Splits int `json:"splits"`
}

// DefaultConfig returns the settings used by the CLI unless overridden.
func DefaultConfig() Config {
	return Config{
		Dimension:         2,
		Center:            []float64{0, 0},
		Range:             []float64{1},
		Basis:             string(basis.Chebyshev),
		GN:                20,
		MinDegree:         2,
		MaxDegree:         10,
		DegreeStep:        1,
		Tolerance:         1e-6,
		SparsifyThreshold: 1e-12,
		ConditionBound:    1e12,
		EigenvalueEpsilon: 1e-6,
		MaxSolverRetries:  2,
		SolverTimeout:     2 * time.Minute,
		SolverSeedsPerDim: 6,
	}
}

// Validate checks the configuration and returns the derived domain spec and
// basis family. Configuration problems are fatal and reported before any
// fitting work starts.
func (c *Config) Validate() (*domain.Spec, basis.Family, error) {
	spec, err := domain.NewSpec(c.Dimension, c.Center, c.Range)
	if err != nil {
		return nil, "", err
	}
	family, err := basis.ParseFamily(c.Basis)
	if err != nil {
		return nil, "", err
	}
	if c.GN <= 0 {
		return nil, "", &domain.ConstructionError{Field: "GN", Reason: fmt.Sprintf("is %d, must be positive", c.GN)}
	}
	if c.GN < c.MaxDegree+1 {
		return nil, "", &domain.ConstructionError{
			Field:  "GN",
			Reason: fmt.Sprintf("is %d, need at least %d nodes per dimension for maxDegree %d", c.GN, c.MaxDegree+1, c.MaxDegree),
		}
	}
	if c.MinDegree < 0 || c.MaxDegree < c.MinDegree {
		return nil, "", fmt.Errorf("invalid degree bounds [%d, %d]", c.MinDegree, c.MaxDegree)
	}
	if c.DegreeStep <= 0 {
		return nil, "", fmt.Errorf("degree step %d must be positive", c.DegreeStep)
	}
	if c.Tolerance < 0 {
		return nil, "", fmt.Errorf("tolerance %g must be non-negative", c.Tolerance)
	}
	if c.SparsifyThreshold < 0 {
		return nil, "", fmt.Errorf("sparsify threshold %g must be non-negative", c.SparsifyThreshold)
	}
	if c.EigenvalueEpsilon <= 0 {
		return nil, "", fmt.Errorf("eigenvalue epsilon %g must be positive", c.EigenvalueEpsilon)
	}
	if c.MaxSolverRetries < 0 {
		return nil, "", fmt.Errorf("max solver retries %d must be non-negative", c.MaxSolverRetries)
	}
	return spec, family, nil
}

// NodeScheme returns the grid scheme matching the basis: Gauss-Lobatto
// clustering for Chebyshev, uniform otherwise.
func (c *Config) NodeScheme() domain.NodeScheme {
	if basis.Family(c.Basis) == basis.Chebyshev {
		return domain.NodesChebyshev
	}
	return domain.NodesUniform
}

func (c *Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
