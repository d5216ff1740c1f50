package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gescholt/globtim/internal/critical"
	"github.com/gescholt/globtim/internal/objective"
	"github.com/gescholt/globtim/internal/pipeline"
	"github.com/gescholt/globtim/internal/store"
)

var (
	funcName    string
	dimension   int
	center      []float64
	boxRange    []float64
	basisName   string
	gridGN      int
	minDegree   int
	maxDegree   int
	tolerance   float64
	sparsify    float64
	condBound   float64
	eigEpsilon  float64
	maxRetries  int
	solverLimit time.Duration
	seedsPerDim int
	workers     int
	splits      int
	dataDir     string
	saveRun     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fit a surrogate and extract its critical points",
	Long: `Runs the full pipeline for a registered objective: adaptive
least-squares surrogate construction with degree escalation, gradient-system
solving, root filtering and Hessian classification.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&funcName, "func", "sphere", "Objective name (see 'globtim run --help' for registry)")
	runCmd.Flags().IntVar(&dimension, "dim", 2, "Problem dimension")
	runCmd.Flags().Float64SliceVar(&center, "center", []float64{0, 0}, "Domain center")
	runCmd.Flags().Float64SliceVar(&boxRange, "range", []float64{1}, "Domain half-width per dimension (single value broadcasts)")
	runCmd.Flags().StringVar(&basisName, "basis", "chebyshev", "Basis family: chebyshev, legendre")
	runCmd.Flags().IntVar(&gridGN, "gn", 20, "Grid nodes per dimension")
	runCmd.Flags().IntVar(&minDegree, "min-degree", 2, "Starting surrogate degree")
	runCmd.Flags().IntVar(&maxDegree, "max-degree", 10, "Degree cap for escalation")
	runCmd.Flags().Float64Var(&tolerance, "tol", 1e-6, "RMS residual tolerance")
	runCmd.Flags().Float64Var(&sparsify, "sparsify", 1e-12, "Coefficient pruning threshold")
	runCmd.Flags().Float64Var(&condBound, "cond-bound", 1e12, "Condition number warning bound")
	runCmd.Flags().Float64Var(&eigEpsilon, "eig-eps", 1e-6, "Hessian eigenvalue epsilon for classification")
	runCmd.Flags().IntVar(&maxRetries, "retries", 2, "Root-solver retry budget")
	runCmd.Flags().DurationVar(&solverLimit, "solver-timeout", 2*time.Minute, "Per-attempt root-solver timeout")
	runCmd.Flags().IntVar(&seedsPerDim, "seeds", 6, "Newton seed grid density per dimension")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Worker count (0 = NumCPU)")
	runCmd.Flags().IntVar(&splits, "split", 0, "Subdomain splits per dimension (0 = no decomposition)")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Base directory for run storage")
	runCmd.Flags().BoolVar(&saveRun, "save", false, "Persist the run record and trace")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	fn, err := objective.Lookup(funcName)
	if err != nil {
		return err
	}
	if fn.Dim != 0 {
		dimension = fn.Dim
	}

	cfg := pipeline.Config{
		Dimension:         dimension,
		Center:            center,
		Range:             boxRange,
		Basis:             basisName,
		GN:                gridGN,
		MinDegree:         minDegree,
		MaxDegree:         maxDegree,
		DegreeStep:        1,
		Tolerance:         tolerance,
		SparsifyThreshold: sparsify,
		ConditionBound:    condBound,
		EigenvalueEpsilon: eigEpsilon,
		MaxSolverRetries:  maxRetries,
		SolverTimeout:     solverLimit,
		SolverSeedsPerDim: seedsPerDim,
		Workers:           workers,
		Splits:            splits,
	}

	ctx := cmd.Context()
	start := time.Now()

	// A nil solver lets the pipeline build its Newton backend from
	// SolverSeedsPerDim, so the --seeds flag reaches it through the config.
	if splits > 1 {
		res, err := pipeline.RunDecomposed(ctx, cfg, fn, nil)
		if err != nil {
			return fmt.Errorf("decomposed run failed: %w", err)
		}
		printPoints(res.Points, res.Warnings)
		fmt.Printf("Recovered %d critical points across %d subdomains in %s\n",
			len(res.Points), len(res.Subdomains), time.Since(start).Round(time.Millisecond))
		return nil
	}

	res, err := pipeline.Run(ctx, cfg, fn, nil, nil)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if saveRun {
		if err := persistRun(cfg, res); err != nil {
			return err
		}
		fmt.Printf("Saved run %s\n", res.RunID)
	}

	printPoints(res.Points, res.Warnings)
	fmt.Printf("Degree %d, residual %.3g, condition %.3g, %d points in %s\n",
		res.Approximant.Degree, res.Approximant.Residual, res.Approximant.Condition,
		len(res.Points), res.Elapsed.Round(time.Millisecond))
	return nil
}

func persistRun(cfg pipeline.Config, res *pipeline.Result) error {
	st, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	if err := st.SaveRun(res.RunID, store.NewRunRecord(funcName, cfg, res)); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	tw, err := store.NewTraceWriter(dataDir, res.RunID)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer tw.Close()
	for _, rec := range res.History {
		if err := tw.Write(rec); err != nil {
			slog.Warn("Failed to write trace record", "error", err)
			break
		}
	}
	return nil
}

func printPoints(points []critical.Point, warnings []pipeline.Warning) {
	if len(points) == 0 {
		fmt.Println("No critical points recovered")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tACTUAL\tVALUE\tEIGENVALUES")
		for _, pt := range points {
			fmt.Fprintf(w, "%s\t%v\t%.6g\t%v\n", pt.Kind, formatVec(pt.Actual), pt.Value, formatVec(pt.Eigenvalues))
		}
		w.Flush()
	}
	for _, warn := range warnings {
		fmt.Printf("warning [%s]: %s\n", warn.Code, warn.Message)
	}
}

func formatVec(v []float64) string {
	out := "["
	for i, x := range v {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%.5f", x)
	}
	return out + "]"
}
