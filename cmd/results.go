package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gescholt/globtim/internal/pipeline"
	"github.com/gescholt/globtim/internal/store"
)

var (
	resultsDataDir string
	olderThanDays  int
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Manage stored pipeline runs",
	Long: `Manage stored run records: list saved runs, show one run in detail,
and clean old records.`,
}

var listResultsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored runs",
	RunE:  runListResults,
}

var showResultsCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one stored run in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowResult,
}

var cleanResultsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete old run records",
	RunE:  runCleanResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(listResultsCmd)
	resultsCmd.AddCommand(showResultsCmd)
	resultsCmd.AddCommand(cleanResultsCmd)

	resultsCmd.PersistentFlags().StringVar(&resultsDataDir, "data-dir", "./data", "Base directory for run storage")
	cleanResultsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete runs older than N days (0 = delete nothing)")
}

func runListResults(cmd *cobra.Command, args []string) error {
	st, err := store.NewFSStore(resultsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	infos, err := st.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(infos) == 0 {
		fmt.Println("No stored runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tOBJECTIVE\tBASIS\tDIM\tDEGREE\tRESIDUAL\tPOINTS\tWARN\tSAVED")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3g\t%d\t%d\t%s\n",
			info.RunID, info.Objective, info.Basis, info.Dimension,
			info.Degree, info.Residual, info.Points, info.Warnings,
			info.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}

func runShowResult(cmd *cobra.Command, args []string) error {
	st, err := store.NewFSStore(resultsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	record, err := st.LoadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run: %s\n", record.RunID)
	fmt.Printf("Objective: %s\n", record.Objective)
	fmt.Printf("Saved: %s\n\n", record.Timestamp.Format(time.RFC3339))

	fmt.Println("Configuration:")
	fmt.Printf("  Basis: %s\n", record.Config.Basis)
	fmt.Printf("  Dimension: %d\n", record.Config.Dimension)
	fmt.Printf("  GN: %d\n", record.Config.GN)
	fmt.Printf("  Degrees: [%d, %d]\n", record.Config.MinDegree, record.Config.MaxDegree)
	fmt.Printf("  Tolerance: %g\n\n", record.Config.Tolerance)

	if record.Result == nil {
		fmt.Println("No result recorded")
		return nil
	}

	a := record.Result.Approximant
	if a != nil {
		fmt.Println("Approximant:")
		fmt.Printf("  Degree: %d\n", a.Degree)
		fmt.Printf("  Residual: %.6g\n", a.Residual)
		fmt.Printf("  Condition: %.6g\n", a.Condition)
		fmt.Printf("  Coefficients: %d kept of %d\n\n", a.CoeffsAfterPrune, a.CoeffsBeforePrune)
	}

	printPoints(record.Result.Points, record.Result.Warnings)

	if recs, err := readTrace(st.BaseDir(), record.RunID); err == nil && len(recs) > 0 {
		fmt.Println("\nEscalation history:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DEGREE\tRESIDUAL\tCONDITION\tCOEFFS")
		for _, rec := range recs {
			fmt.Fprintf(w, "%d\t%.3g\t%.3g\t%d/%d\n",
				rec.Degree, rec.Residual, rec.Condition, rec.CoeffsAfterPrune, rec.CoeffsBeforePrune)
		}
		w.Flush()
	}
	return nil
}

func runCleanResults(cmd *cobra.Command, args []string) error {
	if olderThanDays <= 0 {
		fmt.Println("Nothing to do: pass --older-than N")
		return nil
	}
	st, err := store.NewFSStore(resultsDataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	infos, err := st.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	deleted := 0
	for _, info := range infos {
		if info.Timestamp.Before(cutoff) {
			if err := st.DeleteRun(info.RunID); err != nil {
				fmt.Printf("failed to delete %s: %v\n", info.RunID, err)
				continue
			}
			deleted++
		}
	}
	fmt.Printf("Deleted %d run(s)\n", deleted)
	return nil
}

func readTrace(baseDir, runID string) ([]pipeline.FitRecord, error) {
	tr, err := store.NewTraceReader(baseDir, runID)
	if err != nil {
		return nil, err
	}
	defer tr.Close()
	return tr.ReadAll()
}
