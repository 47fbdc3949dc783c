package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cwbudde/circleopt/internal/solve"
	"github.com/cwbudde/circleopt/internal/store"
	"github.com/spf13/cobra"
)

var (
	batchFile        string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Solve every problem in a YAML file concurrently",
	Long: `Reads a YAML document of the form

  problems:
    - name: wave
      kind: circle
      cos: [0, 0, 1]
    - kind: secant
      poly: [0, -2, 0, 0.3333333333]
      guess: 1
      guess2: 2

and solves the problems in parallel. Results are stored under --data-dir
unless --save=false.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "YAML problem file (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "Parallel solves (default from config)")
	batchCmd.Flags().BoolVar(&saveResult, "save", true, "Store results under --data-dir")
	addOutputFlags(batchCmd)

	batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	problems, err := solve.LoadProblems(batchFile)
	if err != nil {
		return err
	}

	solver, err := newSolver(saveResult)
	if err != nil {
		return err
	}

	concurrency := cfg.Batch.Concurrency
	if batchConcurrency > 0 {
		concurrency = batchConcurrency
	}

	results, err := solver.RunBatch(cmd.Context(), problems, concurrency)
	if err != nil {
		return err
	}

	if err := printBatch(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if failed := countFailed(results); failed > 0 {
		return fmt.Errorf("%d of %d problems failed", failed, len(results))
	}
	return nil
}

func printBatch(w io.Writer, results []*store.Result) error {
	if jsonOutput {
		for _, res := range results {
			if err := printResult(w, res); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tKIND\tOPTIMA\tROOTS\tPOINTS\tSTATUS")
	for i, res := range results {
		status := "ok"
		if !res.Succeeded() {
			status = res.ErrorKind
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			i, res.Name, res.Kind, len(res.Optima), len(res.Roots), len(res.Points), status)
	}
	return tw.Flush()
}

func countFailed(results []*store.Result) int {
	n := 0
	for _, res := range results {
		if !res.Succeeded() {
			n++
		}
	}
	return n
}
