package main

import (
	"fmt"

	"github.com/cwbudde/circleopt/internal/funcs"
	"github.com/cwbudde/circleopt/internal/solve"
	"github.com/cwbudde/circleopt/internal/store"
	"github.com/spf13/cobra"
)

var (
	cosCoeffs    string
	sinCoeffs    string
	seederName   string
	seederSeed   int64
	precondition bool
	traceRun     bool
	saveResult   bool
)

var optimaCmd = &cobra.Command{
	Use:   "optima",
	Short: "Find all optima and roots of a trigonometric polynomial",
	Long: `Finds every critical point and every zero crossing of
  f(t) = Σ cos[k]·cos(k·t) + sin[k]·sin(k·t)
on the circle. Angles are printed in (-π, π].`,
	Example: `  circleopt optima --cos 0,0,1
  circleopt optima --cos 0.5,1 --sin 0,0,0.25 --seeder mayfly --save --trace`,
	RunE: runOptima,
}

func init() {
	optimaCmd.Flags().StringVar(&cosCoeffs, "cos", "", "Cosine coefficients a0,a1,...")
	optimaCmd.Flags().StringVar(&sinCoeffs, "sin", "", "Sine coefficients b0,b1,... (b0 is ignored)")
	optimaCmd.Flags().StringVar(&seederName, "seeder", solve.SeederOffset, "Seed strategy: offset or mayfly")
	optimaCmd.Flags().Int64Var(&seederSeed, "seed", 42, "Random seed for the mayfly seeder")
	optimaCmd.Flags().BoolVar(&precondition, "precondition", false, "Log-relax the function before searching")
	optimaCmd.Flags().BoolVar(&traceRun, "trace", false, "Write a trace.jsonl next to the saved result (implies --save)")
	optimaCmd.Flags().BoolVar(&saveResult, "save", false, "Store the result under --data-dir")
	addOutputFlags(optimaCmd)

	rootCmd.AddCommand(optimaCmd)
}

func runOptima(cmd *cobra.Command, args []string) error {
	cos, err := funcs.ParseCoefficients(cosCoeffs)
	if err != nil {
		return fmt.Errorf("--cos: %w", err)
	}
	sin, err := funcs.ParseCoefficients(sinCoeffs)
	if err != nil {
		return fmt.Errorf("--sin: %w", err)
	}

	return solveAndPrint(cmd, solve.Problem{
		Kind:         store.KindCircle,
		Cos:          cos,
		Sin:          sin,
		Seeder:       seederName,
		Seed:         seederSeed,
		Precondition: precondition,
		Trace:        traceRun,
	})
}

// solveAndPrint runs one problem, prints it and turns a failed solve into a
// non-zero exit.
func solveAndPrint(cmd *cobra.Command, p solve.Problem) error {
	solver, err := newSolver(saveResult || p.Trace)
	if err != nil {
		return err
	}

	res, solveErr := solver.Solve(cmd.Context(), p)
	if res == nil {
		return solveErr
	}
	if err := printResult(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	return solveErr
}
