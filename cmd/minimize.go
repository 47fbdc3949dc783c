package main

import (
	"fmt"

	"github.com/cwbudde/circleopt/internal/funcs"
	"github.com/cwbudde/circleopt/internal/solve"
	"github.com/cwbudde/circleopt/internal/store"
	"github.com/spf13/cobra"
)

var (
	polyCoeffs string
	guess      float64
	guess2     float64
	lower      float64
	upper      float64
	method     string
)

var minimizeCmd = &cobra.Command{
	Use:   "minimize",
	Short: "Find a critical point of a polynomial on the real line",
	Long: `Finds a point where the derivative of p(x) = c0 + c1·x + c2·x² + ...
vanishes, either by damped gradient descent (bisecting once a sign change is
bracketed) or by secant iteration on the derivative.`,
	Example: `  circleopt minimize --poly 9,-6,1 --guess 0
  circleopt minimize --poly 0,-1,0,0.3333333333 --lower 0 --upper 4
  circleopt minimize --poly 0,-2,0,0.3333333333 --method secant --guess 1 --guess2 2`,
	RunE: runMinimize,
}

func init() {
	minimizeCmd.Flags().StringVar(&polyCoeffs, "poly", "", "Polynomial coefficients c0,c1,... (required)")
	minimizeCmd.Flags().Float64Var(&guess, "guess", 0, "Starting point")
	minimizeCmd.Flags().Float64Var(&guess2, "guess2", 1, "Second starting point (secant)")
	minimizeCmd.Flags().Float64Var(&lower, "lower", 0, "Bracket lower end (gradient)")
	minimizeCmd.Flags().Float64Var(&upper, "upper", 0, "Bracket upper end (gradient)")
	minimizeCmd.Flags().StringVar(&method, "method", store.KindGradient, "Method: gradient or secant")
	minimizeCmd.Flags().BoolVar(&traceRun, "trace", false, "Write a trace.jsonl next to the saved result (implies --save)")
	minimizeCmd.Flags().BoolVar(&saveResult, "save", false, "Store the result under --data-dir")
	addOutputFlags(minimizeCmd)

	minimizeCmd.MarkFlagRequired("poly")
	minimizeCmd.MarkFlagsRequiredTogether("lower", "upper")
	rootCmd.AddCommand(minimizeCmd)
}

func runMinimize(cmd *cobra.Command, args []string) error {
	coeffs, err := funcs.ParseCoefficients(polyCoeffs)
	if err != nil {
		return fmt.Errorf("--poly: %w", err)
	}

	p := solve.Problem{
		Kind:  method,
		Poly:  coeffs,
		Guess: guess,
		Trace: traceRun,
	}
	switch method {
	case store.KindSecant:
		p.Guess2 = &guess2
	case store.KindGradient:
		if cmd.Flags().Changed("lower") {
			p.Lower, p.Upper = &lower, &upper
		}
	default:
		return fmt.Errorf("unknown method %q (want gradient or secant)", method)
	}

	return solveAndPrint(cmd, p)
}
