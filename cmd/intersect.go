package main

import (
	"fmt"

	"github.com/cwbudde/circleopt/internal/funcs"
	"github.com/cwbudde/circleopt/internal/solve"
	"github.com/cwbudde/circleopt/internal/store"
	"github.com/spf13/cobra"
)

var (
	circleA string
	circleB string
)

var intersectCmd = &cobra.Command{
	Use:   "intersect",
	Short: "Intersect two circles on the unit sphere",
	Long: `Each circle is the cut of the unit sphere by the plane n·x = d, given as
nx,ny,nz,d. The normal need not be unit length.`,
	Example: `  circleopt intersect --a 0,0,1,0 --b 1,0,0,0.5`,
	RunE:    runIntersect,
}

func init() {
	intersectCmd.Flags().StringVar(&circleA, "a", "", "First circle nx,ny,nz,d (required)")
	intersectCmd.Flags().StringVar(&circleB, "b", "", "Second circle nx,ny,nz,d (required)")
	intersectCmd.Flags().BoolVar(&saveResult, "save", false, "Store the result under --data-dir")
	addOutputFlags(intersectCmd)

	intersectCmd.MarkFlagRequired("a")
	intersectCmd.MarkFlagRequired("b")
	rootCmd.AddCommand(intersectCmd)
}

func runIntersect(cmd *cobra.Command, args []string) error {
	a, err := funcs.ParseCoefficients(circleA)
	if err != nil {
		return fmt.Errorf("--a: %w", err)
	}
	b, err := funcs.ParseCoefficients(circleB)
	if err != nil {
		return fmt.Errorf("--b: %w", err)
	}
	return solveAndPrint(cmd, solve.Problem{Kind: store.KindIntersect, A: a, B: b})
}
