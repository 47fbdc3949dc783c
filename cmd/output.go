package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/circleopt/internal/store"
	"github.com/spf13/cobra"
)

var jsonOutput bool

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
}

func printResult(w io.Writer, res *store.Result) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", res.ID)
	if res.Name != "" {
		fmt.Fprintf(tw, "Name:\t%s\n", res.Name)
	}
	fmt.Fprintf(tw, "Kind:\t%s\n", res.Kind)
	if res.Function != "" {
		fmt.Fprintf(tw, "Function:\t%s\n", res.Function)
	}
	if res.Kind == store.KindIntersect {
		fmt.Fprintf(tw, "Points:\t%s\n", formatPoints(res.Points))
	} else {
		fmt.Fprintf(tw, "Optima:\t%s\n", formatAngles(res.Optima))
	}
	if res.Kind == store.KindCircle {
		fmt.Fprintf(tw, "Roots:\t%s\n", formatAngles(res.Roots))
	}
	fmt.Fprintf(tw, "Elapsed:\t%s\n", res.Elapsed)
	if !res.Succeeded() {
		fmt.Fprintf(tw, "Error:\t%s (%s)\n", res.Error, res.ErrorKind)
	}
	return tw.Flush()
}

func formatAngles(xs []float64) string {
	if len(xs) == 0 {
		return "-"
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%.10g", x)
	}
	return strings.Join(parts, ", ")
}

func formatPoints(ps [][3]float64) string {
	if len(ps) == 0 {
		return "-"
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = fmt.Sprintf("(%.8g, %.8g, %.8g)", p[0], p[1], p[2])
	}
	return strings.Join(parts, " ")
}
