package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/drzraf/ged2dot/internal/graph"
)

var (
	analyzeJSON bool
	analyzeTopN int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze tree structure: components, isolated individuals, family sizes, connectors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, closeFn, err := newConverter(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		g, err := c.Load(cmd.Context(), runConfig)
		if err != nil {
			return fmt.Errorf("loading tree: %w", err)
		}

		report := graph.ComputeTopology(g, analyzeTopN)

		if analyzeJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		printHumanReadable(cmd.OutOrStdout(), report, g)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output as JSON")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 10, "Number of top items to show per section")
	rootCmd.AddCommand(analyzeCmd)
}

func printHumanReadable(w io.Writer, report *graph.TopologyReport, g *graph.Graph) {
	fmt.Fprintln(w, "\n  TOPOLOGY")
	fmt.Fprintln(w, "  ────────────────────────────────────────")
	fmt.Fprintf(w, "  Individuals: %d  Families: %d  Components: %d\n",
		report.TotalIndividuals, report.TotalFamilies, report.NumComponents)
	fmt.Fprintf(w, "  Largest component: %d  Smallest: %d\n", report.LargestComponent, report.SmallestComponent)

	if report.IsolatedCount > 0 {
		fmt.Fprintf(w, "  Isolated: %d individuals without any family\n", report.IsolatedCount)
		limit := min(5, len(report.IsolatedIDs))
		for _, id := range report.IsolatedIDs[:limit] {
			name := "?"
			if ind, err := g.Individual(id); err == nil {
				name = truncTitle(strings.TrimSpace(ind.Forename+" "+ind.Surname), 50)
			}
			fmt.Fprintf(w, "    - %s (%s)\n", id, name)
		}
		if report.IsolatedCount > limit {
			fmt.Fprintf(w, "    ... and %d more\n", report.IsolatedCount-limit)
		}
	}

	fmt.Fprintln(w, "\n  Children per family:")
	for _, b := range report.ChildHistogram {
		if b.Count > 0 {
			barWidth := max(int(math.Log2(float64(b.Count)))+2, 1)
			fmt.Fprintf(w, "    %5s: %4d  %s\n", b.Label, b.Count, strings.Repeat("=", barWidth))
		}
	}

	if len(report.LargestFamilies) > 0 {
		fmt.Fprintln(w, "\n  Largest families:")
		for _, f := range report.LargestFamilies {
			fmt.Fprintf(w, "    %s children=%d  %s\n", f.ID, f.Children, truncTitle(f.Label, 40))
		}
	}

	if len(report.Connectors) > 0 {
		fmt.Fprintln(w, "\n  STRUCTURAL FRAGILITY")
		fmt.Fprintln(w, "  ────────────────────────────────────────")
		fmt.Fprintf(w, "  %d connectors (removal splits the tree):\n", len(report.Connectors))
		limit := min(10, len(report.Connectors))
		for _, id := range report.Connectors[:limit] {
			fmt.Fprintf(w, "    %s\n", id)
		}
	}

	fmt.Fprintln(w)
}

func truncTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Find a safe UTF-8 boundary
	truncated := s[:max]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}
