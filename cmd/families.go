package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/drzraf/ged2dot/internal/graph"
)

var familiesJSON bool

// familyEntry is one line of the families listing
type familyEntry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var familiesCmd = &cobra.Command{
	Use:   "families",
	Short: "List the families of the tree, to pick a --rootfamily",
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
		return writeFamilies(cmd.OutOrStdout(), g, familiesJSON)
	},
}

func init() {
	familiesCmd.Flags().BoolVar(&familiesJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(familiesCmd)
}

// writeFamilies lists families in input order as "ID (Husband-Wife)"
func writeFamilies(w io.Writer, g *graph.Graph, asJSON bool) error {
	entries := []familyEntry{}
	for _, f := range g.Families() {
		entries = append(entries, familyEntry{ID: f.Identifier, Label: graph.FamilyLabel(f)})
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s (%s)\n", e.ID, e.Label); err != nil {
			return err
		}
	}
	return nil
}
