package cmd

import (
	"cmp"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drzraf/ged2dot/internal/neo4jexport"
	"github.com/drzraf/ged2dot/internal/pipeline"
)

var (
	neo4jURI      string
	neo4jUser     string
	neo4jPassword string
	neo4jDatabase string
	neo4jReset    bool
)

var neo4jCmd = &cobra.Command{
	Use:   "neo4j",
	Short: "Export the tree to a Neo4j database",
	Long: `Export the tree to a Neo4j database as Individual and Family nodes linked by
SPOUSE_OF and CHILD_OF relationships. Connection settings default to the
NEO4J_URI, NEO4J_USERNAME, NEO4J_PASSWORD and NEO4J_DATABASE variables.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, closeFn, err := newConverter(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		g, err := c.Load(ctx, runConfig)
		if err != nil {
			return fmt.Errorf("loading tree: %w", err)
		}

		exporter, err := neo4jexport.New(ctx, neo4jexport.Options{
			URI:      cmp.Or(neo4jURI, os.Getenv("NEO4J_URI"), "neo4j://localhost:7687"),
			Username: cmp.Or(neo4jUser, os.Getenv("NEO4J_USERNAME"), "neo4j"),
			Password: cmp.Or(neo4jPassword, os.Getenv("NEO4J_PASSWORD")),
			Database: cmp.Or(neo4jDatabase, os.Getenv("NEO4J_DATABASE")),
		})
		if err != nil {
			return err
		}
		defer exporter.Close(ctx)

		if neo4jReset {
			if err := exporter.Reset(ctx); err != nil {
				return fmt.Errorf("resetting neo4j: %w", err)
			}
		}
		stats, err := exporter.Export(ctx, g)
		if err != nil {
			return fmt.Errorf("exporting to neo4j: %w", err)
		}
		pipeline.LoggerFrom(ctx).Info("tree exported",
			"individuals", stats.Individuals, "families", stats.Families,
			"spouses", stats.Spouses, "children", stats.Children)
		return nil
	},
}

func init() {
	neo4jCmd.Flags().StringVar(&neo4jURI, "uri", "", "Neo4j URI")
	neo4jCmd.Flags().StringVar(&neo4jUser, "username", "", "Neo4j user")
	neo4jCmd.Flags().StringVar(&neo4jPassword, "password", "", "Neo4j password")
	neo4jCmd.Flags().StringVar(&neo4jDatabase, "database", "", "Neo4j database, empty for the server default")
	neo4jCmd.Flags().BoolVar(&neo4jReset, "reset", false, "Delete existing Individual and Family nodes first")
	rootCmd.AddCommand(neo4jCmd)
}
