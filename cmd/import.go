package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/drzraf/ged2dot/internal/pipeline"
	"github.com/drzraf/ged2dot/internal/store"
)

var importList bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Parse --input and store the tree in the --db SQLite database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("db")
		if path == "" {
			return errors.New("import needs --db")
		}
		db, err := store.OpenDB(path)
		if err != nil {
			return err
		}
		defer db.Close()

		if importList {
			imports, err := db.Imports(cmd.Context())
			if err != nil {
				return err
			}
			for _, imp := range imports {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  individuals=%d families=%d\n",
					imp.ID, time.UnixMilli(imp.CreatedAt).Format(time.RFC3339), imp.Source,
					imp.Individuals, imp.Families)
			}
			return nil
		}

		// Parse and resolve before storing, so a broken file never replaces a good tree.
		c := &pipeline.Converter{Stdin: cmd.InOrStdin()}
		g, err := c.Load(cmd.Context(), runConfig)
		if err != nil {
			return err
		}
		imp, err := db.SaveGraph(cmd.Context(), g, runConfig.Input)
		if err != nil {
			return fmt.Errorf("saving tree: %w", err)
		}

		pipeline.LoggerFrom(cmd.Context()).Info("tree imported",
			"id", imp.ID, "individuals", imp.Individuals, "families", imp.Families, "db", path)
		fmt.Fprintln(cmd.OutOrStdout(), imp.ID)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importList, "list", false, "List previous imports instead of importing")
	rootCmd.AddCommand(importCmd)
}
