package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/drzraf/ged2dot/internal/config"
	"github.com/drzraf/ged2dot/internal/pipeline"
	"github.com/drzraf/ged2dot/internal/store"
	"github.com/drzraf/ged2dot/internal/watch"
)

// runConfig is the merged configuration of the running command
var runConfig *config.Config

var watchInput bool

var rootCmd = &cobra.Command{
	Use:   "ged2dot",
	Short: "Convert a GEDCOM family tree into a Graphviz DOT document",
	Long: `Convert a GEDCOM family tree into a Graphviz DOT document.

The tree around --rootfamily is included up to --familydepth generations.
Options are read from the ged2dot section of --config, then from GED2DOT_*
environment variables (a .env file in the working directory is loaded first),
then from the command line.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(".env"); err != nil {
			return err
		}
		cfg, err := resolveConfig(cmd.Flags(), os.LookupEnv)
		if err != nil {
			return err
		}
		runConfig = cfg
		logger := pipeline.NewLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
		cmd.SetContext(pipeline.WithLogger(cmd.Context(), logger))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		c, closeFn, err := newConverter(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if watchInput {
			return runWatch(cmd.Context(), c, runConfig)
		}
		_, err = c.Convert(cmd.Context(), runConfig)
		return err
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	defaults := config.Default()

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "YAML config file with a ged2dot section")
	pf.String("db", "", "Read the tree from this SQLite database instead of GEDCOM")
	pf.String("input", defaults.Input, "GEDCOM file, - for stdin")
	pf.String(flagName("loglevel"), defaults.LogLevel, "Log level: debug, info, warn, error")
	pf.String(flagName("logformat"), defaults.LogFormat, "Log format: text or json")

	f := rootCmd.Flags()
	f.String("output", defaults.Output, "DOT file to write, - for stdout")
	f.String("rootfamily", defaults.RootFamily, "Family to start the traversal from")
	f.String("familydepth", defaults.FamilyDepth, "Number of generations to include around the root family")
	f.String("imagedir", defaults.ImageDir, "Portrait directory, relative to the input file unless absolute")
	f.String("nameorder", defaults.NameOrder, "little (given name first) or big (family name first)")
	f.String("placeholderdir", defaults.PlaceholderDir, "Directory of placeholder-{m,f,u}.png")
	f.BoolVar(&watchInput, "watch", false, "Convert again whenever the input file changes")
}

// flagName returns the command line flag of a config key
func flagName(key string) string {
	switch key {
	case "loglevel":
		return "log-level"
	case "logformat":
		return "log-format"
	default:
		return key
	}
}

// resolveConfig merges, in increasing priority: defaults, the --config file, environment
// variables found by lookup, and flags set on the command line
func resolveConfig(fs *pflag.FlagSet, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg := config.Default()

	if f := fs.Lookup("config"); f != nil {
		if err := cfg.LoadFile(f.Value.String()); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(lookup)

	for _, key := range config.Keys {
		f := fs.Lookup(flagName(key))
		if f == nil || !f.Changed {
			continue
		}
		if err := cfg.Set(key, f.Value.String()); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newConverter returns a converter reading from --db when it is set. The returned
// function releases the database.
func newConverter(cmd *cobra.Command) (*pipeline.Converter, func(), error) {
	c := &pipeline.Converter{Stdin: cmd.InOrStdin(), Stdout: cmd.OutOrStdout()}
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		return c, func() {}, nil
	}
	db, err := store.OpenDB(path)
	if err != nil {
		return nil, nil, err
	}
	c.Loader = db
	return c, func() { db.Close() }, nil
}

func runWatch(ctx context.Context, c *pipeline.Converter, cfg *config.Config) error {
	if cfg.Input == "-" || cfg.Input == "" {
		return errors.New("--watch needs an input file, not stdin")
	}
	if c.Loader != nil {
		return errors.New("--watch cannot be combined with --db")
	}
	logger := pipeline.LoggerFrom(ctx)

	convert := func(ctx context.Context) {
		if _, err := c.Convert(ctx, cfg); err != nil {
			logger.Error("conversion failed", "err", err)
		}
	}
	convert(ctx)

	w, err := watch.New(cfg.Input, 0, convert, logger)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
