// Package pipeline runs a conversion end to end: load the tree, resolve it, cut the
// subgraph around the root family and write the DOT document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/drzraf/ged2dot/internal/config"
	"github.com/drzraf/ged2dot/internal/dot"
	"github.com/drzraf/ged2dot/internal/gedcom"
	"github.com/drzraf/ged2dot/internal/graph"
)

// ErrRootNotFound is returned when the configured root family is not in the tree
var ErrRootNotFound = errors.New("root family not found")

// Loader provides an unresolved tree. *store.DB is one.
type Loader interface {
	LoadGraph(ctx context.Context) (*graph.Graph, error)
}

// Result describes a finished conversion
type Result struct {
	Output string `json:"output"`
	Nodes  int    `json:"nodes"`
	Bytes  int    `json:"bytes"`
}

// Converter runs conversions. The zero value reads GEDCOM from the configured input and
// uses the process's stdin and stdout for "-".
type Converter struct {
	Loader Loader // overrides reading GEDCOM from cfg.Input
	Stdin  io.Reader
	Stdout io.Writer
}

// Convert runs one conversion with the default Converter
func Convert(ctx context.Context, cfg *config.Config) (*Result, error) {
	var c Converter
	return c.Convert(ctx, cfg)
}

// Load returns the resolved tree
func (c *Converter) Load(ctx context.Context, cfg *config.Config) (*graph.Graph, error) {
	logger := LoggerFrom(ctx)

	var g *graph.Graph
	var err error
	if c.Loader != nil {
		g, err = c.Loader.LoadGraph(ctx)
	} else {
		g, err = c.readGedcom(ctx, cfg.Input)
	}
	if err != nil {
		return nil, err
	}

	if err := g.Resolve(); err != nil {
		return nil, fmt.Errorf("resolving references: %w", err)
	}
	logger.Debug("tree loaded",
		"individuals", len(g.Individuals()),
		"families", len(g.Families()))
	return g, nil
}

// Convert loads the tree and writes the subgraph around cfg.RootFamily to cfg.Output
func (c *Converter) Convert(ctx context.Context, cfg *config.Config) (*Result, error) {
	logger := LoggerFrom(ctx)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	depth, err := cfg.Depth()
	if err != nil {
		return nil, err
	}

	g, err := c.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}

	root, err := g.Family(cfg.RootFamily)
	if errors.Is(err, graph.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, cfg.RootFamily)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up root family: %w", err)
	}

	subgraph := graph.BFS(root, depth)
	logger.Debug("subgraph extracted", "root", root.ID(), "familydepth", depth, "nodes", len(subgraph))

	renderer, err := dot.NewRenderer(dot.Options{
		ImageDir:       cfg.ResolvedImageDir(),
		PlaceholderDir: cfg.PlaceholderDir,
		NameOrder:      cfg.NameOrder,
	})
	if err != nil {
		return nil, err
	}
	data := renderer.Render(subgraph)

	if err := WriteOutput(cfg.Output, data, c.stdout()); err != nil {
		return nil, err
	}
	logger.Info("conversion done",
		"output", cfg.Output,
		"nodes", len(subgraph),
		"size", humanize.Bytes(uint64(len(data))))

	return &Result{Output: cfg.Output, Nodes: len(subgraph), Bytes: len(data)}, nil
}

func (c *Converter) readGedcom(ctx context.Context, input string) (*graph.Graph, error) {
	logger := LoggerFrom(ctx)

	var data []byte
	var err error
	if input == "-" || input == "" {
		stdin := c.stdin()
		if f, ok := stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			logger.Info("reading GEDCOM from the terminal, end input with Ctrl-D")
		}
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	logger.Debug("input read", "input", input, "size", humanize.Bytes(uint64(len(data))))

	g, err := gedcom.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", input, err)
	}
	return g, nil
}

func (c *Converter) stdin() io.Reader {
	if c.Stdin != nil {
		return c.Stdin
	}
	return os.Stdin
}

func (c *Converter) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

// WriteOutput writes data to path, or to stdout for "-". A file is written to a
// temporary sibling first and renamed into place, so a failed write never leaves a
// partial document behind.
func WriteOutput(path string, data []byte, stdout io.Writer) error {
	if path == "-" || path == "" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting output mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming output: %w", err)
	}
	return nil
}
