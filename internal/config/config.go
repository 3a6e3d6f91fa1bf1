// Package config holds the options of one conversion run: defaults, an optional YAML
// config file, GED2DOT_* environment overrides and command line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error
var ErrInvalid = errors.New("invalid configuration")

// Name orders of the label lines
const (
	NameOrderLittle = "little" // given name first
	NameOrderBig    = "big"    // family name first
)

// EnvPrefix is prepended to the upper-cased option name for environment overrides
const EnvPrefix = "GED2DOT_"

// Keys lists the recognized option names, as used in config files and on the command line
var Keys = []string{
	"input", "output", "rootfamily", "familydepth", "imagedir", "nameorder",
	"placeholderdir", "loglevel", "logformat",
}

// Config is the configuration record consumed by the pipeline
type Config struct {
	Input          string `yaml:"input" json:"input"`
	Output         string `yaml:"output" json:"output"`
	RootFamily     string `yaml:"rootfamily" json:"rootfamily"`
	FamilyDepth    string `yaml:"familydepth" json:"familydepth"`
	ImageDir       string `yaml:"imagedir" json:"imagedir"`
	NameOrder      string `yaml:"nameorder" json:"nameorder"`
	PlaceholderDir string `yaml:"placeholderdir" json:"placeholderdir"`
	LogLevel       string `yaml:"loglevel" json:"loglevel"`
	LogFormat      string `yaml:"logformat" json:"logformat"`
}

// Default returns the built-in defaults
func Default() *Config {
	return &Config{
		Input:      "-",
		Output:     "-",
		RootFamily: "F1",
		// Could be 0, but a default that explodes on large input is not helpful either.
		FamilyDepth:    "3",
		ImageDir:       "images",
		NameOrder:      NameOrderLittle,
		PlaceholderDir: InstallDir(),
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// InstallDir returns the directory of the running executable, where the placeholder
// images are installed
func InstallDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// Set assigns one option by name
func (c *Config) Set(key, value string) error {
	switch key {
	case "input":
		c.Input = value
	case "output":
		c.Output = value
	case "rootfamily":
		c.RootFamily = value
	case "familydepth":
		c.FamilyDepth = value
	case "imagedir":
		c.ImageDir = value
	case "nameorder":
		c.NameOrder = value
	case "placeholderdir":
		c.PlaceholderDir = value
	case "loglevel":
		c.LogLevel = value
	case "logformat":
		c.LogFormat = value
	default:
		return fmt.Errorf("unknown option %q: %w", key, ErrInvalid)
	}
	return nil
}

// fileLayout mirrors the [ged2dot] section of the classic ged2dotrc
type fileLayout struct {
	Ged2dot map[string]string `yaml:"ged2dot"`
}

// LoadFile merges the ged2dot section of a YAML config file into c. Other top-level
// sections are ignored. An empty path is a no-op.
func (c *Config) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var layout fileLayout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	for _, key := range Keys {
		if value, ok := layout.Ged2dot[key]; ok {
			if err := c.Set(key, value); err != nil {
				return err
			}
		}
	}
	for key := range layout.Ged2dot {
		if !slices.Contains(Keys, key) {
			return fmt.Errorf("config file %s: unknown option %q: %w", path, key, ErrInvalid)
		}
	}
	return nil
}

// LoadDotEnv loads a .env file into the process environment. A missing file is fine.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides options from GED2DOT_<OPTION> variables found by lookup
// (os.LookupEnv in production)
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for _, key := range Keys {
		if value, ok := lookup(EnvPrefix + strings.ToUpper(key)); ok {
			_ = c.Set(key, value)
		}
	}
}

// Validate checks the options the pipeline cannot recover from
func (c *Config) Validate() error {
	if c.RootFamily == "" {
		return fmt.Errorf("rootfamily is empty: %w", ErrInvalid)
	}
	if _, err := c.Depth(); err != nil {
		return err
	}
	if c.NameOrder != NameOrderLittle && c.NameOrder != NameOrderBig {
		return fmt.Errorf("nameorder %q is neither %q nor %q: %w",
			c.NameOrder, NameOrderLittle, NameOrderBig, ErrInvalid)
	}
	return nil
}

// Depth parses familydepth
func (c *Config) Depth() (int, error) {
	depth, err := strconv.Atoi(strings.TrimSpace(c.FamilyDepth))
	if err != nil || depth < 0 {
		return 0, fmt.Errorf("familydepth %q is not a non-negative integer: %w", c.FamilyDepth, ErrInvalid)
	}
	return depth, nil
}

// ResolvedImageDir returns the image directory to look up portraits in. A relative
// imagedir is taken relative to the directory of the input file (the working directory
// when reading stdin). An empty imagedir means no images are configured.
func (c *Config) ResolvedImageDir() string {
	if c.ImageDir == "" {
		return ""
	}
	if filepath.IsAbs(c.ImageDir) {
		return c.ImageDir
	}
	input := c.Input
	if input == "" {
		input = "-"
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return c.ImageDir
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.Join(filepath.Dir(abs), c.ImageDir)
}
