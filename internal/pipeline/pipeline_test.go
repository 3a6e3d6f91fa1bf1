package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drzraf/ged2dot/internal/config"
	"github.com/drzraf/ged2dot/internal/gedcom"
	"github.com/drzraf/ged2dot/internal/graph"
	"github.com/drzraf/ged2dot/internal/store"
)

const helloGed = "0 HEAD\r\n" +
	"0 @P1@ INDI\r\n1 NAME Alice /A/\r\n1 SEX F\r\n1 FAMS @F1@\r\n" +
	"0 @P2@ INDI\r\n1 NAME Bob /B/\r\n1 SEX M\r\n1 FAMS @F1@\r\n" +
	"0 @P3@ INDI\r\n1 NAME Carol /B/\r\n1 FAMC @F1@\r\n" +
	"0 @F1@ FAM\r\n1 WIFE @P1@\r\n1 HUSB @P2@\r\n1 CHIL @P3@\r\n" +
	"0 TRLR\r\n"

func writeGed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hello.ged")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testConfig(input, output string) *config.Config {
	cfg := config.Default()
	cfg.Input = input
	cfg.Output = output
	cfg.PlaceholderDir = "/opt/ged2dot"
	return cfg
}

func TestConvert_File(t *testing.T) {
	input := writeGed(t, helloGed)
	output := filepath.Join(t.TempDir(), "hello.dot")

	res, err := Convert(context.Background(), testConfig(input, output))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Nodes)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, res.Bytes, len(data))
	assert.True(t, strings.HasPrefix(string(data), "// Generated by "))
	assert.Contains(t, string(data), "F1 -> P3 [dir=none];")
}

func TestConvert_StdinStdout(t *testing.T) {
	var out bytes.Buffer
	c := &Converter{Stdin: strings.NewReader(helloGed), Stdout: &out}
	_, err := c.Convert(context.Background(), testConfig("-", "-"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "digraph\n{")
}

func TestConvert_RootNotFound(t *testing.T) {
	input := writeGed(t, helloGed)
	output := filepath.Join(t.TempDir(), "hello.dot")
	cfg := testConfig(input, output)
	cfg.RootFamily = "F9"

	_, err := Convert(context.Background(), cfg)
	require.ErrorIs(t, err, ErrRootNotFound)
	_, statErr := os.Stat(output)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "failed run must not create the output")
}

func TestConvert_RootIsIndividual(t *testing.T) {
	cfg := testConfig(writeGed(t, helloGed), "-")
	cfg.RootFamily = "P1"
	c := &Converter{Stdout: &bytes.Buffer{}}
	_, err := c.Convert(context.Background(), cfg)
	assert.ErrorIs(t, err, graph.ErrWrongKind)
}

func TestConvert_DanglingReference(t *testing.T) {
	input := writeGed(t, strings.Replace(helloGed, "1 CHIL @P3@", "1 CHIL @P9@", 1))
	var out bytes.Buffer
	c := &Converter{Stdout: &out}
	_, err := c.Convert(context.Background(), testConfig(input, "-"))
	require.ErrorIs(t, err, graph.ErrNotFound)
	assert.Empty(t, out.String())
}

func TestConvert_BadLevel(t *testing.T) {
	input := writeGed(t, "0 HEAD\r\nx @P1@ INDI\r\n")
	_, err := (&Converter{Stdout: &bytes.Buffer{}}).Convert(context.Background(), testConfig(input, "-"))
	assert.ErrorIs(t, err, gedcom.ErrBadLevel)
}

func TestConvert_InvalidConfig(t *testing.T) {
	cfg := testConfig(writeGed(t, helloGed), "-")
	cfg.FamilyDepth = "deep"
	_, err := (&Converter{Stdout: &bytes.Buffer{}}).Convert(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestConvert_ImageDirRelativeToInput(t *testing.T) {
	input := writeGed(t, helloGed)
	images := filepath.Join(filepath.Dir(input), "images")
	require.NoError(t, os.Mkdir(images, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(images, "Alice A .jpg"), nil, 0644))

	var out bytes.Buffer
	_, err := (&Converter{Stdout: &out}).Convert(context.Background(), testConfig(input, "-"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), filepath.Join(images, "Alice A .jpg"))
}

func TestConvert_FromStore(t *testing.T) {
	ctx := context.Background()
	db, err := store.OpenDB(filepath.Join(t.TempDir(), "tree.db"))
	require.NoError(t, err)
	defer db.Close()

	g, err := gedcom.ParseBytes([]byte(helloGed))
	require.NoError(t, err)
	_, err = db.SaveGraph(ctx, g, "hello.ged")
	require.NoError(t, err)

	var out bytes.Buffer
	c := &Converter{Loader: db, Stdout: &out}
	res, err := c.Convert(ctx, testConfig("does-not-exist.ged", "-"))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Nodes)
	assert.Contains(t, out.String(), "P2 -> F1 [dir=none];")
}

func TestWriteOutput_ReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.dot")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	require.NoError(t, WriteOutput(path, []byte("new"), nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be gone")
}

func TestWriteOutput_MissingDir(t *testing.T) {
	err := WriteOutput(filepath.Join(t.TempDir(), "nope", "out.dot"), []byte("x"), nil)
	assert.Error(t, err)
}

func TestLoggerFrom(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("debug", "json", &buf)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, LoggerFrom(ctx))
	assert.NotNil(t, LoggerFrom(context.Background()))

	LoggerFrom(ctx).Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", "text", &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
