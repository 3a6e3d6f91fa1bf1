package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drzraf/ged2dot/internal/gedcom"
	"github.com/drzraf/ged2dot/internal/graph"
)

const treeGed = "0 HEAD\r\n" +
	"0 @P1@ INDI\r\n1 NAME Alice /A/\r\n1 SEX F\r\n1 BIRT\r\n2 DATE 1950\r\n1 NOTE two\r\n2 CONT lines\r\n1 FAMS @F1@\r\n" +
	"0 @F1@ FAM\r\n1 WIFE @P1@\r\n1 HUSB @P2@\r\n1 CHIL @P3@\r\n1 CHIL @P4@\r\n" +
	"0 @P2@ INDI\r\n1 NAME Bob /B/\r\n1 SEX M\r\n1 FAMS @F1@\r\n1 FAMS @F2@\r\n" +
	"0 @P3@ INDI\r\n1 NAME Carol /B/\r\n1 FAMC @F1@\r\n" +
	"0 @P4@ INDI\r\n1 NAME Dan /B/\r\n1 FAMC @F1@\r\n" +
	"0 @F2@ FAM\r\n1 HUSB @P2@\r\n" +
	"0 TRLR\r\n"

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenDB(filepath.Join(t.TempDir(), "tree.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func parseTree(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := gedcom.ParseBytes([]byte(treeGed))
	require.NoError(t, err)
	return g
}

func nodeIDs(g *graph.Graph) []string {
	var out []string
	for _, n := range g.Nodes() {
		out = append(out, n.ID())
	}
	return out
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	orig := parseTree(t)

	imp, err := d.SaveGraph(ctx, orig, "tree.ged")
	require.NoError(t, err)
	assert.Len(t, imp.ID, 36)
	assert.Equal(t, 4, imp.Individuals)
	assert.Equal(t, 2, imp.Families)

	loaded, err := d.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, nodeIDs(orig), nodeIDs(loaded))

	alice, err := loaded.Individual("P1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.Forename)
	assert.Equal(t, "F", alice.Sex)
	assert.Equal(t, "1950", alice.Birth)
	assert.Equal(t, "two\nlines", alice.Note)
	assert.Equal(t, []string{"F1"}, alice.FamsIDs)

	bob, err := loaded.Individual("P2")
	require.NoError(t, err)
	assert.Equal(t, []string{"F1", "F2"}, bob.FamsIDs)

	f1, err := loaded.Family("F1")
	require.NoError(t, err)
	assert.Equal(t, "P1", f1.WifeID)
	assert.Equal(t, "P2", f1.HusbID)
	assert.Equal(t, []string{"P3", "P4"}, f1.ChildIDs)
	assert.Nil(t, f1.Wife, "loaded graph is unresolved")

	require.NoError(t, loaded.Resolve())
	assert.Same(t, alice, f1.Wife)
}

func TestSaveGraph_Replaces(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	_, err := d.SaveGraph(ctx, parseTree(t), "first.ged")
	require.NoError(t, err)

	small, err := gedcom.ParseBytes([]byte("0 @P9@ INDI\r\n1 NAME Zed /Z/\r\n"))
	require.NoError(t, err)
	_, err = d.SaveGraph(ctx, small, "second.ged")
	require.NoError(t, err)

	loaded, err := d.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"P9"}, nodeIDs(loaded))

	imports, err := d.Imports(ctx)
	require.NoError(t, err)
	require.Len(t, imports, 2)
	sources := []string{imports[0].Source, imports[1].Source}
	assert.ElementsMatch(t, []string{"first.ged", "second.ged"}, sources)
	assert.NotEqual(t, imports[0].ID, imports[1].ID)
}

func TestLoadGraph_Empty(t *testing.T) {
	d := openTestDB(t)
	g, err := d.LoadGraph(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
}

func TestOpenDB_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tree.db")

	d, err := OpenDB(path)
	require.NoError(t, err)
	_, err = d.SaveGraph(ctx, parseTree(t), "tree.ged")
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = OpenDB(path)
	require.NoError(t, err)
	defer d.Close()
	g, err := d.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, g.Len())
}
