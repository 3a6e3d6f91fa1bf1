package gedcom

import (
	"errors"
	"strings"
	"testing"

	"github.com/drzraf/ged2dot/internal/graph"
)

func doc(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

var helloGed = doc(
	"0 HEAD",
	"1 CHAR UTF-8",
	"0 @P1@ INDI",
	"1 NAME Alice /A/",
	"1 SEX F",
	"1 BIRT",
	"2 DATE 12 MAR 1950",
	"1 DEAT",
	"2 DATE 2010",
	"1 FAMS @F1@",
	"0 @P2@ INDI",
	"1 NAME Bob /B/",
	"1 SEX M",
	"1 FAMS @F1@",
	"0 @P3@ INDI",
	"1 NAME Carol /B/",
	"1 FAMC @F1@",
	"0 @F1@ FAM",
	"1 WIFE @P1@",
	"1 HUSB @P2@",
	"1 CHIL @P3@",
	"0 TRLR",
)

func mustParse(t *testing.T, data []byte) *graph.Graph {
	t.Helper()
	g, err := ParseBytes(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return g
}

func mustIndividual(t *testing.T, g *graph.Graph, id string) *graph.Individual {
	t.Helper()
	ind, err := g.Individual(id)
	if err != nil {
		t.Fatal(err)
	}
	return ind
}

func TestParse_Hello(t *testing.T) {
	g := mustParse(t, helloGed)
	if g.Len() != 4 {
		t.Fatalf("expected 4 nodes, got %d", g.Len())
	}
	alice := mustIndividual(t, g, "P1")
	if alice.Forename != "Alice" || alice.Surname != "A" || alice.Sex != "F" {
		t.Errorf("unexpected name/sex: %q %q %q", alice.Forename, alice.Surname, alice.Sex)
	}
	if alice.Birth != "1950" || alice.Death != "2010" {
		t.Errorf("got birth %q death %q, want 1950-2010", alice.Birth, alice.Death)
	}
	if len(alice.FamsIDs) != 1 || alice.FamsIDs[0] != "F1" {
		t.Errorf("FAMS ids = %v", alice.FamsIDs)
	}

	f, err := g.Family("F1")
	if err != nil {
		t.Fatal(err)
	}
	if f.WifeID != "P1" || f.HusbID != "P2" || len(f.ChildIDs) != 1 || f.ChildIDs[0] != "P3" {
		t.Errorf("unexpected family ids: %s", f)
	}
	if f.Wife != nil {
		t.Error("parsing must not resolve references")
	}
}

func TestParse_InputOrder(t *testing.T) {
	g := mustParse(t, helloGed)
	want := []string{"P1", "P2", "P3", "F1"}
	for i, n := range g.Nodes() {
		if n.ID() != want[i] {
			t.Errorf("node %d = %s, want %s", i, n.ID(), want[i])
		}
	}
}

func TestParse_NoTrailingRecord(t *testing.T) {
	// The last entity must be kept even without a closing level-0 line.
	data := []byte("0 @P1@ INDI\r\n1 NAME Alice /A/")
	g := mustParse(t, data)
	if g.Len() != 1 {
		t.Fatalf("expected 1 node, got %d", g.Len())
	}
}

func TestParse_NoSurname(t *testing.T) {
	g := mustParse(t, doc("0 @P1@ INDI", "1 NAME Alice"))
	alice := mustIndividual(t, g, "P1")
	if alice.Surname != "" || alice.Forename != "Alice" {
		t.Errorf("got %q %q", alice.Forename, alice.Surname)
	}
}

func TestParse_NoSex(t *testing.T) {
	g := mustParse(t, doc("0 @P1@ INDI", "1 NAME Pat /P/", "1 SEX"))
	if sex := mustIndividual(t, g, "P1").Sex; sex != "" {
		t.Errorf("sex should stay unset, got %q", sex)
	}
}

func TestParse_DuplicateFAMC(t *testing.T) {
	g := mustParse(t, doc("0 @P1@ INDI", "1 FAMC @F1@", "1 FAMC @F2@"))
	if famc := mustIndividual(t, g, "P1").FamcID; famc != "F1" {
		t.Errorf("first FAMC should win, got %q", famc)
	}
}

func TestParse_BOM(t *testing.T) {
	withBOM := append([]byte("\ufeff"), helloGed...)
	g := mustParse(t, withBOM)
	plain := mustParse(t, helloGed)
	if g.Len() != plain.Len() {
		t.Fatalf("BOM input parsed %d nodes, plain %d", g.Len(), plain.Len())
	}
	for i := range plain.Nodes() {
		if g.Nodes()[i].ID() != plain.Nodes()[i].ID() {
			t.Errorf("node %d differs: %s vs %s", i, g.Nodes()[i].ID(), plain.Nodes()[i].ID())
		}
	}
}

func TestParse_BadLevel(t *testing.T) {
	_, err := ParseBytes(doc("0 HEAD", "x @P1@ INDI"))
	if !errors.Is(err, ErrBadLevel) {
		t.Fatalf("expected ErrBadLevel, got %v", err)
	}
	var se *SyntaxError
	if !errors.As(err, &se) || se.Line != 2 {
		t.Errorf("error should point at line 2, got %v", err)
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	_, err := ParseBytes([]byte("0 @P1@ INDI\r\n1 NAME \xff\xfe\r\n"))
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestParse_Level3Ignored(t *testing.T) {
	g := mustParse(t, doc(
		"0 @P1@ INDI",
		"1 BIRT",
		"2 PLAC Somewhere",
		"3 MAP",
		"3 DATE 1234",
		"2 DATE 1900",
	))
	if birth := mustIndividual(t, g, "P1").Birth; birth != "1900" {
		t.Errorf("got birth %q, want 1900", birth)
	}
}

func TestParse_UnexpectedDate(t *testing.T) {
	// A date under a record which is neither birth nor death is ignored.
	g := mustParse(t, doc(
		"0 @P1@ INDI",
		"1 BIRT",
		"2 DATE 1900",
		"1 RESI",
		"2 DATE 1930",
		"1 DEAT",
		"2 DATE 1980",
	))
	p := mustIndividual(t, g, "P1")
	if p.Birth != "1900" || p.Death != "1980" {
		t.Errorf("got %q-%q, want 1900-1980", p.Birth, p.Death)
	}
}

func TestParse_DateOutsideIndividual(t *testing.T) {
	g := mustParse(t, doc(
		"0 @F1@ FAM",
		"1 MARR",
		"2 DATE 1950",
		"1 HUSB @P1@",
	))
	f, err := g.Family("F1")
	if err != nil {
		t.Fatal(err)
	}
	if f.HusbID != "P1" {
		t.Errorf("got husband %q", f.HusbID)
	}
}

func TestParse_MultilineNote(t *testing.T) {
	g := mustParse(t, doc(
		"0 @P2@ INDI",
		"1 NAME Bob /B/",
		"1 NOTE This is a note with",
		"2 CONT 3",
		"2 CONT lines",
		"1 SEX M",
	))
	note := mustIndividual(t, g, "P2").Note
	if note != "This is a note with\n3\nlines" {
		t.Errorf("got note %q", note)
	}
	if strings.Count(note, "\n") != 2 {
		t.Errorf("three-line note should have two separators, got %q", note)
	}
}

func TestParse_RepeatedNoteRecords(t *testing.T) {
	g := mustParse(t, doc(
		"0 @P1@ INDI",
		"1 NOTE first",
		"1 NOTE sec",
		"2 CONC ond",
	))
	if note := mustIndividual(t, g, "P1").Note; note != "first\nsecond" {
		t.Errorf("got note %q", note)
	}
}

func TestParse_ContOutsideNote(t *testing.T) {
	g := mustParse(t, doc(
		"0 @P1@ INDI",
		"1 NOTE only",
		"1 BIRT",
		"2 CONT stray",
	))
	if note := mustIndividual(t, g, "P1").Note; note != "only" {
		t.Errorf("got note %q", note)
	}
}

func TestParse_UnknownLevel0Ignored(t *testing.T) {
	g := mustParse(t, doc(
		"0 @S1@ SOUR",
		"1 TITL A source",
		"0 @P1@ INDI",
	))
	if g.Len() != 1 {
		t.Errorf("only the individual should be kept, got %d nodes", g.Len())
	}
}

func TestParse_EmptyInput(t *testing.T) {
	g := mustParse(t, nil)
	if g.Len() != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.Len())
	}
}

func TestParse_Reader(t *testing.T) {
	g, err := Parse(strings.NewReader(string(helloGed)))
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Resolve(); err != nil {
		t.Fatalf("hello.ged should resolve: %v", err)
	}
}
