// Package gedcom tokenizes a GEDCOM file into an unresolved graph of individuals and families.
package gedcom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/drzraf/ged2dot/internal/graph"
)

var (
	// ErrBadLevel is returned for a line whose level token is not a decimal number
	ErrBadLevel = errors.New("level is not a number")
	// ErrInvalidEncoding is returned when the input is not UTF-8
	ErrInvalidEncoding = errors.New("input is not valid UTF-8")
)

// SyntaxError points at the offending input line
type SyntaxError struct {
	Line int // 1-based, counting the CRLF-separated lines
	Text string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// subRecord is the level-1 record the following level-2 lines belong to
type subRecord int

const (
	inNone subRecord = iota
	inBirth
	inDeath
	inNote
)

// parser carries the in-progress entity between lines
type parser struct {
	graph      *graph.Graph
	individual *graph.Individual
	family     *graph.Family
	state      subRecord
}

// Parse reads the whole stream and returns the flat, unresolved graph
func Parse(r io.Reader) (*graph.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading gedcom: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes tokenizes a complete GEDCOM document
func ParseBytes(data []byte) (*graph.Graph, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}
	data, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return nil, fmt.Errorf("decoding gedcom: %w", err)
	}

	p := &parser{graph: graph.New()}
	for i, raw := range bytes.Split(data, []byte("\r\n")) {
		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}
		levelToken, rest, _ := strings.Cut(line, " ")
		level, err := strconv.Atoi(levelToken)
		if err != nil {
			return nil, &SyntaxError{Line: i + 1, Text: line, Err: ErrBadLevel}
		}
		switch level {
		case 0:
			p.handleLevel0(rest)
		case 1:
			p.handleLevel1(rest)
		case 2:
			p.handleLevel2(rest)
		}
	}
	p.flush()
	return p.graph, nil
}

// flush appends the in-progress entity, if any, to the graph
func (p *parser) flush() {
	if p.individual != nil {
		p.graph.Add(p.individual)
		p.individual = nil
	}
	if p.family != nil {
		p.graph.Add(p.family)
		p.family = nil
	}
}

func (p *parser) handleLevel0(rest string) {
	p.flush()
	p.state = inNone

	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return
	}
	id, ok := xref(fields[0])
	if !ok {
		return
	}
	switch fields[1] {
	case "INDI":
		p.individual = graph.NewIndividual(id)
	case "FAM":
		p.family = graph.NewFamily(id)
	}
}

func (p *parser) handleLevel1(rest string) {
	p.state = inNone

	tag, value, _ := strings.Cut(rest, " ")
	ind, fam := p.individual, p.family
	switch {
	case tag == "SEX" && ind != nil:
		if sex := strings.TrimSpace(value); sex != "" {
			ind.Sex = sex
		}
	case tag == "NAME" && ind != nil:
		forename, surname, _ := strings.Cut(value, "/")
		ind.Forename = strings.TrimSpace(forename)
		surname, _, _ = strings.Cut(surname, "/")
		ind.Surname = strings.TrimSpace(surname)
	case tag == "FAMC" && ind != nil:
		// Some exporters (ancestry.com) repeat FAMC; only the first one counts.
		if ind.FamcID == "" {
			ind.FamcID = xrefValue(value)
		}
	case tag == "FAMS" && ind != nil:
		ind.FamsIDs = append(ind.FamsIDs, xrefValue(value))
	case tag == "HUSB" && fam != nil:
		fam.HusbID = xrefValue(value)
	case tag == "WIFE" && fam != nil:
		fam.WifeID = xrefValue(value)
	case tag == "CHIL" && fam != nil:
		fam.ChildIDs = append(fam.ChildIDs, xrefValue(value))
	default:
		p.handleAnnotation(tag, value)
	}
}

// handleAnnotation covers the level-1 records that only matter to an individual's label
func (p *parser) handleAnnotation(tag, value string) {
	switch tag {
	case "BIRT":
		p.state = inBirth
	case "DEAT":
		p.state = inDeath
	case "NOTE":
		if p.individual == nil {
			return
		}
		p.state = inNote
		if p.individual.Note != "" {
			p.individual.Note += "\n"
		}
		p.individual.Note += value
	}
}

func (p *parser) handleLevel2(rest string) {
	if p.individual == nil {
		return
	}
	tag, value, _ := strings.Cut(rest, " ")
	switch {
	case tag == "DATE":
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return
		}
		year := fields[len(fields)-1]
		switch p.state {
		case inBirth:
			p.individual.Birth = year
		case inDeath:
			p.individual.Death = year
		}
	case tag == "CONT" && p.state == inNote:
		p.individual.Note += "\n" + value
	case tag == "CONC" && p.state == inNote:
		p.individual.Note += value
	}
}

// xref extracts ID from @ID@
func xref(token string) (string, bool) {
	if len(token) < 3 || token[0] != '@' || token[len(token)-1] != '@' {
		return "", false
	}
	return token[1 : len(token)-1], true
}

// xrefValue extracts the id of a pointer value, tolerating a missing @ pair
func xrefValue(value string) string {
	value = strings.TrimSpace(value)
	if id, ok := xref(value); ok {
		return id
	}
	return value
}
