// Package dot serializes a family subgraph into a Graphviz document.
package dot

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/drzraf/ged2dot/internal/config"
	"github.com/drzraf/ged2dot/internal/graph"
)

// Header is the first line of every generated document
const Header = "// Generated by ged2dot.\n"

const imageCacheSize = 4096

// Options controls how individuals are drawn
type Options struct {
	// ImageDir is the absolute directory of the portraits; empty means no portraits
	ImageDir string
	// PlaceholderDir holds placeholder-{m,f,u}.png
	PlaceholderDir string
	// NameOrder is config.NameOrderLittle or config.NameOrderBig
	NameOrder string
}

// Renderer turns subgraphs into DOT text. Image lookups are cached for its lifetime,
// so create a new Renderer when the image directory may have changed.
type Renderer struct {
	opts   Options
	exists *lru.Cache[string, bool]
}

// NewRenderer creates a renderer
func NewRenderer(opts Options) (*Renderer, error) {
	cache, err := lru.New[string, bool](imageCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating image cache: %w", err)
	}
	return &Renderer{opts: opts, exists: cache}, nil
}

// Render returns the complete document for the given subgraph
func (r *Renderer) Render(nodes []graph.Node) []byte {
	var buf bytes.Buffer
	r.render(&buf, nodes)
	return buf.Bytes()
}

// Write renders the subgraph into w
func (r *Renderer) Write(w io.Writer, nodes []graph.Node) error {
	_, err := w.Write(r.Render(nodes))
	return err
}

func (r *Renderer) render(buf *bytes.Buffer, nodes []graph.Node) {
	buf.WriteString(Header)
	buf.WriteString("digraph\n{\nsplines = ortho;\n\n")

	in := make(map[graph.Node]bool, len(nodes))
	for _, n := range nodes {
		in[n] = true
	}

	for _, n := range nodes {
		ind, ok := n.(*graph.Individual)
		if !ok {
			continue
		}
		fmt.Fprintf(buf, "%s [shape=box, label = <%s>\n", ID(ind.Identifier), r.Label(ind))
		fmt.Fprintf(buf, "color = %s];\n", Color(ind))
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		if fam, ok := n.(*graph.Family); ok {
			fmt.Fprintf(buf, "%s [shape=point, width=0.1];\n", ID(fam.Identifier))
		}
	}
	buf.WriteString("\n")

	for _, n := range nodes {
		fam, ok := n.(*graph.Family)
		if !ok {
			continue
		}
		if fam.Wife != nil && in[fam.Wife] {
			edge(buf, fam.Wife.Identifier, fam.Identifier)
		}
		if fam.Husb != nil && in[fam.Husb] {
			edge(buf, fam.Husb.Identifier, fam.Identifier)
		}
		for _, child := range fam.Children {
			if in[child] {
				edge(buf, fam.Identifier, child.Identifier)
			}
		}
	}

	buf.WriteString("}\n")
}

func edge(buf *bytes.Buffer, from, to string) {
	fmt.Fprintf(buf, "%s -> %s [dir=none];\n", ID(from), ID(to))
}

// Label returns the HTML-like label of an individual: portrait, names, then birth-death
func (r *Renderer) Label(ind *graph.Individual) string {
	var b strings.Builder
	b.WriteString(`<table border="0" cellborder="0"><tr><td>`)
	b.WriteString(`<img src="` + html.EscapeString(r.ImagePath(ind)) + `"/>`)
	b.WriteString("</td></tr><tr><td>")
	first, second := ind.Forename, ind.Surname
	if r.opts.NameOrder == config.NameOrderBig {
		first, second = second, first
	}
	b.WriteString(html.EscapeString(first) + "<br/>")
	b.WriteString(html.EscapeString(second) + "<br/>")
	b.WriteString(html.EscapeString(ind.Birth + "-" + ind.Death))
	b.WriteString("</td></tr></table>")
	return b.String()
}

// ImagePath returns "<imagedir>/<forename> <surname> <birth>.jpg" if that file exists,
// the placeholder matching the individual's sex otherwise
func (r *Renderer) ImagePath(ind *graph.Individual) string {
	if r.opts.ImageDir != "" {
		path := filepath.Join(r.opts.ImageDir, ind.Forename+" "+ind.Surname+" "+ind.Birth+".jpg")
		if r.fileExists(path) {
			return path
		}
	}
	return filepath.Join(r.opts.PlaceholderDir, "placeholder-"+sexLetter(ind)+".png")
}

func (r *Renderer) fileExists(path string) bool {
	if ok, cached := r.exists.Get(path); cached {
		return ok
	}
	_, err := os.Stat(path)
	ok := err == nil
	r.exists.Add(path, ok)
	return ok
}

func sexLetter(ind *graph.Individual) string {
	switch strings.ToUpper(ind.Sex) {
	case "M":
		return "m"
	case "F":
		return "f"
	default:
		return "u"
	}
}

// Color returns the border color of an individual's box
func Color(ind *graph.Individual) string {
	switch strings.ToUpper(ind.Sex) {
	case "M":
		return "blue"
	case "F":
		return "pink"
	default:
		return "black"
	}
}

// ID returns id as a DOT identifier, quoting it unless it is a plain alphanumeric id
func ID(id string) string {
	if isPlainID(id) {
		return id
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(id) + `"`
}

func isPlainID(id string) bool {
	if id == "" {
		return false
	}
	for i, c := range id {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
