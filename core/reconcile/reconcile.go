// Package reconcile holds the normalization rules every format module applies
// when the target format cannot represent a document exactly.
//
// The rules are deterministic so that generating the same document twice
// yields the same bytes, and generating already-degraded output changes
// nothing further.
package reconcile

import (
	"fmt"

	"github.com/FocuswithJustin/docbridge/core/cdm"
)

// Heading level bounds.
const (
	MinHeading = 1
	MaxHeading = 6
)

// ClampHeading saturates a heading level to [1,6].
func ClampHeading(level int) int {
	if level < MinHeading {
		return MinHeading
	}
	if level > MaxHeading {
		return MaxHeading
	}
	return level
}

// Heading returns h with its level clamped, recording a diagnostic when the
// level changed.
func Heading(h cdm.Header, rep *Report, path string) cdm.Header {
	if c := ClampHeading(h.Level); c != h.Level {
		rep.Addf(Clamped, path, "heading level %d clamped to %d", h.Level, c)
		h.Level = c
	}
	return h
}

// EmptyCell is the element used to pad short rows.
func EmptyCell() cdm.Element {
	return cdm.Text{Content: "", Size: 0}
}

// Columns returns the grid width of a table: the header count, or the widest
// row when the table has no headers.
func Columns(t cdm.Table) int {
	if len(t.Headers) > 0 {
		return len(t.Headers)
	}
	width := 0
	for _, r := range t.Rows {
		if len(r.Cells) > width {
			width = len(r.Cells)
		}
	}
	return width
}

// Grid is a rectangular view of a table.
type Grid struct {
	Headers []cdm.Element
	Widths  []float64
	Rows    [][]cdm.Element
}

// Columns returns the number of columns.
func (g Grid) Columns() int {
	return len(g.Headers)
}

// HasWidths reports whether any column carries a width hint.
func (g Grid) HasWidths() bool {
	for _, w := range g.Widths {
		if w > 0 {
			return true
		}
	}
	return false
}

// Rectangular pads short rows with empty text and drops cells beyond the
// column count, recording each adjustment in rep. A table without headers
// gets empty header cells.
func Rectangular(t cdm.Table, rep *Report, path string) Grid {
	cols := Columns(t)
	g := Grid{
		Headers: make([]cdm.Element, cols),
		Widths:  make([]float64, cols),
		Rows:    make([][]cdm.Element, len(t.Rows)),
	}
	if len(t.Headers) == 0 && cols > 0 {
		rep.Addf(Padded, path+".headers", "synthesized %d empty header cells", cols)
	}
	for i := 0; i < cols; i++ {
		if i < len(t.Headers) {
			g.Headers[i] = t.Headers[i].Element
			g.Widths[i] = t.Headers[i].Width
		} else {
			g.Headers[i] = EmptyCell()
		}
	}
	for i, r := range t.Rows {
		row := make([]cdm.Element, cols)
		for j := 0; j < cols; j++ {
			if j < len(r.Cells) {
				row[j] = r.Cells[j].Element
			} else {
				row[j] = EmptyCell()
			}
		}
		rowPath := fmt.Sprintf("%s.rows[%d]", path, i)
		if n := len(r.Cells); n < cols {
			rep.Addf(Padded, rowPath, "padded %d missing cells", cols-n)
		} else if n > cols {
			rep.Addf(Truncated, rowPath, "dropped %d cells beyond %d columns", n-cols, cols)
		}
		g.Rows[i] = row
	}
	return g
}

// Reconciled returns the table rebuilt from its rectangular grid. A table
// without headers stays without them and its rows are padded to the widest.
func Reconciled(t cdm.Table, rep *Report, path string) cdm.Table {
	g := Rectangular(t, rep, path)
	var out cdm.Table
	if len(t.Headers) > 0 {
		out.Headers = make([]cdm.TableHeader, g.Columns())
		for i, h := range g.Headers {
			out.Headers[i] = cdm.TableHeader{Element: h, Width: g.Widths[i]}
		}
	}
	for _, r := range g.Rows {
		out.Rows = append(out.Rows, cdm.Row(r...))
	}
	return out
}

// Collapse returns the only child of a single-child paragraph, repeatedly,
// and any other element unchanged.
func Collapse(e cdm.Element) cdm.Element {
	for {
		p, ok := e.(cdm.Paragraph)
		if !ok || len(p.Children) != 1 {
			return e
		}
		e = p.Children[0]
	}
}

// Single wraps a parsed inline sequence: no elements become empty text,
// one element is returned as is, several become a Paragraph.
func Single(elems []cdm.Element) cdm.Element {
	switch len(elems) {
	case 0:
		return EmptyCell()
	case 1:
		return elems[0]
	default:
		return cdm.Paragraph{Children: elems}
	}
}

// MergeText joins adjacent Text runs of equal size and drops empty runs.
func MergeText(elems []cdm.Element) []cdm.Element {
	var out []cdm.Element
	for _, e := range elems {
		t, ok := e.(cdm.Text)
		if !ok {
			out = append(out, e)
			continue
		}
		if t.Content == "" {
			continue
		}
		if n := len(out); n > 0 {
			if prev, ok := out[n-1].(cdm.Text); ok && prev.Size == t.Size {
				out[n-1] = cdm.Text{Content: prev.Content + t.Content, Size: t.Size}
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// TablesOf returns every table in the document body in depth-first order,
// together with its path.
func TablesOf(d *cdm.Document) ([]cdm.Table, []string) {
	var tables []cdm.Table
	var paths []string
	_ = cdm.WalkElements("body", d.Body, func(path string, e cdm.Element) error {
		if t, ok := e.(cdm.Table); ok {
			tables = append(tables, t)
			paths = append(paths, path)
			return cdm.SkipChildren
		}
		return nil
	})
	return tables, paths
}

// DropNonTables records a Dropped diagnostic for every body element that
// neither is nor contains a table. Grid formats use it.
func DropNonTables(d *cdm.Document, rep *Report) {
	for i, e := range d.Body {
		found := false
		_ = cdm.WalkElements("x", []cdm.Element{e}, func(_ string, c cdm.Element) error {
			if _, ok := c.(cdm.Table); ok {
				found = true
			}
			return nil
		})
		if !found {
			rep.Addf(Dropped, fmt.Sprintf("body[%d]", i), "%s has no cell representation", e.Kind())
		}
	}
	if len(d.PageHeader) > 0 || len(d.PageFooter) > 0 {
		rep.Add(Dropped, "page_header", "page header and footer have no cell representation")
	}
}
