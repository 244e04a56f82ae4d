package cdm

import (
	"bytes"
	"errors"
	"fmt"
)

// SkipChildren may be returned by a WalkFunc to skip the element's subtree.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every element with its path, e.g. "body[1].items[0].element".
type WalkFunc func(path string, e Element) error

// Walk visits body, page header and page footer depth-first in pre-order.
func Walk(d *Document, fn WalkFunc) error {
	if d == nil {
		return nil
	}
	sections := []struct {
		name  string
		elems []Element
	}{
		{"body", d.Body},
		{"page_header", d.PageHeader},
		{"page_footer", d.PageFooter},
	}
	for _, s := range sections {
		if err := WalkElements(s.name, s.elems, fn); err != nil {
			return err
		}
	}
	return nil
}

// WalkElements visits a sequence of elements whose paths start with prefix.
func WalkElements(prefix string, elems []Element, fn WalkFunc) error {
	for i, e := range elems {
		if err := walk(fmt.Sprintf("%s[%d]", prefix, i), e, fn); err != nil {
			return err
		}
	}
	return nil
}

func walk(path string, e Element, fn WalkFunc) error {
	if err := fn(path, e); err != nil {
		if err == SkipChildren {
			return nil
		}
		return err
	}
	switch v := e.(type) {
	case Paragraph:
		return WalkElements(path+".children", v.Children, fn)
	case Table:
		for i, h := range v.Headers {
			if err := walk(fmt.Sprintf("%s.headers[%d].element", path, i), h.Element, fn); err != nil {
				return err
			}
		}
		for i, r := range v.Rows {
			for j, c := range r.Cells {
				if err := walk(fmt.Sprintf("%s.rows[%d].cells[%d].element", path, i, j), c.Element, fn); err != nil {
					return err
				}
			}
		}
	case List:
		for i, it := range v.Items {
			if err := walk(fmt.Sprintf("%s.items[%d].element", path, i), it.Element, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stats counts elements per kind across the whole document.
func Stats(d *Document) map[Kind]int {
	counts := make(map[Kind]int)
	_ = Walk(d, func(_ string, e Element) error {
		if e != nil {
			counts[e.Kind()]++
		}
		return nil
	})
	return counts
}

// Clone returns a deep copy of d.
func Clone(d *Document) *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Body = cloneElements(d.Body)
	c.PageHeader = cloneElements(d.PageHeader)
	c.PageFooter = cloneElements(d.PageFooter)
	return &c
}

// CloneElement returns a deep copy of e.
func CloneElement(e Element) Element {
	switch v := e.(type) {
	case Paragraph:
		return Paragraph{Children: cloneElements(v.Children)}
	case Table:
		t := Table{}
		if v.Headers != nil {
			t.Headers = make([]TableHeader, len(v.Headers))
			for i, h := range v.Headers {
				t.Headers[i] = TableHeader{Element: CloneElement(h.Element), Width: h.Width}
			}
		}
		if v.Rows != nil {
			t.Rows = make([]TableRow, len(v.Rows))
			for i, r := range v.Rows {
				cells := make([]TableCell, len(r.Cells))
				for j, c := range r.Cells {
					cells[j] = TableCell{Element: CloneElement(c.Element)}
				}
				t.Rows[i] = TableRow{Cells: cells}
			}
		}
		return t
	case List:
		l := List{Numbered: v.Numbered}
		if v.Items != nil {
			l.Items = make([]ListItem, len(v.Items))
			for i, it := range v.Items {
				l.Items[i] = ListItem{Element: CloneElement(it.Element)}
			}
		}
		return l
	case Image:
		v.Bytes = bytes.Clone(v.Bytes)
		return v
	default:
		// Text, Header and Hyperlink hold no references.
		return e
	}
}

func cloneElements(elems []Element) []Element {
	if elems == nil {
		return nil
	}
	out := make([]Element, len(elems))
	for i, e := range elems {
		out[i] = CloneElement(e)
	}
	return out
}

// Equal reports whether two documents are structurally equal.
// Nil and empty slices compare equal.
func Equal(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.PageWidth == b.PageWidth &&
		a.PageHeight == b.PageHeight &&
		a.MarginTop == b.MarginTop &&
		a.MarginBottom == b.MarginBottom &&
		a.MarginLeft == b.MarginLeft &&
		a.MarginRight == b.MarginRight &&
		ElementsEqual(a.Body, b.Body) &&
		ElementsEqual(a.PageHeader, b.PageHeader) &&
		ElementsEqual(a.PageFooter, b.PageFooter)
}

// ElementsEqual compares two element sequences structurally.
func ElementsEqual(a, b []Element) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ElementEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// ElementEqual compares two elements structurally.
func ElementEqual(a, b Element) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Text:
		y, ok := b.(Text)
		return ok && x == y
	case Header:
		y, ok := b.(Header)
		return ok && x == y
	case Hyperlink:
		y, ok := b.(Hyperlink)
		return ok && x == y
	case Image:
		y, ok := b.(Image)
		return ok && x.Title == y.Title && x.Alt == y.Alt &&
			x.Encoding == y.Encoding && bytes.Equal(x.Bytes, y.Bytes)
	case Paragraph:
		y, ok := b.(Paragraph)
		return ok && ElementsEqual(x.Children, y.Children)
	case List:
		y, ok := b.(List)
		if !ok || x.Numbered != y.Numbered || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			if !ElementEqual(x.Items[i].Element, y.Items[i].Element) {
				return false
			}
		}
		return true
	case Table:
		y, ok := b.(Table)
		if !ok || len(x.Headers) != len(y.Headers) || len(x.Rows) != len(y.Rows) {
			return false
		}
		for i := range x.Headers {
			if x.Headers[i].Width != y.Headers[i].Width ||
				!ElementEqual(x.Headers[i].Element, y.Headers[i].Element) {
				return false
			}
		}
		for i := range x.Rows {
			if len(x.Rows[i].Cells) != len(y.Rows[i].Cells) {
				return false
			}
			for j := range x.Rows[i].Cells {
				if !ElementEqual(x.Rows[i].Cells[j].Element, y.Rows[i].Cells[j].Element) {
					return false
				}
			}
		}
		return true
	}
	return false
}
