package typst

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/encoding"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// smallText is the size written for small text runs.
const smallText = "0.8em"

type writer struct {
	rep   *reconcile.Report
	save  docbridge.Saver
	names base.ImageNamer
}

func mm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "mm"
}

func (w *writer) document(doc *cdm.Document) ([]byte, error) {
	var out []string
	rule, err := w.pageRule(doc)
	if err != nil {
		return nil, err
	}
	if rule != "" {
		out = append(out, rule)
	}
	body, err := w.blocks(doc.Body, "body")
	if err != nil {
		return nil, err
	}
	if body != "" {
		out = append(out, body)
	}
	if len(out) == 0 {
		return []byte{}, nil
	}
	return []byte(strings.Join(out, "\n\n") + "\n"), nil
}

// pageRule writes geometry and bands as a #set page rule.
func (w *writer) pageRule(doc *cdm.Document) (string, error) {
	var args []string
	if doc.HasPageGeometry() {
		args = append(args, "width: "+mm(doc.PageWidth), "height: "+mm(doc.PageHeight))
	}
	if doc.HasPageGeometry() || doc.MarginTop != 0 || doc.MarginBottom != 0 || doc.MarginLeft != 0 || doc.MarginRight != 0 {
		args = append(args, fmt.Sprintf("margin: (top: %s, bottom: %s, left: %s, right: %s)",
			mm(doc.MarginTop), mm(doc.MarginBottom), mm(doc.MarginLeft), mm(doc.MarginRight)))
	}
	for _, band := range []struct {
		name  string
		elems []cdm.Element
		path  string
	}{{"header", doc.PageHeader, "page_header"}, {"footer", doc.PageFooter, "page_footer"}} {
		if len(band.elems) == 0 {
			continue
		}
		s, err := w.blocks(band.elems, band.path)
		if err != nil {
			return "", err
		}
		args = append(args, band.name+": ["+s+"]")
	}
	if len(args) == 0 {
		return "", nil
	}
	return "#set page(" + strings.Join(args, ", ") + ")", nil
}

func (w *writer) blocks(elems []cdm.Element, prefix string) (string, error) {
	var out []string
	for i, e := range elems {
		s, err := w.block(e, fmt.Sprintf("%s[%d]", prefix, i))
		if err != nil {
			return "", err
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n\n"), nil
}

func (w *writer) block(e cdm.Element, path string) (string, error) {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Header:
		h := reconcile.Heading(v, w.rep, path)
		marks := strings.Repeat("=", h.Level)
		title := oneLine(h.Text)
		if title == "" {
			return marks, nil
		}
		return marks + " " + encoding.EscapeTypst(title), nil
	case cdm.Text, cdm.Hyperlink, cdm.Image:
		s, err := w.inline(v, path)
		if err != nil {
			return "", err
		}
		return w.trimLead(s, path), nil
	case cdm.Paragraph:
		return w.paragraph(v, path, true)
	case cdm.List:
		var lines []string
		if err := w.list(v, path, 0, &lines); err != nil {
			return "", err
		}
		return strings.Join(lines, "\n"), nil
	case cdm.Table:
		return w.table(v, path)
	default:
		return "", base.UnknownElementError(Name, path, e)
	}
}

// trimLead drops leading whitespace, which would otherwise read back as
// indentation.
func (w *writer) trimLead(s, path string) string {
	t := strings.TrimLeft(s, " \t")
	if t != s {
		w.rep.Add(reconcile.Degraded, path, "leading whitespace dropped")
	}
	return t
}

// paragraph joins runs of inline children and writes block children as
// separate blocks. At the top level the split cannot be read back as one
// paragraph and is reported.
func (w *writer) paragraph(p cdm.Paragraph, path string, report bool) (string, error) {
	var parts []string
	var run strings.Builder
	endRun := func() {
		if run.Len() > 0 {
			parts = append(parts, w.trimLead(run.String(), path))
			run.Reset()
		}
	}
	for i, c := range p.Children {
		cpath := fmt.Sprintf("%s.children[%d]", path, i)
		if cdm.IsInline(c) {
			s, err := w.inline(c, cpath)
			if err != nil {
				return "", err
			}
			run.WriteString(s)
			continue
		}
		endRun()
		s, err := w.block(c, cpath)
		if err != nil {
			return "", err
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	endRun()
	if report && len(parts) > 1 {
		w.rep.Add(reconcile.Degraded, path, "paragraph with block children split into separate blocks")
	}
	return strings.Join(parts, "\n\n"), nil
}

func (w *writer) inline(e cdm.Element, path string) (string, error) {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Text:
		return w.text(v, path), nil
	case cdm.Hyperlink:
		if v.Alt != "" {
			w.rep.Add(reconcile.Degraded, path, "link tooltip dropped")
		}
		link := `#link("` + encoding.EscapeQuoted(oneLine(v.URL)) + `")[` + encoding.EscapeTypst(oneLine(v.Title)) + "]"
		return sized(link, v.Size), nil
	case cdm.Image:
		if v.Title != "" {
			w.rep.Add(reconcile.Degraded, path, "image title dropped")
		}
		ref, err := base.ImageTarget(w.save, &w.names, v)
		if err != nil {
			return "", err
		}
		img := `#image("` + encoding.EscapeQuoted(ref) + `"`
		if alt := oneLine(v.Alt); alt != "" {
			img += `, alt: "` + encoding.EscapeQuoted(alt) + `"`
		}
		return img + ")", nil
	case cdm.Paragraph:
		var b strings.Builder
		for i, c := range v.Children {
			s, err := w.inline(c, fmt.Sprintf("%s.children[%d]", path, i))
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil
	case cdm.Header, cdm.List, cdm.Table:
		w.rep.Addf(reconcile.Degraded, path, "%s flattened to inline text", v.Kind())
		return encoding.EscapeTypst(oneLine(reconcile.PlainText(v))), nil
	default:
		return "", base.UnknownElementError(Name, path, e)
	}
}

// text writes a run with hard line breaks. Whitespace opening a broken
// line is dropped.
func (w *writer) text(t cdm.Text, path string) string {
	lines := strings.Split(t.Content, "\n")
	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimLeft(lines[i], " \t")
		if trimmed != lines[i] {
			w.rep.Add(reconcile.Degraded, path, "leading whitespace after line break dropped")
			lines[i] = trimmed
		}
	}
	s := sized(encoding.EscapeTypst(strings.Join(lines, "\n")), t.Size)
	return strings.ReplaceAll(s, "\n", "\\\n")
}

// sized wraps s in the markup for size, keeping edge whitespace outside.
func sized(s string, size int) string {
	core := strings.TrimFunc(s, unicode.IsSpace)
	if core == "" {
		return s
	}
	start := strings.Index(s, core)
	pre, post := "", ""
	switch st := reconcile.StyleOf(size); {
	case st.Small:
		pre, post = "#text(size: "+smallText+")[", "]"
	case st.Bold && st.Italic:
		pre, post = "*_", "_*"
	case st.Bold:
		pre, post = "*", "*"
	case st.Italic:
		pre, post = "_", "_"
	default:
		return s
	}
	return s[:start] + pre + core + post + s[start+len(core):]
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (w *writer) list(l cdm.List, path string, depth int, lines *[]string) error {
	indent := strings.Repeat("  ", depth)
	marker := "- "
	if l.Numbered {
		marker = "+ "
	}
	for i, it := range l.Items {
		ipath := fmt.Sprintf("%s.items[%d].element", path, i)
		if nested, ok := it.Element.(cdm.List); ok {
			if err := w.list(nested, ipath, depth+1, lines); err != nil {
				return err
			}
			continue
		}
		s, err := w.inline(it.Element, ipath)
		if err != nil {
			return err
		}
		s = w.trimLead(s, ipath)
		cont := indent + strings.Repeat(" ", len(marker))
		*lines = append(*lines, indent+marker+strings.ReplaceAll(s, "\n", "\n"+cont))
	}
	return nil
}

// cell writes a table cell as block markup, so lists and nested tables
// survive.
func (w *writer) cell(e cdm.Element, path string) (string, error) {
	var s string
	var err error
	if p, ok := reconcile.Collapse(e).(cdm.Paragraph); ok {
		s, err = w.paragraph(p, path, false)
	} else {
		s, err = w.block(e, path)
	}
	if err != nil {
		return "", err
	}
	return "[" + s + "]", nil
}

func (w *writer) table(t cdm.Table, path string) (string, error) {
	g := reconcile.Rectangular(t, w.rep, path)
	if g.Columns() == 0 {
		w.rep.Add(reconcile.Dropped, path, "table has no columns")
		return "", nil
	}

	columns := strconv.Itoa(g.Columns())
	if g.HasWidths() {
		tracks := make([]string, len(g.Widths))
		for i, wd := range g.Widths {
			tracks[i] = "auto"
			if wd > 0 {
				tracks[i] = mm(wd)
			}
		}
		columns = "(" + strings.Join(tracks, ", ") + ",)"
	}

	header := make([]string, len(g.Headers))
	for i, h := range g.Headers {
		s, err := w.cell(h, fmt.Sprintf("%s.headers[%d].element", path, i))
		if err != nil {
			return "", err
		}
		header[i] = s
	}
	out := []string{
		"#table(",
		"  columns: " + columns + ",",
		"  table.header(" + strings.Join(header, ", ") + "),",
	}
	for r, row := range g.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			s, err := w.cell(c, fmt.Sprintf("%s.rows[%d].cells[%d].element", path, r, i))
			if err != nil {
				return "", err
			}
			cells[i] = s
		}
		out = append(out, "  "+strings.Join(cells, ", ")+",")
	}
	out = append(out, ")")
	return strings.Join(out, "\n"), nil
}
