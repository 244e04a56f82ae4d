package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/encoding"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

var (
	blankLinesRe = regexp.MustCompile(`\n[ \t]*\n[\s]*`)
	autolinkRe   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.+-]{1,31}:[^\s<>]*$`)
)

type writer struct {
	rep   *reconcile.Report
	save  docbridge.Saver
	names base.ImageNamer
}

func (w *writer) document(doc *cdm.Document) ([]byte, error) {
	paths := base.HoistedPaths(doc)
	var blocks []string
	for i, e := range base.Hoisted(doc) {
		s, err := w.block(e, paths[i])
		if err != nil {
			return nil, err
		}
		if s != "" {
			blocks = append(blocks, s)
		}
	}
	if len(blocks) == 0 {
		return []byte{}, nil
	}
	return []byte(strings.Join(blocks, "\n\n") + "\n"), nil
}

func (w *writer) block(e cdm.Element, path string) (string, error) {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Header:
		h := reconcile.Heading(v, w.rep, path)
		title := strings.TrimSpace(strings.ReplaceAll(h.Text, "\n", " "))
		marks := strings.Repeat("#", h.Level)
		if title == "" {
			return marks, nil
		}
		return marks + " " + encoding.EscapeMarkdown(title), nil
	case cdm.Text, cdm.Hyperlink, cdm.Image:
		return w.inline(v, path)
	case cdm.Paragraph:
		return w.paragraph(v, path)
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

// paragraph joins runs of inline children into one Markdown paragraph and
// writes block children as separate blocks.
func (w *writer) paragraph(p cdm.Paragraph, path string) (string, error) {
	var parts []string
	var run strings.Builder
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
		if run.Len() > 0 {
			parts = append(parts, run.String())
			run.Reset()
		}
		s, err := w.block(c, cpath)
		if err != nil {
			return "", err
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	if run.Len() > 0 {
		parts = append(parts, run.String())
	}
	if len(parts) > 1 {
		w.rep.Add(reconcile.Degraded, path, "paragraph with block children split into separate blocks")
	}
	return strings.Join(parts, "\n\n"), nil
}

// inline renders an inline element, or flattens a block element to
// escaped text.
func (w *writer) inline(e cdm.Element, path string) (string, error) {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Text:
		if v.Size < 0 {
			w.rep.Add(reconcile.Degraded, path, "small text rendered at body size")
		}
		content := blankLinesRe.ReplaceAllString(v.Content, "\n")
		return emphasize(encoding.EscapeMarkdown(content), v.Size), nil
	case cdm.Hyperlink:
		if v.Title == v.URL && v.Alt == v.URL && autolinkRe.MatchString(v.URL) {
			return emphasize("<"+v.URL+">", v.Size), nil
		}
		link := "[" + encoding.EscapeMarkdown(oneLine(v.Title)) + "](" + encoding.EscapeMarkdownURL(v.URL)
		if v.Alt != "" {
			link += ` "` + encoding.EscapeQuoted(oneLine(v.Alt)) + `"`
		}
		return emphasize(link+")", v.Size), nil
	case cdm.Image:
		ref, err := base.ImageTarget(w.save, &w.names, v)
		if err != nil {
			return "", err
		}
		img := "![" + encoding.EscapeMarkdown(oneLine(v.Alt)) + "](" + encoding.EscapeMarkdownURL(ref)
		if v.Title != "" {
			img += ` "` + encoding.EscapeQuoted(oneLine(v.Title)) + `"`
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
		return encoding.EscapeMarkdown(oneLine(reconcile.PlainText(v))), nil
	default:
		return "", base.UnknownElementError(Name, path, e)
	}
}

// emphasize wraps s in the markers for size, keeping edge whitespace
// outside the markers.
func emphasize(s string, size int) string {
	marker := ""
	switch st := reconcile.StyleOf(size); {
	case st.Bold && st.Italic:
		marker = "***"
	case st.Bold:
		marker = "**"
	case st.Italic:
		marker = "*"
	}
	if marker == "" {
		return s
	}
	core := strings.TrimFunc(s, unicode.IsSpace)
	if core == "" {
		return s
	}
	start := strings.Index(s, core)
	return s[:start] + marker + core + marker + s[start+len(core):]
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (w *writer) list(l cdm.List, path string, depth int, lines *[]string) error {
	indent := strings.Repeat("  ", depth)
	n := 0
	for i, it := range l.Items {
		ipath := fmt.Sprintf("%s.items[%d].element", path, i)
		if nested, ok := it.Element.(cdm.List); ok {
			if err := w.list(nested, ipath, depth+1, lines); err != nil {
				return err
			}
			continue
		}
		n++
		marker := "- "
		if l.Numbered {
			marker = strconv.Itoa(n) + ". "
		}
		s, err := w.inline(it.Element, ipath)
		if err != nil {
			return err
		}
		cont := indent + strings.Repeat(" ", len(marker))
		*lines = append(*lines, indent+marker+strings.ReplaceAll(s, "\n", "\n"+cont))
	}
	return nil
}

func (w *writer) table(t cdm.Table, path string) (string, error) {
	g := reconcile.Rectangular(t, w.rep, path)
	if g.Columns() == 0 {
		w.rep.Add(reconcile.Dropped, path, "table has no columns")
		return "", nil
	}

	cell := func(e cdm.Element, cpath string) (string, error) {
		s, err := w.inline(e, cpath)
		if err != nil {
			return "", err
		}
		return strings.ReplaceAll(s, "\n", " "), nil
	}

	rows := make([][]string, 0, len(g.Rows)+1)
	header := make([]string, g.Columns())
	for i, h := range g.Headers {
		s, err := cell(h, fmt.Sprintf("%s.headers[%d].element", path, i))
		if err != nil {
			return "", err
		}
		header[i] = s
	}
	rows = append(rows, header)
	for r, row := range g.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			s, err := cell(c, fmt.Sprintf("%s.rows[%d].cells[%d].element", path, r, i))
			if err != nil {
				return "", err
			}
			cells[i] = s
		}
		rows = append(rows, cells)
	}

	widths := make([]int, g.Columns())
	for i := range widths {
		widths[i] = 3
	}
	for _, r := range rows {
		for i, c := range r {
			if n := utf8.RuneCountInString(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	line := func(cells []string) string {
		var b strings.Builder
		b.WriteByte('|')
		for i, c := range cells {
			b.WriteByte(' ')
			b.WriteString(c)
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c)))
			b.WriteString(" |")
		}
		return b.String()
	}
	delim := make([]string, len(widths))
	for i, wd := range widths {
		delim[i] = strings.Repeat("-", wd)
	}

	out := []string{line(rows[0]), line(delim)}
	for _, r := range rows[1:] {
		out = append(out, line(r))
	}
	return strings.Join(out, "\n"), nil
}
