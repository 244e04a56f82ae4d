package pdf

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/encoding/charmap"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// Layout in millimetres.
const (
	lineFactor = 1.25
	blockGap   = 4.0
	listIndent = 5.0
	bandOffset = 1.0
)

const bullet = "• "

// lineHeight is the leading for a font size in points.
func lineHeight(points float64) float64 {
	return points * reconcile.MMPerInch / 72 * lineFactor
}

// span is a run of text in one font, optionally linked.
type span struct {
	text   string
	url    string
	bold   bool
	italic bool
	points float64
}

func textSpan(content string, size int) span {
	st := reconcile.StyleOf(size)
	return span{text: content, bold: st.Bold, italic: st.Italic, points: reconcile.PointsForSize(size)}
}

func headingSpan(h cdm.Header) span {
	return span{text: h.Text, bold: true, points: reconcile.PointsForHeading(h.Level)}
}

func plainSpan(text string) span {
	return span{text: text, points: reconcile.BodyPoints}
}

type writer struct {
	c      Canvas
	rep    *reconcile.Report
	page   Page
	width  float64
	indent float64
	images base.ImageNamer
}

func newWriter(c Canvas, doc *cdm.Document, rep *reconcile.Report) *writer {
	if !doc.HasPageGeometry() || doc.ContentWidth() <= 0 || doc.PageHeight <= doc.MarginTop+doc.MarginBottom {
		if doc.HasPageGeometry() {
			rep.Add(reconcile.Degraded, "page", "unusable page geometry replaced by A4")
		}
		doc = &cdm.Document{
			PageWidth: cdm.A4.Width, PageHeight: cdm.A4.Height,
			MarginTop: cdm.DefaultMargin, MarginBottom: cdm.DefaultMargin,
			MarginLeft: cdm.DefaultMargin, MarginRight: cdm.DefaultMargin,
		}
	}
	page := Page{
		Width:  doc.PageWidth,
		Height: doc.PageHeight,
		Top:    doc.MarginTop,
		Bottom: doc.MarginBottom,
		Left:   doc.MarginLeft,
		Right:  doc.MarginRight,
	}
	return &writer{c: c, rep: rep, page: page, width: doc.ContentWidth()}
}

func (w *writer) document(doc *cdm.Document) error {
	header, err := w.band(doc.PageHeader, "page_header")
	if err != nil {
		return err
	}
	footer, err := w.band(doc.PageFooter, "page_footer")
	if err != nil {
		return err
	}

	w.c.Setup(w.page)
	if len(header) > 0 {
		w.c.SetHeaderFunc(func() {
			w.c.SetIndent(0)
			for _, l := range header {
				w.line(l)
			}
			w.c.Ln(blockGap)
			w.c.SetIndent(w.indent)
		})
	}
	if len(footer) > 0 {
		w.c.SetFooterFunc(func() {
			w.c.SetIndent(0)
			w.c.MoveTo(w.page.Left, w.page.Height-w.page.Bottom+bandOffset)
			for _, l := range footer {
				w.line(l)
			}
			w.c.SetIndent(w.indent)
		})
	}
	w.c.AddPage()

	for i, e := range doc.Body {
		if err := w.block(e, fmt.Sprintf("body[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// band renders page header or footer elements to one line each. Bands are
// drawn from callbacks, so everything that can fail or report happens here.
func (w *writer) band(elems []cdm.Element, prefix string) ([][]span, error) {
	var out [][]span
	for i, e := range elems {
		path := fmt.Sprintf("%s[%d]", prefix, i)
		if h, ok := e.(cdm.Header); ok {
			out = append(out, []span{headingSpan(reconcile.Heading(h, w.rep, path))})
			continue
		}
		spans, err := w.inline(e, path)
		if err != nil {
			return nil, err
		}
		out = append(out, spans)
	}
	return out, nil
}

// line writes spans as one flowing line followed by a line break.
func (w *writer) line(spans []span) {
	if len(spans) == 0 {
		return
	}
	pt := 0.0
	for _, s := range spans {
		pt = math.Max(pt, s.points)
	}
	h := lineHeight(pt)
	for _, s := range spans {
		w.c.SetFont(s.bold, s.italic, s.points)
		if s.url != "" {
			w.c.WriteLink(h, s.text, s.url)
		} else {
			w.c.Write(h, s.text)
		}
	}
	w.c.Ln(h)
}

func (w *writer) setIndent(mm float64) {
	w.indent = mm
	w.c.SetIndent(mm)
}

// space starts a new page unless h millimetres fit below the cursor.
func (w *writer) space(h float64) {
	if _, y := w.c.Position(); y+h > w.page.Height-w.page.Bottom {
		w.c.AddPage()
	}
}

func (w *writer) block(e cdm.Element, path string) error {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Header:
		w.line([]span{headingSpan(reconcile.Heading(v, w.rep, path))})
	case cdm.Text, cdm.Hyperlink:
		spans, err := w.inline(v, path)
		if err != nil {
			return err
		}
		w.line(spans)
	case cdm.Image:
		w.image(v, path)
	case cdm.Paragraph:
		return w.paragraph(v, path)
	case cdm.List:
		if err := w.list(v, path, 0); err != nil {
			return err
		}
		w.setIndent(0)
	case cdm.Table:
		w.table(v, path)
	default:
		return base.UnknownElementError(Name, path, e)
	}
	w.c.Ln(blockGap)
	return nil
}

// paragraph writes runs of inline children as one block and images or
// block children as their own blocks.
func (w *writer) paragraph(p cdm.Paragraph, path string) error {
	var run []span
	parts := 0
	flush := func() {
		if len(run) > 0 {
			w.line(run)
			w.c.Ln(blockGap)
			run = nil
			parts++
		}
	}
	for i, c := range p.Children {
		cpath := fmt.Sprintf("%s.children[%d]", path, i)
		switch c.(type) {
		case cdm.Text, cdm.Hyperlink:
			spans, err := w.inline(c, cpath)
			if err != nil {
				return err
			}
			run = append(run, spans...)
			continue
		}
		flush()
		if err := w.block(c, cpath); err != nil {
			return err
		}
		parts++
	}
	flush()
	if parts > 1 {
		w.rep.Add(reconcile.Degraded, path, "paragraph with block children split into separate blocks")
	}
	return nil
}

// inline returns the spans of an element written in running text. Images
// become placeholders and block elements are flattened to body text.
func (w *writer) inline(e cdm.Element, path string) ([]span, error) {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Text:
		w.checkText(v.Content, path)
		return []span{textSpan(v.Content, v.Size)}, nil
	case cdm.Hyperlink:
		s := textSpan(v.Title, v.Size)
		s.url = v.URL
		if s.text == "" {
			s.text = v.URL
		}
		if v.URL == "" {
			w.rep.Add(reconcile.Degraded, path, "hyperlink without target written as text")
		}
		if v.Alt != "" {
			w.rep.Add(reconcile.Degraded, path, "hyperlink alt text dropped")
		}
		w.checkText(s.text, path)
		return []span{s}, nil
	case cdm.Image:
		w.rep.Add(reconcile.Degraded, path, "image in running text replaced by its label")
		return []span{plainSpan(reconcile.ImageText(v))}, nil
	case cdm.Paragraph:
		var spans []span
		for i, c := range v.Children {
			s, err := w.inline(c, fmt.Sprintf("%s.children[%d]", path, i))
			if err != nil {
				return nil, err
			}
			spans = append(spans, s...)
		}
		return spans, nil
	case cdm.Header, cdm.List, cdm.Table:
		w.rep.Addf(reconcile.Degraded, path, "%s flattened to inline text", v.Kind())
		text := reconcile.PlainText(v)
		w.checkText(text, path)
		return []span{plainSpan(text)}, nil
	default:
		return nil, base.UnknownElementError(Name, path, e)
	}
}

// checkText reports characters the core fonts cannot draw.
func (w *writer) checkText(s, path string) {
	for _, r := range s {
		if r == '\n' || r == '\t' {
			continue
		}
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			w.rep.Addf(reconcile.Degraded, path, "character %q outside Windows-1252 replaced", r)
			return
		}
	}
}

// image draws an image at the left margin scaled to fit the text area.
// Unreadable images are replaced by their label.
func (w *writer) image(img cdm.Image, path string) {
	if img.Title != "" || img.Alt != "" {
		w.rep.Add(reconcile.Degraded, path, "image title and alt text dropped")
	}
	width, height, ok := base.FitImage(img, w.width)
	if !ok {
		w.placeholder(img, path)
		return
	}
	if maxHeight := w.page.Height - w.page.Top - w.page.Bottom; height > maxHeight {
		width, height = width*maxHeight/height, maxHeight
	}
	w.space(height)
	_, y := w.c.Position()
	if err := w.c.Image(w.images.Next(img), img, w.page.Left, y, width, height); err != nil {
		w.placeholder(img, path)
		return
	}
	w.c.MoveTo(w.page.Left, y+height)
}

func (w *writer) placeholder(img cdm.Image, path string) {
	w.rep.Add(reconcile.Degraded, path, "unreadable image replaced by its label")
	w.line([]span{plainSpan(reconcile.ImageText(img))})
}

// list writes one line per item, led by a bullet or its number and indented
// by depth.
func (w *writer) list(l cdm.List, path string, depth int) error {
	n := 0
	for i, it := range l.Items {
		ipath := fmt.Sprintf("%s.items[%d].element", path, i)
		if nested, ok := it.Element.(cdm.List); ok {
			if err := w.list(nested, ipath, depth+1); err != nil {
				return err
			}
			continue
		}
		n++
		marker := bullet
		if l.Numbered {
			marker = strconv.Itoa(n) + ". "
		}
		spans, err := w.inline(it.Element, ipath)
		if err != nil {
			return err
		}
		w.setIndent(float64(depth) * listIndent)
		w.line(append([]span{plainSpan(marker)}, spans...))
	}
	return nil
}

// cellText flattens a cell to the text and font it is drawn with.
func (w *writer) cellText(e cdm.Element, path string) span {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Text:
		w.checkText(v.Content, path)
		return textSpan(v.Content, v.Size)
	case cdm.Header:
		h := reconcile.Heading(v, w.rep, path)
		w.checkText(h.Text, path)
		return span{text: h.Text, bold: true, points: reconcile.BodyPoints}
	case cdm.Hyperlink:
		w.rep.Add(reconcile.Degraded, path, "hyperlink in table cell written as text")
		return textSpan(reconcile.LinkText(v), v.Size)
	case cdm.Paragraph:
		for _, c := range v.Children {
			if !cdm.IsInline(c) {
				w.rep.Add(reconcile.Degraded, path, "paragraph in table cell flattened to text")
				break
			}
		}
	case cdm.List, cdm.Table, cdm.Image:
		w.rep.Addf(reconcile.Degraded, path, "%s inside a table cell flattened to text", v.Kind())
	}
	text := reconcile.PlainText(e)
	w.checkText(text, path)
	return plainSpan(text)
}

// columnWidths uses the width hints, splitting the remaining text width
// evenly over columns without one, and scales the grid down to fit.
func (w *writer) columnWidths(g reconcile.Grid) []float64 {
	widths := make([]float64, g.Columns())
	fixed, open := 0.0, 0
	for i, hint := range g.Widths {
		widths[i] = hint
		if hint > 0 {
			fixed += hint
		} else {
			open++
		}
	}
	if open > 0 {
		share := (w.width - fixed) / float64(open)
		if share < listIndent {
			share = listIndent
		}
		for i := range widths {
			if widths[i] <= 0 {
				widths[i] = share
			}
		}
	}
	total := 0.0
	for _, width := range widths {
		total += width
	}
	if total > w.width {
		for i := range widths {
			widths[i] *= w.width / total
		}
	}
	return widths
}

// table draws a bordered grid. The header row is bold and every row is as
// tall as its tallest cell.
func (w *writer) table(t cdm.Table, path string) {
	g := reconcile.Rectangular(t, w.rep, path)
	if g.Columns() == 0 {
		w.rep.Add(reconcile.Dropped, path, "table has no columns")
		return
	}
	widths := w.columnWidths(g)

	row := func(cells []cdm.Element, header bool, cellPath func(int) string) {
		spans := make([]span, len(cells))
		lines := 1
		for i, c := range cells {
			s := w.cellText(c, cellPath(i))
			if header {
				s.bold = true
			}
			spans[i] = s
			w.c.SetFont(s.bold, s.italic, s.points)
			lines = max(lines, w.c.LineCount(s.text, widths[i]))
		}
		h := lineHeight(reconcile.BodyPoints)
		w.space(float64(lines) * h)
		_, y := w.c.Position()
		x := w.page.Left
		for i, s := range spans {
			w.c.Rect(x, y, widths[i], float64(lines)*h)
			w.c.SetFont(s.bold, s.italic, s.points)
			w.c.TextBox(x, y, widths[i], h, s.text)
			x += widths[i]
		}
		w.c.MoveTo(w.page.Left, y+float64(lines)*h)
	}

	row(g.Headers, true, func(i int) string {
		return fmt.Sprintf("%s.headers[%d].element", path, i)
	})
	for r, cells := range g.Rows {
		row(cells, false, func(i int) string {
			return fmt.Sprintf("%s.rows[%d].cells[%d].element", path, r, i)
		})
	}
}
