package rtf

import (
	"fmt"
	"strconv"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	"github.com/FocuswithJustin/docbridge/core/rtf"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// fallbackWidth is the text width in millimetres used when the document
// has no usable page geometry.
const fallbackWidth = 190.0

type writer struct {
	rep   *reconcile.Report
	out   *rtf.Writer
	width float64
}

func newWriter(doc *cdm.Document, rep *reconcile.Report) *writer {
	page := rtf.Page{
		Width:        toTwips(doc.PageWidth),
		Height:       toTwips(doc.PageHeight),
		MarginLeft:   toTwips(doc.MarginLeft),
		MarginRight:  toTwips(doc.MarginRight),
		MarginTop:    toTwips(doc.MarginTop),
		MarginBottom: toTwips(doc.MarginBottom),
	}
	width := doc.ContentWidth()
	if width <= 0 {
		width = fallbackWidth
	}
	return &writer{rep: rep, out: rtf.NewWriter(page), width: width}
}

func (w *writer) document(doc *cdm.Document) error {
	header, err := w.blocks(doc.PageHeader, "page_header")
	if err != nil {
		return err
	}
	footer, err := w.blocks(doc.PageFooter, "page_footer")
	if err != nil {
		return err
	}
	body, err := w.blocks(doc.Body, "body")
	if err != nil {
		return err
	}
	w.out.SetHeader(header)
	w.out.SetFooter(footer)
	for _, b := range body {
		w.out.Write(b)
	}
	return nil
}

func (w *writer) blocks(elems []cdm.Element, prefix string) ([]rtf.Block, error) {
	var out []rtf.Block
	for i, e := range elems {
		bs, err := w.block(e, fmt.Sprintf("%s[%d]", prefix, i))
		if err != nil {
			return nil, err
		}
		// Rows run together into one table unless a paragraph separates them.
		if len(bs) > 0 && bs[0].Row != nil && len(out) > 0 && out[len(out)-1].Row != nil {
			out = append(out, paragraph(0))
		}
		out = append(out, bs...)
	}
	return out, nil
}

func paragraph(indent int, spans ...rtf.Span) rtf.Block {
	return rtf.Block{Paragraph: &rtf.Paragraph{Indent: indent, Spans: spans}}
}

func headingSpan(h cdm.Header) rtf.Span {
	return rtf.Span{Text: h.Text, Bold: true, Points: reconcile.PointsForHeading(h.Level)}
}

func (w *writer) block(e cdm.Element, path string) ([]rtf.Block, error) {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Header:
		h := reconcile.Heading(v, w.rep, path)
		return []rtf.Block{paragraph(0, headingSpan(h))}, nil
	case cdm.Text, cdm.Hyperlink, cdm.Image:
		spans, err := w.inline(v, path)
		if err != nil {
			return nil, err
		}
		return []rtf.Block{paragraph(0, spans...)}, nil
	case cdm.Paragraph:
		return w.paragraph(v, path)
	case cdm.List:
		return w.list(v, path, 0)
	case cdm.Table:
		return w.table(v, path)
	default:
		return nil, base.UnknownElementError(Name, path, e)
	}
}

// paragraph writes runs of inline children as one RTF paragraph and block
// children as separate blocks.
func (w *writer) paragraph(p cdm.Paragraph, path string) ([]rtf.Block, error) {
	var out []rtf.Block
	var run []rtf.Span
	parts := 0
	flush := func() {
		if len(run) > 0 {
			out = append(out, paragraph(0, run...))
			run = nil
			parts++
		}
	}
	for i, c := range p.Children {
		cpath := fmt.Sprintf("%s.children[%d]", path, i)
		if cdm.IsInline(c) {
			spans, err := w.inline(c, cpath)
			if err != nil {
				return nil, err
			}
			run = append(run, spans...)
			continue
		}
		flush()
		bs, err := w.block(c, cpath)
		if err != nil {
			return nil, err
		}
		if len(bs) > 0 {
			out = append(out, bs...)
			parts++
		}
	}
	flush()
	if parts > 1 {
		w.rep.Add(reconcile.Degraded, path, "paragraph with block children split into separate blocks")
	}
	return out, nil
}

// inline returns the spans of an inline element, flattening block elements
// to body text.
func (w *writer) inline(e cdm.Element, path string) ([]rtf.Span, error) {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Text:
		st := reconcile.StyleOf(v.Size)
		return []rtf.Span{{Text: v.Content, Bold: st.Bold, Italic: st.Italic, Points: reconcile.PointsForSize(v.Size)}}, nil
	case cdm.Hyperlink:
		st := reconcile.StyleOf(v.Size)
		span := rtf.Span{Text: v.Title, Bold: st.Bold, Italic: st.Italic, Points: reconcile.PointsForSize(v.Size), URL: v.URL}
		if v.URL == "" {
			w.rep.Add(reconcile.Degraded, path, "hyperlink without target written as text")
		}
		if span.Text == "" {
			span.Text = v.URL
		}
		return []rtf.Span{span}, nil
	case cdm.Image:
		return []rtf.Span{{Picture: w.picture(v, path)}}, nil
	case cdm.Paragraph:
		var spans []rtf.Span
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
		return []rtf.Span{{Text: reconcile.PlainText(v), Points: reconcile.BodyPoints}}, nil
	default:
		return nil, base.UnknownElementError(Name, path, e)
	}
}

func (w *writer) picture(img cdm.Image, path string) *rtf.Picture {
	if img.Title != "" || img.Alt != "" {
		w.rep.Add(reconcile.Degraded, path, "image title and alt text dropped")
	}
	p := &rtf.Picture{Data: img.Bytes, Format: rtf.PNG}
	if img.Encoding == cdm.JPEG {
		p.Format = rtf.JPEG
	}
	if wmm, hmm, ok := base.FitImage(img, w.width); ok {
		p.Width, p.Height = toTwips(wmm), toTwips(hmm)
	}
	return p
}

// list writes one paragraph per item, led by a bullet or its number and
// indented by depth.
func (w *writer) list(l cdm.List, path string, depth int) ([]rtf.Block, error) {
	var out []rtf.Block
	n := 0
	for i, it := range l.Items {
		ipath := fmt.Sprintf("%s.items[%d].element", path, i)
		if nested, ok := it.Element.(cdm.List); ok {
			bs, err := w.list(nested, ipath, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, bs...)
			continue
		}
		n++
		marker := bullet
		if l.Numbered {
			marker = strconv.Itoa(n) + ". "
		}
		spans, err := w.inline(it.Element, ipath)
		if err != nil {
			return nil, err
		}
		lead := rtf.Span{Text: marker, Points: reconcile.BodyPoints}
		out = append(out, paragraph(depth*listIndent, append([]rtf.Span{lead}, spans...)...))
	}
	return out, nil
}

func (w *writer) table(t cdm.Table, path string) ([]rtf.Block, error) {
	g := reconcile.Rectangular(t, w.rep, path)
	if g.Columns() == 0 {
		w.rep.Add(reconcile.Dropped, path, "table has no columns")
		return nil, nil
	}

	boundaries := make([]int, g.Columns())
	x := 0
	for i, width := range g.Widths {
		if width <= 0 {
			width = w.width / float64(g.Columns())
		}
		x += toTwips(width)
		boundaries[i] = x
	}

	row := func(elems []cdm.Element, cellPath func(int) string) (rtf.Block, error) {
		r := &rtf.Row{Boundaries: boundaries, Cells: make([]rtf.Cell, len(elems))}
		for i, e := range elems {
			ps, err := w.cell(e, cellPath(i))
			if err != nil {
				return rtf.Block{}, err
			}
			r.Cells[i] = rtf.Cell{Paragraphs: ps}
		}
		return rtf.Block{Row: r}, nil
	}

	header, err := row(g.Headers, func(i int) string {
		return fmt.Sprintf("%s.headers[%d].element", path, i)
	})
	if err != nil {
		return nil, err
	}
	out := []rtf.Block{header}
	for r, cells := range g.Rows {
		b, err := row(cells, func(i int) string {
			return fmt.Sprintf("%s.rows[%d].cells[%d].element", path, r, i)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// cell returns the paragraphs of a table cell. Lists and tables inside a
// cell are flattened to text.
func (w *writer) cell(e cdm.Element, path string) ([]rtf.Paragraph, error) {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Header:
		h := reconcile.Heading(v, w.rep, path)
		return []rtf.Paragraph{{Spans: []rtf.Span{headingSpan(h)}}}, nil
	case cdm.Paragraph:
		var out []rtf.Paragraph
		var run []rtf.Span
		for i, c := range v.Children {
			cpath := fmt.Sprintf("%s.children[%d]", path, i)
			if cdm.IsInline(c) {
				spans, err := w.inline(c, cpath)
				if err != nil {
					return nil, err
				}
				run = append(run, spans...)
				continue
			}
			if len(run) > 0 {
				out = append(out, rtf.Paragraph{Spans: run})
				run = nil
			}
			ps, err := w.cell(c, cpath)
			if err != nil {
				return nil, err
			}
			out = append(out, ps...)
		}
		if len(run) > 0 {
			out = append(out, rtf.Paragraph{Spans: run})
		}
		return out, nil
	case cdm.List, cdm.Table:
		w.rep.Addf(reconcile.Degraded, path, "%s inside a table cell flattened to text", v.Kind())
		return []rtf.Paragraph{{Spans: []rtf.Span{{Text: reconcile.PlainText(v), Points: reconcile.BodyPoints}}}}, nil
	default:
		spans, err := w.inline(v, path)
		if err != nil {
			return nil, err
		}
		return []rtf.Paragraph{{Spans: spans}}, nil
	}
}
