package rtf

import (
	"regexp"
	"strings"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	"github.com/FocuswithJustin/docbridge/core/rtf"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

const bullet = "• "

var numberedRe = regexp.MustCompile(`^\d+\. `)

// readBlocks converts interpreted RTF blocks to elements. Consecutive rows
// form one table and consecutive list paragraphs form one list.
func readBlocks(blocks []rtf.Block) []cdm.Element {
	var out []cdm.Element
	var rows []*rtf.Row
	var entries []reconcile.ListEntry

	flushRows := func() {
		if len(rows) > 0 {
			out = append(out, readTable(rows))
			rows = nil
		}
	}
	flushList := func() {
		if len(entries) > 0 {
			out = append(out, reconcile.NestList(entries))
			entries = nil
		}
	}

	for _, b := range blocks {
		if b.Row != nil {
			flushList()
			rows = append(rows, b.Row)
			continue
		}
		flushRows()
		if b.Paragraph == nil {
			continue
		}
		if e, ok := readListEntry(*b.Paragraph); ok {
			if reconcile.StartsList(entries, e) {
				flushList()
			}
			entries = append(entries, e)
			continue
		}
		flushList()
		if e := readParagraph(*b.Paragraph); e != nil {
			out = append(out, e)
		}
	}
	flushRows()
	flushList()
	return out
}

// readParagraph returns a Header for a bold paragraph at a heading size,
// otherwise the paragraph's inline content. Empty paragraphs yield nil.
func readParagraph(p rtf.Paragraph) cdm.Element {
	if level, ok := headingLevel(p); ok {
		return cdm.Header{Level: level, Text: p.Text()}
	}
	elems := readInline(p.Spans)
	if len(elems) == 0 {
		return nil
	}
	return reconcile.Single(elems)
}

func headingLevel(p rtf.Paragraph) (int, bool) {
	if len(p.Spans) == 0 || strings.TrimSpace(p.Text()) == "" {
		return 0, false
	}
	for _, s := range p.Spans {
		if s.Picture != nil || s.URL != "" || !s.Bold || s.Points < reconcile.HeadingThreshold {
			return 0, false
		}
	}
	return reconcile.HeadingForPoints(p.Spans[0].Points)
}

func readInline(spans []rtf.Span) []cdm.Element {
	var out []cdm.Element
	for i := 0; i < len(spans); {
		s := spans[i]
		switch {
		case s.Picture != nil:
			if img, ok := readPicture(s.Picture); ok {
				out = append(out, img)
			}
			i++
		case s.URL != "":
			var title strings.Builder
			j := i
			for j < len(spans) && spans[j].URL == s.URL && spans[j].Picture == nil {
				title.WriteString(spans[j].Text)
				j++
			}
			out = append(out, cdm.Hyperlink{
				Title: title.String(),
				URL:   s.URL,
				Size:  reconcile.SizeForRun(s.Points, s.Bold, s.Italic),
			})
			i = j
		default:
			out = append(out, cdm.Text{Content: s.Text, Size: reconcile.SizeForRun(s.Points, s.Bold, s.Italic)})
			i++
		}
	}
	return reconcile.MergeText(out)
}

// readPicture keeps PNG and JPEG pictures. Other blip types are skipped.
func readPicture(p *rtf.Picture) (cdm.Image, bool) {
	switch p.Format {
	case rtf.PNG:
		return cdm.Image{Bytes: p.Data, Encoding: cdm.PNG}, true
	case rtf.JPEG:
		return cdm.Image{Bytes: p.Data, Encoding: cdm.JPEG}, true
	}
	if enc, ok := base.DetectEncoding(p.Data, ""); ok {
		return cdm.Image{Bytes: p.Data, Encoding: enc}, true
	}
	return cdm.Image{}, false
}

func readListEntry(p rtf.Paragraph) (reconcile.ListEntry, bool) {
	if _, ok := headingLevel(p); ok {
		return reconcile.ListEntry{}, false
	}
	text := p.Text()
	var marker string
	numbered := false
	switch {
	case strings.HasPrefix(text, bullet):
		marker = bullet
	case numberedRe.MatchString(text):
		marker = numberedRe.FindString(text)
		numbered = true
	default:
		return reconcile.ListEntry{}, false
	}
	spans, ok := trimLeading(p.Spans, len(marker))
	if !ok {
		return reconcile.ListEntry{}, false
	}
	return reconcile.ListEntry{
		Depth:    p.Indent / listIndent,
		Numbered: numbered,
		Key:      reconcile.KindKey(numbered),
		Element:  reconcile.Single(readInline(spans)),
	}, true
}

// trimLeading removes n bytes of plain text from the start of spans. It
// fails when the bytes are not all plain text.
func trimLeading(spans []rtf.Span, n int) ([]rtf.Span, bool) {
	out := append([]rtf.Span(nil), spans...)
	for n > 0 {
		if len(out) == 0 || out[0].Picture != nil || out[0].URL != "" {
			return nil, false
		}
		if len(out[0].Text) > n {
			out[0].Text = out[0].Text[n:]
			return out, true
		}
		n -= len(out[0].Text)
		out = out[1:]
	}
	return out, true
}

// readTable takes the first row as headers and the cellx spacing as
// column widths. Rows are padded or cut to the header count.
func readTable(rows []*rtf.Row) cdm.Table {
	first := rows[0]
	t := cdm.Table{Headers: make([]cdm.TableHeader, len(first.Cells))}
	prev := 0
	for i, c := range first.Cells {
		h := cdm.TableHeader{Element: readCell(c)}
		if i < len(first.Boundaries) {
			if w := first.Boundaries[i] - prev; w > 0 {
				h.Width = toMM(w)
			}
			prev = first.Boundaries[i]
		}
		t.Headers[i] = h
	}
	for _, r := range rows[1:] {
		row := cdm.TableRow{Cells: make([]cdm.TableCell, len(r.Cells))}
		for i, c := range r.Cells {
			row.Cells[i] = cdm.TableCell{Element: readCell(c)}
		}
		t.Rows = append(t.Rows, row)
	}
	return reconcile.Reconciled(t, nil, "")
}

func readCell(c rtf.Cell) cdm.Element {
	var elems []cdm.Element
	for _, p := range c.Paragraphs {
		if e := readParagraph(p); e != nil {
			elems = append(elems, e)
		}
	}
	return reconcile.Single(elems)
}
