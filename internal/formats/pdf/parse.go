package pdf

import (
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
)

// blockBreak is the baseline distance, relative to the font size of the
// previous line, beyond which a new block starts.
const blockBreak = 1.6

var numberMarker = regexp.MustCompile(`^\s*(\d+)\. `)

func pointsToMM(pt float64) float64 {
	return math.Round(pt*reconcile.MMPerInch/72*10) / 10
}

// build turns extracted lines into a document. Headers and footers are the
// lines repeated at the top and bottom of every page.
func build(ex *Extraction) *cdm.Document {
	doc := cdm.NewDocument()
	if ex.Width > 0 && ex.Height > 0 {
		doc.PageWidth = pointsToMM(ex.Width)
		doc.PageHeight = pointsToMM(ex.Height)
	}
	header, body, footer := bands(ex.Lines, ex.Pages)
	for _, l := range header {
		doc.PageHeader = append(doc.PageHeader, lineElement(l))
	}
	for _, l := range footer {
		doc.PageFooter = append(doc.PageFooter, lineElement(l))
	}
	doc.Body = newBuilder(body).blocks()
	return doc
}

// bands splits the lines repeated identically at the start and end of
// every page from the body. A single page has no recognisable bands.
func bands(lines []Line, pages int) (header, body, footer []Line) {
	if pages < 2 {
		return nil, lines, nil
	}
	byPage := make([][]Line, pages)
	for _, l := range lines {
		if l.Page >= 1 && l.Page <= pages {
			byPage[l.Page-1] = append(byPage[l.Page-1], l)
		}
	}
	shortest := len(byPage[0])
	for _, p := range byPage {
		shortest = min(shortest, len(p))
	}

	repeated := func(index func(p []Line, i int) Line, limit int) int {
		n := 0
		for ; n < limit; n++ {
			first := index(byPage[0], n)
			for _, p := range byPage[1:] {
				if !reflect.DeepEqual(index(p, n).Runs, first.Runs) {
					return n
				}
			}
		}
		return n
	}
	top := repeated(func(p []Line, i int) Line { return p[i] }, shortest)
	bottom := repeated(func(p []Line, i int) Line { return p[len(p)-1-i] }, shortest-top)

	header = byPage[0][:top]
	footer = byPage[0][len(byPage[0])-bottom:]
	for _, p := range byPage {
		body = append(body, p[top:len(p)-bottom]...)
	}
	return header, body, footer
}

// heading reports the level of a line drawn entirely in bold at a heading
// size.
func heading(l Line) (int, bool) {
	for _, r := range l.Runs {
		if !r.Bold && strings.TrimSpace(r.Text) != "" {
			return 0, false
		}
	}
	return reconcile.HeadingForPoints(l.Points())
}

// marker strips a list marker from the first run of a line.
func marker(l Line) (rest []Run, numbered, ok bool) {
	if len(l.Runs) == 0 {
		return nil, false, false
	}
	first := l.Runs[0]
	text := strings.TrimLeft(first.Text, " ")
	switch {
	case strings.HasPrefix(text, bullet):
		first.Text = strings.TrimPrefix(text, bullet)
	case numberMarker.MatchString(text):
		first.Text = text[len(numberMarker.FindString(text)):]
		numbered = true
	default:
		return nil, false, false
	}
	rest = append(rest, l.Runs[1:]...)
	if first.Text != "" {
		rest = append([]Run{first}, rest...)
	}
	return rest, numbered, true
}

func runElements(runs []Run) []cdm.Element {
	out := make([]cdm.Element, 0, len(runs))
	for _, r := range runs {
		out = append(out, cdm.Text{Content: r.Text, Size: reconcile.SizeForRun(r.Points, r.Bold, r.Italic)})
	}
	return reconcile.MergeText(out)
}

// joinLine appends the runs of a wrapped line, restoring the space the
// line break consumed.
func joinLine(elems []cdm.Element, runs []Run) []cdm.Element {
	if n := len(elems); n > 0 && len(runs) > 0 {
		if t, ok := elems[n-1].(cdm.Text); ok && !endsSpace(t.Content) && !startsSpace(runs[0].Text) {
			t.Content += " "
			elems[n-1] = t
		}
	}
	return reconcile.MergeText(append(elems, runElements(runs)...))
}

func inlineElements(e cdm.Element) []cdm.Element {
	if p, ok := e.(cdm.Paragraph); ok {
		return append([]cdm.Element(nil), p.Children...)
	}
	return []cdm.Element{e}
}

func lineElement(l Line) cdm.Element {
	if level, ok := heading(l); ok {
		return cdm.Header{Level: level, Text: strings.TrimSpace(l.Text())}
	}
	return reconcile.Single(runElements(l.Runs))
}

type blockKind int

const (
	noBlock blockKind = iota
	headingBlock
	paragraphBlock
	listBlock
)

type builder struct {
	lines []Line
	minX  float64

	out     []cdm.Element
	kind    blockKind
	head    cdm.Header
	points  float64
	para    []cdm.Element
	entries []reconcile.ListEntry
}

func newBuilder(lines []Line) *builder {
	b := &builder{lines: lines}
	for i, l := range lines {
		if i == 0 || l.X < b.minX {
			b.minX = l.X
		}
	}
	return b
}

func (b *builder) flush() {
	switch b.kind {
	case headingBlock:
		b.out = append(b.out, b.head)
	case paragraphBlock:
		b.out = append(b.out, reconcile.Single(b.para))
	case listBlock:
		b.out = append(b.out, reconcile.NestList(b.entries))
	}
	b.kind, b.para, b.entries = noBlock, nil, nil
}

// depth derives list nesting from the indentation of the marker.
func (b *builder) depth(x float64) int {
	step := listIndent * 72 / reconcile.MMPerInch
	return max(0, int(math.Round((x-b.minX)/step)))
}

func (b *builder) blocks() []cdm.Element {
	var prev *Line
	for i := range b.lines {
		l := b.lines[i]
		broken := prev != nil && prev.Page == l.Page && l.Y-prev.Y > blockBreak*prev.Points()
		prev = &b.lines[i]

		if level, ok := heading(l); ok {
			text := strings.TrimSpace(l.Text())
			if b.kind == headingBlock && !broken && b.points == l.Points() {
				b.head.Text += " " + text
				continue
			}
			b.flush()
			b.kind, b.head, b.points = headingBlock, cdm.Header{Level: level, Text: text}, l.Points()
			continue
		}

		if rest, numbered, ok := marker(l); ok {
			e := reconcile.ListEntry{
				Depth:    b.depth(l.X),
				Numbered: numbered,
				Key:      reconcile.KindKey(numbered),
				Element:  reconcile.Single(runElements(rest)),
			}
			if b.kind != listBlock || broken || reconcile.StartsList(b.entries, e) {
				b.flush()
			}
			b.kind = listBlock
			b.entries = append(b.entries, e)
			continue
		}

		switch {
		case b.kind == paragraphBlock && !broken:
			b.para = joinLine(b.para, l.Runs)
		case b.kind == listBlock && !broken:
			last := &b.entries[len(b.entries)-1]
			last.Element = reconcile.Single(joinLine(inlineElements(last.Element), l.Runs))
		default:
			b.flush()
			b.kind, b.para = paragraphBlock, runElements(l.Runs)
		}
	}
	b.flush()
	return b.out
}
