package pdf

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Run is a stretch of one line drawn in a single font.
type Run struct {
	Text   string
	Points float64
	Bold   bool
	Italic bool
}

// Line is one baseline of text. X and Y are points from the top-left
// corner of its page.
type Line struct {
	Page int
	X, Y float64
	Runs []Run
}

// Text joins the runs of the line.
func (l Line) Text() string {
	var b strings.Builder
	for _, r := range l.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Points is the largest font size on the line.
func (l Line) Points() float64 {
	pt := 0.0
	for _, r := range l.Runs {
		pt = math.Max(pt, r.Points)
	}
	return pt
}

// Extraction is the text content of a file in reading order.
type Extraction struct {
	// Width and Height of the first page in points.
	Width, Height float64
	Pages         int
	Lines         []Line
}

// Extractor recovers positioned text lines from PDF bytes.
type Extractor interface {
	Extract(data []byte) (*Extraction, error)
}

// baselineTolerance is how far apart in points two glyphs may sit and still
// share a line.
const baselineTolerance = 1.0

// spaceGap is the gap between glyphs, relative to the font size, that reads
// as a word break.
const spaceGap = 0.2

// Reader extracts text with ledongthuc/pdf.
type Reader struct{}

// glyph is one positioned character as reported by the content stream.
type glyph struct {
	font        string
	size        float64
	x, y, width float64
	s           string
}

// Extract reads every page. Pages that fail to decode are reported as
// errors; the reader panics on some malformed streams, which the handler
// recovers.
func (Reader) Extract(data []byte) (*Extraction, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	ex := &Extraction{Pages: r.NumPage()}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			return nil, fmt.Errorf("page %d: missing page object", i)
		}
		width, height := mediaBox(p.V)
		if i == 1 {
			ex.Width, ex.Height = width, height
		}
		var glyphs []glyph
		for _, t := range p.Content().Text {
			glyphs = append(glyphs, glyph{font: t.Font, size: t.FontSize, x: t.X, y: t.Y, width: t.W, s: t.S})
		}
		ex.Lines = append(ex.Lines, lines(i, height, glyphs)...)
	}
	return ex, nil
}

// mediaBox returns the page size, following inherited attributes up the
// page tree.
func mediaBox(v pdf.Value) (width, height float64) {
	for depth := 0; !v.IsNull() && depth < 32; depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			return box.Index(2).Float64() - box.Index(0).Float64(), box.Index(3).Float64() - box.Index(1).Float64()
		}
		v = v.Key("Parent")
	}
	return 0, 0
}

// lines groups glyphs by baseline, top to bottom, and merges neighbouring
// glyphs of the same font into runs.
func lines(page int, height float64, glyphs []glyph) []Line {
	var groups [][]glyph
	for _, g := range glyphs {
		placed := false
		for i, grp := range groups {
			if math.Abs(grp[0].y-g.y) <= baselineTolerance {
				groups[i] = append(grp, g)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []glyph{g})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i][0].y > groups[j][0].y })

	out := make([]Line, 0, len(groups))
	for _, grp := range groups {
		sort.SliceStable(grp, func(i, j int) bool { return grp[i].x < grp[j].x })
		l := Line{Page: page, X: grp[0].x, Y: height - grp[0].y}
		var prev *glyph
		for i := range grp {
			g := &grp[i]
			text := g.s
			if prev != nil && wordBreak(prev, g) {
				text = " " + text
			}
			bold, italic := fontStyle(g.font)
			n := len(l.Runs)
			if n > 0 && l.Runs[n-1].Points == g.size && l.Runs[n-1].Bold == bold && l.Runs[n-1].Italic == italic {
				l.Runs[n-1].Text += text
			} else {
				l.Runs = append(l.Runs, Run{Text: text, Points: g.size, Bold: bold, Italic: italic})
			}
			prev = g
		}
		if strings.TrimSpace(l.Text()) != "" {
			out = append(out, l)
		}
	}
	return out
}

// wordBreak reports a visible gap between two glyphs that carry no space
// of their own. Glyphs without a known width never break.
func wordBreak(prev, next *glyph) bool {
	if prev.width <= 0 || endsSpace(prev.s) || startsSpace(next.s) {
		return false
	}
	return next.x-(prev.x+prev.width) > spaceGap*prev.size
}

func endsSpace(s string) bool {
	return s != "" && unicode.IsSpace(rune(s[len(s)-1]))
}

func startsSpace(s string) bool {
	return s != "" && unicode.IsSpace(rune(s[0]))
}

// fontStyle reads weight and slant from a base font name such as
// Helvetica-BoldOblique.
func fontStyle(font string) (bold, italic bool) {
	lower := strings.ToLower(font)
	return strings.Contains(lower, "bold"), strings.Contains(lower, "italic") || strings.Contains(lower, "oblique")
}
