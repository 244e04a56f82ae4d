package typst

import (
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

var (
	headingRe = regexp.MustCompile(`^(=+)(?:[ \t]+(.*))?$`)
	itemRe    = regexp.MustCompile(`^( *)([-+]|[0-9]+\.)(?:[ \t]+(.*))?$`)
)

// smallEm is the largest text size read back as small text.
const smallEm = 0.9

type state int

const (
	stateStart state = iota
	stateParagraph
	stateList
)

// item is a list entry whose markup is parsed when the list closes.
type item struct {
	indent   int
	numbered bool
	text     string
	line     int
}

// parser is the block-level line scanner. Content blocks of tables and
// page bands are parsed by nested parsers without a document.
type parser struct {
	load docbridge.Loader
	doc  *cdm.Document
	body []cdm.Element

	state     state
	para      []string
	paraLine  int
	items     []item
	itemLines []string
}

func newParser(load docbridge.Loader, doc *cdm.Document) *parser {
	return &parser{load: load, doc: doc}
}

// lineError converts a scanner error at an offset of s into a ParseError.
func lineError(s string, first int, err error) error {
	var se *scanError
	if stderrors.As(err, &se) {
		return errors.NewParse(Name, first+strings.Count(s[:se.off], "\n"), se.msg)
	}
	var pe *errors.ParseError
	var ce *errors.CallbackError
	if stderrors.As(err, &pe) || stderrors.As(err, &ce) {
		return err
	}
	return errors.WrapParse(Name, first, err)
}

func checkUTF8(data []byte) error {
	if utf8.Valid(data) {
		return nil
	}
	off := 0
	for off < len(data) {
		r, size := utf8.DecodeRune(data[off:])
		if r == utf8.RuneError && size == 1 {
			break
		}
		off += size
	}
	return errors.NewParse(Name, base.LineAt(data, off), "invalid UTF-8")
}

// blockCall reports a line that opens a block-level directive.
func blockCall(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#set ") || strings.HasPrefix(trimmed, "#table(")
}

// parse scans src, whose first line is line number first.
func (p *parser) parse(src string, first int) error {
	lines := strings.Split(src, "\n")
	for i := 0; i < len(lines); i++ {
		n := first + i
		line := strings.TrimRight(lines[i], " \t\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			if err := p.flush(); err != nil {
				return err
			}
			continue
		case strings.HasPrefix(trimmed, "//"):
			continue
		case blockCall(trimmed):
			if err := p.flush(); err != nil {
				return err
			}
			rest := strings.Join(lines[i:], "\n")
			start := strings.IndexByte(rest, '#')
			c, sc, err := parseCall(rest, start)
			if err != nil {
				return lineError(rest, n, err)
			}
			if err := p.directive(c, sc, rest, n); err != nil {
				return err
			}
			consumed := strings.Count(rest[:sc.end], "\n")
			i += consumed
			tail := rest[sc.end:]
			if k := strings.IndexByte(tail, '\n'); k >= 0 {
				tail = tail[:k]
			}
			if strings.TrimSpace(tail) != "" {
				lines[i] = tail
				i--
			}
			continue
		}

		if m := headingRe.FindStringSubmatch(trimmed); m != nil && line[0] == '=' {
			if err := p.flush(); err != nil {
				return err
			}
			elems, err := parseInline(m[2], n, p.load, reconcile.Style{})
			if err != nil {
				return err
			}
			text := ""
			for _, e := range elems {
				text += reconcile.PlainText(e)
			}
			p.body = append(p.body, cdm.Header{Level: reconcile.ClampHeading(len(m[1])), Text: text})
			continue
		}

		if m := itemRe.FindStringSubmatch(line); m != nil {
			if p.state != stateList {
				if err := p.flush(); err != nil {
					return err
				}
			}
			p.state = stateList
			p.items = append(p.items, item{indent: len(m[1]), numbered: m[2] != "-", text: m[3], line: n})
			continue
		}

		switch {
		case p.state == stateList && indentOf(line) > p.items[len(p.items)-1].indent:
			last := &p.items[len(p.items)-1]
			last.text += "\n" + trimmed
		case p.state == stateParagraph:
			p.para = append(p.para, line)
		default:
			if err := p.flush(); err != nil {
				return err
			}
			p.state = stateParagraph
			p.para = []string{line}
			p.paraLine = n
		}
	}
	return p.flush()
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// flush closes the open paragraph or list.
func (p *parser) flush() error {
	switch p.state {
	case stateParagraph:
		elems, err := parseInline(strings.Join(p.para, "\n"), p.paraLine, p.load, reconcile.Style{})
		if err != nil {
			return err
		}
		if len(elems) > 0 {
			p.body = append(p.body, reconcile.Single(elems))
		}
		p.para = nil
	case stateList:
		entries := make([]reconcile.ListEntry, 0, len(p.items))
		for _, it := range p.items {
			elems, err := parseInline(it.text, it.line, p.load, reconcile.Style{})
			if err != nil {
				return err
			}
			e := reconcile.ListEntry{
				Depth:    it.indent,
				Numbered: it.numbered,
				Key:      reconcile.KindKey(it.numbered),
				Element:  reconcile.Single(elems),
			}
			if reconcile.StartsList(entries, e) {
				p.body = append(p.body, reconcile.NestList(entries))
				entries = entries[:0:0]
			}
			entries = append(entries, e)
		}
		if len(entries) > 0 {
			p.body = append(p.body, reconcile.NestList(entries))
		}
		p.items = nil
	}
	p.state = stateStart
	return nil
}

// blocks parses a content block as block markup.
func (p *parser) blocks(sc *scanned, src string, first, index int) ([]cdm.Element, error) {
	if index < 0 || index >= len(sc.blocks) {
		return nil, errors.NewParse(Name, first, fmt.Sprintf("content block $%d out of range", index))
	}
	line := first + strings.Count(src[:sc.starts[index]], "\n")
	sub := newParser(p.load, nil)
	if err := sub.parse(sc.blocks[index], line); err != nil {
		return nil, err
	}
	return sub.body, nil
}

func (p *parser) cell(sc *scanned, src string, first int, v *value) (cdm.Element, error) {
	index, ok := v.content()
	if !ok {
		return reconcile.EmptyCell(), nil
	}
	elems, err := p.blocks(sc, src, first, index)
	if err != nil {
		return nil, err
	}
	return reconcile.Single(elems), nil
}

// directive applies a block-level #set or #table call.
func (p *parser) directive(c *call, sc *scanned, src string, first int) error {
	switch {
	case c.Set && c.Name == "page":
		return p.page(c, sc, src, first)
	case c.Set:
		return nil
	case c.Name == "table":
		t, err := p.table(c, sc, src, first)
		if err != nil {
			return err
		}
		p.body = append(p.body, t)
		return nil
	}
	return errors.NewParse(Name, first, fmt.Sprintf("unexpected #%s", c.Name))
}

// page reads geometry and bands from #set page. Nested content has no
// page and ignores it.
func (p *parser) page(c *call, sc *scanned, src string, first int) error {
	if p.doc == nil {
		return nil
	}
	if w, ok := c.named("width").millimetres(); ok {
		p.doc.PageWidth = w
	}
	if h, ok := c.named("height").millimetres(); ok {
		p.doc.PageHeight = h
	}
	if m := c.named("margin"); m != nil {
		if all, ok := m.millimetres(); ok {
			p.doc.MarginTop, p.doc.MarginBottom, p.doc.MarginLeft, p.doc.MarginRight = all, all, all, all
		}
		for _, side := range m.Group {
			mm, ok := side.Value.millimetres()
			if !ok {
				continue
			}
			switch side.Name {
			case "top":
				p.doc.MarginTop = mm
			case "bottom":
				p.doc.MarginBottom = mm
			case "left":
				p.doc.MarginLeft = mm
			case "right":
				p.doc.MarginRight = mm
			case "x":
				p.doc.MarginLeft, p.doc.MarginRight = mm, mm
			case "y":
				p.doc.MarginTop, p.doc.MarginBottom = mm, mm
			case "rest":
				p.doc.MarginTop, p.doc.MarginBottom, p.doc.MarginLeft, p.doc.MarginRight = mm, mm, mm, mm
			}
		}
	}
	for _, band := range []struct {
		name string
		dst  *[]cdm.Element
	}{{"header", &p.doc.PageHeader}, {"footer", &p.doc.PageFooter}} {
		index, ok := c.named(band.name).content()
		if !ok {
			continue
		}
		elems, err := p.blocks(sc, src, first, index)
		if err != nil {
			return err
		}
		*band.dst = elems
	}
	return nil
}

// table reads #table. The column count comes from columns, either a number
// or a tuple of track sizes whose absolute lengths become width hints.
func (p *parser) table(c *call, sc *scanned, src string, first int) (cdm.Table, error) {
	var t cdm.Table
	var widths []float64
	cols := 0
	if v := c.named("columns"); v != nil {
		switch {
		case v.Number != nil:
			cols = int(*v.Number)
		case v.Group != nil:
			cols = len(v.Group)
			widths = make([]float64, cols)
			for i, track := range v.Group {
				widths[i], _ = track.Value.millimetres()
			}
		default:
			cols = 1
			if mm, ok := v.millimetres(); ok {
				widths = []float64{mm}
			}
		}
	}

	var cells []cdm.Element
	for _, v := range c.positional() {
		if v.Call != nil && v.Call.Name == "table.header" {
			for _, h := range v.Call.positional() {
				e, err := p.cell(sc, src, first, h)
				if err != nil {
					return t, err
				}
				t.Headers = append(t.Headers, cdm.TableHeader{Element: e})
			}
			continue
		}
		e, err := p.cell(sc, src, first, v)
		if err != nil {
			return t, err
		}
		cells = append(cells, e)
	}

	if cols <= 0 {
		cols = max(len(t.Headers), 1)
	}
	for i := range t.Headers {
		if i < len(widths) {
			t.Headers[i].Width = widths[i]
		}
	}
	if len(t.Headers) == 0 && len(widths) > 0 && len(cells) >= cols {
		for i := 0; i < cols; i++ {
			t.Headers = append(t.Headers, cdm.TableHeader{Element: cells[i], Width: widths[i]})
		}
		cells = cells[cols:]
	}
	for start := 0; start < len(cells); start += cols {
		end := min(start+cols, len(cells))
		t.Rows = append(t.Rows, cdm.Row(cells[start:end]...))
	}
	return reconcile.Reconciled(t, nil, ""), nil
}

// inliner converts inline markup to elements. Emphasis markers toggle the
// current style.
type inliner struct {
	load  docbridge.Loader
	src   string
	first int
	style reconcile.Style
	buf   strings.Builder
	out   []cdm.Element
}

func parseInline(s string, first int, load docbridge.Loader, style reconcile.Style) ([]cdm.Element, error) {
	in := &inliner{load: load, src: s, first: first, style: style}
	if err := in.run(); err != nil {
		return nil, err
	}
	return reconcile.MergeText(in.out), nil
}

func (in *inliner) size() int {
	return reconcile.SizeOf(in.style)
}

func (in *inliner) flushText() {
	if in.buf.Len() > 0 {
		in.out = append(in.out, cdm.Text{Content: in.buf.String(), Size: in.size()})
		in.buf.Reset()
	}
}

func (in *inliner) line(off int) int {
	return in.first + strings.Count(in.src[:off], "\n")
}

// skipSpace returns the offset of the first non-blank byte of a
// continuation line.
func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func (in *inliner) run() error {
	s := in.src
	for i := 0; i < len(s); {
		switch c := s[i]; c {
		case '\\':
			switch {
			case i+1 >= len(s):
				in.buf.WriteByte('\n')
				i++
			case s[i+1] == '\n':
				in.buf.WriteByte('\n')
				i = skipSpace(s, i+2)
			case s[i+1] == ' ' || s[i+1] == '\t':
				in.buf.WriteByte('\n')
				i += 2
			default:
				_, size := utf8.DecodeRuneInString(s[i+1:])
				in.buf.WriteString(s[i+1 : i+1+size])
				i += 1 + size
			}
		case '\n':
			in.buf.WriteByte(' ')
			i = skipSpace(s, i+1)
		case '*':
			in.flushText()
			in.style.Bold = !in.style.Bold
			i++
		case '_':
			in.flushText()
			in.style.Italic = !in.style.Italic
			i++
		case '`':
			if k := strings.IndexByte(s[i+1:], '`'); k >= 0 {
				in.buf.WriteString(s[i+1 : i+1+k])
				i += k + 2
			} else {
				in.buf.WriteByte(c)
				i++
			}
		case '#':
			if i+1 >= len(s) || !isIdentStart(s[i+1]) {
				in.buf.WriteByte(c)
				i++
				continue
			}
			end, err := in.call(i)
			if err != nil {
				return err
			}
			i = end
		default:
			in.buf.WriteByte(c)
			i++
		}
	}
	in.flushText()
	return nil
}

// body parses the first trailing content block of a call as inline markup
// in style.
func (in *inliner) body(c *call, sc *scanned, style reconcile.Style) ([]cdm.Element, error) {
	if len(c.Body) == 0 {
		return nil, nil
	}
	index, ok := (&value{Content: &c.Body[0]}).content()
	if !ok || index >= len(sc.blocks) {
		return nil, nil
	}
	return parseInline(sc.blocks[index], in.line(sc.starts[index]), in.load, style)
}

// call handles an inline call at s[i] and returns the offset after it.
// Unknown calls are kept as literal text.
func (in *inliner) call(i int) (int, error) {
	c, sc, err := parseCall(in.src, i)
	if err != nil {
		return 0, lineError(in.src, in.first, err)
	}
	switch c.Name {
	case "link":
		url, _ := c.text()
		elems, err := in.body(c, sc, reconcile.Style{})
		if err != nil {
			return 0, err
		}
		title := ""
		for _, e := range elems {
			title += reconcile.PlainText(e)
		}
		in.flushText()
		in.out = append(in.out, cdm.Hyperlink{Title: title, URL: url, Size: in.size()})
	case "image":
		path, _ := c.text()
		alt := ""
		if v := c.named("alt"); v != nil && v.String != nil {
			alt = *v.String
		}
		e, err := base.ImageRef(in.load, path, "", alt)
		if err != nil {
			return 0, lineError(in.src, in.line(i), err)
		}
		in.flushText()
		in.out = append(in.out, e)
	case "text", "strong", "emph":
		style := in.style
		switch c.Name {
		case "strong":
			style.Bold = true
		case "emph":
			style.Italic = true
		default:
			if em, ok := c.named("size").em(); ok && em <= smallEm {
				style.Small = true
			}
		}
		elems, err := in.body(c, sc, style)
		if err != nil {
			return 0, err
		}
		in.flushText()
		in.out = append(in.out, elems...)
	default:
		in.buf.WriteString(in.src[i:sc.end])
	}
	return sc.end, nil
}
