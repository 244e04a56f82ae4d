package rtf

import (
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// Picture formats recognised in \pict groups.
const (
	PNG  = "png"
	JPEG = "jpeg"
)

// Picture is an embedded image.
type Picture struct {
	Data   []byte
	Format string // PNG, JPEG or empty when the blip type is not supported
	Width  int    // goal width in twips, 0 when absent
	Height int    // goal height in twips, 0 when absent
}

// Span is a run of uniformly styled content.
type Span struct {
	Text    string
	Bold    bool
	Italic  bool
	Points  float64
	URL     string   // set for the result text of a HYPERLINK field
	Picture *Picture // set for an image span; Text is empty
}

// Paragraph is a sequence of spans ended by \par.
type Paragraph struct {
	Spans  []Span
	Indent int // left indent in twips
}

// Text returns the concatenated text of the paragraph.
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, s := range p.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Cell holds the paragraphs of one table cell.
type Cell struct {
	Paragraphs []Paragraph
}

// Row is one table row. Boundaries are the \cellx right edges in twips.
type Row struct {
	Cells      []Cell
	Boundaries []int
}

// Block is either a paragraph or a table row.
type Block struct {
	Paragraph *Paragraph
	Row       *Row
}

// Page holds the section geometry in twips (1440 per inch).
type Page struct {
	Width, Height           int
	MarginLeft, MarginRight int
	MarginTop, MarginBottom int
}

// DefaultPage is the geometry RTF readers assume when none is given.
var DefaultPage = Page{
	Width: 12240, Height: 15840,
	MarginLeft: 1800, MarginRight: 1800,
	MarginTop: 1440, MarginBottom: 1440,
}

// Info holds document metadata.
type Info struct {
	Title   string
	Author  string
	Subject string
}

// Content is the interpreted document.
type Content struct {
	Page   Page
	Info   Info
	Body   []Block
	Header []Block
	Footer []Block
}

// destinations whose text is never document content.
var skipped = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "listtable": true,
	"listoverridetable": true, "rsidtbl": true, "generator": true, "themedata": true,
	"colorschememapping": true, "latentstyles": true, "datastore": true,
	"xmlnstbl": true, "pgdsctbl": true, "filetbl": true, "revtbl": true,
	"object": true, "nonshppict": true, "listtext": true, "pntext": true,
	"footnote": true, "annotation": true, "bkmkstart": true, "bkmkend": true,
}

var hyperlinkRe = regexp.MustCompile(`HYPERLINK\s+"([^"]*)"`)

type charState struct {
	bold, italic bool
	halfPoints   int
	uc           int
	url          string
}

type reader struct {
	content *Content
	target  *[]Block
	para    Paragraph
	inTable bool
	cell    Cell
	row     Row
	cellx   []int
	skip    int
	high    rune
}

// Read parses data and interprets it.
func Read(data []byte) (*Content, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return doc.Content(), nil
}

// Content interprets the group tree.
func (doc *Document) Content() *Content {
	c := &Content{Page: DefaultPage}
	r := &reader{content: c, target: &c.Body}
	r.group(doc.root, charState{halfPoints: 24, uc: 1})
	r.flushParagraph()
	r.flushRow()
	return c
}

func (r *reader) group(g *Group, st charState) {
	dest, ignorable := g.Destination()
	switch {
	case dest == "info":
		r.info(g)
		return
	case dest == "header" || dest == "headerl" || dest == "headerr" || dest == "headerf":
		r.section(g, st, &r.content.Header)
		return
	case dest == "footer" || dest == "footerl" || dest == "footerr" || dest == "footerf":
		r.section(g, st, &r.content.Footer)
		return
	case dest == "field":
		r.field(g, st)
		return
	case dest == "pict":
		r.picture(g, st)
		return
	case dest == "shppict":
	case skipped[dest], ignorable:
		return
	}

	for _, child := range g.children {
		switch v := child.(type) {
		case *Group:
			r.group(v, st)
		case string:
			r.text(v, &st)
		case ControlWord:
			r.control(v, &st)
		}
	}
}

// section reads a header or footer into its own block list.
func (r *reader) section(g *Group, st charState, target *[]Block) {
	r.flushParagraph()
	saved, savedTable := r.target, r.inTable
	r.target, r.inTable = target, false
	if len(*target) > 0 {
		*target = (*target)[:0]
	}
	inner := &Group{children: g.children[1:]}
	r.group(inner, st)
	r.flushParagraph()
	r.flushRow()
	r.target, r.inTable = saved, savedTable
}

func (r *reader) field(g *Group, st charState) {
	url := ""
	for _, child := range g.children {
		sub, ok := child.(*Group)
		if !ok {
			continue
		}
		switch d, _ := sub.Destination(); d {
		case "fldinst":
			if m := hyperlinkRe.FindStringSubmatch(plainText(sub)); m != nil {
				url = m[1]
			}
		case "fldrslt":
			inner := st
			inner.url = url
			r.group(&Group{children: sub.children[1:]}, inner)
		}
	}
}

func (r *reader) picture(g *Group, st charState) {
	pic := &Picture{}
	var payload strings.Builder
	var binary []byte
	for _, child := range g.children {
		switch v := child.(type) {
		case ControlWord:
			switch v.Word {
			case "pngblip":
				pic.Format = PNG
			case "jpegblip":
				pic.Format = JPEG
			case "picwgoal":
				pic.Width = v.Param
			case "pichgoal":
				pic.Height = v.Param
			}
		case string:
			payload.WriteString(v)
		case Binary:
			binary = append(binary, v...)
		}
	}
	if binary != nil {
		pic.Data = binary
	} else {
		clean := strings.Map(func(c rune) rune {
			if c == ' ' || c == '\t' {
				return -1
			}
			return c
		}, payload.String())
		data, err := hex.DecodeString(clean)
		if err != nil {
			pic.Format = ""
		}
		pic.Data = data
	}
	r.para.Spans = append(r.para.Spans, Span{Picture: pic, URL: st.url})
}

func (r *reader) info(g *Group) {
	for _, child := range g.children {
		sub, ok := child.(*Group)
		if !ok {
			continue
		}
		text := strings.TrimSpace(plainText(sub))
		switch d, _ := sub.Destination(); d {
		case "title":
			r.content.Info.Title = text
		case "author":
			r.content.Info.Author = text
		case "subject":
			r.content.Info.Subject = text
		}
	}
}

// plainText concatenates the literal text of a group and its subgroups.
func plainText(g *Group) string {
	var b strings.Builder
	for _, child := range g.children {
		switch v := child.(type) {
		case string:
			b.WriteString(v)
		case *Group:
			b.WriteString(plainText(v))
		case ControlWord:
			switch v.Word {
			case "\\", "{", "}":
				b.WriteString(v.Word)
			}
		}
	}
	return b.String()
}

func (r *reader) text(s string, st *charState) {
	if r.skip > 0 {
		n := len(s)
		if n > r.skip {
			n = r.skip
		}
		s = s[n:]
		r.skip -= n
	}
	r.appendText(s, st)
}

func (r *reader) appendText(s string, st *charState) {
	if s == "" {
		return
	}
	span := Span{
		Text:   s,
		Bold:   st.bold,
		Italic: st.italic,
		Points: float64(st.halfPoints) / 2,
		URL:    st.url,
	}
	if n := len(r.para.Spans); n > 0 {
		last := &r.para.Spans[n-1]
		if last.Picture == nil && last.Bold == span.Bold && last.Italic == span.Italic &&
			last.Points == span.Points && last.URL == span.URL {
			last.Text += s
			return
		}
	}
	r.para.Spans = append(r.para.Spans, span)
}

func (r *reader) appendRune(c rune, st *charState) {
	if r.high != 0 {
		if utf16.IsSurrogate(c) && c >= 0xDC00 {
			c = utf16.DecodeRune(r.high, c)
		}
		r.high = 0
	} else if c >= 0xD800 && c < 0xDC00 {
		r.high = c
		return
	}
	r.appendText(string(c), st)
}

func (r *reader) control(cw ControlWord, st *charState) {
	if cw.Word == "'" && r.skip > 0 {
		r.skip--
		return
	}
	r.skip = 0
	switch cw.Word {
	case "par", "\n", "\r":
		r.endParagraph()
	case "pard":
		r.inTable = false
		r.para.Indent = 0
	case "plain":
		st.bold, st.italic, st.halfPoints = false, false, 24
	case "b":
		st.bold = !cw.HasParam || cw.Param != 0
	case "i":
		st.italic = !cw.HasParam || cw.Param != 0
	case "fs":
		if cw.HasParam && cw.Param > 0 {
			st.halfPoints = cw.Param
		}
	case "li":
		r.para.Indent = cw.Param
	case "intbl":
		r.inTable = true
	case "trowd":
		r.cellx = nil
	case "cellx":
		r.cellx = append(r.cellx, cw.Param)
	case "cell":
		r.flushCellParagraph()
		r.row.Cells = append(r.row.Cells, r.cell)
		r.cell = Cell{}
	case "row":
		r.flushCellParagraph()
		r.row.Boundaries = append([]int(nil), r.cellx...)
		r.flushRow()
		r.inTable = false
	case "uc":
		st.uc = cw.Param
	case "u":
		v := cw.Param
		if v < 0 {
			v += 65536
		}
		r.appendRune(rune(v), st)
		r.skip = st.uc
	case "'":
		r.appendText(string(charmap.Windows1252.DecodeByte(byte(cw.Param))), st)
	case "line":
		r.appendText("\n", st)
	case "tab":
		r.appendText("\t", st)
	case "\\", "{", "}":
		r.appendText(cw.Word, st)
	case "~":
		r.appendText(" ", st)
	case "_":
		r.appendText("-", st)
	case "emdash":
		r.appendText("—", st)
	case "endash":
		r.appendText("–", st)
	case "bullet":
		r.appendText("•", st)
	case "lquote":
		r.appendText("‘", st)
	case "rquote":
		r.appendText("’", st)
	case "ldblquote":
		r.appendText("“", st)
	case "rdblquote":
		r.appendText("”", st)
	case "paperw":
		r.content.Page.Width = cw.Param
	case "paperh":
		r.content.Page.Height = cw.Param
	case "margl":
		r.content.Page.MarginLeft = cw.Param
	case "margr":
		r.content.Page.MarginRight = cw.Param
	case "margt":
		r.content.Page.MarginTop = cw.Param
	case "margb":
		r.content.Page.MarginBottom = cw.Param
	}
}

func (r *reader) endParagraph() {
	if r.inTable {
		r.flushCellParagraph()
		return
	}
	p := r.para
	r.para = Paragraph{Indent: p.Indent}
	*r.target = append(*r.target, Block{Paragraph: &p})
}

// flushParagraph emits pending spans that were not ended by \par.
func (r *reader) flushParagraph() {
	if len(r.para.Spans) == 0 {
		return
	}
	r.endParagraph()
}

func (r *reader) flushCellParagraph() {
	if len(r.para.Spans) > 0 {
		r.cell.Paragraphs = append(r.cell.Paragraphs, r.para)
	}
	r.para = Paragraph{Indent: r.para.Indent}
}

func (r *reader) flushRow() {
	if len(r.cell.Paragraphs) > 0 {
		r.row.Cells = append(r.row.Cells, r.cell)
		r.cell = Cell{}
	}
	if len(r.row.Cells) == 0 {
		return
	}
	row := r.row
	r.row = Row{}
	*r.target = append(*r.target, Block{Row: &row})
}
