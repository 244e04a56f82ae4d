package rtf

import (
	"bytes"
	"errors"
	"testing"
)

// TestParseInvalidRTF verifies error handling for malformed RTF.
func TestParseInvalidRTF(t *testing.T) {
	tests := []struct {
		name string
		rtf  string
		line int
	}{
		{"empty", "", 1},
		{"no rtf header", `{Hello World}`, 1},
		{"unclosed brace", "{\\rtf1\n{\\b Hello\n", 3},
		{"extra brace", "{\\rtf1 a}\n}", 2},
		{"bad hex", "{\\rtf1 \\'zz}", 1},
		{"backslash at end", "{\\rtf1 \\", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.rtf))
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("Parse() = %v, want SyntaxError", err)
			}
			if se.Line != tt.line {
				t.Errorf("Line = %d, want %d", se.Line, tt.line)
			}
		})
	}
}

// TestReadParagraphs verifies styled spans and paragraph breaks.
func TestReadParagraphs(t *testing.T) {
	c, err := Read([]byte(`{\rtf1\ansi{\fonttbl{\f0 Helvetica;}}{\info{\title Doc}}` +
		`\pard\plain {\b\fs48 Title}\par` +
		`\pard Hello {\i world}\line next\par}`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Info.Title != "Doc" {
		t.Errorf("Title = %q", c.Info.Title)
	}
	if len(c.Body) != 2 {
		t.Fatalf("got %d blocks", len(c.Body))
	}
	title := c.Body[0].Paragraph
	if len(title.Spans) != 1 || !title.Spans[0].Bold || title.Spans[0].Points != 24 || title.Spans[0].Text != "Title" {
		t.Errorf("title spans = %+v", title.Spans)
	}
	p := c.Body[1].Paragraph
	if p.Text() != "Hello world\nnext" {
		t.Errorf("Text() = %q", p.Text())
	}
	if len(p.Spans) != 3 || !p.Spans[1].Italic || p.Spans[0].Points != 12 {
		t.Errorf("spans = %+v", p.Spans)
	}
}

// TestReadCharacters verifies escapes and unicode handling.
func TestReadCharacters(t *testing.T) {
	c, err := Read([]byte(`{\rtf1 caf\'e9 \u8364?\uc2\u955 ab\{x\}\\ \u-10179?\u-8704?\emdash\par}`))
	if err != nil {
		t.Fatal(err)
	}
	want := "café €λ{x}\\ 😀—"
	if got := c.Body[0].Paragraph.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

// TestReadTable verifies rows, cells and boundaries.
func TestReadTable(t *testing.T) {
	c, err := Read([]byte(`{\rtf1 before\par` +
		`\trowd\cellx1000\cellx3000 \pard\intbl a\cell b\par c\cell\row` +
		`\trowd\cellx1000\cellx3000 \pard\intbl \cell d\cell\row` +
		`\pard after\par}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Body) != 4 {
		t.Fatalf("got %d blocks", len(c.Body))
	}
	row := c.Body[1].Row
	if row == nil || len(row.Cells) != 2 || len(row.Cells[1].Paragraphs) != 2 {
		t.Fatalf("row = %+v", row)
	}
	if row.Boundaries[0] != 1000 || row.Boundaries[1] != 3000 {
		t.Errorf("Boundaries = %v", row.Boundaries)
	}
	second := c.Body[2].Row
	if len(second.Cells) != 2 || len(second.Cells[0].Paragraphs) != 0 {
		t.Errorf("second row = %+v", second)
	}
	if c.Body[3].Paragraph.Text() != "after" {
		t.Errorf("trailing paragraph = %+v", c.Body[3])
	}
}

// TestReadFieldsAndPictures verifies hyperlinks and embedded images.
func TestReadFieldsAndPictures(t *testing.T) {
	c, err := Read([]byte(`{\rtf1 {\field{\*\fldinst HYPERLINK "https://x.test"}{\fldrslt {\ul site}}}` +
		`{\pict\pngblip\picwgoal720\pichgoal360 89504e47}\par}`))
	if err != nil {
		t.Fatal(err)
	}
	spans := c.Body[0].Paragraph.Spans
	if len(spans) != 2 {
		t.Fatalf("spans = %+v", spans)
	}
	if spans[0].URL != "https://x.test" || spans[0].Text != "site" {
		t.Errorf("link span = %+v", spans[0])
	}
	pic := spans[1].Picture
	if pic == nil || pic.Format != PNG || pic.Width != 720 || !bytes.Equal(pic.Data, []byte("\x89PNG")) {
		t.Errorf("picture = %+v", pic)
	}
}

// TestReadHeaderFooterGeometry verifies sections and page setup.
func TestReadHeaderFooterGeometry(t *testing.T) {
	c, err := Read([]byte(`{\rtf1\paperw11906\paperh16838\margl567 {\header \pard H\par}{\footer \pard F\par}\pard body\par}`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Page.Width != 11906 || c.Page.Height != 16838 || c.Page.MarginLeft != 567 || c.Page.MarginTop != 1440 {
		t.Errorf("Page = %+v", c.Page)
	}
	if len(c.Header) != 1 || c.Header[0].Paragraph.Text() != "H" {
		t.Errorf("Header = %+v", c.Header)
	}
	if len(c.Footer) != 1 || c.Footer[0].Paragraph.Text() != "F" {
		t.Errorf("Footer = %+v", c.Footer)
	}
	if len(c.Body) != 1 || c.Body[0].Paragraph.Text() != "body" {
		t.Errorf("Body = %+v", c.Body)
	}
}

// TestWriterRoundTrip verifies that Read understands everything Writer emits.
func TestWriterRoundTrip(t *testing.T) {
	page := Page{Width: 11906, Height: 16838, MarginLeft: 567, MarginRight: 567, MarginTop: 567, MarginBottom: 567}
	w := NewWriter(page)
	w.SetHeader([]Block{{Paragraph: &Paragraph{Spans: []Span{{Text: "head", Points: 11}}}}})
	w.Write(Block{Paragraph: &Paragraph{Indent: 360, Spans: []Span{
		{Text: " {x} \\ né\n", Bold: true, Points: 11},
		{Text: "link", Italic: true, Points: 9, URL: "https://x.test/a\"b"},
		{Picture: &Picture{Data: bytes.Repeat([]byte{0xab}, 100), Format: JPEG, Width: 100}},
	}}})
	w.Write(Block{Row: &Row{
		Boundaries: []int{1000, 2000},
		Cells: []Cell{
			{Paragraphs: []Paragraph{{Spans: []Span{{Text: "a", Points: 11}}}}},
			{},
		},
	}})

	c, err := Read(w.Bytes())
	if err != nil {
		t.Fatalf("Read() error = %v\n%s", err, w.Bytes())
	}
	if c.Page != page {
		t.Errorf("Page = %+v", c.Page)
	}
	if len(c.Header) != 1 || c.Header[0].Paragraph.Text() != "head" {
		t.Errorf("Header = %+v", c.Header)
	}
	if len(c.Body) != 2 {
		t.Fatalf("got %d blocks", len(c.Body))
	}
	p := c.Body[0].Paragraph
	if p.Indent != 360 || len(p.Spans) != 3 {
		t.Fatalf("paragraph = %+v", p)
	}
	if s := p.Spans[0]; s.Text != " {x} \\ né\n" || !s.Bold || s.Points != 11 {
		t.Errorf("span 0 = %+v", s)
	}
	if s := p.Spans[1]; s.URL != "https://x.test/a%22b" || s.Text != "link" || s.Points != 9 || !s.Italic {
		t.Errorf("span 1 = %+v", s)
	}
	if pic := p.Spans[2].Picture; pic == nil || pic.Format != JPEG || len(pic.Data) != 100 {
		t.Errorf("span 2 = %+v", p.Spans[2])
	}
	row := c.Body[1].Row
	if row == nil || len(row.Cells) != 2 || row.Boundaries[1] != 2000 {
		t.Errorf("row = %+v", row)
	}
}
