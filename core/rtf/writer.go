package rtf

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/docbridge/core/encoding"
)

// hexLineWidth wraps picture payloads.
const hexLineWidth = 128

// Writer accumulates RTF output.
type Writer struct {
	page   Page
	header []Block
	footer []Block
	body   strings.Builder
}

// NewWriter returns a writer for the given page geometry.
func NewWriter(page Page) *Writer {
	return &Writer{page: page}
}

// SetHeader sets the blocks repeated at the top of every page.
func (w *Writer) SetHeader(blocks []Block) { w.header = blocks }

// SetFooter sets the blocks repeated at the bottom of every page.
func (w *Writer) SetFooter(blocks []Block) { w.footer = blocks }

// Write appends a body block.
func (w *Writer) Write(b Block) {
	writeBlock(&w.body, b)
}

// Bytes returns the complete document.
func (w *Writer) Bytes() []byte {
	var out strings.Builder
	out.WriteString("{\\rtf1\\ansi\\ansicpg1252\\deff0\\uc1\n")
	out.WriteString("{\\fonttbl{\\f0\\fswiss Helvetica;}}\n")
	p := w.page
	out.WriteString("\\paperw" + strconv.Itoa(p.Width) + "\\paperh" + strconv.Itoa(p.Height) +
		"\\margl" + strconv.Itoa(p.MarginLeft) + "\\margr" + strconv.Itoa(p.MarginRight) +
		"\\margt" + strconv.Itoa(p.MarginTop) + "\\margb" + strconv.Itoa(p.MarginBottom) + "\n")
	if len(w.header) > 0 {
		out.WriteString("{\\header\n")
		for _, b := range w.header {
			writeBlock(&out, b)
		}
		out.WriteString("}\n")
	}
	if len(w.footer) > 0 {
		out.WriteString("{\\footer\n")
		for _, b := range w.footer {
			writeBlock(&out, b)
		}
		out.WriteString("}\n")
	}
	out.WriteString(w.body.String())
	out.WriteString("}\n")
	return []byte(out.String())
}

func writeBlock(out *strings.Builder, b Block) {
	switch {
	case b.Paragraph != nil:
		out.WriteString("\\pard\\plain")
		if b.Paragraph.Indent > 0 {
			out.WriteString("\\li" + strconv.Itoa(b.Paragraph.Indent))
		}
		out.WriteByte(' ')
		writeSpans(out, b.Paragraph.Spans)
		out.WriteString("\\par\n")
	case b.Row != nil:
		writeRow(out, b.Row)
	}
}

func writeRow(out *strings.Builder, row *Row) {
	out.WriteString("\\trowd\\trgaph108")
	for _, x := range row.Boundaries {
		out.WriteString("\\clbrdrt\\brdrs\\clbrdrl\\brdrs\\clbrdrb\\brdrs\\clbrdrr\\brdrs\\cellx" + strconv.Itoa(x))
	}
	out.WriteByte('\n')
	for _, c := range row.Cells {
		out.WriteString("\\pard\\plain\\intbl ")
		for i, p := range c.Paragraphs {
			if i > 0 {
				out.WriteString("\\par ")
			}
			writeSpans(out, p.Spans)
		}
		out.WriteString("\\cell\n")
	}
	out.WriteString("\\row\n")
}

func writeSpans(out *strings.Builder, spans []Span) {
	for i := 0; i < len(spans); {
		if url := spans[i].URL; url != "" {
			j := i
			for j < len(spans) && spans[j].URL == url {
				j++
			}
			out.WriteString("{\\field{\\*\\fldinst HYPERLINK \"" + encoding.EscapeRTF(strings.ReplaceAll(url, "\"", "%22")) + "\"}{\\fldrslt ")
			for _, s := range spans[i:j] {
				writeSpan(out, s)
			}
			out.WriteString("}}")
			i = j
			continue
		}
		writeSpan(out, spans[i])
		i++
	}
}

func writeSpan(out *strings.Builder, s Span) {
	if s.Picture != nil {
		writePicture(out, s.Picture)
		return
	}
	out.WriteByte('{')
	controls := false
	if s.Bold {
		out.WriteString("\\b")
		controls = true
	}
	if s.Italic {
		out.WriteString("\\i")
		controls = true
	}
	if s.Points > 0 {
		out.WriteString("\\fs" + strconv.Itoa(int(s.Points*2+0.5)))
		controls = true
	}
	if controls {
		out.WriteByte(' ')
	}
	out.WriteString(encoding.EscapeRTF(s.Text))
	out.WriteByte('}')
}

func writePicture(out *strings.Builder, p *Picture) {
	out.WriteString("{\\pict")
	switch p.Format {
	case JPEG:
		out.WriteString("\\jpegblip")
	default:
		out.WriteString("\\pngblip")
	}
	if p.Width > 0 {
		out.WriteString("\\picwgoal" + strconv.Itoa(p.Width))
	}
	if p.Height > 0 {
		out.WriteString("\\pichgoal" + strconv.Itoa(p.Height))
	}
	out.WriteByte('\n')
	enc := hex.EncodeToString(p.Data)
	for len(enc) > hexLineWidth {
		out.WriteString(enc[:hexLineWidth])
		out.WriteByte('\n')
		enc = enc[hexLineWidth:]
	}
	out.WriteString(enc)
	out.WriteString("}")
}
