package xml

import (
	"bytes"
	"encoding/xml"
	"unicode/utf8"
)

// Writer streams elements whose names are written literally, so prefixed
// names such as "w:p" need no namespace bookkeeping. Declare the prefixes
// with xmlns attributes on the root element. The first error is kept and
// returned by Bytes.
type Writer struct {
	buf bytes.Buffer
	enc *xml.Encoder
	err error
}

// NewWriter starts a document with the standard XML header. A non-empty
// indent pretty-prints the output.
func NewWriter(indent string) *Writer {
	w := &Writer{}
	w.buf.WriteString(xml.Header)
	w.enc = xml.NewEncoder(&w.buf)
	if indent != "" {
		w.enc.Indent("", indent)
	}
	return w
}

func (w *Writer) token(t xml.Token) {
	if w.err == nil {
		w.err = w.enc.EncodeToken(t)
	}
}

// Start opens an element. attrs alternates names and values.
func (w *Writer) Start(name string, attrs ...string) {
	se := xml.StartElement{Name: xml.Name{Local: name}}
	for i := 0; i+1 < len(attrs); i += 2 {
		se.Attr = append(se.Attr, xml.Attr{Name: xml.Name{Local: attrs[i]}, Value: attrs[i+1]})
	}
	w.token(se)
}

// End closes an element.
func (w *Writer) End(name string) {
	w.token(xml.EndElement{Name: xml.Name{Local: name}})
}

// Empty writes an element without content.
func (w *Writer) Empty(name string, attrs ...string) {
	w.Start(name, attrs...)
	w.End(name)
}

// Text writes escaped character data.
func (w *Writer) Text(s string) {
	w.token(xml.CharData(s))
}

// Field writes an element holding only text.
func (w *Writer) Field(name, text string, attrs ...string) {
	w.Start(name, attrs...)
	w.Text(text)
	w.End(name)
}

// Bytes flushes the encoder and returns the document followed by a newline.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err == nil {
		w.err = w.enc.Flush()
	}
	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('\n')
	return w.buf.Bytes(), nil
}

// InvalidChar returns the byte offset of the first character XML 1.0 cannot
// carry, or -1. Invalid UTF-8 counts as such a character.
func InvalidChar(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if (r == utf8.RuneError && size == 1) || !isChar(r) {
			return i
		}
		i += size
	}
	return -1
}

func isChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
