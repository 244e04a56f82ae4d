package cdm

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the BLAKE3 digest of the document's canonical walk as
// a hex string. Structurally equal documents share a fingerprint.
func Fingerprint(d *Document) string {
	h := blake3.New()
	if d == nil {
		sum := h.Sum(nil)
		return hex.EncodeToString(sum)
	}
	w := &hashWriter{h: h}
	for _, f := range []float64{d.PageWidth, d.PageHeight, d.MarginTop, d.MarginBottom, d.MarginLeft, d.MarginRight} {
		w.float(f)
	}
	w.elements(d.Body)
	w.elements(d.PageHeader)
	w.elements(d.PageFooter)
	return hex.EncodeToString(h.Sum(nil))
}

type hashWriter struct {
	h   *blake3.Hasher
	buf [8]byte
}

func (w *hashWriter) int(n int) {
	binary.LittleEndian.PutUint64(w.buf[:], uint64(int64(n)))
	_, _ = w.h.Write(w.buf[:])
}

func (w *hashWriter) float(f float64) {
	binary.LittleEndian.PutUint64(w.buf[:], math.Float64bits(f))
	_, _ = w.h.Write(w.buf[:])
}

func (w *hashWriter) bytes(b []byte) {
	w.int(len(b))
	_, _ = w.h.Write(b)
}

func (w *hashWriter) string(s string) {
	w.bytes([]byte(s))
}

func (w *hashWriter) elements(elems []Element) {
	w.int(len(elems))
	for _, e := range elems {
		w.element(e)
	}
}

func (w *hashWriter) element(e Element) {
	if e == nil {
		w.int(-1)
		return
	}
	w.int(int(e.Kind()))
	switch v := e.(type) {
	case Text:
		w.string(v.Content)
		w.int(v.Size)
	case Header:
		w.int(v.Level)
		w.string(v.Text)
	case Paragraph:
		w.elements(v.Children)
	case Table:
		w.int(len(v.Headers))
		for _, hd := range v.Headers {
			w.element(hd.Element)
			w.float(hd.Width)
		}
		w.int(len(v.Rows))
		for _, r := range v.Rows {
			w.int(len(r.Cells))
			for _, c := range r.Cells {
				w.element(c.Element)
			}
		}
	case List:
		if v.Numbered {
			w.int(1)
		} else {
			w.int(0)
		}
		w.int(len(v.Items))
		for _, it := range v.Items {
			w.element(it.Element)
		}
	case Image:
		w.bytes(v.Bytes)
		w.string(v.Title)
		w.string(v.Alt)
		w.string(string(v.Encoding))
	case Hyperlink:
		w.string(v.Title)
		w.string(v.URL)
		w.string(v.Alt)
		w.int(v.Size)
	}
}
