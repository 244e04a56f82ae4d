package xml

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	corexml "github.com/FocuswithJustin/docbridge/core/xml"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

type writer struct {
	*corexml.Writer
	rep *reconcile.Report
}

func newWriter(rep *reconcile.Report) *writer {
	return &writer{Writer: corexml.NewWriter("  "), rep: rep}
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (w *writer) document(doc *cdm.Document) error {
	w.Start("document",
		"page_width", num(doc.PageWidth),
		"page_height", num(doc.PageHeight),
		"margin_top", num(doc.MarginTop),
		"margin_bottom", num(doc.MarginBottom),
		"margin_left", num(doc.MarginLeft),
		"margin_right", num(doc.MarginRight),
	)
	for _, sec := range []struct {
		name  string
		elems []cdm.Element
	}{
		{"body", doc.Body},
		{"page_header", doc.PageHeader},
		{"page_footer", doc.PageFooter},
	} {
		if err := w.wrapped(sec.name, sec.elems, sec.name); err != nil {
			return err
		}
	}
	w.End("document")
	return nil
}

// field writes a string child. Strings holding characters XML cannot
// carry fail instead of being replaced.
func (w *writer) field(name, value, path string) error {
	if i := corexml.InvalidChar(value); i >= 0 {
		return errors.NewGenerate(Name, fmt.Sprintf("%s.%s: byte %d is not a valid XML character", path, name, i), nil)
	}
	w.Field(name, value)
	return nil
}

// fields writes name/value pairs in order, stopping at the first failure.
func (w *writer) fields(path string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := w.field(pairs[i], pairs[i+1], path); err != nil {
			return err
		}
	}
	return nil
}

// wrapped writes elems inside a collection element.
func (w *writer) wrapped(name string, elems []cdm.Element, prefix string) error {
	w.Start(name)
	for i, e := range elems {
		if err := w.element(e, fmt.Sprintf("%s[%d]", prefix, i)); err != nil {
			return err
		}
	}
	w.End(name)
	return nil
}

// single writes one element inside an <element> wrapper.
func (w *writer) single(e cdm.Element, path string) error {
	w.Start("element")
	if err := w.element(e, path); err != nil {
		return err
	}
	w.End("element")
	return nil
}

func (w *writer) element(e cdm.Element, path string) error {
	switch v := e.(type) {
	case cdm.Text:
		w.Start("Text", "size", strconv.Itoa(v.Size))
		if err := w.field("content", v.Content, path); err != nil {
			return err
		}
		w.End("Text")
	case cdm.Header:
		h := reconcile.Heading(v, w.rep, path)
		w.Start("Header", "level", strconv.Itoa(h.Level))
		if err := w.field("text", h.Text, path); err != nil {
			return err
		}
		w.End("Header")
	case cdm.Paragraph:
		w.Start("Paragraph")
		if err := w.wrapped("children", v.Children, path+".children"); err != nil {
			return err
		}
		w.End("Paragraph")
	case cdm.Table:
		w.Start("Table")
		w.Start("headers")
		for i, h := range v.Headers {
			w.Start("TableHeader", "width", num(h.Width))
			if err := w.single(h.Element, fmt.Sprintf("%s.headers[%d].element", path, i)); err != nil {
				return err
			}
			w.End("TableHeader")
		}
		w.End("headers")
		w.Start("rows")
		for r, row := range v.Rows {
			w.Start("TableRow")
			w.Start("cells")
			for i, c := range row.Cells {
				w.Start("TableCell")
				if err := w.single(c.Element, fmt.Sprintf("%s.rows[%d].cells[%d].element", path, r, i)); err != nil {
					return err
				}
				w.End("TableCell")
			}
			w.End("cells")
			w.End("TableRow")
		}
		w.End("rows")
		w.End("Table")
	case cdm.List:
		w.Start("List", "numbered", strconv.FormatBool(v.Numbered))
		w.Start("items")
		for i, it := range v.Items {
			w.Start("ListItem")
			if err := w.single(it.Element, fmt.Sprintf("%s.items[%d].element", path, i)); err != nil {
				return err
			}
			w.End("ListItem")
		}
		w.End("items")
		w.End("List")
	case cdm.Image:
		w.Start("Image", "encoding", string(v.Encoding))
		w.Field("bytes", base64.StdEncoding.EncodeToString(v.Bytes))
		if err := w.fields(path, "title", v.Title, "alt", v.Alt); err != nil {
			return err
		}
		w.End("Image")
	case cdm.Hyperlink:
		w.Start("Hyperlink", "size", strconv.Itoa(v.Size))
		if err := w.fields(path, "title", v.Title, "url", v.URL, "alt", v.Alt); err != nil {
			return err
		}
		w.End("Hyperlink")
	default:
		return base.UnknownElementError(Name, path, e)
	}
	return nil
}
