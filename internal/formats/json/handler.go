// Package json provides the canonical JSON format module. Its schema mirrors
// the document model one-to-one, so a parse of generated output reproduces
// the document exactly.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// Name is the registry identifier.
const Name = "json"

// Handler implements the canonical JSON Transformer.
type Handler struct{}

// Register registers this module with the default registry.
func Register() {
	docbridge.Register(Name, &Handler{})
}

// init automatically registers this module when the package is imported.
func init() {
	Register()
}

// Lossless marks JSON as a canonical form.
func (h *Handler) Lossless() bool { return true }

// Parse decodes a JSON document strictly: unknown types and fields are
// rejected and the result must satisfy the document invariants.
func (h *Handler) Parse(data []byte) (*cdm.Document, error) {
	var jd JSONDocument
	if err := decodeStrict(data, &jd); err != nil {
		return nil, parseError(data, "", err)
	}

	doc := &cdm.Document{
		PageWidth:    jd.PageWidth,
		PageHeight:   jd.PageHeight,
		MarginTop:    jd.MarginTop,
		MarginBottom: jd.MarginBottom,
		MarginLeft:   jd.MarginLeft,
		MarginRight:  jd.MarginRight,
	}
	var err error
	if doc.Body, err = decodeElements(jd.Body, "body"); err != nil {
		return nil, err
	}
	if doc.PageHeader, err = decodeElements(jd.PageHeader, "page_header"); err != nil {
		return nil, err
	}
	if doc.PageFooter, err = decodeElements(jd.PageFooter, "page_footer"); err != nil {
		return nil, err
	}
	if err := cdm.Validate(doc); err != nil {
		return nil, &errors.ParseError{Format: Name, Message: err.Error(), Err: err}
	}
	return doc, nil
}

func decodeStrict(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

// parseError locates top-level syntax errors by line. Errors inside nested
// elements carry their path instead.
func parseError(data []byte, path string, err error) error {
	line := 0
	if path == "" {
		switch e := err.(type) {
		case *json.SyntaxError:
			line = base.LineAt(data, int(e.Offset))
		case *json.UnmarshalTypeError:
			line = base.LineAt(data, int(e.Offset))
		}
	}
	pe := errors.WrapParse(Name, line, err)
	if path != "" {
		pe.Message = path + ": " + pe.Message
	}
	return pe
}

func decodeElements(raws []json.RawMessage, prefix string) ([]cdm.Element, error) {
	var out []cdm.Element
	for i, raw := range raws {
		e, err := decodeElement(raw, fmt.Sprintf("%s[%d]", prefix, i))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeElement(raw json.RawMessage, path string) (cdm.Element, error) {
	if len(raw) == 0 {
		return nil, errors.NewParse(Name, 0, path+": missing element")
	}
	var tag JSONTag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, parseError(raw, path, err)
	}
	kind, ok := cdm.KindFromString(tag.Type)
	if !ok {
		return nil, errors.NewParse(Name, 0, fmt.Sprintf("%s: unknown element type %q", path, tag.Type))
	}

	switch kind {
	case cdm.KindText:
		var v JSONText
		if err := decodeStrict(raw, &v); err != nil {
			return nil, parseError(raw, path, err)
		}
		return cdm.Text{Content: v.Content, Size: v.Size}, nil

	case cdm.KindHeader:
		var v JSONHeader
		if err := decodeStrict(raw, &v); err != nil {
			return nil, parseError(raw, path, err)
		}
		return cdm.Header{Level: v.Level, Text: v.Text}, nil

	case cdm.KindParagraph:
		var v JSONParagraph
		if err := decodeStrict(raw, &v); err != nil {
			return nil, parseError(raw, path, err)
		}
		children, err := decodeElements(v.Children, path+".children")
		if err != nil {
			return nil, err
		}
		return cdm.Paragraph{Children: children}, nil

	case cdm.KindTable:
		var v JSONTable
		if err := decodeStrict(raw, &v); err != nil {
			return nil, parseError(raw, path, err)
		}
		t := cdm.Table{}
		for i, h := range v.Headers {
			e, err := decodeElement(h.Element, fmt.Sprintf("%s.headers[%d].element", path, i))
			if err != nil {
				return nil, err
			}
			t.Headers = append(t.Headers, cdm.TableHeader{Element: e, Width: h.Width})
		}
		for r, row := range v.Rows {
			tr := cdm.TableRow{}
			for i, c := range row.Cells {
				e, err := decodeElement(c.Element, fmt.Sprintf("%s.rows[%d].cells[%d].element", path, r, i))
				if err != nil {
					return nil, err
				}
				tr.Cells = append(tr.Cells, cdm.TableCell{Element: e})
			}
			t.Rows = append(t.Rows, tr)
		}
		return t, nil

	case cdm.KindList:
		var v JSONList
		if err := decodeStrict(raw, &v); err != nil {
			return nil, parseError(raw, path, err)
		}
		l := cdm.List{Numbered: v.Numbered}
		for i, it := range v.Items {
			e, err := decodeElement(it.Element, fmt.Sprintf("%s.items[%d].element", path, i))
			if err != nil {
				return nil, err
			}
			l.Items = append(l.Items, cdm.ListItem{Element: e})
		}
		return l, nil

	case cdm.KindImage:
		var v JSONImage
		if err := decodeStrict(raw, &v); err != nil {
			return nil, parseError(raw, path, err)
		}
		return cdm.Image{Bytes: v.Bytes, Title: v.Title, Alt: v.Alt, Encoding: cdm.ImageEncoding(v.Encoding)}, nil

	case cdm.KindHyperlink:
		var v JSONHyperlink
		if err := decodeStrict(raw, &v); err != nil {
			return nil, parseError(raw, path, err)
		}
		return cdm.Hyperlink{Title: v.Title, URL: v.URL, Alt: v.Alt, Size: v.Size}, nil
	}
	return nil, errors.NewParse(Name, 0, fmt.Sprintf("%s: unhandled element type %q", path, tag.Type))
}

// Generate encodes doc as indented JSON.
func (h *Handler) Generate(doc *cdm.Document) ([]byte, error) {
	out, _, err := h.GenerateReport(doc, nil)
	return out, err
}

// GenerateReport encodes doc. Heading levels are clamped; nothing else is
// ever lost.
func (h *Handler) GenerateReport(doc *cdm.Document, _ docbridge.Saver) ([]byte, *reconcile.Report, error) {
	doc = base.EnsureDocument(doc)
	e := &encoder{rep: reconcile.NewReport(Name)}
	jd := JSONDocument{
		PageWidth:    doc.PageWidth,
		PageHeight:   doc.PageHeight,
		MarginTop:    doc.MarginTop,
		MarginBottom: doc.MarginBottom,
		MarginLeft:   doc.MarginLeft,
		MarginRight:  doc.MarginRight,
	}
	var err error
	if jd.Body, err = e.elements(doc.Body, "body"); err != nil {
		return nil, nil, err
	}
	if jd.PageHeader, err = e.elements(doc.PageHeader, "page_header"); err != nil {
		return nil, nil, err
	}
	if jd.PageFooter, err = e.elements(doc.PageFooter, "page_footer"); err != nil {
		return nil, nil, err
	}
	out, err := json.MarshalIndent(jd, "", "  ")
	if err != nil {
		return nil, nil, errors.NewGenerate(Name, "marshal document", err)
	}
	return append(out, '\n'), e.rep, nil
}

type encoder struct {
	rep *reconcile.Report
}

func (e *encoder) elements(elems []cdm.Element, prefix string) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(elems))
	for i, el := range elems {
		raw, err := e.element(el, fmt.Sprintf("%s[%d]", prefix, i))
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func (e *encoder) element(el cdm.Element, path string) (json.RawMessage, error) {
	var v interface{}
	switch x := el.(type) {
	case cdm.Text:
		v = JSONText{Type: x.Kind().String(), Content: x.Content, Size: x.Size}
	case cdm.Header:
		h := reconcile.Heading(x, e.rep, path)
		v = JSONHeader{Type: x.Kind().String(), Level: h.Level, Text: h.Text}
	case cdm.Paragraph:
		children, err := e.elements(x.Children, path+".children")
		if err != nil {
			return nil, err
		}
		v = JSONParagraph{Type: x.Kind().String(), Children: children}
	case cdm.Table:
		t := JSONTable{
			Type:    x.Kind().String(),
			Headers: make([]JSONTableHeader, 0, len(x.Headers)),
			Rows:    make([]JSONTableRow, 0, len(x.Rows)),
		}
		for i, h := range x.Headers {
			raw, err := e.element(h.Element, fmt.Sprintf("%s.headers[%d].element", path, i))
			if err != nil {
				return nil, err
			}
			t.Headers = append(t.Headers, JSONTableHeader{Element: raw, Width: h.Width})
		}
		for r, row := range x.Rows {
			jr := JSONTableRow{Cells: make([]JSONTableCell, 0, len(row.Cells))}
			for i, c := range row.Cells {
				raw, err := e.element(c.Element, fmt.Sprintf("%s.rows[%d].cells[%d].element", path, r, i))
				if err != nil {
					return nil, err
				}
				jr.Cells = append(jr.Cells, JSONTableCell{Element: raw})
			}
			t.Rows = append(t.Rows, jr)
		}
		v = t
	case cdm.List:
		l := JSONList{Type: x.Kind().String(), Numbered: x.Numbered, Items: make([]JSONListItem, 0, len(x.Items))}
		for i, it := range x.Items {
			raw, err := e.element(it.Element, fmt.Sprintf("%s.items[%d].element", path, i))
			if err != nil {
				return nil, err
			}
			l.Items = append(l.Items, JSONListItem{Element: raw})
		}
		v = l
	case cdm.Image:
		data := x.Bytes
		if data == nil {
			data = []byte{}
		}
		v = JSONImage{Type: x.Kind().String(), Bytes: data, Title: x.Title, Alt: x.Alt, Encoding: string(x.Encoding)}
	case cdm.Hyperlink:
		v = JSONHyperlink{Type: x.Kind().String(), Title: x.Title, URL: x.URL, Alt: x.Alt, Size: x.Size}
	default:
		return nil, base.UnknownElementError(Name, path, el)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.NewGenerate(Name, "marshal "+path, err)
	}
	return raw, nil
}
