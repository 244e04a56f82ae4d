// Package html provides the HTML format module.
//
// Parsing goes through golang.org/x/net/html with charset sniffing;
// generation builds a node tree and renders it with the same package, so
// escaping is never done by hand.
package html

import (
	"bytes"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// Name is the registry identifier.
const Name = "html"

// Handler implements the HTML ImageTransformer.
type Handler struct{}

// Register registers this module with the default registry.
func Register() {
	docbridge.Register(Name, &Handler{})
}

func init() {
	Register()
}

// Parse parses an HTML document. Images degrade to hyperlinks unless they
// are data URIs.
func (h *Handler) Parse(data []byte) (*cdm.Document, error) {
	return h.ParseWithLoader(data, nil)
}

// ParseWithLoader parses an HTML document, calling load for each image
// source that is not a data URI.
func (h *Handler) ParseWithLoader(data []byte, load docbridge.Loader) (*cdm.Document, error) {
	r, err := charset.NewReader(bytes.NewReader(data), "text/html")
	if err != nil {
		return nil, errors.WrapParse(Name, 0, err)
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapParse(Name, 0, err)
	}
	p := &parser{load: load}
	return p.document(root)
}

// Generate renders doc as an HTML5 document with images as data URIs.
func (h *Handler) Generate(doc *cdm.Document) ([]byte, error) {
	out, _, err := h.GenerateReport(doc, nil)
	return out, err
}

// GenerateWithSaver renders doc, handing image bytes to save.
func (h *Handler) GenerateWithSaver(doc *cdm.Document, save docbridge.Saver) ([]byte, error) {
	out, _, err := h.GenerateReport(doc, save)
	return out, err
}

// GenerateReport renders doc and returns the degradation diagnostics.
func (h *Handler) GenerateReport(doc *cdm.Document, save docbridge.Saver) ([]byte, *reconcile.Report, error) {
	w := &writer{rep: reconcile.NewReport(Name), save: save}
	root, err := w.document(base.EnsureDocument(doc))
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, nil, errors.NewGenerate(Name, "render", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), w.rep, nil
}
