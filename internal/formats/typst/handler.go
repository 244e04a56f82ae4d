// Package typst provides the Typst format module.
//
// Generation writes markup with a #set page rule carrying geometry and
// page bands. Parsing reads the same subset back: headings, lists,
// paragraphs with strong and emphasis, #link, #image, #text(size:) and
// #table. Calls are cut out of the markup by a bracket scanner and their
// argument lists parsed with participle.
package typst

import (
	"bytes"
	"strings"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// Name is the registry identifier.
const Name = "typst"

// Handler implements the Typst ImageTransformer.
type Handler struct{}

// Register registers this module with the default registry.
func Register() {
	docbridge.Register(Name, &Handler{})
}

func init() {
	Register()
}

// Parse parses Typst markup. Image references degrade to hyperlinks.
func (h *Handler) Parse(data []byte) (*cdm.Document, error) {
	return h.ParseWithLoader(data, nil)
}

// ParseWithLoader parses Typst markup, calling load for each image path
// that is not a data URI.
func (h *Handler) ParseWithLoader(data []byte, load docbridge.Loader) (*cdm.Document, error) {
	if err := checkUTF8(data); err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	doc := cdm.NewDocument()
	p := newParser(load, doc)
	if err := p.parse(content, 1); err != nil {
		return nil, err
	}
	doc.Body = p.body
	return doc, nil
}

// Generate renders doc as Typst with images embedded as data URIs.
func (h *Handler) Generate(doc *cdm.Document) ([]byte, error) {
	out, _, err := h.GenerateReport(doc, nil)
	return out, err
}

// GenerateWithSaver renders doc, handing image bytes to save and
// referencing the saved names.
func (h *Handler) GenerateWithSaver(doc *cdm.Document, save docbridge.Saver) ([]byte, error) {
	out, _, err := h.GenerateReport(doc, save)
	return out, err
}

// GenerateReport renders doc and returns the degradation diagnostics.
func (h *Handler) GenerateReport(doc *cdm.Document, save docbridge.Saver) ([]byte, *reconcile.Report, error) {
	w := &writer{rep: reconcile.NewReport(Name), save: save}
	out, err := w.document(base.EnsureDocument(doc))
	if err != nil {
		return nil, nil, err
	}
	return out, w.rep, nil
}
