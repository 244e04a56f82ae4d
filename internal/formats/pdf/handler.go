// Package pdf provides the PDF format module.
//
// Generation draws through a Canvas, by default gofpdf with the core
// Helvetica fonts. Parsing reads positioned text through an Extractor, by
// default ledongthuc/pdf, and rebuilds headings, lists and paragraphs from
// font sizes, weights and line spacing. Tables, images and links are not
// recovered.
package pdf

import (
	"bytes"
	stderrors "errors"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// Name is the registry identifier.
const Name = "pdf"

// Handler implements the PDF Transformer. Zero fields use the default
// codecs.
type Handler struct {
	NewCanvas func() Canvas
	Extractor Extractor
}

// Register registers this module with the default registry.
func Register() {
	docbridge.Register(Name, &Handler{})
}

// init automatically registers this module when the package is imported.
func init() {
	Register()
}

func (h *Handler) canvas() Canvas {
	if h.NewCanvas != nil {
		return h.NewCanvas()
	}
	return NewCanvas()
}

func (h *Handler) extractor() Extractor {
	if h.Extractor != nil {
		return h.Extractor
	}
	return Reader{}
}

// Parse extracts the text of a PDF file.
func (h *Handler) Parse(data []byte) (doc *cdm.Document, err error) {
	defer base.RecoverPanic(Name, &err)

	ex, err := h.extractor().Extract(data)
	if err != nil {
		var pe *errors.ParseError
		if stderrors.As(err, &pe) {
			return nil, pe
		}
		return nil, errors.WrapParse(Name, 0, err)
	}
	doc = build(ex)
	if err := cdm.Validate(doc); err != nil {
		return nil, &errors.ParseError{Format: Name, Message: "invalid document", Err: err}
	}
	return doc, nil
}

// Generate renders the document as PDF.
func (h *Handler) Generate(doc *cdm.Document) ([]byte, error) {
	out, _, err := h.GenerateReport(doc, nil)
	return out, err
}

// GenerateReport renders the document and reports every lossy adjustment.
// Images are drawn inline, so the saver is unused.
func (h *Handler) GenerateReport(doc *cdm.Document, _ docbridge.Saver) ([]byte, *reconcile.Report, error) {
	doc = base.EnsureDocument(doc)
	w := newWriter(h.canvas(), doc, reconcile.NewReport(Name))
	if err := w.document(doc); err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := w.c.Output(&buf); err != nil {
		return nil, nil, errors.NewGenerate(Name, "write pdf", err)
	}
	return buf.Bytes(), w.rep, nil
}
