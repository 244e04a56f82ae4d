// Package xml provides the canonical XML format module. Every element is
// written as an XML element named after its variant; scalar fields are
// attributes and strings are child elements, so documents round trip
// exactly.
package xml

import (
	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	corexml "github.com/FocuswithJustin/docbridge/core/xml"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// Name is the registry identifier.
const Name = "xml"

// Handler implements the canonical XML Transformer.
type Handler struct{}

// Register registers this module with the default registry.
func Register() {
	docbridge.Register(Name, &Handler{})
}

// init automatically registers this module when the package is imported.
func init() {
	Register()
}

// Lossless marks XML as a canonical form.
func (h *Handler) Lossless() bool { return true }

// Parse reads a document. Entities, unknown elements and unknown
// attributes are rejected.
func (h *Handler) Parse(data []byte) (*cdm.Document, error) {
	tree, err := corexml.Parse(data)
	if err != nil {
		if se, ok := err.(*corexml.SyntaxError); ok {
			return nil, errors.NewParse(Name, se.Line, se.Message)
		}
		return nil, errors.WrapParse(Name, 0, err)
	}
	doc, err := readDocument(tree.Root())
	if err != nil {
		return nil, err
	}
	if err := cdm.Validate(doc); err != nil {
		return nil, &errors.ParseError{Format: Name, Message: err.Error(), Err: err}
	}
	return doc, nil
}

// Generate writes doc as indented XML.
func (h *Handler) Generate(doc *cdm.Document) ([]byte, error) {
	out, _, err := h.GenerateReport(doc, nil)
	return out, err
}

// GenerateReport writes doc. Only heading levels can be adjusted.
func (h *Handler) GenerateReport(doc *cdm.Document, _ docbridge.Saver) ([]byte, *reconcile.Report, error) {
	doc = base.EnsureDocument(doc)
	w := newWriter(reconcile.NewReport(Name))
	if err := w.document(doc); err != nil {
		return nil, nil, err
	}
	out, err := w.Bytes()
	if err != nil {
		return nil, nil, errors.NewGenerate(Name, "encode document", err)
	}
	return out, w.rep, nil
}
