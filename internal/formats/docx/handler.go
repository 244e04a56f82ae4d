// Package docx provides the Office Open XML word processing format module.
//
// Headings use the Heading1..6 paragraph styles, lists use numbering
// definitions with one instance per list, tables carry their column grid,
// and images are embedded under word/media.
package docx

import (
	stderrors "errors"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/opc"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	corexml "github.com/FocuswithJustin/docbridge/core/xml"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// Name is the registry identifier.
const Name = "docx"

// Handler implements the DOCX Transformer.
type Handler struct{}

// Register registers this module with the default registry.
func Register() {
	docbridge.Register(Name, &Handler{})
}

// init automatically registers this module when the package is imported.
func init() {
	Register()
}

// Parse reads a DOCX package.
func (h *Handler) Parse(data []byte) (*cdm.Document, error) {
	pkg, err := opc.Open(data)
	if err != nil {
		return nil, errors.WrapParse(Name, 0, err)
	}
	doc, err := newReader(pkg).document()
	if err != nil {
		return nil, parseError(err)
	}
	if err := cdm.Validate(doc); err != nil {
		return nil, &errors.ParseError{Format: Name, Message: "invalid document", Err: err}
	}
	return doc, nil
}

// parseError keeps the line of an XML syntax error in a part.
func parseError(err error) error {
	var pe *errors.ParseError
	if stderrors.As(err, &pe) {
		return pe
	}
	var se *corexml.SyntaxError
	if stderrors.As(err, &se) {
		return errors.WrapParse(Name, se.Line, err)
	}
	return errors.WrapParse(Name, 0, err)
}

// Generate writes the document as a DOCX package.
func (h *Handler) Generate(doc *cdm.Document) ([]byte, error) {
	out, _, err := h.GenerateReport(doc, nil)
	return out, err
}

// GenerateReport writes the package and reports every lossy adjustment.
// Images are embedded, so the saver is unused.
func (h *Handler) GenerateReport(doc *cdm.Document, _ docbridge.Saver) ([]byte, *reconcile.Report, error) {
	doc = base.EnsureDocument(doc)
	w := newWriter(doc, reconcile.NewReport(Name))
	out, err := w.document(doc)
	if err != nil {
		var ge *errors.GenerateError
		if !stderrors.As(err, &ge) {
			err = errors.NewGenerate(Name, "write package", err)
		}
		return nil, nil, err
	}
	return out, w.rep, nil
}
