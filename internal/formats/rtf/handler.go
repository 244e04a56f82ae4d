// Package rtf provides the RTF format module.
//
// Headings are bold paragraphs at heading point sizes, list items are
// paragraphs led by a bullet or number and indented per nesting level, and
// tables are runs of \trowd rows whose first row holds the headers. Images
// are embedded as PNG or JPEG \pict groups.
package rtf

import (
	stderrors "errors"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	"github.com/FocuswithJustin/docbridge/core/rtf"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// Name is the registry identifier.
const Name = "rtf"

// listIndent is the left indent added per list nesting level, in twips.
const listIndent = 360

// Handler implements the RTF Transformer.
type Handler struct{}

// Register registers this module with the default registry.
func Register() {
	docbridge.Register(Name, &Handler{})
}

// init automatically registers this module when the package is imported.
func init() {
	Register()
}

// Parse reads an RTF document.
func (h *Handler) Parse(data []byte) (*cdm.Document, error) {
	c, err := rtf.Read(data)
	if err != nil {
		var se *rtf.SyntaxError
		if stderrors.As(err, &se) {
			return nil, errors.NewParse(Name, se.Line, se.Message)
		}
		return nil, errors.WrapParse(Name, 0, err)
	}

	doc := &cdm.Document{
		PageWidth:    toMM(c.Page.Width),
		PageHeight:   toMM(c.Page.Height),
		MarginTop:    toMM(c.Page.MarginTop),
		MarginBottom: toMM(c.Page.MarginBottom),
		MarginLeft:   toMM(c.Page.MarginLeft),
		MarginRight:  toMM(c.Page.MarginRight),
		Body:         readBlocks(c.Body),
		PageHeader:   readBlocks(c.Header),
		PageFooter:   readBlocks(c.Footer),
	}
	if err := cdm.Validate(doc); err != nil {
		return nil, &errors.ParseError{Format: Name, Message: "invalid document", Err: err}
	}
	return doc, nil
}

// Generate writes the document as RTF.
func (h *Handler) Generate(doc *cdm.Document) ([]byte, error) {
	out, _, err := h.GenerateReport(doc, nil)
	return out, err
}

// GenerateReport writes the document and reports every lossy adjustment.
// Images are always embedded, so the saver is unused.
func (h *Handler) GenerateReport(doc *cdm.Document, _ docbridge.Saver) ([]byte, *reconcile.Report, error) {
	doc = base.EnsureDocument(doc)
	w := newWriter(doc, reconcile.NewReport(Name))
	if err := w.document(doc); err != nil {
		return nil, nil, err
	}
	return w.out.Bytes(), w.rep, nil
}

var (
	toMM    = reconcile.TwipsToMM
	toTwips = reconcile.MMToTwips
)
