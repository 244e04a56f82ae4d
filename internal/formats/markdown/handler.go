// Package markdown provides the Markdown format module.
//
// Block structure is recognized by a line scanner; inline content is
// handed to goldmark. Images are image-capable: a loader materializes
// referenced files and a saver externalizes generated ones.
package markdown

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// Name is the registry identifier.
const Name = "markdown"

// Handler implements the Markdown ImageTransformer.
type Handler struct{}

// Register registers this module with the default registry.
func Register() {
	docbridge.Register(Name, &Handler{})
}

func init() {
	Register()
}

// Parse parses Markdown. Image references degrade to hyperlinks.
func (h *Handler) Parse(data []byte) (*cdm.Document, error) {
	return h.ParseWithLoader(data, nil)
}

// ParseWithLoader parses Markdown, calling load for each image reference
// that is not a data URI.
func (h *Handler) ParseWithLoader(data []byte, load docbridge.Loader) (*cdm.Document, error) {
	if !utf8.Valid(data) {
		off := 0
		for off < len(data) {
			r, size := utf8.DecodeRune(data[off:])
			if r == utf8.RuneError && size == 1 {
				break
			}
			off += size
		}
		return nil, errors.NewParse(Name, base.LineAt(data, off), "invalid UTF-8")
	}
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	p := &blockParser{load: load}
	if err := p.parse(content); err != nil {
		return nil, err
	}
	doc := cdm.NewDocument(p.body...)
	return doc, nil
}

// Generate renders doc as Markdown with images embedded as data URIs.
func (h *Handler) Generate(doc *cdm.Document) ([]byte, error) {
	out, _, err := h.GenerateReport(doc, nil)
	return out, err
}

// GenerateWithSaver renders doc, handing image bytes to save and linking
// to the saved names.
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
