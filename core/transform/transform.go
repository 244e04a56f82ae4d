// Package transform defines the contract every docbridge format module
// implements and the registry that maps format names to modules.
package transform

import (
	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
)

// Transformer parses a format into a Document and generates it back.
//
// Parse fails with *errors.ParseError on malformed input and never returns a
// partial document. Generate accepts any valid document and degrades what
// the format cannot express; it fails with *errors.GenerateError only when a
// delegated codec fails. Implementations hold no mutable state and are safe
// for concurrent use.
type Transformer interface {
	Parse(data []byte) (*cdm.Document, error)
	Generate(doc *cdm.Document) ([]byte, error)
}

// Loader fetches the bytes of an external image reference.
type Loader func(url string) ([]byte, error)

// Saver persists image bytes under a suggested file name.
type Saver func(data []byte, name string) error

// ImageTransformer is implemented by formats that reference images by
// location. Callback failures abort the call as *errors.CallbackError.
type ImageTransformer interface {
	Transformer
	ParseWithLoader(data []byte, load Loader) (*cdm.Document, error)
	GenerateWithSaver(doc *cdm.Document, save Saver) ([]byte, error)
}

// Reporter is implemented by formats that expose their degradation
// diagnostics. save is nil unless the format is an ImageTransformer.
type Reporter interface {
	GenerateReport(doc *cdm.Document, save Saver) ([]byte, *reconcile.Report, error)
}

// Lossless is implemented by the canonical formats whose round trip
// preserves every document exactly.
type Lossless interface {
	Lossless() bool
}

// ReadOnly is implemented by formats that can be parsed but not generated.
type ReadOnly interface {
	ReadOnly() bool
}

// AsImageTransformer is the capability query for image externalization.
func AsImageTransformer(t Transformer) (ImageTransformer, bool) {
	it, ok := t.(ImageTransformer)
	return it, ok
}

// Capability describes what a registered format supports.
type Capability struct {
	Name      string `json:"name"`
	Images    bool   `json:"images"`
	Reports   bool   `json:"reports"`
	Canonical bool   `json:"canonical"`
	ReadOnly  bool   `json:"read_only"`
}

// CapabilityOf inspects a transformer.
func CapabilityOf(name string, t Transformer) Capability {
	c := Capability{Name: name}
	_, c.Images = AsImageTransformer(t)
	_, c.Reports = t.(Reporter)
	if l, ok := t.(Lossless); ok {
		c.Canonical = l.Lossless()
	}
	if ro, ok := t.(ReadOnly); ok {
		c.ReadOnly = ro.ReadOnly()
	}
	return c
}
