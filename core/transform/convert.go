package transform

import (
	"context"
	"time"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	"github.com/FocuswithJustin/docbridge/internal/logging"
)

// Request describes one conversion.
type Request struct {
	From   string
	To     string
	Input  []byte
	Loader Loader // optional, requires an image-capable source format
	Saver  Saver  // optional, requires an image-capable target format
}

// Result is a completed conversion.
type Result struct {
	Output   []byte
	Document *cdm.Document
	Report   *reconcile.Report
}

// Convert runs req against the default registry.
func Convert(ctx context.Context, req Request) (*Result, error) {
	return defaultRegistry.Convert(ctx, req)
}

// Convert parses req.Input as req.From and generates req.To. The context is
// checked between stages; a running parse or generate is never interrupted.
func (r *Registry) Convert(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := r.Parse(req.From, req.Input, req.Loader)
	if err != nil {
		logCallback(ctx, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, rep, err := r.Generate(req.To, doc, req.Saver)
	if err != nil {
		logCallback(ctx, err)
		return nil, err
	}
	rep.SourceFormat = req.From
	for _, d := range rep.Diagnostics {
		logging.Diagnostic(ctx, req.To, string(d.Kind), d.Path, d.Detail)
	}
	logging.Conversion(ctx, req.From, req.To, len(req.Input), len(out), time.Since(start),
		"loss_class", string(rep.Class), "diagnostics", len(rep.Diagnostics))
	return &Result{Output: out, Document: doc, Report: rep}, nil
}

// logCallback logs err when it carries a failed loader or saver call.
func logCallback(ctx context.Context, err error) {
	var ce *errors.CallbackError
	if !errors.As(err, &ce) {
		return
	}
	cause := ce.Err
	if cause == nil {
		cause = ce
	}
	logging.CallbackFailure(ctx, ce.Op, ce.Target, cause)
}

// Parse parses data as the named format, through the loader when one is given.
func (r *Registry) Parse(format string, data []byte, load Loader) (*cdm.Document, error) {
	t, err := r.Lookup(format)
	if err != nil {
		return nil, err
	}
	if load == nil {
		return t.Parse(data)
	}
	it, ok := AsImageTransformer(t)
	if !ok {
		return nil, errors.NewUnsupported("image loading", format+" does not reference external images")
	}
	return it.ParseWithLoader(data, load)
}

// Generate renders doc as the named format, through the saver when one is
// given. The returned report is never nil.
func (r *Registry) Generate(format string, doc *cdm.Document, save Saver) ([]byte, *reconcile.Report, error) {
	t, err := r.Lookup(format)
	if err != nil {
		return nil, nil, err
	}
	var it ImageTransformer
	if save != nil {
		var ok bool
		if it, ok = AsImageTransformer(t); !ok {
			return nil, nil, errors.NewUnsupported("image saving", format+" does not reference external images")
		}
	}
	if rp, ok := t.(Reporter); ok {
		out, rep, err := rp.GenerateReport(doc, save)
		if err != nil {
			return nil, nil, err
		}
		if rep == nil {
			rep = reconcile.NewReport(format)
		}
		return out, rep, nil
	}
	var out []byte
	if it != nil {
		out, err = it.GenerateWithSaver(doc, save)
	} else {
		out, err = t.Generate(doc)
	}
	if err != nil {
		return nil, nil, err
	}
	return out, reconcile.NewReport(format), nil
}
