package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	docerrors "github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	"github.com/FocuswithJustin/docbridge/internal/logging"
)

// upperText is a minimal transformer: one Text per input, upper-cased on output.
type upperText struct{}

func (upperText) Parse(data []byte) (*cdm.Document, error) {
	if strings.Contains(string(data), "\x00") {
		return nil, docerrors.NewParse("upper", 1, "NUL byte")
	}
	return cdm.NewDocument(cdm.T(string(data))), nil
}

func (upperText) Generate(doc *cdm.Document) ([]byte, error) {
	var b strings.Builder
	for _, e := range doc.Body {
		b.WriteString(strings.ToUpper(reconcile.PlainText(e)))
	}
	return []byte(b.String()), nil
}

// linked is image-capable and reports diagnostics.
type linked struct{ upperText }

func (l linked) ParseWithLoader(data []byte, load Loader) (*cdm.Document, error) {
	img, err := load(string(data))
	if err != nil {
		return nil, docerrors.NewCallback("load", string(data), err)
	}
	return cdm.NewDocument(cdm.Image{Bytes: img, Encoding: cdm.PNG}), nil
}

func (l linked) GenerateWithSaver(doc *cdm.Document, save Saver) ([]byte, error) {
	out, _, err := l.GenerateReport(doc, save)
	return out, err
}

func (l linked) GenerateReport(doc *cdm.Document, save Saver) ([]byte, *reconcile.Report, error) {
	rep := reconcile.NewReport("linked")
	var names []string
	for i, e := range doc.Body {
		img, ok := e.(cdm.Image)
		if !ok {
			rep.Add(reconcile.Dropped, "body", "not an image")
			continue
		}
		name := "image" + string(rune('0'+i)) + ".png"
		if save != nil {
			if err := save(img.Bytes, name); err != nil {
				return nil, nil, docerrors.NewCallback("save", name, err)
			}
		}
		names = append(names, name)
	}
	return []byte(strings.Join(names, ",")), rep, nil
}

func (linked) Lossless() bool { return false }

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register("upper", upperText{})
	r.Register("Linked", linked{})
	return r
}

func TestRegistryLookup(t *testing.T) {
	r := newTestRegistry()

	if _, err := r.Lookup("UPPER"); err != nil {
		t.Errorf("Lookup() is case sensitive: %v", err)
	}

	_, err := r.Lookup("odt")
	var ufe *docerrors.UnsupportedFormatError
	if !errors.As(err, &ufe) || ufe.Name != "odt" {
		t.Fatalf("Lookup(odt) = %v, want UnsupportedFormatError", err)
	}
	if !errors.Is(err, docerrors.ErrUnsupportedFormat) {
		t.Error("error should unwrap to ErrUnsupportedFormat")
	}

	if got := strings.Join(r.Names(), ","); got != "linked,upper" {
		t.Errorf("Names() = %q", got)
	}
	if !r.Has("linked") || r.Has("pdf") {
		t.Error("Has() returned an unexpected result")
	}

	r.Register("", upperText{})
	r.Register("nil", nil)
	if len(r.Names()) != 2 {
		t.Error("empty names and nil transformers must be ignored")
	}
}

func TestCapabilities(t *testing.T) {
	caps := newTestRegistry().Capabilities()
	if len(caps) != 2 {
		t.Fatalf("Capabilities() = %v", caps)
	}
	if c := caps[0]; c.Name != "linked" || !c.Images || !c.Reports || c.Canonical {
		t.Errorf("linked capability = %+v", c)
	}
	if c := caps[1]; c.Name != "upper" || c.Images || c.Reports {
		t.Errorf("upper capability = %+v", c)
	}
	if _, ok := AsImageTransformer(upperText{}); ok {
		t.Error("upperText should not be image-capable")
	}
}

func TestConvert(t *testing.T) {
	r := newTestRegistry()
	res, err := r.Convert(context.Background(), Request{From: "upper", To: "upper", Input: []byte("hello")})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Output) != "HELLO" {
		t.Errorf("Output = %q, want HELLO", res.Output)
	}
	if res.Report == nil || res.Report.SourceFormat != "upper" || res.Report.TargetFormat != "upper" {
		t.Errorf("Report = %+v", res.Report)
	}
}

func TestConvertParseFailure(t *testing.T) {
	r := newTestRegistry()
	res, err := r.Convert(context.Background(), Request{From: "upper", To: "upper", Input: []byte("a\x00")})
	if res != nil {
		t.Error("a failed conversion must not return a result")
	}
	var pe *docerrors.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ParseError", err)
	}
}

func TestConvertCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestRegistry().Convert(ctx, Request{From: "upper", To: "upper"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestConvertCapabilityChecks(t *testing.T) {
	r := newTestRegistry()
	load := func(string) ([]byte, error) { return []byte{1}, nil }
	save := func([]byte, string) error { return nil }

	_, err := r.Convert(context.Background(), Request{From: "upper", To: "upper", Loader: load})
	if !errors.Is(err, docerrors.ErrUnsupported) {
		t.Errorf("loader on upper: err = %v, want ErrUnsupported", err)
	}
	_, err = r.Convert(context.Background(), Request{From: "upper", To: "upper", Saver: save})
	if !errors.Is(err, docerrors.ErrUnsupported) {
		t.Errorf("saver on upper: err = %v, want ErrUnsupported", err)
	}
}

func TestConvertCallbacks(t *testing.T) {
	r := newTestRegistry()
	saved := map[string][]byte{}
	res, err := r.Convert(context.Background(), Request{
		From:   "linked",
		To:     "linked",
		Input:  []byte("logo.png"),
		Loader: func(url string) ([]byte, error) { return []byte(url), nil },
		Saver: func(data []byte, name string) error {
			saved[name] = data
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Output) != "image0.png" || string(saved["image0.png"]) != "logo.png" {
		t.Errorf("Output = %q, saved = %v", res.Output, saved)
	}
}

func TestConvertCallbackErrorUnchanged(t *testing.T) {
	r := newTestRegistry()
	sentinel := errors.New("offline")
	_, err := r.Convert(context.Background(), Request{
		From:   "linked",
		To:     "upper",
		Input:  []byte("x"),
		Loader: func(string) ([]byte, error) { return nil, sentinel },
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want the loader error", err)
	}
	var ce *docerrors.CallbackError
	if !errors.As(err, &ce) || ce.Op != "load" {
		t.Errorf("err = %#v, want CallbackError for load", err)
	}
}

func TestConvertLogsCallbackFailure(t *testing.T) {
	var buf bytes.Buffer
	logging.InitLoggerTo(&buf, logging.LevelInfo, logging.FormatJSON)
	t.Cleanup(func() { logging.InitLogger(logging.LevelInfo, logging.FormatJSON) })

	ctx := logging.WithRunID(context.Background(), "run-1")
	_, err := newTestRegistry().Convert(ctx, Request{
		From:   "linked",
		To:     "linked",
		Input:  []byte("logo.png"),
		Loader: func(url string) ([]byte, error) { return []byte(url), nil },
		Saver:  func([]byte, string) error { return errors.New("disk full") },
	})
	if err == nil {
		t.Fatal("expected the saver error")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output %q: %v", buf.String(), err)
	}
	want := map[string]any{"msg": "callback_failure", "run_id": "run-1", "op": "save", "target": "image0.png", "error": "disk full"}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("log %s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestConvertUnknownFormat(t *testing.T) {
	_, err := newTestRegistry().Convert(context.Background(), Request{From: "upper", To: "rst", Input: []byte("x")})
	if !errors.Is(err, docerrors.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}
