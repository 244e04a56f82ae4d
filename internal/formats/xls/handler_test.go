package xls

import (
	"errors"
	"testing"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	docerrors "github.com/FocuswithJustin/docbridge/core/errors"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
)

func TestRegistered(t *testing.T) {
	if !docbridge.Default().Has(Name) {
		t.Fatalf("%s not registered", Name)
	}
}

func TestGenerateUnsupported(t *testing.T) {
	h, err := docbridge.Lookup(Name)
	if err != nil {
		t.Fatal(err)
	}
	out, err := h.Generate(cdm.NewDocument(cdm.Table{Headers: cdm.Headers(cdm.T("a"))}))
	if out != nil {
		t.Error("output returned with error")
	}
	var ge *docerrors.GenerateError
	if !errors.As(err, &ge) || ge.Format != Name {
		t.Fatalf("err = %v, want GenerateError", err)
	}
	if !errors.Is(err, docerrors.ErrUnsupported) {
		t.Error("cause should be ErrUnsupported")
	}
	if ro, ok := h.(docbridge.ReadOnly); !ok || !ro.ReadOnly() {
		t.Error("xls should be marked read only")
	}
}

func TestParseInvalid(t *testing.T) {
	h, err := docbridge.Lookup(Name)
	if err != nil {
		t.Fatal(err)
	}
	for _, input := range [][]byte{nil, []byte("not a workbook at all"), make([]byte, 1024)} {
		doc, err := h.Parse(input)
		if doc != nil {
			t.Error("partial document returned")
		}
		var pe *docerrors.ParseError
		if !errors.As(err, &pe) || pe.Format != Name {
			t.Errorf("Parse(%d bytes) err = %v, want ParseError", len(input), err)
		}
	}
}
