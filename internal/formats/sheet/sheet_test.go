package sheet

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
)

// fakeCodec records encoded sheets and returns canned decode results.
type fakeCodec struct {
	decoded []Sheet
	err     error
	encoded []Sheet
}

func (f *fakeCodec) Decode([]byte) ([]Sheet, error) {
	return f.decoded, f.err
}

func (f *fakeCodec) Encode(sheets []Sheet) ([]byte, error) {
	f.encoded = sheets
	return []byte("ok"), f.err
}

func TestParse(t *testing.T) {
	codec := &fakeCodec{decoded: []Sheet{
		{Name: "empty", Rows: [][]string{{"", ""}, nil}},
		{Name: "data", Rows: [][]string{
			{"a", "b"},
			{"1"},
			{"2", "3", "4", ""},
			{},
		}},
	}}
	doc, err := New("fake", codec).Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := cdm.Table{
		Headers: cdm.Headers(cdm.T("a"), cdm.T("b"), cdm.T("")),
		Rows: []cdm.TableRow{
			cdm.Row(cdm.T("1"), cdm.T(""), cdm.T("")),
			cdm.Row(cdm.T("2"), cdm.T("3"), cdm.T("4")),
		},
	}
	if !cdm.ElementsEqual([]cdm.Element{want}, doc.Body) {
		t.Errorf("Body = %#v", doc.Body)
	}
}

func TestParseErrors(t *testing.T) {
	cause := stderrors.New("broken")
	_, err := New("fake", &fakeCodec{err: cause}).Parse(nil)
	var pe *errors.ParseError
	if !errors.As(err, &pe) || pe.Format != "fake" {
		t.Fatalf("err = %v, want ParseError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not preserved")
	}

	inner := errors.NewParse("fake", 0, "decoder panic: boom")
	_, err = New("fake", &fakeCodec{err: inner}).Parse(nil)
	if !errors.As(err, &pe) || pe != inner {
		t.Errorf("ParseError should pass through unchanged, got %v", err)
	}
}

func TestGenerate(t *testing.T) {
	codec := &fakeCodec{}
	doc := cdm.NewDocument(
		cdm.Header{Level: 1, Text: "dropped"},
		cdm.Table{
			Headers: []cdm.TableHeader{{Element: cdm.T("a"), Width: 20}, {Element: cdm.T("b")}},
			Rows: []cdm.TableRow{
				cdm.Row(cdm.Paragraph{Children: []cdm.Element{cdm.Text{Content: "x", Size: 2}}}, cdm.List{Items: cdm.Items(cdm.T("y"))}),
				cdm.Row(cdm.T("short")),
			},
		},
		cdm.Paragraph{Children: []cdm.Element{cdm.Table{Headers: cdm.Headers(cdm.T("n"))}}},
	)
	out, rep, err := New("fake", codec).GenerateReport(doc, nil)
	if err != nil || string(out) != "ok" {
		t.Fatalf("GenerateReport() = %q, %v", out, err)
	}
	want := []Sheet{
		{Name: "Sheet1", Rows: [][]string{{"a", "b"}, {"x", "- y"}, {"short", ""}}, Widths: []float64{20, 0}},
		{Name: "Sheet2", Rows: [][]string{{"n"}}},
	}
	if !reflect.DeepEqual(codec.encoded, want) {
		t.Errorf("encoded = %#v", codec.encoded)
	}
	if rep.Count(reconcile.Dropped) != 1 || rep.Count(reconcile.Padded) != 1 || rep.Count(reconcile.Degraded) != 1 {
		t.Errorf("diagnostics = %v", rep.Diagnostics)
	}
}

func TestGenerateWithoutTables(t *testing.T) {
	codec := &fakeCodec{}
	if _, err := New("fake", codec).Generate(cdm.NewDocument(cdm.T("x"))); err != nil {
		t.Fatal(err)
	}
	if len(codec.encoded) != 1 || codec.encoded[0].Name != "Sheet1" || len(codec.encoded[0].Rows) != 0 {
		t.Errorf("encoded = %#v", codec.encoded)
	}
}

func TestGenerateErrors(t *testing.T) {
	unsupported := errors.NewUnsupported("fake output", "read only")
	_, err := New("fake", &fakeCodec{err: unsupported}).Generate(nil)
	var ge *errors.GenerateError
	if !errors.As(err, &ge) || ge.Format != "fake" {
		t.Fatalf("err = %v, want GenerateError", err)
	}
	var ue *errors.UnsupportedError
	if !errors.As(err, &ue) {
		t.Error("unsupported cause not preserved")
	}
}

type decodeOnly struct{ fakeCodec }

func (decodeOnly) ReadOnly() bool { return true }

func TestReadOnly(t *testing.T) {
	if New("fake", &fakeCodec{}).ReadOnly() {
		t.Error("codec without ReadOnly reported read only")
	}
	if !New("fake", &decodeOnly{}).ReadOnly() {
		t.Error("decode-only codec not reported read only")
	}
}
