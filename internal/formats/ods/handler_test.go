package ods

import (
	"archive/zip"
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	docerrors "github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/opc"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/sheet"
)

func TestRegistered(t *testing.T) {
	if !docbridge.Default().Has(Name) {
		t.Fatalf("%s not registered", Name)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	in := []sheet.Sheet{
		{
			Name:   "Sheet1",
			Rows:   [][]string{{"name", "note"}, {"a  b", " lead\ttab"}, {"", "two\nlines"}},
			Widths: []float64{25.5, 0},
		},
		{Name: "Sheet2", Rows: [][]string{{"x"}}},
	}
	out, err := Codec{}.Encode(in)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	back, err := Codec{}.Decode(out)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := []sheet.Sheet{
		{Name: "Sheet1", Rows: in[0].Rows},
		{Name: "Sheet2", Rows: in[1].Rows},
	}
	if !reflect.DeepEqual(back, want) {
		t.Errorf("Decode() = %#v", back)
	}

	again, err := Codec{}.Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, again) {
		t.Error("encoding is not deterministic")
	}
}

func TestPackageLayout(t *testing.T) {
	out, err := Codec{}.Encode([]sheet.Sheet{{Name: "Sheet1", Rows: [][]string{{"a"}}, Widths: []float64{30}}})
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatal(err)
	}
	if first := zr.File[0]; first.Name != "mimetype" || first.Method != zip.Store {
		t.Errorf("first entry = %s method %d", first.Name, first.Method)
	}
	pkg, err := opc.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	content, _ := pkg.Part("content.xml")
	for _, want := range []string{
		`<style:table-column-properties style:column-width="30mm">`,
		`<table:table-column table:style-name="co1">`,
		`<table:table table:name="Sheet1">`,
	} {
		if !strings.Contains(string(content), want) {
			t.Errorf("content.xml missing %q", want)
		}
	}
	if _, ok := pkg.Part("META-INF/manifest.xml"); !ok {
		t.Error("missing manifest")
	}
}

func TestDecodeRepeats(t *testing.T) {
	content := `<office:document-content xmlns:office="` + nsOffice + `" xmlns:table="` + nsTable + `" xmlns:text="` + nsText + `">
<office:body><office:spreadsheet><table:table table:name="T">
<table:table-header-rows><table:table-row>
<table:table-cell><text:p>h<text:span>1</text:span></text:p></table:table-cell>
<table:table-cell table:number-columns-repeated="2"><text:p>h</text:p></table:table-cell>
</table:table-row></table:table-header-rows>
<table:table-row table:number-rows-repeated="2"><table:table-cell table:number-columns-repeated="1024"/></table:table-row>
<table:table-row><table:table-cell table:number-columns-repeated="2"/><table:table-cell><text:p>x<text:s text:c="2"/>y<text:line-break/>z</text:p></table:table-cell><table:table-cell table:number-columns-repeated="16000"/></table:table-row>
<table:table-row table:number-rows-repeated="1048000"><table:table-cell/></table:table-row>
</table:table></office:spreadsheet></office:body></office:document-content>`

	w := opc.NewWriter()
	if err := w.Store("mimetype", []byte(MIMEType)); err != nil {
		t.Fatal(err)
	}
	if err := w.Add("content.xml", []byte(content)); err != nil {
		t.Fatal(err)
	}
	data, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	sheets, err := Codec{}.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := [][]string{{"h1", "h", "h"}, nil, nil, {"", "", "x  y\nz"}}
	if len(sheets) != 1 || !reflect.DeepEqual(sheets[0].Rows, want) {
		t.Errorf("rows = %#v", sheets)
	}
}

func TestParse(t *testing.T) {
	h, err := docbridge.Lookup(Name)
	if err != nil {
		t.Fatal(err)
	}
	doc := cdm.NewDocument(cdm.Table{
		Headers: cdm.Headers(cdm.T("a"), cdm.T("b")),
		Rows:    []cdm.TableRow{cdm.Row(cdm.T("1"), cdm.T("2"))},
	})
	out, err := h.Generate(doc)
	if err != nil {
		t.Fatal(err)
	}
	back, err := h.Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if !cdm.ElementsEqual(doc.Body, back.Body) {
		t.Errorf("Body = %#v", back.Body)
	}
}

func TestParseErrors(t *testing.T) {
	h, err := docbridge.Lookup(Name)
	if err != nil {
		t.Fatal(err)
	}

	wrongType := opc.NewWriter()
	if err := wrongType.Store("mimetype", []byte("application/zip")); err != nil {
		t.Fatal(err)
	}
	wrongTypeData, _ := wrongType.Bytes()

	broken := opc.NewWriter()
	if err := broken.Add("content.xml", []byte("<a>\n<b>\n</a>")); err != nil {
		t.Fatal(err)
	}
	brokenData, _ := broken.Bytes()

	tests := []struct {
		name  string
		input []byte
		line  int
	}{
		{"not a zip", []byte("nope"), 0},
		{"wrong mimetype", wrongTypeData, 0},
		{"syntax error", brokenData, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Parse(tt.input)
			var pe *docerrors.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want ParseError", err)
			}
			if pe.Format != Name || pe.Line != tt.line {
				t.Errorf("error = %+v, want line %d", pe, tt.line)
			}
		})
	}
}
