package csv

import (
	"errors"
	"testing"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	docerrors "github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
)

func TestRegistered(t *testing.T) {
	if !docbridge.Default().Has(Name) {
		t.Fatalf("%s not registered", Name)
	}
}

// TestScenario parses a single table and reproduces the input exactly.
func TestScenario(t *testing.T) {
	input := "a,b\n1,2\n3,4\n"
	h := &Handler{}
	doc, err := h.Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := cdm.Table{
		Headers: cdm.Headers(cdm.T("a"), cdm.T("b")),
		Rows:    []cdm.TableRow{cdm.Row(cdm.T("1"), cdm.T("2")), cdm.Row(cdm.T("3"), cdm.T("4"))},
	}
	if !cdm.ElementsEqual(doc.Body, []cdm.Element{want}) {
		t.Fatalf("Body = %#v", doc.Body)
	}
	out, err := h.Generate(doc)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != input {
		t.Errorf("Generate() = %q, want %q", out, input)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		tables int
		rows   []int
	}{
		{"empty", "", 0, nil},
		{"header only", "x,y\n", 1, []int{0}},
		{"two tables", "a\n1\n\n\nb,c\n2,3\n4,5\n", 2, []int{1, 2}},
		{"crlf", "a,b\r\n1,2\r\n\r\nc\r\n", 2, []int{1, 0}},
		{"quoted newline", "a,b\n\"multi\n\nline\",2\n3,4\n", 1, []int{2}},
		{"bom", "\xEF\xBB\xBFa\n1\n", 1, []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := (&Handler{}).Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(doc.Body) != tt.tables {
				t.Fatalf("got %d tables, want %d", len(doc.Body), tt.tables)
			}
			for i, e := range doc.Body {
				tbl := e.(cdm.Table)
				if len(tbl.Rows) != tt.rows[i] {
					t.Errorf("table %d has %d rows, want %d", i, len(tbl.Rows), tt.rows[i])
				}
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"short record", "a,b\n1,2\n3\n", 3},
		{"long record in second table", "a\n1\n\nb\n2,3\n", 5},
		{"bare quote", "a,b\n1,x\"y\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := (&Handler{}).Parse([]byte(tt.input))
			if doc != nil {
				t.Error("partial document returned")
			}
			var pe *docerrors.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want ParseError", err)
			}
			if pe.Line != tt.line {
				t.Errorf("Line = %d, want %d", pe.Line, tt.line)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	doc := cdm.NewDocument(
		cdm.Header{Level: 1, Text: "dropped"},
		cdm.Table{
			Headers: cdm.Headers(cdm.T("n"), cdm.T("note"), cdm.T("x")),
			Rows: []cdm.TableRow{
				cdm.Row(cdm.Paragraph{Children: []cdm.Element{cdm.Text{Content: "a", Size: 1}}}, cdm.T("has, comma")),
				cdm.Row(cdm.T("1"), cdm.T("2"), cdm.T("3"), cdm.T("4")),
			},
		},
		cdm.Paragraph{Children: []cdm.Element{
			cdm.T("intro"),
			cdm.Table{Headers: cdm.Headers(cdm.T("")), Rows: []cdm.TableRow{cdm.Row(cdm.Hyperlink{Title: "t", URL: "u"})}},
		}},
	)
	out, rep, err := (&Handler{}).GenerateReport(doc, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "n,note,x\na,\"has, comma\",\n1,2,3\n\n\"\"\nt (u)\n"
	if string(out) != want {
		t.Errorf("output = %q, want %q", out, want)
	}
	if rep.Count(reconcile.Padded) != 1 || rep.Count(reconcile.Truncated) != 1 || rep.Count(reconcile.Dropped) != 1 {
		t.Errorf("diagnostics = %v", rep.Diagnostics)
	}

	back, err := (&Handler{}).Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Body) != 2 {
		t.Errorf("reparse found %d tables, want 2", len(back.Body))
	}
}

func TestGenerateWithoutTables(t *testing.T) {
	out, rep, err := (&Handler{}).GenerateReport(cdm.NewDocument(cdm.T("x")), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 || rep.Count(reconcile.Dropped) != 1 {
		t.Errorf("out = %q, diagnostics = %v", out, rep.Diagnostics)
	}
}
