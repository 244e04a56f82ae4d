package cdm

import (
	"errors"
	"strings"
	"testing"

	docerrors "github.com/FocuswithJustin/docbridge/core/errors"
)

func sampleDocument() *Document {
	d := NewDocument(
		Header{Level: 1, Text: "Title"},
		Paragraph{Children: []Element{T("Hello "), Text{Content: "world", Size: 2}}},
		List{Items: Items(T("one"), List{Items: Items(T("nested"))}), Numbered: true},
		Table{
			Headers: []TableHeader{{Element: T("a"), Width: 30}, {Element: T("b")}},
			Rows:    []TableRow{Row(T("1"), T("2"))},
		},
		Image{Bytes: []byte{0x89, 'P', 'N', 'G'}, Title: "logo", Alt: "Logo", Encoding: PNG},
		Hyperlink{Title: "site", URL: "https://example.com", Alt: "Example"},
	)
	d.PageHeader = []Element{T("header")}
	d.PageFooter = []Element{T("footer")}
	return d
}

func TestNewDocumentDefaults(t *testing.T) {
	d := NewDocument()
	if d.PageWidth != 210 || d.PageHeight != 297 {
		t.Errorf("page = %gx%g, want 210x297", d.PageWidth, d.PageHeight)
	}
	for name, m := range map[string]float64{
		"top": d.MarginTop, "bottom": d.MarginBottom, "left": d.MarginLeft, "right": d.MarginRight,
	} {
		if m != DefaultMargin {
			t.Errorf("margin %s = %g, want %g", name, m, DefaultMargin)
		}
	}
	if got := d.ContentWidth(); got != 190 {
		t.Errorf("ContentWidth() = %g, want 190", got)
	}

	d.SetPageFormat(Letter)
	if d.PageWidth != 215.9 || d.PageHeight != 279.4 {
		t.Errorf("SetPageFormat(Letter) = %gx%g", d.PageWidth, d.PageHeight)
	}
}

func TestKindString(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := KindFromString(k.String())
		if !ok || got != k {
			t.Errorf("KindFromString(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := KindFromString("Blockquote"); ok {
		t.Error("KindFromString(Blockquote) should fail")
	}
	if got := Kind(42).String(); got != "Unknown" {
		t.Errorf("Kind(42).String() = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		doc       *Document
		wantField string
	}{
		{name: "valid", doc: sampleDocument()},
		{name: "nil document", doc: nil, wantField: ""},
		{name: "header level", doc: NewDocument(Header{Level: 7, Text: "x"}), wantField: "body[0].level"},
		{name: "header level zero", doc: NewDocument(Header{Level: 0}), wantField: "body[0].level"},
		{name: "image encoding", doc: NewDocument(Image{Encoding: "GIF"}), wantField: "body[0].encoding"},
		{name: "nil child", doc: NewDocument(Paragraph{Children: []Element{nil}}), wantField: "body[0].children[0]"},
		{name: "nil cell", doc: NewDocument(Table{Rows: []TableRow{{Cells: []TableCell{{}}}}}), wantField: "body[0].rows[0].cells[0].element"},
		{name: "negative width", doc: NewDocument(Table{Headers: []TableHeader{{Element: T("a"), Width: -1}}}), wantField: "body[0].headers[0].width"},
		{name: "negative margin", doc: &Document{MarginLeft: -3}, wantField: "margin_left"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.doc)
			if tt.name == "valid" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ve *docerrors.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
			if !errors.Is(err, docerrors.ErrInvalidInput) {
				t.Error("validation error should unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestWalkPaths(t *testing.T) {
	var paths []string
	err := Walk(sampleDocument(), func(path string, e Element) error {
		paths = append(paths, path+"="+e.Kind().String())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"body[0]=Header",
		"body[1]=Paragraph",
		"body[1].children[0]=Text",
		"body[1].children[1]=Text",
		"body[2]=List",
		"body[2].items[0].element=Text",
		"body[2].items[1].element=List",
		"body[2].items[1].element.items[0].element=Text",
		"body[3]=Table",
		"body[3].headers[0].element=Text",
		"body[3].headers[1].element=Text",
		"body[3].rows[0].cells[0].element=Text",
		"body[3].rows[0].cells[1].element=Text",
		"body[4]=Image",
		"body[5]=Hyperlink",
		"page_header[0]=Text",
		"page_footer[0]=Text",
	}
	if strings.Join(paths, "\n") != strings.Join(want, "\n") {
		t.Errorf("Walk paths:\n%s\nwant:\n%s", strings.Join(paths, "\n"), strings.Join(want, "\n"))
	}
}

func TestWalkSkipChildren(t *testing.T) {
	count := 0
	_ = Walk(sampleDocument(), func(_ string, e Element) error {
		count++
		if e.Kind() == KindTable || e.Kind() == KindList || e.Kind() == KindParagraph {
			return SkipChildren
		}
		return nil
	})
	if count != 8 {
		t.Errorf("visited %d elements, want 8", count)
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := sampleDocument()
	c := Clone(d)
	if !Equal(d, c) {
		t.Fatal("Clone() is not equal to the original")
	}

	img := c.Body[4].(Image)
	img.Bytes[0] = 0
	if d.Body[4].(Image).Bytes[0] != 0x89 {
		t.Error("mutating cloned image bytes changed the original")
	}

	c.Body[1].(Paragraph).Children[0] = T("changed")
	if d.Body[1].(Paragraph).Children[0].(Text).Content != "Hello " {
		t.Error("mutating cloned paragraph changed the original")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b *Document
		want bool
	}{
		{"same", sampleDocument(), sampleDocument(), true},
		{"nil and empty slices", &Document{Body: nil}, &Document{Body: []Element{}}, true},
		{"empty children", NewDocument(Paragraph{}), NewDocument(Paragraph{Children: []Element{}}), true},
		{"different size", NewDocument(Text{Content: "a", Size: 1}), NewDocument(T("a")), false},
		{"different kind", NewDocument(T("a")), NewDocument(Hyperlink{Title: "a"}), false},
		{"different numbering", NewDocument(List{Numbered: true}), NewDocument(List{}), false},
		{"different width", NewDocument(Table{Headers: []TableHeader{{Element: T("a"), Width: 1}}}),
			NewDocument(Table{Headers: []TableHeader{{Element: T("a")}}}), false},
		{"different margin", &Document{MarginTop: 1}, &Document{}, false},
		{"one nil", nil, &Document{}, false},
		{"both nil", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(sampleDocument())
	b := Fingerprint(sampleDocument())
	if a != b {
		t.Errorf("Fingerprint() not stable: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Fingerprint() length = %d, want 64", len(a))
	}

	changed := sampleDocument()
	changed.Body[0] = Header{Level: 2, Text: "Title"}
	if Fingerprint(changed) == a {
		t.Error("Fingerprint() did not change with the document")
	}

	// Moving text across a field boundary must change the digest.
	x := NewDocument(Hyperlink{Title: "ab", URL: "c"})
	y := NewDocument(Hyperlink{Title: "a", URL: "bc"})
	if Fingerprint(x) == Fingerprint(y) {
		t.Error("Fingerprint() collides on shifted field contents")
	}
}

func TestStats(t *testing.T) {
	stats := Stats(sampleDocument())
	want := map[Kind]int{
		KindHeader: 1, KindParagraph: 1, KindList: 2, KindTable: 1,
		KindImage: 1, KindHyperlink: 1, KindText: 10,
	}
	for k, n := range want {
		if stats[k] != n {
			t.Errorf("Stats()[%s] = %d, want %d", k, stats[k], n)
		}
	}
}
