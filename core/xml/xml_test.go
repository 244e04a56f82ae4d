package xml

import (
	"errors"
	"testing"
)

// TestParseValidXML verifies parsing of well-formed XML.
func TestParseValidXML(t *testing.T) {
	doc, err := Parse([]byte(`<?xml version="1.0"?>
<w:document xmlns:w="urn:w"><w:body><w:p w:id="1">a &amp; b</w:p></w:body></w:document>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	root := doc.Root()
	if !root.Is("w", "document") {
		t.Fatalf("root = %s:%s", root.Prefix(), root.Name())
	}
	p := root.Child("w", "body").Child("w", "p")
	if p == nil {
		t.Fatal("missing w:p")
	}
	if p.Text() != "a & b" {
		t.Errorf("Text() = %q", p.Text())
	}
	if v, ok := p.Attr("w", "id"); !ok || v != "1" {
		t.Errorf("Attr(w:id) = %q, %v", v, ok)
	}
	if attrs := root.Attributes(); len(attrs) != 0 {
		t.Errorf("namespace declarations leaked: %v", attrs)
	}
}

// TestCheckErrors verifies that malformed or unsafe input reports a line.
func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		line int
	}{
		{"unclosed tag", "<root>\n<element>\n</root>", 3},
		{"doctype", "<?xml version=\"1.0\"?>\n<!DOCTYPE r [<!ENTITY x \"y\">]>\n<r>&x;</r>", 2},
		{"unknown entity", "<r>\n&nbsp;</r>", 2},
		{"two roots", "<a/>\n<b/>", 2},
		{"empty", "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check([]byte(tt.xml))
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("Check() = %v, want SyntaxError", err)
			}
			if se.Line != tt.line {
				t.Errorf("Line = %d, want %d (%s)", se.Line, tt.line, se.Message)
			}
		})
	}
}

// TestXPath verifies query helpers on documents and nodes.
func TestXPath(t *testing.T) {
	doc, err := Parse([]byte(`<r><s n="1"><t>x</t></s><s n="2"><t>y</t></s></r>`))
	if err != nil {
		t.Fatal(err)
	}
	nodes, err := doc.XPath("//s")
	if err != nil || len(nodes) != 2 {
		t.Fatalf("XPath(//s) = %d nodes, %v", len(nodes), err)
	}
	hit, err := nodes[1].FindOne("t")
	if err != nil || hit.Text() != "y" {
		t.Errorf("FindOne(t) = %v, %v", hit, err)
	}
	first, err := doc.XPathFirst("//s[@n='2']")
	if err != nil || first.AttrValue("", "n") != "2" {
		t.Errorf("XPathFirst = %v, %v", first, err)
	}
	if _, err := doc.XPath("//["); err == nil {
		t.Error("invalid xpath should fail")
	}
	if miss, _ := doc.XPathFirst("//none"); miss != nil {
		t.Error("missing node should be nil")
	}
}

// TestHasText verifies whitespace-only text is ignored.
func TestInvalidChar(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"plain", -1},
		{"tab\tnl\ncr\r", -1},
		{"\uFFFD\U0001F600", -1},
		{"a\x01b", 1},
		{"ab\x00", 2},
		{"x\xff", 1},
		{"\uFFFE", 0},
	}
	for _, tt := range tests {
		if got := InvalidChar(tt.input); got != tt.want {
			t.Errorf("InvalidChar(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestHasText(t *testing.T) {
	doc, err := Parse([]byte("<r>\n  <a> </a><b>x</b>\n</r>"))
	if err != nil {
		t.Fatal(err)
	}
	root := doc.Root()
	if root.HasText() {
		t.Error("root has only whitespace")
	}
	if root.Child("", "a").HasText() || !root.Child("", "b").HasText() {
		t.Error("HasText mismatch on children")
	}
}
