package opc

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func buildPackage(t *testing.T) []byte {
	t.Helper()
	w := NewWriter()
	ct := NewContentTypes()
	ct.Default("png", "image/png")
	ct.Override("word/document.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml")
	data, err := ct.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Add("[Content_Types].xml", data); err != nil {
		t.Fatal(err)
	}

	var root RelationshipSet
	root.Add(TypeOfficeDocument, "word/document.xml", false)
	data, err = root.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Add("_rels/.rels", data); err != nil {
		t.Fatal(err)
	}

	var doc RelationshipSet
	doc.Add("image", "media/image0.png", false)
	if id := doc.Add("hyperlink", "https://x.test/?a=1&b=2", true); id != "rId2" {
		t.Errorf("second ID = %s", id)
	}
	data, err = doc.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Add("word/_rels/document.xml.rels", data); err != nil {
		t.Fatal(err)
	}
	if err := w.Add("word/document.xml", []byte(`<?xml version="1.0"?><doc/>`)); err != nil {
		t.Fatal(err)
	}
	if err := w.Add("word/media/image0.png", []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	out, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	p, err := Open(buildPackage(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := len(p.Names()); got != 5 {
		t.Errorf("got %d parts", got)
	}

	main, err := p.MainPart("fallback.xml")
	if err != nil || main != "word/document.xml" {
		t.Fatalf("MainPart() = %q, %v", main, err)
	}
	rels, err := p.Relationships(main)
	if err != nil {
		t.Fatal(err)
	}
	img := rels["rId1"]
	if img.External || ResolveTarget(main, img.Target) != "word/media/image0.png" {
		t.Errorf("image relationship = %+v", img)
	}
	if data, ok := p.Part(ResolveTarget(main, img.Target)); !ok || !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("media part = %v, %v", data, ok)
	}
	link := rels["rId2"]
	if !link.External || link.Target != "https://x.test/?a=1&b=2" {
		t.Errorf("hyperlink relationship = %+v", link)
	}

	doc, err := p.XML("/word/document.xml")
	if err != nil || doc.Root().Name() != "doc" {
		t.Errorf("XML() = %v, %v", doc, err)
	}
	if _, err := p.XML("word/missing.xml"); !errors.Is(err, ErrMissingPart) {
		t.Errorf("missing part error = %v", err)
	}
}

func TestDeterministic(t *testing.T) {
	a, b := buildPackage(t), buildPackage(t)
	if !bytes.Equal(a, b) {
		t.Error("equal input produced different archives")
	}
}

func TestStoreIsUncompressed(t *testing.T) {
	w := NewWriter()
	if err := w.Store("mimetype", []byte("application/vnd.oasis.opendocument.spreadsheet")); err != nil {
		t.Fatal(err)
	}
	if err := w.Add("mimetype", nil); err == nil {
		t.Error("duplicate part accepted")
	}
	out, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	r, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatal(err)
	}
	if r.File[0].Name != "mimetype" || r.File[0].Method != zip.Store {
		t.Errorf("first entry = %s method %d", r.File[0].Name, r.File[0].Method)
	}
}

func TestPaths(t *testing.T) {
	tests := []struct {
		source, target, rels, resolved string
	}{
		{"", "word/document.xml", "_rels/.rels", "word/document.xml"},
		{"word/document.xml", "media/a.png", "word/_rels/document.xml.rels", "word/media/a.png"},
		{"word/document.xml", "../customXml/item.xml", "word/_rels/document.xml.rels", "customXml/item.xml"},
		{"word/header1.xml", "/word/media/b.png", "word/_rels/header1.xml.rels", "word/media/b.png"},
	}
	for _, tt := range tests {
		if got := RelsPath(tt.source); got != tt.rels {
			t.Errorf("RelsPath(%q) = %q, want %q", tt.source, got, tt.rels)
		}
		if got := ResolveTarget(tt.source, tt.target); got != tt.resolved {
			t.Errorf("ResolveTarget(%q, %q) = %q, want %q", tt.source, tt.target, got, tt.resolved)
		}
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open([]byte("not a zip")); err == nil || !strings.Contains(err.Error(), "invalid package") {
		t.Errorf("Open() error = %v", err)
	}

	w := NewWriter()
	_ = w.Add("_rels/.rels", []byte("<Relationships"))
	out, _ := w.Bytes()
	p, err := Open(out)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Relationships(""); err == nil {
		t.Error("malformed relationships part accepted")
	}
}
