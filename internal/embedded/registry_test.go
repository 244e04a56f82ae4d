package embedded_test

import (
	"errors"
	"slices"
	"testing"

	docerrors "github.com/FocuswithJustin/docbridge/core/errors"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	_ "github.com/FocuswithJustin/docbridge/internal/embedded"
)

// TestFormatRegistrations verifies that importing the embedded package
// registers exactly the built-in formats.
func TestFormatRegistrations(t *testing.T) {
	expected := []string{
		"csv", "docx", "html", "json", "markdown", "ods", "pdf",
		"rtf", "text", "typst", "xls", "xlsx", "xml",
	}
	if got := docbridge.Names(); !slices.Equal(got, expected) {
		t.Errorf("Names() = %v, want %v", got, expected)
	}
	for _, name := range expected {
		t.Run(name, func(t *testing.T) {
			if !docbridge.Has(name) {
				t.Errorf("format %q not registered", name)
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	images := []string{"html", "markdown", "typst"}
	canonical := []string{"json", "xml"}
	for _, c := range docbridge.Capabilities() {
		t.Run(c.Name, func(t *testing.T) {
			if c.Images != slices.Contains(images, c.Name) {
				t.Errorf("Images = %v", c.Images)
			}
			if c.Canonical != slices.Contains(canonical, c.Name) {
				t.Errorf("Canonical = %v", c.Canonical)
			}
			if c.ReadOnly != (c.Name == "xls") {
				t.Errorf("ReadOnly = %v", c.ReadOnly)
			}
			if !c.Reports {
				t.Error("every built-in format should report diagnostics")
			}
		})
	}
}

func TestUnknownFormat(t *testing.T) {
	_, err := docbridge.Lookup("epub")
	var ufe *docerrors.UnsupportedFormatError
	if !errors.As(err, &ufe) || ufe.Name != "epub" {
		t.Errorf("Lookup(epub) = %v, want UnsupportedFormatError", err)
	}
}
