package cdm

import (
	"fmt"

	"github.com/FocuswithJustin/docbridge/core/errors"
)

// Validate checks the document invariants and returns a
// *errors.ValidationError for the first violation found.
func Validate(d *Document) error {
	if d == nil {
		return errors.NewValidation("", "nil document")
	}
	geometry := []struct {
		name  string
		value float64
	}{
		{"page_width", d.PageWidth},
		{"page_height", d.PageHeight},
		{"margin_top", d.MarginTop},
		{"margin_bottom", d.MarginBottom},
		{"margin_left", d.MarginLeft},
		{"margin_right", d.MarginRight},
	}
	for _, g := range geometry {
		if g.value < 0 {
			return errors.NewValidation(g.name, fmt.Sprintf("must not be negative, got %g", g.value))
		}
	}
	return Walk(d, func(path string, e Element) error {
		return ValidateElement(path, e)
	})
}

// ValidateElement checks the invariants of a single element, not its children.
func ValidateElement(path string, e Element) error {
	switch v := e.(type) {
	case nil:
		return errors.NewValidation(path, "nil element")
	case Header:
		if v.Level < 1 || v.Level > 6 {
			return errors.NewValidation(path+".level", fmt.Sprintf("must be between 1 and 6, got %d", v.Level))
		}
	case Image:
		if !v.Encoding.IsValid() {
			return errors.NewValidation(path+".encoding", fmt.Sprintf("unknown image encoding %q", v.Encoding))
		}
	case Table:
		for i, h := range v.Headers {
			if h.Width < 0 {
				return errors.NewValidation(fmt.Sprintf("%s.headers[%d].width", path, i), "must not be negative")
			}
		}
	case Text, Paragraph, List, Hyperlink:
	default:
		return errors.NewValidation(path, fmt.Sprintf("unknown element %T", e))
	}
	return nil
}
