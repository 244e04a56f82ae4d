// Package base provides common functionality shared by the format modules.
// It reduces duplication around image callbacks, data URIs, page header
// hoisting and diagnostics.
package base

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/transform"
)

// UnsupportedOperationError returns a standard error for an operation a
// format module never performs.
func UnsupportedOperationError(operation, format string) error {
	return errors.NewUnsupported(format+" "+operation, fmt.Sprintf("the %s format does not support %s", format, operation))
}

// UnknownElementError is returned by exhaustive switches for an element
// type outside the closed set.
func UnknownElementError(format, path string, e cdm.Element) error {
	return errors.NewGenerate(format, fmt.Sprintf("unknown element %T at %s", e, path), nil)
}

// Load calls the loader and converts a failure into a CallbackError.
func Load(load transform.Loader, url string) ([]byte, error) {
	data, err := load(url)
	if err != nil {
		return nil, errors.NewCallback("load", url, err)
	}
	return bytes.Clone(data), nil
}

// Save calls the saver and converts a failure into a CallbackError.
func Save(save transform.Saver, data []byte, name string) error {
	if err := save(data, name); err != nil {
		return errors.NewCallback("save", name, err)
	}
	return nil
}

// ImageNamer hands out image{N}.png / image{N}.jpg names in document order.
type ImageNamer struct {
	next int
}

// Next returns the name for the next image.
func (n *ImageNamer) Next(img cdm.Image) string {
	name := fmt.Sprintf("image%d%s", n.next, img.Encoding.Extension())
	n.next++
	return name
}

// DetectEncoding identifies PNG or JPEG bytes, falling back to the file
// extension of name when the content is inconclusive.
func DetectEncoding(data []byte, name string) (cdm.ImageEncoding, bool) {
	if len(data) > 0 {
		mt := mimetype.Detect(data)
		switch {
		case mt.Is("image/png"):
			return cdm.PNG, true
		case mt.Is("image/jpeg"):
			return cdm.JPEG, true
		}
	}
	switch strings.ToLower(path.Ext(stripQuery(name))) {
	case ".png":
		return cdm.PNG, true
	case ".jpg", ".jpeg":
		return cdm.JPEG, true
	}
	return "", false
}

func stripQuery(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}

// DataURI embeds an image as a base64 data URI.
func DataURI(img cdm.Image) string {
	return "data:" + img.Encoding.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(img.Bytes)
}

// IsDataURI reports whether s is a data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "data:")
}

// DecodeDataURI decodes a base64 PNG or JPEG data URI.
func DecodeDataURI(uri string) ([]byte, cdm.ImageEncoding, error) {
	meta, payload, ok := strings.Cut(uri, ",")
	if !ok || !IsDataURI(meta) {
		return nil, "", fmt.Errorf("malformed data URI")
	}
	meta = strings.ToLower(strings.TrimPrefix(strings.ToLower(meta), "data:"))
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, "", fmt.Errorf("data URI payload: %w", err)
	}
	var enc cdm.ImageEncoding
	switch strings.TrimSuffix(meta, ";base64") {
	case "image/png":
		enc = cdm.PNG
	case "image/jpeg", "image/jpg":
		enc = cdm.JPEG
	default:
		detected, ok := DetectEncoding(data, "")
		if !ok {
			return nil, "", fmt.Errorf("unsupported image type %q", meta)
		}
		enc = detected
	}
	return data, enc, nil
}

// ImageRef resolves an image reference while parsing an image-capable
// format. Data URIs decode inline; other references go through load when it
// is set and otherwise degrade to a Hyperlink. Loaded bytes that are neither
// PNG nor JPEG also degrade to a Hyperlink.
func ImageRef(load transform.Loader, url, title, alt string) (cdm.Element, error) {
	link := cdm.Hyperlink{Title: alt, URL: url, Alt: title}
	if IsDataURI(url) {
		data, enc, err := DecodeDataURI(url)
		if err != nil {
			return nil, err
		}
		return cdm.Image{Bytes: data, Title: title, Alt: alt, Encoding: enc}, nil
	}
	if load == nil {
		return link, nil
	}
	data, err := Load(load, url)
	if err != nil {
		return nil, err
	}
	enc, ok := DetectEncoding(data, url)
	if !ok {
		return link, nil
	}
	return cdm.Image{Bytes: data, Title: title, Alt: alt, Encoding: enc}, nil
}

// ImageTarget returns the reference a generator writes for img: the saved
// file name when save is set, otherwise a data URI.
func ImageTarget(save transform.Saver, names *ImageNamer, img cdm.Image) (string, error) {
	if save == nil {
		return DataURI(img), nil
	}
	name := names.Next(img)
	if err := Save(save, img.Bytes, name); err != nil {
		return "", err
	}
	return name, nil
}

// Hoisted returns the page header, body and page footer as one sequence for
// formats that cannot paginate.
func Hoisted(d *cdm.Document) []cdm.Element {
	out := make([]cdm.Element, 0, len(d.PageHeader)+len(d.Body)+len(d.PageFooter))
	out = append(out, d.PageHeader...)
	out = append(out, d.Body...)
	out = append(out, d.PageFooter...)
	return out
}

// HoistedPaths returns the walk path of every element returned by Hoisted.
func HoistedPaths(d *cdm.Document) []string {
	var paths []string
	for i := range d.PageHeader {
		paths = append(paths, fmt.Sprintf("page_header[%d]", i))
	}
	for i := range d.Body {
		paths = append(paths, fmt.Sprintf("body[%d]", i))
	}
	for i := range d.PageFooter {
		paths = append(paths, fmt.Sprintf("page_footer[%d]", i))
	}
	return paths
}

// LineAt returns the 1-based line number of byte offset off in data.
func LineAt(data []byte, off int) int {
	if off > len(data) {
		off = len(data)
	}
	if off < 0 {
		off = 0
	}
	return bytes.Count(data[:off], []byte{'\n'}) + 1
}

// EnsureDocument substitutes an empty default document for nil input.
func EnsureDocument(d *cdm.Document) *cdm.Document {
	if d == nil {
		return cdm.NewDocument()
	}
	return d
}

// RecoverPanic converts a panic inside a third-party decoder into a
// ParseError. It must be deferred directly.
func RecoverPanic(format string, err *error) {
	if r := recover(); r != nil {
		*err = errors.NewParse(format, 0, fmt.Sprintf("decoder panic: %v", r))
	}
}
