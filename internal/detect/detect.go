// Package detect picks a format name for an input file from its extension,
// falling back to content sniffing.
package detect

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/internal/archive"
)

var extensions = map[string]string{
	".md":       "markdown",
	".markdown": "markdown",
	".mdown":    "markdown",
	".html":     "html",
	".htm":      "html",
	".xhtml":    "html",
	".pdf":      "pdf",
	".json":     "json",
	".xml":      "xml",
	".csv":      "csv",
	".rtf":      "rtf",
	".docx":     "docx",
	".xls":      "xls",
	".xlsx":     "xlsx",
	".ods":      "ods",
	".typ":      "typst",
	".txt":      "text",
	".text":     "text",
}

// mimeTypes is checked in order; more specific types come first.
var mimeTypes = []struct {
	mime   string
	format string
}{
	{"application/pdf", "pdf"},
	{"text/rtf", "rtf"},
	{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "docx"},
	{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"},
	{"application/vnd.ms-excel", "xls"},
	{"application/vnd.oasis.opendocument.spreadsheet", "ods"},
	{"text/html", "html"},
	{"application/json", "json"},
	{"text/xml", "xml"},
	{"text/csv", "csv"},
}

// FromName maps a file name to a format. Compression suffixes are ignored.
func FromName(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(archive.StripExtension(name)))
	f, ok := extensions[ext]
	return f, ok
}

// FromContent sniffs the format of data. Plain text is reported as text.
func FromContent(data []byte) (string, bool) {
	mt := mimetype.Detect(data)
	for _, m := range mimeTypes {
		if mt.Is(m.mime) {
			return m.format, true
		}
	}
	for p := mt; p != nil; p = p.Parent() {
		if p.Is("text/plain") {
			return "text", true
		}
	}
	return "", false
}

// Format resolves the format of an input. An explicit name wins, then the
// file extension, then the content.
func Format(explicit, name string, data []byte) (string, error) {
	if explicit != "" {
		return strings.ToLower(explicit), nil
	}
	if f, ok := FromName(name); ok {
		return f, nil
	}
	if f, ok := FromContent(data); ok {
		return f, nil
	}
	return "", &errors.UnsupportedFormatError{Name: filepath.Ext(name)}
}

// Extension returns the preferred file extension for a format.
func Extension(format string) string {
	switch format {
	case "markdown":
		return ".md"
	case "typst":
		return ".typ"
	case "text":
		return ".txt"
	}
	for ext, f := range extensions {
		if f == format && ext == "."+format {
			return ext
		}
	}
	return ""
}
