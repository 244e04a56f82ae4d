// Package text provides the plain text format module.
//
// Plain text carries no markup: parsing yields one paragraph per
// blank-line-separated block and generation flattens every construct to
// readable text.
package text

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// Name is the registry identifier.
const Name = "text"

// Handler implements the plain text Transformer.
type Handler struct{}

// Register registers this module with the default registry.
func Register() {
	docbridge.Register(Name, &Handler{})
}

func init() {
	Register()
}

// Parse decodes UTF-8 (or BOM-marked UTF-16) text into paragraphs.
func (h *Handler) Parse(data []byte) (*cdm.Document, error) {
	content, err := decode(data)
	if err != nil {
		return nil, err
	}

	doc := cdm.NewDocument()
	var block []string
	flush := func() {
		if len(block) > 0 {
			doc.Body = append(doc.Body, cdm.Paragraph{Children: []cdm.Element{
				cdm.T(strings.Join(block, "\n")),
			}})
			block = nil
		}
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block = append(block, line)
	}
	flush()
	return doc, nil
}

func decode(data []byte) (string, error) {
	utf16BOM := bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF})
	if !utf16BOM {
		if off := invalidUTF8(data); off >= 0 {
			return "", errors.NewParse(Name, base.LineAt(data, off), "invalid UTF-8")
		}
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", errors.WrapParse(Name, 0, err)
	}
	return string(out), nil
}

// invalidUTF8 returns the offset of the first invalid byte, or -1.
func invalidUTF8(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

// Generate renders doc as plain text.
func (h *Handler) Generate(doc *cdm.Document) ([]byte, error) {
	out, _, err := h.GenerateReport(doc, nil)
	return out, err
}

// GenerateReport renders doc and returns the degradation diagnostics.
func (h *Handler) GenerateReport(doc *cdm.Document, _ docbridge.Saver) ([]byte, *reconcile.Report, error) {
	doc = base.EnsureDocument(doc)
	w := &writer{rep: reconcile.NewReport(Name)}
	paths := base.HoistedPaths(doc)

	var blocks []string
	for i, e := range base.Hoisted(doc) {
		s, err := w.block(e, paths[i])
		if err != nil {
			return nil, nil, err
		}
		if s != "" {
			blocks = append(blocks, s)
		}
	}
	if len(blocks) == 0 {
		return []byte{}, w.rep, nil
	}
	return []byte(strings.Join(blocks, "\n\n") + "\n"), w.rep, nil
}

type writer struct {
	rep *reconcile.Report
}

func (w *writer) block(e cdm.Element, path string) (string, error) {
	switch v := reconcile.Collapse(e).(type) {
	case cdm.Text:
		return v.Content, nil
	case cdm.Header:
		return v.Text, nil
	case cdm.Hyperlink:
		return reconcile.LinkText(v), nil
	case cdm.Image:
		w.rep.Add(reconcile.Degraded, path, "image bytes replaced by a placeholder")
		return reconcile.ImageText(v), nil
	case cdm.Paragraph:
		return w.paragraph(v, path)
	case cdm.List:
		var lines []string
		if err := w.list(v, path, 0, &lines); err != nil {
			return "", err
		}
		return strings.Join(lines, "\n"), nil
	case cdm.Table:
		return w.table(v, path)
	default:
		return "", base.UnknownElementError(Name, path, e)
	}
}

func (w *writer) paragraph(p cdm.Paragraph, path string) (string, error) {
	var b strings.Builder
	prevBlock := false
	for i, c := range p.Children {
		s, err := w.block(c, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return "", err
		}
		inline := cdm.IsInline(c)
		if b.Len() > 0 && (prevBlock || !inline) {
			b.WriteByte('\n')
		}
		b.WriteString(s)
		prevBlock = !inline
	}
	return b.String(), nil
}

func (w *writer) list(l cdm.List, path string, depth int, lines *[]string) error {
	indent := strings.Repeat("  ", depth)
	n := 0
	for i, it := range l.Items {
		itemPath := fmt.Sprintf("%s.items[%d].element", path, i)
		if nested, ok := it.Element.(cdm.List); ok {
			if err := w.list(nested, itemPath, depth+1, lines); err != nil {
				return err
			}
			continue
		}
		n++
		marker := "- "
		if l.Numbered {
			marker = strconv.Itoa(n) + ". "
		}
		s, err := w.block(it.Element, itemPath)
		if err != nil {
			return err
		}
		cont := indent + strings.Repeat(" ", len(marker))
		*lines = append(*lines, indent+marker+strings.ReplaceAll(s, "\n", "\n"+cont))
	}
	return nil
}

func (w *writer) table(t cdm.Table, path string) (string, error) {
	g := reconcile.Rectangular(t, w.rep, path)
	if g.Columns() == 0 {
		w.rep.Add(reconcile.Dropped, path, "table has no columns")
		return "", nil
	}

	cellText := func(e cdm.Element) string {
		return strings.ReplaceAll(reconcile.PlainText(reconcile.Collapse(e)), "\n", " ")
	}
	rows := make([][]string, 0, len(g.Rows)+1)
	header := make([]string, g.Columns())
	for i, h := range g.Headers {
		header[i] = cellText(h)
	}
	rows = append(rows, header)
	for _, r := range g.Rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = cellText(c)
		}
		rows = append(rows, cells)
	}

	widths := make([]int, g.Columns())
	for _, r := range rows {
		for i, c := range r {
			if n := utf8.RuneCountInString(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	rule := func() {
		b.WriteByte('+')
		for _, wd := range widths {
			b.WriteString(strings.Repeat("-", wd+2))
			b.WriteByte('+')
		}
	}
	line := func(cells []string) {
		b.WriteByte('\n')
		b.WriteByte('|')
		for i, c := range cells {
			b.WriteByte(' ')
			b.WriteString(c)
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c)+1))
			b.WriteByte('|')
		}
		b.WriteByte('\n')
		rule()
	}
	rule()
	for _, r := range rows {
		line(r)
	}
	return b.String(), nil
}
