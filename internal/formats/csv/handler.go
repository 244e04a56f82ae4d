// Package csv provides the CSV format module. A file holds one or more
// tables separated by blank lines; the first record of each is its header.
package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// Name is the registry identifier.
const Name = "csv"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Handler implements the CSV Transformer.
type Handler struct{}

// Register registers this module with the default registry.
func Register() {
	docbridge.Register(Name, &Handler{})
}

// init automatically registers this module when the package is imported.
func init() {
	Register()
}

// Parse reads every table in data.
func (h *Handler) Parse(data []byte) (*cdm.Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	doc := cdm.NewDocument()
	var cur *cdm.Table
	nextLine := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if pe, ok := err.(*csv.ParseError); ok {
				return nil, errors.WrapParse(Name, pe.Line, pe.Err)
			}
			return nil, errors.WrapParse(Name, 0, err)
		}
		line, _ := r.FieldPos(0)
		if cur != nil && line > nextLine {
			doc.Body = append(doc.Body, *cur)
			cur = nil
		}
		nextLine = base.LineAt(data, int(r.InputOffset()))

		if cur == nil {
			cur = &cdm.Table{Headers: cdm.Headers(texts(rec)...)}
			continue
		}
		if len(rec) != len(cur.Headers) {
			return nil, errors.NewParse(Name, line,
				fmt.Sprintf("record has %d fields, header has %d", len(rec), len(cur.Headers)))
		}
		cur.Rows = append(cur.Rows, cdm.Row(texts(rec)...))
	}
	if cur != nil {
		doc.Body = append(doc.Body, *cur)
	}
	return doc, nil
}

func texts(rec []string) []cdm.Element {
	out := make([]cdm.Element, len(rec))
	for i, f := range rec {
		out[i] = cdm.T(f)
	}
	return out
}

// Generate writes every table in the document.
func (h *Handler) Generate(doc *cdm.Document) ([]byte, error) {
	out, _, err := h.GenerateReport(doc, nil)
	return out, err
}

// GenerateReport writes each table depth-first, separated by blank lines.
// Everything outside a table is dropped.
func (h *Handler) GenerateReport(doc *cdm.Document, _ docbridge.Saver) ([]byte, *reconcile.Report, error) {
	doc = base.EnsureDocument(doc)
	rep := reconcile.NewReport(Name)
	reconcile.DropNonTables(doc, rep)

	var buf bytes.Buffer
	tables, paths := reconcile.TablesOf(doc)
	written := 0
	for i, t := range tables {
		g := reconcile.Rectangular(t, rep, paths[i])
		if g.Columns() == 0 {
			rep.Add(reconcile.Dropped, paths[i], "table has no columns")
			continue
		}
		if written > 0 {
			buf.WriteByte('\n')
		}
		if err := writeRecord(&buf, cells(g.Headers)); err != nil {
			return nil, nil, err
		}
		for _, row := range g.Rows {
			if err := writeRecord(&buf, cells(row)); err != nil {
				return nil, nil, err
			}
		}
		written++
	}
	if written == 0 {
		return []byte{}, rep, nil
	}
	return buf.Bytes(), rep, nil
}

func cells(elems []cdm.Element) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = reconcile.PlainText(reconcile.Collapse(e))
	}
	return out
}

// writeRecord writes one record. A lone empty field is quoted so the record
// is not mistaken for a table separator.
func writeRecord(buf *bytes.Buffer, rec []string) error {
	if len(rec) == 1 && rec[0] == "" {
		buf.WriteString("\"\"\n")
		return nil
	}
	w := csv.NewWriter(buf)
	if err := w.Write(rec); err != nil {
		return errors.NewGenerate(Name, "write record", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewGenerate(Name, "write record", err)
	}
	return nil
}
