// Package sheet maps between documents and spreadsheet workbooks. The cell
// encoding of each workbook format is delegated to a Codec; the xls, xlsx
// and ods modules register a Handler around their codec.
package sheet

import (
	"fmt"

	"github.com/FocuswithJustin/docbridge/core/cdm"
	"github.com/FocuswithJustin/docbridge/core/errors"
	"github.com/FocuswithJustin/docbridge/core/reconcile"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	corexml "github.com/FocuswithJustin/docbridge/core/xml"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
)

// Sheet is one worksheet as a grid of cell strings.
type Sheet struct {
	Name string
	Rows [][]string

	// Widths holds column widths in millimetres, zero meaning unset.
	// Decoders leave it nil.
	Widths []float64
}

// Codec reads and writes the cell grid of a workbook format.
type Codec interface {
	Decode(data []byte) ([]Sheet, error)
	Encode(sheets []Sheet) ([]byte, error)
}

// Handler implements a Transformer over a Codec.
type Handler struct {
	Format string
	Codec  Codec
}

// ReadOnly reports whether the codec cannot encode workbooks.
func (h *Handler) ReadOnly() bool {
	ro, ok := h.Codec.(interface{ ReadOnly() bool })
	return ok && ro.ReadOnly()
}

// New returns a handler for format backed by codec.
func New(format string, codec Codec) *Handler {
	return &Handler{Format: format, Codec: codec}
}

// Parse turns each non-empty sheet into a Table whose first row is the
// header. Rows shorter than the widest row are padded with empty cells.
func (h *Handler) Parse(data []byte) (*cdm.Document, error) {
	sheets, err := h.Codec.Decode(data)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			return nil, pe
		}
		var se *corexml.SyntaxError
		if errors.As(err, &se) {
			return nil, errors.WrapParse(h.Format, se.Line, err)
		}
		return nil, errors.WrapParse(h.Format, 0, err)
	}

	doc := cdm.NewDocument()
	for _, s := range sheets {
		if t, ok := Table(s); ok {
			doc.Body = append(doc.Body, t)
		}
	}
	return doc, nil
}

// Table converts a sheet. Trailing empty rows and columns are ignored; a
// sheet without any cell text yields false.
func Table(s Sheet) (cdm.Table, bool) {
	rows := trim(s.Rows)
	if len(rows) == 0 {
		return cdm.Table{}, false
	}
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	cells := func(r []string) []cdm.Element {
		out := make([]cdm.Element, width)
		for i := range out {
			if i < len(r) {
				out[i] = cdm.T(r[i])
			} else {
				out[i] = reconcile.EmptyCell()
			}
		}
		return out
	}
	t := cdm.Table{Headers: cdm.Headers(cells(rows[0])...)}
	for _, r := range rows[1:] {
		t.Rows = append(t.Rows, cdm.Row(cells(r)...))
	}
	return t, true
}

// trim drops trailing empty cells of each row and trailing empty rows.
func trim(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	last := -1
	for i, r := range rows {
		n := len(r)
		for n > 0 && r[n-1] == "" {
			n--
		}
		out[i] = r[:n]
		if n > 0 {
			last = i
		}
	}
	return out[:last+1]
}

// Generate writes the tables of the document as sheets.
func (h *Handler) Generate(doc *cdm.Document) ([]byte, error) {
	out, _, err := h.GenerateReport(doc, nil)
	return out, err
}

// GenerateReport writes every table, depth-first, as a sheet named SheetN
// and drops everything else. A document without tables yields one empty
// sheet.
func (h *Handler) GenerateReport(doc *cdm.Document, _ docbridge.Saver) ([]byte, *reconcile.Report, error) {
	doc = base.EnsureDocument(doc)
	rep := reconcile.NewReport(h.Format)
	sheets := Sheets(doc, rep)

	out, err := h.Codec.Encode(sheets)
	if err != nil {
		var ge *errors.GenerateError
		if errors.As(err, &ge) {
			return nil, nil, ge
		}
		return nil, nil, errors.NewGenerate(h.Format, "encode workbook", err)
	}
	return out, rep, nil
}

// Sheets extracts the sheets written for doc.
func Sheets(doc *cdm.Document, rep *reconcile.Report) []Sheet {
	reconcile.DropNonTables(doc, rep)
	tables, paths := reconcile.TablesOf(doc)

	var sheets []Sheet
	for i, t := range tables {
		g := reconcile.Rectangular(t, rep, paths[i])
		if g.Columns() == 0 {
			rep.Add(reconcile.Dropped, paths[i], "table has no columns")
			continue
		}
		s := Sheet{
			Name: fmt.Sprintf("Sheet%d", len(sheets)+1),
			Rows: [][]string{cellText(g.Headers, rep, paths[i]+".headers")},
		}
		if g.HasWidths() {
			s.Widths = g.Widths
		}
		for r, row := range g.Rows {
			s.Rows = append(s.Rows, cellText(row, rep, fmt.Sprintf("%s.rows[%d]", paths[i], r)))
		}
		sheets = append(sheets, s)
	}
	if len(sheets) == 0 {
		sheets = []Sheet{{Name: "Sheet1"}}
	}
	return sheets
}

// cellText flattens each cell to plain text. Nested tables and lists are
// reported since their structure is lost.
func cellText(cells []cdm.Element, rep *reconcile.Report, path string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = reconcile.Collapse(c)
		switch c.(type) {
		case cdm.Table, cdm.List, cdm.Image:
			rep.Addf(reconcile.Degraded, fmt.Sprintf("%s[%d]", path, i), "%s cell flattened to text", c.Kind())
		}
		out[i] = reconcile.PlainText(c)
	}
	return out
}
