// Package ods provides the OpenDocument spreadsheet format module. The
// package is read and written with core/opc; content.xml holds the cells.
package ods

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/docbridge/core/opc"
	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	corexml "github.com/FocuswithJustin/docbridge/core/xml"
	"github.com/FocuswithJustin/docbridge/internal/formats/sheet"
)

// Name is the registry identifier.
const Name = "ods"

// MIMEType is stored uncompressed as the first entry of the package.
const MIMEType = "application/vnd.oasis.opendocument.spreadsheet"

const (
	nsOffice   = "urn:oasis:names:tc:opendocument:xmlns:office:1.0"
	nsStyle    = "urn:oasis:names:tc:opendocument:xmlns:style:1.0"
	nsTable    = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"
	nsText     = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"
	nsFO       = "urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0"
	nsManifest = "urn:oasis:names:tc:opendocument:xmlns:manifest:1.0"
)

// Limits on repeated rows and columns, matching the largest grid office
// suites open.
const (
	maxRows    = 1 << 20
	maxColumns = 1 << 14
)

// Register registers this module with the default registry.
func Register() {
	docbridge.Register(Name, sheet.New(Name, Codec{}))
}

// init automatically registers this module when the package is imported.
func init() {
	Register()
}

// Codec reads and writes OpenDocument spreadsheets.
type Codec struct{}

// Decode reads the string value of every cell. Repeated rows and cells are
// expanded; trailing repeats of empty cells are not.
func (Codec) Decode(data []byte) ([]sheet.Sheet, error) {
	pkg, err := opc.Open(data)
	if err != nil {
		return nil, err
	}
	if mt, ok := pkg.Part("mimetype"); ok && strings.TrimSpace(string(mt)) != MIMEType {
		return nil, fmt.Errorf("mimetype %q is not %s", mt, MIMEType)
	}
	doc, err := pkg.XML("content.xml")
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if !root.IsNS(nsOffice, "document-content") {
		return nil, fmt.Errorf("content.xml root is %s, not office:document-content", root.Name())
	}
	body := root.ChildNS(nsOffice, "body").ChildNS(nsOffice, "spreadsheet")
	if body == nil {
		return nil, fmt.Errorf("content.xml has no office:spreadsheet body")
	}

	var sheets []sheet.Sheet
	for _, t := range body.ChildrenNS(nsTable, "table") {
		var g grid
		if err := g.rows(t); err != nil {
			return nil, fmt.Errorf("table %s: %w", t.AttrValueNS(nsTable, "name"), err)
		}
		sheets = append(sheets, sheet.Sheet{Name: t.AttrValueNS(nsTable, "name"), Rows: g.out})
	}
	return sheets, nil
}

// grid accumulates rows, deferring empty ones until content follows.
type grid struct {
	out     [][]string
	pending int
}

func repeat(n *corexml.Node, attr string) int {
	if v, ok := n.AttrNS(nsTable, attr); ok {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return 1
}

// rows walks table rows, including those inside header and group elements.
func (g *grid) rows(container *corexml.Node) error {
	for _, n := range container.Children() {
		if n.Space() != nsTable {
			continue
		}
		switch n.Name() {
		case "table-row":
			cells, err := rowCells(n)
			if err != nil {
				return err
			}
			if err := g.add(cells, repeat(n, "number-rows-repeated")); err != nil {
				return err
			}
		case "table-header-rows", "table-row-group", "table-rows":
			if err := g.rows(n); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *grid) add(cells []string, count int) error {
	if len(cells) == 0 {
		g.pending += count
		return nil
	}
	if len(g.out)+g.pending+count > maxRows {
		return fmt.Errorf("more than %d rows", maxRows)
	}
	for ; g.pending > 0; g.pending-- {
		g.out = append(g.out, nil)
	}
	for i := 0; i < count; i++ {
		g.out = append(g.out, cells)
	}
	return nil
}

// rowCells returns the cell texts of a row without trailing empty cells.
func rowCells(row *corexml.Node) ([]string, error) {
	var cells []string
	pending := 0
	for _, c := range row.Children() {
		if c.Space() != nsTable || (c.Name() != "table-cell" && c.Name() != "covered-table-cell") {
			continue
		}
		count := repeat(c, "number-columns-repeated")
		text := cellText(c)
		if text == "" {
			pending += count
			continue
		}
		if len(cells)+pending+count > maxColumns {
			return nil, fmt.Errorf("more than %d columns", maxColumns)
		}
		for ; pending > 0; pending-- {
			cells = append(cells, "")
		}
		for i := 0; i < count; i++ {
			cells = append(cells, text)
		}
	}
	return cells, nil
}

// cellText joins the paragraphs of a cell with newlines.
func cellText(cell *corexml.Node) string {
	var lines []string
	for _, p := range cell.ChildrenNS(nsText, "p") {
		var b strings.Builder
		inlineText(&b, p)
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func inlineText(b *strings.Builder, n *corexml.Node) {
	for _, c := range n.Nodes() {
		if c.IsText() {
			b.WriteString(c.Text())
			continue
		}
		if c.Space() != nsText {
			continue
		}
		switch c.Name() {
		case "s":
			count := 1
			if v, ok := c.AttrNS(nsText, "c"); ok {
				if i, err := strconv.Atoi(v); err == nil && i > 0 {
					count = i
				}
			}
			b.WriteString(strings.Repeat(" ", count))
		case "tab":
			b.WriteByte('\t')
		case "line-break":
			b.WriteByte('\n')
		case "note", "annotation":
		default:
			inlineText(b, c)
		}
	}
}
