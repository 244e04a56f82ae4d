// Package xls provides the legacy BIFF workbook format module. Reading is
// backed by extrame/xls; writing is not supported.
package xls

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"

	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
	"github.com/FocuswithJustin/docbridge/internal/formats/sheet"
)

// Name is the registry identifier.
const Name = "xls"

// charset is used for BIFF5 byte strings; BIFF8 strings are UTF-16.
const charset = "utf-8"

// Register registers this module with the default registry.
func Register() {
	docbridge.Register(Name, sheet.New(Name, Codec{}))
}

// init automatically registers this module when the package is imported.
func init() {
	Register()
}

// Codec reads BIFF workbooks.
type Codec struct{}

// Decode reads every worksheet. Missing rows and cells become empty strings.
func (Codec) Decode(data []byte) (sheets []sheet.Sheet, err error) {
	defer base.RecoverPanic(Name, &err)

	wb, err := xls.OpenReader(bytes.NewReader(data), charset)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		s := sheet.Sheet{Name: ws.Name}
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				s.Rows = append(s.Rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				if c < row.FirstCol() {
					cells = append(cells, "")
					continue
				}
				cells = append(cells, row.Col(c))
			}
			s.Rows = append(s.Rows, cells)
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}

// ReadOnly marks the codec as decode only.
func (Codec) ReadOnly() bool { return true }

// Encode always fails: there is no BIFF writer.
func (Codec) Encode([]sheet.Sheet) ([]byte, error) {
	return nil, base.UnsupportedOperationError("writing", Name)
}
