// Package xlsx provides the Office Open XML workbook format module, backed
// by excelize.
package xlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	docbridge "github.com/FocuswithJustin/docbridge/core/transform"
	"github.com/FocuswithJustin/docbridge/internal/formats/base"
	"github.com/FocuswithJustin/docbridge/internal/formats/sheet"
)

// Name is the registry identifier.
const Name = "xlsx"

// Register registers this module with the default registry.
func Register() {
	docbridge.Register(Name, sheet.New(Name, Codec{}))
}

// init automatically registers this module when the package is imported.
func init() {
	Register()
}

// Codec reads and writes workbooks with excelize.
type Codec struct{}

// Decode reads the formatted value of every cell of every sheet.
func (Codec) Decode(data []byte) (sheets []sheet.Sheet, err error) {
	defer base.RecoverPanic(Name, &err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		sheets = append(sheets, sheet.Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

// Encode writes one worksheet per sheet. Cells are stored as strings.
func (Codec) Encode(sheets []sheet.Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return nil, fmt.Errorf("add sheet %s: %w", s.Name, err)
		}
		for r, row := range s.Rows {
			for c, value := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, err
				}
				if err := f.SetCellStr(s.Name, cell, value); err != nil {
					return nil, fmt.Errorf("write %s!%s: %w", s.Name, cell, err)
				}
			}
		}
		for c, mm := range s.Widths {
			if mm <= 0 {
				continue
			}
			col, err := excelize.ColumnNumberToName(c + 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetColWidth(s.Name, col, col, ColumnWidth(mm)); err != nil {
				return nil, fmt.Errorf("set width of %s!%s: %w", s.Name, col, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ColumnWidth converts millimetres to the character-based column width
// unit, assuming the 7 pixel maximum digit width of the default font and
// 5 pixels of padding.
func ColumnWidth(mm float64) float64 {
	px := mm / 25.4 * base.ScreenDPI
	w := (px - 5) / 7
	if w < 1 {
		return 1
	}
	return float64(int(w*100+0.5)) / 100
}
