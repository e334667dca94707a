// Package ingest loads the ministry services workbook and derives the
// enriched per-service records the analytics and simulation layers consume.
package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Options configures workbook reading.
type Options struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	SkipRows   int    // data rows to skip after the header
}

// ReadWorkbook reads an XLSX sheet and returns the header row plus all
// data rows as string slices.
func ReadWorkbook(path string, opts Options) ([]string, [][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "ingest: open workbook")
	}

	sheet, err := pickSheet(f, opts)
	if err != nil {
		return nil, nil, err
	}

	var header []string
	var rows [][]string
	for i, row := range sheet.Rows {
		cells := rowToStrings(row)
		if i == 0 {
			header = cells
			continue
		}
		if i-1 < opts.SkipRows {
			continue
		}
		rows = append(rows, cells)
	}

	return header, rows, nil
}

// WriteWorkbook writes a header row and data rows to a single-sheet XLSX
// file at the given path.
func WriteWorkbook(path, sheetName string, header []string, rows [][]string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "ingest: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range header {
		hr.AddCell().SetString(h)
	}
	for _, row := range rows {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().SetString(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "ingest: save workbook")
	}
	return nil
}

func pickSheet(f *xlsx.File, opts Options) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("ingest: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
