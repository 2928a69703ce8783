package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"internscan-engine/internal/domain"
)

const SheetName = "Positions"

// WriteXLSX writes a single-sheet workbook with a frozen, filterable
// header row.
func WriteXLSX(w io.Writer, ps []domain.Position, cols []string) error {
	if cols == nil {
		cols = Columns(ps)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	for r, p := range ps {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = p.Field(c)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	last, _ := excelize.CoordinatesToCellName(len(cols), len(ps)+1)
	if err := f.AutoFilter(SheetName, "A1:"+last, nil); err != nil {
		return fmt.Errorf("autofilter: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	// Widen a few columns
	_ = f.SetColWidth(SheetName, "A", "B", 28) // company, role
	_ = f.SetColWidth(SheetName, "C", "C", 24) // location
	_ = f.SetColWidth(SheetName, "D", "D", 60) // application

	_, err := f.WriteTo(w)
	return err
}
