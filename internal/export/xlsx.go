package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"fidelis/internal/domain"
)

const sheetName = "Validations"

// WriteXLSX writes the audits as a single-sheet workbook. Total values are stored as
// numbers so the sheet can be summed.
func WriteXLSX(w io.Writer, rows []domain.InvoiceValidation) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i := range rows {
		cells := make([]interface{}, 0, len(columns))
		for j, v := range validationToRow(&rows[i]) {
			if j == totalValueColumn {
				cells = append(cells, rows[i].TotalValue)
				continue
			}
			cells = append(cells, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// totalValueColumn is the index of "Total Value" in columns.
const totalValueColumn = 9
