package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

// ContactColumns is the header of contact exports and of the empty upload template.
var ContactColumns = []string{"name", "mobile_no", "email_id"}

// Collect drains a cursor into memory.
func Collect(cur Cursor) ([]string, [][]string, error) {
	cols, err := cur.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read columns: %w", err)
	}
	var rows [][]string
	for cur.Next() {
		row, err := cur.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, row)
	}
	if err := cur.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return cols, rows, nil
}

// WriteXLSX renders a single-sheet workbook with columns as the first row.
func WriteXLSX(columns []string, rows [][]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, 1, columns); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := setRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func setRow(f *excelize.File, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("set row %d: %w", n, err)
	}
	return nil
}

// CursorToXLSX materialises a cursor into a workbook.
func CursorToXLSX(cur Cursor) (*bytes.Buffer, error) {
	cols, rows, err := Collect(cur)
	if err != nil {
		return nil, err
	}
	return WriteXLSX(cols, rows)
}
