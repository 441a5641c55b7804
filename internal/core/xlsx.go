package core

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbookRows returns the cells of the first sheet of an XLSX workbook.
// The rows feed Importer.RunRows.
func ReadWorkbookRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("invalid spreadsheet: %v", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError(ErrEmptyImport, "")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
