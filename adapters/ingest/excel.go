package ingest

import (
	"io"
	"strings"

	"datalens/internal/errors"

	"github.com/xuri/excelize/v2"
)

// ExcelSource streams rows from a workbook. Only the first sheet is read:
// multi-sheet handling is a documented limitation, not a bug.
type ExcelSource struct {
	file   *excelize.File
	rows   *excelize.Rows
	header []string
	total  int
}

// NewExcelSource decodes a workbook container from a byte stream and
// positions the iterator after the header row of the first sheet.
func NewExcelSource(r io.Reader) (*ExcelSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.WithCode(errors.CodeParseError, err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, errors.ParseError("workbook has no sheets")
	}
	sheet := sheets[0]

	// Row count for progress totals. Workbooks are fully decoded in
	// memory anyway, so one extra pass over the sheet is cheap.
	total := -1
	if all, err := f.GetRows(sheet); err == nil {
		total = len(all) - 1 // minus header
		if total < 0 {
			total = 0
		}
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, errors.WithCode(errors.CodeParseError, err)
	}

	if !rows.Next() {
		rows.Close()
		f.Close()
		return nil, errors.ParseError("missing header row")
	}
	header, err := rows.Columns()
	if err != nil {
		rows.Close()
		f.Close()
		return nil, errors.WithCode(errors.CodeParseError, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	return &ExcelSource{file: f, rows: rows, header: header, total: total}, nil
}

// Header returns the column names from the first row of the first sheet.
func (s *ExcelSource) Header() ([]string, error) {
	return s.header, nil
}

// Next returns the next data row, or io.EOF when the sheet is exhausted.
func (s *ExcelSource) Next() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, errors.WithCode(errors.CodeParseError, err)
		}
		return nil, io.EOF
	}
	row, err := s.rows.Columns()
	if err != nil {
		return nil, errors.WithCode(errors.CodeParseError, err)
	}
	return row, nil
}

// TotalRows returns the data row count when the workbook dimensions were
// readable, -1 otherwise.
func (s *ExcelSource) TotalRows() int { return s.total }

// Close releases the iterator and the workbook.
func (s *ExcelSource) Close() error {
	s.rows.Close()
	return s.file.Close()
}
