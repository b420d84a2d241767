package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for file extensions other than .csv and
// .xlsx.
var ErrUnsupportedFormat = errors.New("unsupported file format (expected .csv or .xlsx)")

// isoTimestampPrefix matches a yyyy-mm-dd followed by a time component, as
// produced by spreadsheet date cells.
var isoTimestampPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]`)

// ParseFile dispatches on the filename extension.
func ParseFile(r io.Reader, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r)
	case ".xlsx":
		return ParseXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ParseCSV reads an entire CSV table into normalized cells. Rows may have
// varying field counts; quoting is handled leniently.
func ParseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		for i, cell := range record {
			record[i] = normalizeCell(cell)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// ParseXLSX reads the first sheet of an Excel workbook into normalized
// cells.
func ParseXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	for _, row := range rows {
		for i, cell := range row {
			row[i] = normalizeCell(cell)
		}
	}
	return rows, nil
}

// normalizeCell coerces a raw cell to its trimmed string form. Date-typed
// cells arrive as full timestamps and are sliced down to yyyy-mm-dd.
func normalizeCell(cell string) string {
	s := strings.TrimSpace(cell)
	if isoTimestampPrefix.MatchString(s) {
		return s[:10]
	}
	return s
}
