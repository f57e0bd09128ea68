package importexport

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv or .xlsx")

// ParseVocabularyXLSX reads term/translation pairs from columns A and B of the
// first sheet.
func ParseVocabularyXLSX(data []byte) ([]Entry, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	entries, skipped := entriesFromRecords(rows)
	return entries, skipped, nil
}

// Supported reports whether Parse accepts the file name.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv", ".txt", ".xlsx":
		return true
	default:
		return false
	}
}

// Parse picks the parser from the file extension.
func Parse(filename string, data []byte) ([]Entry, int, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv", ".txt":
		return ParseVocabularyCSV(data)
	case ".xlsx":
		return ParseVocabularyXLSX(data)
	default:
		return nil, 0, ErrUnsupportedFormat
	}
}
