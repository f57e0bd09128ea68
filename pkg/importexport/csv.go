package importexport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// Entry is one imported vocabulary line.
type Entry struct {
	Term        string
	Translation string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const maxDelimiterSampleRecords = 20

// ParseVocabularyCSV reads term/translation pairs from the first two columns.
// Comma, tab and semicolon separated files are accepted; a header row is
// skipped. It returns the entries and the number of rows skipped.
func ParseVocabularyCSV(data []byte) ([]Entry, int, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	delimiter := detectCSVDelimiter(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		records = append(records, record)
	}
	entries, skipped := entriesFromRecords(records)
	return entries, skipped, nil
}

func entriesFromRecords(records [][]string) ([]Entry, int) {
	var entries []Entry
	skipped := 0
	checkedHeader := false

	for _, record := range records {
		if isEmptyRecord(record) {
			skipped++
			continue
		}
		if !checkedHeader {
			checkedHeader = true
			if isHeaderRecord(record) {
				continue
			}
		}
		if len(record) < 2 {
			skipped++
			continue
		}
		term := strings.TrimSpace(record[0])
		translation := strings.TrimSpace(record[1])
		if term == "" || translation == "" {
			skipped++
			continue
		}
		entries = append(entries, Entry{Term: term, Translation: translation})
	}
	return entries, skipped
}

func detectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', '\t', ';'}
	bestDelimiter := candidates[0]
	bestScore := -1

	for _, delimiter := range candidates {
		score, err := scoreDelimiter(data, delimiter, maxDelimiterSampleRecords)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			bestDelimiter = delimiter
		}
	}

	if bestScore <= 0 {
		return ','
	}
	return bestDelimiter
}

// scoreDelimiter counts how many sampled records agree on the most common
// field count when split by delimiter.
func scoreDelimiter(data []byte, delimiter rune, maxRecords int) (int, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	counts := make(map[int]int)
	for seen := 0; seen < maxRecords; {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if isEmptyRecord(record) {
			continue
		}
		seen++
		if len(record) >= 2 {
			counts[len(record)]++
		}
	}

	best := 0
	for _, score := range counts {
		best = max(best, score)
	}
	return best, nil
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

var headerNames = map[string]struct{}{
	"term":        {},
	"translation": {},
	"word":        {},
	"meaning":     {},
	"source":      {},
	"target":      {},
}

func isHeaderRecord(record []string) bool {
	if len(record) < 2 {
		return false
	}
	_, leftOK := headerNames[strings.ToLower(strings.TrimSpace(record[0]))]
	_, rightOK := headerNames[strings.ToLower(strings.TrimSpace(record[1]))]
	return leftOK && rightOK
}
