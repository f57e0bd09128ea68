package importexport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// Row is one exported word with its schedule.
type Row struct {
	Term         string
	Translation  string
	Status       string
	EaseFactor   float64
	IntervalDays int
	Repetitions  int
	NextReview   *time.Time
	LastReviewed *time.Time
}

var exportHeader = []string{
	"term",
	"translation",
	"status",
	"ease_factor",
	"interval_days",
	"repetitions",
	"next_review",
	"last_reviewed",
}

// BuildExportCSV renders rows with a header. The output can be imported
// again; only the first two columns are read back.
func BuildExportCSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.Write(utf8BOM); err != nil {
		return nil, err
	}

	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true
	if err := writer.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.Term,
			row.Translation,
			row.Status,
			strconv.FormatFloat(row.EaseFactor, 'f', 2, 64),
			strconv.Itoa(row.IntervalDays),
			strconv.Itoa(row.Repetitions),
			formatDate(row.NextReview),
			formatDate(row.LastReviewed),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}

func ExportFilename(now time.Time) string {
	return fmt.Sprintf("vocabulary-%s.csv", now.Format("20060102"))
}
