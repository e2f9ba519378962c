// package formatter renders request history for the CLI (plain text, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/desertthunder/djx/internal/repositories"
)

// HistoryToCSV converts history records to CSV with columns:
// Timestamp, Request, Query, Model, Outcome, Track, Device
func HistoryToCSV(records []repositories.RequestRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Timestamp", "Request", "Query", "Model", "Outcome", "Track", "Device"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, rec := range records {
		record := []string{
			rec.CreatedAt.Format(time.RFC3339),
			rec.RawText,
			rec.SearchQuery,
			modelColumn(rec),
			rec.Outcome,
			rec.Track,
			rec.Device,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// HistoryToText converts history records to a readable listing.
func HistoryToText(records []repositories.RequestRecord) []byte {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No requests recorded yet.\n")
		return buf.Bytes()
	}

	for i, rec := range records {
		buf.WriteString(fmt.Sprintf("%d. %q -> %q\n", i+1, rec.RawText, rec.SearchQuery))
		buf.WriteString(fmt.Sprintf("   When: %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04")))
		buf.WriteString(fmt.Sprintf("   Model: %s\n", modelColumn(rec)))
		buf.WriteString(fmt.Sprintf("   Outcome: %s\n", rec.Outcome))
		if rec.Track != "" {
			buf.WriteString(fmt.Sprintf("   Track: %s\n", rec.Track))
		}
		if rec.Device != "" {
			buf.WriteString(fmt.Sprintf("   Device: %s\n", rec.Device))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

func modelColumn(rec repositories.RequestRecord) string {
	if rec.SourceModel == "" {
		return "keyword-fallback"
	}
	return rec.SourceModel
}
