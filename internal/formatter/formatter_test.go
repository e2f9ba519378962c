package formatter

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/djx/internal/repositories"
)

func sampleRecords() []repositories.RequestRecord {
	created := time.Date(2026, 2, 14, 20, 30, 0, 0, time.UTC)
	return []repositories.RequestRecord{
		{
			ID:          "r1",
			RawText:     "play some dark techno",
			SearchQuery: "genre:techno dark",
			SourceModel: "gemini-2.0-flash",
			Outcome:     "played",
			Track:       "Some Track - Some Artist",
			Device:      "Desk Speaker",
			CreatedAt:   created,
		},
		{
			ID:          "r2",
			RawText:     "play some",
			SearchQuery: "play some",
			SourceModel: "",
			Outcome:     "not_found",
			CreatedAt:   created.Add(time.Minute),
		},
	}
}

func TestHistoryToCSV(t *testing.T) {
	t.Run("Writes Header And Rows", func(t *testing.T) {
		data, err := HistoryToCSV(sampleRecords())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("failed to parse CSV output: %v", err)
		}

		if len(rows) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d", len(rows))
		}

		header := strings.Join(rows[0], ",")
		if header != "Timestamp,Request,Query,Model,Outcome,Track,Device" {
			t.Errorf("unexpected header %q", header)
		}

		if rows[1][1] != "play some dark techno" {
			t.Errorf("unexpected request column %q", rows[1][1])
		}
		if rows[1][3] != "gemini-2.0-flash" {
			t.Errorf("unexpected model column %q", rows[1][3])
		}
		if rows[1][0] != "2026-02-14T20:30:00Z" {
			t.Errorf("unexpected timestamp %q", rows[1][0])
		}
	})

	t.Run("Fallback Model Label", func(t *testing.T) {
		data, err := HistoryToCSV(sampleRecords())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("failed to parse CSV output: %v", err)
		}

		if rows[2][3] != "keyword-fallback" {
			t.Errorf("expected keyword-fallback label, got %q", rows[2][3])
		}
	})

	t.Run("Empty History", func(t *testing.T) {
		data, err := HistoryToCSV(nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("failed to parse CSV output: %v", err)
		}
		if len(rows) != 1 {
			t.Errorf("expected header only, got %d rows", len(rows))
		}
	})
}

func TestHistoryToText(t *testing.T) {
	t.Run("Lists Records", func(t *testing.T) {
		text := string(HistoryToText(sampleRecords()))

		for _, want := range []string{
			`"play some dark techno" -> "genre:techno dark"`,
			"Model: gemini-2.0-flash",
			"Model: keyword-fallback",
			"Outcome: played",
			"Outcome: not_found",
			"Track: Some Track - Some Artist",
			"Device: Desk Speaker",
		} {
			if !strings.Contains(text, want) {
				t.Errorf("expected output to contain %q\ngot:\n%s", want, text)
			}
		}
	})

	t.Run("Omits Empty Track And Device", func(t *testing.T) {
		records := sampleRecords()[1:]
		text := string(HistoryToText(records))

		if strings.Contains(text, "Track:") {
			t.Error("expected no track line for empty track")
		}
		if strings.Contains(text, "Device:") {
			t.Error("expected no device line for empty device")
		}
	})

	t.Run("Empty History", func(t *testing.T) {
		text := string(HistoryToText(nil))
		if !strings.Contains(text, "No requests recorded yet.") {
			t.Errorf("expected empty-history message, got %q", text)
		}
	})
}
