package datafetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/evdata/evdata-api/datafetcher/entities"
)

// fetchJSON GETs the rows.json endpoint, decodes the body and samples the
// Socrata data array. No file I/O happens on this path.
func (f *DatasetFetcher) fetchJSON(ctx context.Context) (*entities.JSONSnapshot, error) {
	body, err := f.downloader.fetch(ctx, entities.FormatJSON, f.endpoints.JSON)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, newError(KindDecode, entities.FormatJSON, fmt.Errorf("decoding JSON body: %w", err))
	}

	snap := &entities.JSONSnapshot{
		Endpoint:  f.endpoints.JSON,
		Document:  doc,
		ByteCount: len(body),
		FetchedAt: time.Now(),
	}

	rows, ok := socrataRows(doc)
	if !ok {
		// Shape differs from the expected {"data": [[...], ...]},
		// fall back to a truncated textual preview.
		snap.Preview = preview(doc, previewLimit)
		return snap, nil
	}

	snap.TotalRecords = len(rows)
	snap.Records = sampleJSONRecords(rows, MaxSampleRecords, MaxSampleFields)
	return snap, nil
}

// socrataRows extracts the top-level data array if doc has the expected
// Socrata shape: an object whose "data" key holds a non-empty array.
func socrataRows(doc any) ([]any, bool) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, false
	}
	rows, ok := obj["data"].([]any)
	if !ok || len(rows) == 0 {
		return nil, false
	}
	return rows, true
}

// sampleJSONRecords keeps the first maxRecords rows, each truncated to its
// first maxFields positional values, in original order.
func sampleJSONRecords(rows []any, maxRecords, maxFields int) []entities.SampleRecord {
	n := min(maxRecords, len(rows))
	records := make([]entities.SampleRecord, 0, n)

	for _, row := range rows[:n] {
		values, _ := row.([]any)
		var rec entities.SampleRecord
		for j, v := range values {
			if j == maxFields {
				break
			}
			rec.Fields = append(rec.Fields, entities.Field{
				Name:  strconv.Itoa(j),
				Value: renderScalar(v),
			})
		}
		records = append(records, rec)
	}

	return records
}

// renderScalar renders one decoded JSON value for display.
func renderScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		// Nested arrays or objects, render compactly
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(b)
	}
}

// preview renders doc as compact JSON truncated to limit characters.
func preview(doc any, limit int) string {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Sprintf("%v", doc)
	}
	s := string(b)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
