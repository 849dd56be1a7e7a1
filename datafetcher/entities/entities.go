// Package entities defines the data types produced by the dataset fetchers:
// per-format snapshots, sample records, and column statistics.
package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
)

// Format identifies one of the three dataset export formats.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatCSV  Format = "csv"
)

// Formats lists all supported formats in their canonical order.
var Formats = []Format{FormatJSON, FormatXML, FormatCSV}

func (f Format) String() string {
	return string(f)
}

// ParseFormat converts a string into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatXML, FormatCSV:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format: %q (expected json, xml or csv)", s)
}

// Field is a single displayed field of a sample record. For JSON records the
// name is the decimal positional index, for XML the child element tag, for
// CSV the column name.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SampleRecord is one sampled record rendered for display. Fields keep the
// original document order, which Go maps would not preserve.
type SampleRecord struct {
	Fields []Field
}

// Get returns the value of the named field.
func (r SampleRecord) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// MarshalJSON renders the record as a JSON object with fields in their
// original order.
func (r SampleRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSONSnapshot is the result of one fetch of the rows.json endpoint.
type JSONSnapshot struct {
	Endpoint     string         `json:"endpoint"`
	TotalRecords int            `json:"total_records"`
	Records      []SampleRecord `json:"records"`
	// Preview holds a truncated textual rendering of the decoded document
	// when its shape is not the expected Socrata data array.
	Preview   string    `json:"preview,omitempty"`
	ByteCount int       `json:"byte_count"`
	FetchedAt time.Time `json:"fetched_at"`
	// Document is the full decoded body, kept for the export endpoint.
	Document any `json:"-"`
}

// XMLSnapshot is the result of one fetch of the rows.xml export.
type XMLSnapshot struct {
	Endpoint  string         `json:"endpoint"`
	TotalRows int            `json:"total_rows"`
	Records   []SampleRecord `json:"records"`
	ByteCount int            `json:"byte_count"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// ColumnStats holds descriptive statistics for one numeric column.
type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// CSVSnapshot is the result of one fetch of the rows.csv export.
type CSVSnapshot struct {
	Endpoint    string         `json:"endpoint"`
	Rows        int            `json:"rows"`
	Columns     int            `json:"columns"`
	ColumnNames []string       `json:"column_names"`
	// MoreColumns reports whether ColumnNames was truncated.
	MoreColumns bool           `json:"more_columns"`
	Head        []SampleRecord `json:"head"`
	Stats       *ColumnStats   `json:"stats,omitempty"`
	ByteCount   int            `json:"byte_count"`
	FetchedAt   time.Time      `json:"fetched_at"`
	// Frame is the loaded tabular frame, kept for callers that want more
	// than the rendered head.
	Frame dataframe.DataFrame `json:"-"`
}

// DatasetSnapshot groups the latest result of each format. A format whose
// fetch failed is nil; the failure was already logged at the fetcher
// boundary.
type DatasetSnapshot struct {
	JSON      *JSONSnapshot `json:"json"`
	XML       *XMLSnapshot  `json:"xml"`
	CSV       *CSVSnapshot  `json:"csv"`
	FetchedAt time.Time     `json:"fetched_at"`
}
