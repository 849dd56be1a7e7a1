package datafetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/evdata/evdata-api/datafetcher/entities"
)

// fetchXML downloads the rows.xml export, persists it to a temporary file,
// parses the file into a document tree and samples the row elements. The
// temporary file is removed on every path after creation.
func (f *DatasetFetcher) fetchXML(ctx context.Context) (*entities.XMLSnapshot, error) {
	body, err := f.downloader.fetch(ctx, entities.FormatXML, f.endpoints.XML)
	if err != nil {
		return nil, err
	}

	path, remove, err := f.downloader.saveTemp(entities.FormatXML, "electric_vehicle_data-*.xml", body)
	if err != nil {
		return nil, err
	}
	defer remove()

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, newError(KindDecode, entities.FormatXML, fmt.Errorf("parsing XML document: %w", err))
	}

	// All descendant row elements, regardless of nesting depth
	rows := doc.FindElements("//row")

	snap := &entities.XMLSnapshot{
		Endpoint:  f.endpoints.XML,
		TotalRows: len(rows),
		Records:   sampleXMLRows(rows, MaxSampleRecords, MaxSampleFields),
		ByteCount: len(body),
		FetchedAt: time.Now(),
	}
	return snap, nil
}

// sampleXMLRows keeps the first maxRecords rows. For each row the direct
// child elements are walked in document order and the first maxFields
// {tag: text} pairs are kept, with any namespace stripped from the tag.
func sampleXMLRows(rows []*etree.Element, maxRecords, maxFields int) []entities.SampleRecord {
	n := min(maxRecords, len(rows))
	records := make([]entities.SampleRecord, 0, n)

	for _, row := range rows[:n] {
		var rec entities.SampleRecord
		for i, child := range row.ChildElements() {
			if i == maxFields {
				break
			}
			rec.Fields = append(rec.Fields, entities.Field{
				Name:  stripNamespace(child.Tag),
				Value: child.Text(),
			})
		}
		records = append(records, rec)
	}

	return records
}

// stripNamespace reduces a namespaced tag to its local name. etree already
// splits prefix notation into Space/Tag; this also covers the {uri}tag Clark
// notation some tooling emits.
func stripNamespace(tag string) string {
	if i := strings.LastIndex(tag, "}"); i != -1 {
		return tag[i+1:]
	}
	if i := strings.LastIndex(tag, ":"); i != -1 {
		return tag[i+1:]
	}
	return tag
}
