// Package datafetcher downloads the electric vehicle population dataset in
// its three export formats (JSON API, XML file, CSV file) and extracts a
// small display sample of each.
package datafetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/evdata/evdata-api/datafetcher/entities"
	"github.com/evdata/evdata-api/interfaces"
	"github.com/evdata/evdata-api/logging"
	"github.com/evdata/evdata-api/metrics"
)

// Sampling caps: only the first few records and fields are kept for display.
const (
	MaxSampleRecords = 3
	MaxSampleFields  = 5
	previewLimit     = 500
)

// Endpoints holds the three export URLs of one dataset.
type Endpoints struct {
	JSON string
	XML  string
	CSV  string
}

// EndpointsFor derives the three Socrata export URLs of a dataset.
func EndpointsFor(baseURL, datasetID string) Endpoints {
	export := func(ext string) string {
		return fmt.Sprintf("%s/%s/rows.%s?accessType=DOWNLOAD", baseURL, datasetID, ext)
	}
	return Endpoints{
		JSON: export("json"),
		XML:  export("xml"),
		CSV:  export("csv"),
	}
}

// Compile-time check to ensure DatasetFetcher implements SampleFetcher
var _ interfaces.SampleFetcher = (*DatasetFetcher)(nil)

// DatasetFetcher fetches and samples the dataset exports.
type DatasetFetcher struct {
	downloader *downloader
	endpoints  Endpoints
}

// New creates a DatasetFetcher. A nil client falls back to a default
// http.Client with DefaultHTTPTimeout; an empty tempDir falls back to the
// system temp directory.
func New(client Doer, endpoints Endpoints, tempDir string) *DatasetFetcher {
	return &DatasetFetcher{
		downloader: newDownloader(client, tempDir),
		endpoints:  endpoints,
	}
}

// Endpoints returns the configured export URLs.
func (f *DatasetFetcher) Endpoints() Endpoints {
	return f.endpoints
}

// FetchJSONSample fetches the rows.json endpoint and samples it.
func (f *DatasetFetcher) FetchJSONSample(ctx context.Context) (*entities.JSONSnapshot, error) {
	start := time.Now()
	snap, err := f.fetchJSON(ctx)
	observeFetch(entities.FormatJSON, start, err)
	return snap, err
}

// FetchXMLSample downloads the rows.xml export and samples it.
func (f *DatasetFetcher) FetchXMLSample(ctx context.Context) (*entities.XMLSnapshot, error) {
	start := time.Now()
	snap, err := f.fetchXML(ctx)
	observeFetch(entities.FormatXML, start, err)
	return snap, err
}

// FetchCSVSample downloads the rows.csv export and loads it into a frame.
func (f *DatasetFetcher) FetchCSVSample(ctx context.Context) (*entities.CSVSnapshot, error) {
	start := time.Now()
	snap, err := f.fetchCSV(ctx)
	observeFetch(entities.FormatCSV, start, err)
	return snap, err
}

// FetchAll fetches the three formats concurrently. The formats have no
// dependency ordering between them, so a failed format yields a nil snapshot
// without failing the others; an error is returned only when all three fail.
func (f *DatasetFetcher) FetchAll(ctx context.Context) (*entities.DatasetSnapshot, error) {
	snap := &entities.DatasetSnapshot{FetchedAt: time.Now()}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	record := func(apply func(), err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
			return
		}
		apply()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		s, err := f.FetchJSONSample(ctx)
		record(func() { snap.JSON = s }, err)
	}()
	go func() {
		defer wg.Done()
		s, err := f.FetchXMLSample(ctx)
		record(func() { snap.XML = s }, err)
	}()
	go func() {
		defer wg.Done()
		s, err := f.FetchCSVSample(ctx)
		record(func() { snap.CSV = s }, err)
	}()
	wg.Wait()

	for _, err := range errs {
		logging.Error("Dataset fetch failed", "error", err, "kind", string(KindOf(err)))
	}
	if len(errs) == 3 {
		return nil, fmt.Errorf("all dataset fetches failed: %v", errs)
	}

	return snap, nil
}

func observeFetch(format entities.Format, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
	}
	metrics.DatasetFetchTotal.WithLabelValues(format.String(), outcome).Inc()
	metrics.DatasetFetchDuration.WithLabelValues(format.String()).Observe(time.Since(start).Seconds())
}
