package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/evdata/evdata-api/datafetcher/entities"
	"github.com/evdata/evdata-api/interfaces"
)

// runOnce executes the three fetchers in sequence and writes a line-oriented
// report of each sample. A failed fetcher reports its error and yields
// nothing; the remaining fetchers still run.
func runOnce(ctx context.Context, w io.Writer, fetcher interfaces.SampleFetcher) {
	fmt.Fprintln(w, "Accessing one public dataset in three formats")
	fmt.Fprintln(w, strings.Repeat("=", 80))

	banner(w, "1. JSON DATA VIA API")
	if snap, err := fetcher.FetchJSONSample(ctx); err != nil {
		fmt.Fprintf(w, "Error accessing JSON API: %v\n", err)
	} else {
		writeJSONReport(w, snap)
	}

	banner(w, "2. XML DATA VIA DOWNLOAD")
	if snap, err := fetcher.FetchXMLSample(ctx); err != nil {
		fmt.Fprintf(w, "Error downloading and reading XML: %v\n", err)
	} else {
		writeXMLReport(w, snap)
	}

	banner(w, "3. CSV DATA VIA TABULAR FRAME")
	if snap, err := fetcher.FetchCSVSample(ctx); err != nil {
		fmt.Fprintf(w, "Error accessing CSV: %v\n", err)
	} else {
		writeCSVReport(w, snap)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "All data access methods completed.")
}

func banner(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", 80))
}

func writeJSONReport(w io.Writer, snap *entities.JSONSnapshot) {
	fmt.Fprintf(w, "Accessed JSON data from API: %s (%d bytes)\n", snap.Endpoint, snap.ByteCount)

	if snap.Preview != "" {
		fmt.Fprintln(w, "JSON data structure is different than expected. Sample output:")
		fmt.Fprintln(w, snap.Preview)
		return
	}

	fmt.Fprintf(w, "Total records: %d\n", snap.TotalRecords)
	for i, rec := range snap.Records {
		fmt.Fprintf(w, "\nRecord #%d:\n", i+1)
		for _, f := range rec.Fields {
			fmt.Fprintf(w, "  Field %s: %s\n", f.Name, f.Value)
		}
	}
}

func writeXMLReport(w io.Writer, snap *entities.XMLSnapshot) {
	fmt.Fprintf(w, "Downloaded XML file from: %s (%d bytes)\n", snap.Endpoint, snap.ByteCount)
	fmt.Fprintf(w, "Found %d records in XML file\n", snap.TotalRows)

	for i, rec := range snap.Records {
		fmt.Fprintf(w, "\nRecord #%d:\n", i+1)
		for _, f := range rec.Fields {
			fmt.Fprintf(w, "  %s: %s\n", f.Name, f.Value)
		}
	}
}

func writeCSVReport(w io.Writer, snap *entities.CSVSnapshot) {
	fmt.Fprintf(w, "Downloaded CSV file from: %s (%d bytes)\n", snap.Endpoint, snap.ByteCount)
	fmt.Fprintf(w, "Data dimensions: (%d, %d) (rows, columns)\n", snap.Rows, snap.Columns)

	columns := strings.Join(snap.ColumnNames, ", ")
	if snap.MoreColumns {
		columns += "..."
	}
	fmt.Fprintf(w, "Columns: %s\n", columns)

	fmt.Fprintf(w, "\nFirst %d records:\n", len(snap.Head))
	for i, rec := range snap.Head {
		fmt.Fprintf(w, "\nRecord #%d:\n", i+1)
		for _, f := range rec.Fields {
			fmt.Fprintf(w, "  %s: %s\n", f.Name, f.Value)
		}
	}

	if snap.Stats == nil {
		fmt.Fprintln(w, "\nNo numeric column to describe.")
		return
	}

	s := snap.Stats
	fmt.Fprintf(w, "\nBasic statistics (column %q):\n", s.Column)
	fmt.Fprintf(w, "  count  %d\n", s.Count)
	fmt.Fprintf(w, "  mean   %g\n", s.Mean)
	fmt.Fprintf(w, "  std    %g\n", s.Std)
	fmt.Fprintf(w, "  min    %g\n", s.Min)
	fmt.Fprintf(w, "  25%%    %g\n", s.Q25)
	fmt.Fprintf(w, "  50%%    %g\n", s.Median)
	fmt.Fprintf(w, "  75%%    %g\n", s.Q75)
	fmt.Fprintf(w, "  max    %g\n", s.Max)
}
