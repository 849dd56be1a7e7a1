package datafetcher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/evdata/evdata-api/datafetcher/entities"
	"github.com/evdata/evdata-api/logging"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// fetchCSV downloads the rows.csv export, persists it to a temporary file
// and loads it into a tabular frame with auto-detected column types. The
// temporary file is removed after loading regardless of the outcome.
func (f *DatasetFetcher) fetchCSV(ctx context.Context) (*entities.CSVSnapshot, error) {
	body, err := f.downloader.fetch(ctx, entities.FormatCSV, f.endpoints.CSV)
	if err != nil {
		return nil, err
	}

	path, remove, err := f.downloader.saveTemp(entities.FormatCSV, "electric_vehicle_data-*.csv", body)
	if err != nil {
		return nil, err
	}
	defer remove()

	file, err := os.Open(path)
	if err != nil {
		return nil, newError(KindFilesystem, entities.FormatCSV, fmt.Errorf("opening temporary file %s: %w", path, err))
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("Failed to close temporary file", "path", path, "error", err)
		}
	}()

	df := dataframe.ReadCSV(file)
	if df.Err != nil {
		return nil, newError(KindDecode, entities.FormatCSV, fmt.Errorf("loading CSV frame: %w", df.Err))
	}

	rows, cols := df.Dims()
	names := df.Names()

	snap := &entities.CSVSnapshot{
		Endpoint:    f.endpoints.CSV,
		Rows:        rows,
		Columns:     cols,
		ColumnNames: names[:min(MaxSampleFields, len(names))],
		MoreColumns: cols > MaxSampleFields,
		Head:        frameHead(df, MaxSampleRecords),
		ByteCount:   len(body),
		FetchedAt:   time.Now(),
		Frame:       df,
	}

	if name, ok := firstNumericColumn(df); ok {
		snap.Stats = describeColumn(df.Col(name))
	}

	return snap, nil
}

// frameHead renders the first maxRecords rows of the frame in full, one
// field per column.
func frameHead(df dataframe.DataFrame, maxRecords int) []entities.SampleRecord {
	rows, cols := df.Dims()
	names := df.Names()

	n := min(maxRecords, rows)
	records := make([]entities.SampleRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := entities.SampleRecord{Fields: make([]entities.Field, 0, cols)}
		for j := 0; j < cols; j++ {
			rec.Fields = append(rec.Fields, entities.Field{
				Name:  names[j],
				Value: df.Elem(i, j).String(),
			})
		}
		records = append(records, rec)
	}
	return records
}

// firstNumericColumn returns the name of the first column the loader typed
// as numeric, if any.
func firstNumericColumn(df dataframe.DataFrame) (string, bool) {
	names := df.Names()
	for j, t := range df.Types() {
		if t == series.Int || t == series.Float {
			return names[j], true
		}
	}
	return "", false
}

// describeColumn computes the descriptive statistics of one numeric column:
// count, mean, standard deviation, min, the three quartiles and max.
func describeColumn(s series.Series) *entities.ColumnStats {
	return &entities.ColumnStats{
		Column: s.Name,
		Count:  s.Len(),
		Mean:   s.Mean(),
		Std:    s.StdDev(),
		Min:    s.Min(),
		Q25:    s.Quantile(0.25),
		Median: s.Quantile(0.50),
		Q75:    s.Quantile(0.75),
		Max:    s.Max(),
	}
}
