// Package scheduler provides automated snapshot refreshes and staleness
// monitoring for the dataset sampler. It coordinates refresh runs with the
// snapshot store using dependency injection.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/evdata/evdata-api/interfaces"
	"github.com/evdata/evdata-api/logging"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles snapshot refreshes and staleness monitoring using
// dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	fetcher   interfaces.SampleFetcher
	validator interfaces.SampleValidator
	scheduler *gocron.Scheduler
	refresh   time.Duration
	stop      chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(dataStore interfaces.DataStore, fetcher interfaces.SampleFetcher,
	validator interfaces.SampleValidator, refresh time.Duration) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		fetcher:   fetcher,
		validator: validator,
		scheduler: gocron.NewScheduler(time.Local),
		refresh:   refresh,
		stop:      make(chan struct{}),
	}
}

// Start performs the initial snapshot load, schedules periodic refreshes and
// starts the staleness monitor.
func (s *Scheduler) Start() error {
	// Initial load
	if err := s.refreshSnapshot(); err != nil {
		logging.Error("Failed to perform initial snapshot load", "error", err)
		return fmt.Errorf("initial snapshot load failed: %w", err)
	}

	_, err := s.scheduler.Every(s.refresh).Do(func() {
		if err := s.refreshSnapshot(); err != nil {
			logging.Error("Failed to refresh snapshot", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule refreshes", "error", err)
		return fmt.Errorf("failed to schedule refreshes: %w", err)
	}

	s.scheduler.StartAsync()
	s.startStalenessMonitor()

	return nil
}

// Stop stops the scheduler and the staleness monitor
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	close(s.stop)
}

// refreshSnapshot performs a complete snapshot refresh using the injected
// fetcher. Overlapping refreshes are skipped via the store's update guard.
func (s *Scheduler) refreshSnapshot() error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Refresh already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info("Starting snapshot refresh", "at", time.Now().Format(time.RFC3339))
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.refresh)
	defer cancel()

	snapshot, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch dataset: %w", err)
	}

	if err := s.validator.ValidateSnapshot(snapshot); err != nil {
		return fmt.Errorf("snapshot failed validation: %w", err)
	}

	report := s.validator.ReportSampleQuality(snapshot)
	if len(report.MissingFormats) > 0 {
		logging.Warn("Some formats could not be fetched", "missing", report.MissingFormats)
	}
	if report.UnexpectedJSONShape {
		logging.Warn("JSON document shape differs from the expected data array")
	}
	if report.MissingNumericStats {
		logging.Warn("CSV frame has no numeric column to describe")
	}

	s.dataStore.UpdateSnapshot(snapshot)

	attrs := []any{"duration", time.Since(start).String()}
	if snapshot.JSON != nil {
		attrs = append(attrs, "json_records", snapshot.JSON.TotalRecords)
	}
	if snapshot.XML != nil {
		attrs = append(attrs, "xml_rows", snapshot.XML.TotalRows)
	}
	if snapshot.CSV != nil {
		attrs = append(attrs, "csv_rows", snapshot.CSV.Rows)
	}
	logging.Info("Snapshot refresh completed", attrs...)

	return nil
}

// startStalenessMonitor warns hourly when the data is older than twice the
// refresh interval.
func (s *Scheduler) startStalenessMonitor() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				lastUpdated := s.dataStore.GetLastUpdated()
				if lastUpdated.IsZero() {
					continue
				}
				if age := time.Since(lastUpdated); age > 2*s.refresh {
					logging.Warn("Snapshot data is stale",
						"age_hours", age.Hours(),
						"refresh_interval", s.refresh.String())
				}
			}
		}
	}()
}
