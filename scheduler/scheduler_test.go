package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evdata/evdata-api/data"
	"github.com/evdata/evdata-api/datafetcher/entities"
	"github.com/evdata/evdata-api/validation"
)

// mockFetcher implements interfaces.SampleFetcher with canned results
type mockFetcher struct {
	snapshot *entities.DatasetSnapshot
	err      error
	calls    atomic.Int32
}

func (m *mockFetcher) FetchJSONSample(ctx context.Context) (*entities.JSONSnapshot, error) {
	if m.snapshot == nil {
		return nil, m.err
	}
	return m.snapshot.JSON, m.err
}

func (m *mockFetcher) FetchXMLSample(ctx context.Context) (*entities.XMLSnapshot, error) {
	if m.snapshot == nil {
		return nil, m.err
	}
	return m.snapshot.XML, m.err
}

func (m *mockFetcher) FetchCSVSample(ctx context.Context) (*entities.CSVSnapshot, error) {
	if m.snapshot == nil {
		return nil, m.err
	}
	return m.snapshot.CSV, m.err
}

func (m *mockFetcher) FetchAll(ctx context.Context) (*entities.DatasetSnapshot, error) {
	m.calls.Add(1)
	return m.snapshot, m.err
}

func validTestSnapshot() *entities.DatasetSnapshot {
	return &entities.DatasetSnapshot{
		JSON: &entities.JSONSnapshot{
			TotalRecords: 42,
			Records: []entities.SampleRecord{
				{Fields: []entities.Field{{Name: "0", Value: "row-1"}}},
			},
		},
		XML: &entities.XMLSnapshot{
			TotalRows: 42,
			Records: []entities.SampleRecord{
				{Fields: []entities.Field{{Name: "make", Value: "TESLA"}}},
			},
		},
		CSV: &entities.CSVSnapshot{
			Rows:        42,
			Columns:     2,
			ColumnNames: []string{"make", "model_year"},
			Stats:       &entities.ColumnStats{Column: "model_year", Count: 42},
		},
		FetchedAt: time.Now(),
	}
}

func TestRefreshSnapshot(t *testing.T) {
	store := data.NewSnapshotContainer()
	fetcher := &mockFetcher{snapshot: validTestSnapshot()}
	s := NewScheduler(store, fetcher, validation.NewSampleValidator(), 12*time.Hour)

	if err := s.refreshSnapshot(); err != nil {
		t.Fatalf("refreshSnapshot() unexpected error: %v", err)
	}

	if got := store.GetJSONSnapshot(); got == nil || got.TotalRecords != 42 {
		t.Errorf("Expected JSON snapshot with 42 records after refresh, got %+v", got)
	}
	if store.GetLastUpdated().IsZero() {
		t.Error("Refresh should bump last-updated")
	}
	if store.IsUpdating() {
		t.Error("Update guard should be released after the refresh")
	}
}

func TestRefreshSnapshotFetchFailure(t *testing.T) {
	store := data.NewSnapshotContainer()
	fetcher := &mockFetcher{err: errors.New("all dataset fetches failed")}
	s := NewScheduler(store, fetcher, validation.NewSampleValidator(), 12*time.Hour)

	if err := s.refreshSnapshot(); err == nil {
		t.Fatal("refreshSnapshot() expected error when the fetch fails")
	}

	if store.GetJSONSnapshot() != nil {
		t.Error("Failed refresh should not populate the store")
	}
	if store.IsUpdating() {
		t.Error("Update guard should be released after a failed refresh")
	}
}

func TestRefreshSnapshotValidationFailure(t *testing.T) {
	bad := validTestSnapshot()
	bad.JSON.TotalRecords = -1

	store := data.NewSnapshotContainer()
	fetcher := &mockFetcher{snapshot: bad}
	s := NewScheduler(store, fetcher, validation.NewSampleValidator(), 12*time.Hour)

	if err := s.refreshSnapshot(); err == nil {
		t.Fatal("refreshSnapshot() expected error for an invalid snapshot")
	}

	if store.GetJSONSnapshot() != nil {
		t.Error("Invalid snapshot should not reach the store")
	}
}

func TestRefreshSnapshotSkipsWhenUpdateInProgress(t *testing.T) {
	store := data.NewSnapshotContainer()
	fetcher := &mockFetcher{snapshot: validTestSnapshot()}
	s := NewScheduler(store, fetcher, validation.NewSampleValidator(), 12*time.Hour)

	if !store.BeginUpdate() {
		t.Fatal("Could not acquire the update guard for the test")
	}
	defer store.EndUpdate()

	if err := s.refreshSnapshot(); err != nil {
		t.Fatalf("Skipped refresh should not error, got %v", err)
	}
	if fetcher.calls.Load() != 0 {
		t.Error("Fetcher should not be called while another update is in progress")
	}
}

func TestSchedulerStartAndStop(t *testing.T) {
	store := data.NewSnapshotContainer()
	fetcher := &mockFetcher{snapshot: validTestSnapshot()}
	s := NewScheduler(store, fetcher, validation.NewSampleValidator(), time.Hour)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	defer s.Stop()

	if fetcher.calls.Load() == 0 {
		t.Error("Start should perform the initial load")
	}
	if store.GetCSVSnapshot() == nil {
		t.Error("Initial load should populate the store")
	}
}

func TestSchedulerStartFailsOnInitialLoad(t *testing.T) {
	store := data.NewSnapshotContainer()
	fetcher := &mockFetcher{err: errors.New("network unreachable")}
	s := NewScheduler(store, fetcher, validation.NewSampleValidator(), time.Hour)

	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Start() should fail when the initial load fails")
	}
}
