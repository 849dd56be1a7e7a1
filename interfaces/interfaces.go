// Package interfaces defines core abstractions for the dataset sampler
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/evdata/evdata-api/datafetcher/entities"
)

// SampleQualityReport summarizes quality issues found in a dataset snapshot.
type SampleQualityReport struct {
	MissingFormats      []entities.Format // formats whose last fetch failed
	UnexpectedJSONShape bool              // JSON body decoded but not the Socrata shape
	EmptyJSONSample     bool
	EmptyXMLSample      bool
	EmptyCSVHead        bool
	MissingNumericStats bool // CSV loaded but no numeric column found
}

// DataStore defines the contract for snapshot storage. It provides
// thread-safe access to the latest per-format snapshots with atomic
// operations for zero-downtime updates.
type DataStore interface {
	// Snapshot retrieval, nil means no successful fetch yet
	GetJSONSnapshot() *entities.JSONSnapshot
	GetXMLSnapshot() *entities.XMLSnapshot
	GetCSVSnapshot() *entities.CSVSnapshot
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Snapshot update methods
	UpdateSnapshot(snapshot *entities.DatasetSnapshot)
	BeginUpdate() bool
	EndUpdate()
}

// SampleFetcher defines the contract for fetching and sampling the dataset
// exports. Implementations must honor context cancellation on every fetch.
type SampleFetcher interface {
	FetchJSONSample(ctx context.Context) (*entities.JSONSnapshot, error)
	FetchXMLSample(ctx context.Context) (*entities.XMLSnapshot, error)
	FetchCSVSample(ctx context.Context) (*entities.CSVSnapshot, error)

	// FetchAll fetches all three formats; a failed format yields a nil
	// snapshot, an error is returned only when every format fails.
	FetchAll(ctx context.Context) (*entities.DatasetSnapshot, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated snapshot refreshes and staleness checks.
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	ServeSamples(w http.ResponseWriter, r *http.Request)
	ServeSampleByFormat(w http.ResponseWriter, r *http.Request)
	ServeCSVStats(w http.ResponseWriter, r *http.Request)
	ServeJSONDocument(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, err error)

	// CalculateNextUpdate returns the next scheduled refresh time
	CalculateNextUpdate() time.Time
}

// SampleValidator defines the contract for validation operations.
type SampleValidator interface {
	// ValidateFormat validates a user-supplied format name
	ValidateFormat(input string) (entities.Format, error)

	// ValidateSnapshot checks the structural invariants of a snapshot:
	// sampling caps respected, counts non-negative, names consistent
	ValidateSnapshot(snapshot *entities.DatasetSnapshot) error

	// ReportSampleQuality generates a quality report for a snapshot
	ReportSampleQuality(snapshot *entities.DatasetSnapshot) *SampleQualityReport
}
