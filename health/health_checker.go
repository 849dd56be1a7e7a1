// Package health computes the service health status from the snapshot store:
// which formats are populated and how stale the data is.
package health

import (
	"fmt"
	"time"

	"github.com/evdata/evdata-api/datafetcher/entities"
	"github.com/evdata/evdata-api/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore       interfaces.DataStore
	refreshInterval time.Duration
}

// NewHealthChecker creates a health checker reading from dataStore.
func NewHealthChecker(dataStore interfaces.DataStore, refreshInterval time.Duration) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		dataStore:       dataStore,
		refreshInterval: refreshInterval,
	}
}

// HealthCheck returns the current health status:
//   - healthy: all three formats populated and data fresh
//   - degraded: some formats missing, or data older than twice the refresh
//     interval
//   - unhealthy (with error): no format populated at all
func (h *HealthCheckerImpl) HealthCheck() (string, map[string]any, error) {
	var present, missing []string
	for _, format := range entities.Formats {
		if h.hasSnapshot(format) {
			present = append(present, format.String())
		} else {
			missing = append(missing, format.String())
		}
	}

	lastUpdated := h.dataStore.GetLastUpdated()
	age := time.Since(lastUpdated)

	details := map[string]any{
		"formats_present": present,
		"formats_missing": missing,
		"last_updated":    lastUpdated.Format(time.RFC3339),
	}
	if !lastUpdated.IsZero() {
		details["data_age_hours"] = age.Hours()
	}

	if len(present) == 0 {
		return "unhealthy", details, fmt.Errorf("no dataset snapshot available")
	}

	if len(missing) > 0 {
		return "degraded", details, nil
	}

	if !lastUpdated.IsZero() && age > 2*h.refreshInterval {
		details["stale"] = true
		return "degraded", details, nil
	}

	return "healthy", details, nil
}

// CalculateNextUpdate returns the next scheduled refresh time.
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	lastUpdated := h.dataStore.GetLastUpdated()
	if lastUpdated.IsZero() {
		return time.Now()
	}
	return lastUpdated.Add(h.refreshInterval)
}

func (h *HealthCheckerImpl) hasSnapshot(format entities.Format) bool {
	switch format {
	case entities.FormatJSON:
		return h.dataStore.GetJSONSnapshot() != nil
	case entities.FormatXML:
		return h.dataStore.GetXMLSnapshot() != nil
	case entities.FormatCSV:
		return h.dataStore.GetCSVSnapshot() != nil
	}
	return false
}
