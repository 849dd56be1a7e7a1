// Package data provides thread-safe storage for the latest dataset
// snapshots. The SnapshotContainer uses atomic values so readers never see a
// partially written update.
package data

import (
	"sync/atomic"
	"time"

	"github.com/evdata/evdata-api/datafetcher/entities"
	"github.com/evdata/evdata-api/interfaces"
	"github.com/evdata/evdata-api/logging"
)

// Compile-time check to ensure SnapshotContainer implements DataStore
var _ interfaces.DataStore = (*SnapshotContainer)(nil)

// SnapshotContainer holds the latest per-format snapshots with atomic
// pointers for zero-downtime updates. A format whose fetch failed keeps its
// previous snapshot.
type SnapshotContainer struct {
	jsonSnapshot    atomic.Value // *entities.JSONSnapshot
	xmlSnapshot     atomic.Value // *entities.XMLSnapshot
	csvSnapshot     atomic.Value // *entities.CSVSnapshot
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewSnapshotContainer creates an empty container.
func NewSnapshotContainer() *SnapshotContainer {
	sc := &SnapshotContainer{}
	sc.jsonSnapshot.Store((*entities.JSONSnapshot)(nil))
	sc.xmlSnapshot.Store((*entities.XMLSnapshot)(nil))
	sc.csvSnapshot.Store((*entities.CSVSnapshot)(nil))
	sc.lastUpdated.Store(time.Time{})
	sc.serverStartTime.Store(time.Now())
	return sc
}

// Thread-safe getters with type check

// GetJSONSnapshot returns the latest JSON snapshot, nil when none exists.
func (sc *SnapshotContainer) GetJSONSnapshot() *entities.JSONSnapshot {
	if v := sc.jsonSnapshot.Load(); v != nil {
		if snap, ok := v.(*entities.JSONSnapshot); ok {
			return snap
		}
		logging.Warn("JSON snapshot has unexpected type")
	}
	return nil
}

// GetXMLSnapshot returns the latest XML snapshot, nil when none exists.
func (sc *SnapshotContainer) GetXMLSnapshot() *entities.XMLSnapshot {
	if v := sc.xmlSnapshot.Load(); v != nil {
		if snap, ok := v.(*entities.XMLSnapshot); ok {
			return snap
		}
		logging.Warn("XML snapshot has unexpected type")
	}
	return nil
}

// GetCSVSnapshot returns the latest CSV snapshot, nil when none exists.
func (sc *SnapshotContainer) GetCSVSnapshot() *entities.CSVSnapshot {
	if v := sc.csvSnapshot.Load(); v != nil {
		if snap, ok := v.(*entities.CSVSnapshot); ok {
			return snap
		}
		logging.Warn("CSV snapshot has unexpected type")
	}
	return nil
}

// GetLastUpdated returns the time of the last completed update.
func (sc *SnapshotContainer) GetLastUpdated() time.Time {
	if v := sc.lastUpdated.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
		logging.Warn("Could not get the last updated value")
	}
	return time.Time{}
}

// IsUpdating reports whether an update is in progress.
func (sc *SnapshotContainer) IsUpdating() bool {
	return sc.updating.Load()
}

// GetServerStartTime returns the container creation time.
func (sc *SnapshotContainer) GetServerStartTime() time.Time {
	if v := sc.serverStartTime.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

// UpdateSnapshot stores the non-nil formats of snapshot atomically. Formats
// whose fetch failed (nil) keep their previous value so a partial failure
// never erases good data.
func (sc *SnapshotContainer) UpdateSnapshot(snapshot *entities.DatasetSnapshot) {
	if snapshot == nil {
		logging.Warn("Ignoring nil dataset snapshot")
		return
	}
	if snapshot.JSON != nil {
		sc.jsonSnapshot.Store(snapshot.JSON)
	}
	if snapshot.XML != nil {
		sc.xmlSnapshot.Store(snapshot.XML)
	}
	if snapshot.CSV != nil {
		sc.csvSnapshot.Store(snapshot.CSV)
	}
	sc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks an update as started. It returns false when another
// update is already in progress.
func (sc *SnapshotContainer) BeginUpdate() bool {
	return sc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the current update as finished.
func (sc *SnapshotContainer) EndUpdate() {
	sc.updating.Store(false)
}
