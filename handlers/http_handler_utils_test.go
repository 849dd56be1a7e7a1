package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/evdata/evdata-api/datafetcher/entities"
	"github.com/evdata/evdata-api/interfaces"
)

// ============================================================================
// TEST DATA FACTORY
// ============================================================================

// TestDataFactory creates consistent test data across all tests
type TestDataFactory struct{}

func NewTestDataFactory() *TestDataFactory {
	return &TestDataFactory{}
}

// CreateSampleRecord creates a record with n positional fields
func (f *TestDataFactory) CreateSampleRecord(n int) entities.SampleRecord {
	rec := entities.SampleRecord{}
	for i := 0; i < n; i++ {
		rec.Fields = append(rec.Fields, entities.Field{
			Name:  strconv.Itoa(i),
			Value: fmt.Sprintf("value-%d", i),
		})
	}
	return rec
}

// CreateJSONSnapshot creates a realistic JSON snapshot with the given record
// count
func (f *TestDataFactory) CreateJSONSnapshot(records int) *entities.JSONSnapshot {
	snap := &entities.JSONSnapshot{
		Endpoint:     "https://data.example.test/rows.json",
		TotalRecords: records,
		ByteCount:    4096,
		FetchedAt:    time.Now(),
		Document:     map[string]any{"data": []any{}},
	}
	sampled := records
	if sampled > 3 {
		sampled = 3
	}
	for i := 0; i < sampled; i++ {
		snap.Records = append(snap.Records, f.CreateSampleRecord(5))
	}
	return snap
}

// CreateXMLSnapshot creates a realistic XML snapshot with the given row count
func (f *TestDataFactory) CreateXMLSnapshot(rows int) *entities.XMLSnapshot {
	snap := &entities.XMLSnapshot{
		Endpoint:  "https://data.example.test/rows.xml",
		TotalRows: rows,
		ByteCount: 8192,
		FetchedAt: time.Now(),
	}
	sampled := rows
	if sampled > 3 {
		sampled = 3
	}
	for i := 0; i < sampled; i++ {
		snap.Records = append(snap.Records, entities.SampleRecord{
			Fields: []entities.Field{
				{Name: "make", Value: "TESLA"},
				{Name: "model", Value: "Model 3"},
				{Name: "model_year", Value: strconv.Itoa(2018 + i)},
			},
		})
	}
	return snap
}

// CreateCSVSnapshot creates a realistic CSV snapshot backed by a real frame
func (f *TestDataFactory) CreateCSVSnapshot(rows int) *entities.CSVSnapshot {
	makes := make([]string, rows)
	years := make([]int, rows)
	for i := 0; i < rows; i++ {
		makes[i] = "TESLA"
		years[i] = 2018 + i
	}
	frame := dataframe.New(
		series.New(makes, series.String, "make"),
		series.New(years, series.Int, "model_year"),
	)

	snap := &entities.CSVSnapshot{
		Endpoint:    "https://data.example.test/rows.csv",
		Rows:        rows,
		Columns:     2,
		ColumnNames: []string{"make", "model_year"},
		ByteCount:   2048,
		FetchedAt:   time.Now(),
		Frame:       frame,
		Stats: &entities.ColumnStats{
			Column: "model_year",
			Count:  rows,
			Mean:   2019,
			Min:    2018,
			Max:    float64(2018 + rows - 1),
		},
	}
	sampled := rows
	if sampled > 3 {
		sampled = 3
	}
	for i := 0; i < sampled; i++ {
		snap.Head = append(snap.Head, entities.SampleRecord{
			Fields: []entities.Field{
				{Name: "make", Value: makes[i]},
				{Name: "model_year", Value: strconv.Itoa(years[i])},
			},
		})
	}
	return snap
}

// ============================================================================
// MOCK BUILDERS
// ============================================================================

// MockDataStoreBuilder provides fluent interface for building mock data stores
type MockDataStoreBuilder struct {
	mock *MockDataStore
}

func NewMockDataStoreBuilder() *MockDataStoreBuilder {
	return &MockDataStoreBuilder{
		mock: &MockDataStore{
			lastUpdated: time.Now(),
			updating:    false,
			startTime:   time.Now().Add(-time.Hour),
		},
	}
}

func (b *MockDataStoreBuilder) WithJSON(snap *entities.JSONSnapshot) *MockDataStoreBuilder {
	b.mock.jsonSnapshot = snap
	return b
}

func (b *MockDataStoreBuilder) WithXML(snap *entities.XMLSnapshot) *MockDataStoreBuilder {
	b.mock.xmlSnapshot = snap
	return b
}

func (b *MockDataStoreBuilder) WithCSV(snap *entities.CSVSnapshot) *MockDataStoreBuilder {
	b.mock.csvSnapshot = snap
	return b
}

func (b *MockDataStoreBuilder) WithUpdating(updating bool) *MockDataStoreBuilder {
	b.mock.updating = updating
	return b
}

func (b *MockDataStoreBuilder) WithLastUpdated(lastUpdated time.Time) *MockDataStoreBuilder {
	b.mock.lastUpdated = lastUpdated
	return b
}

func (b *MockDataStoreBuilder) Build() *MockDataStore {
	return b.mock
}

// MockHealthCheckerBuilder provides fluent interface for building mock health
// checkers
type MockHealthCheckerBuilder struct {
	mock *MockHealthChecker
}

func NewMockHealthCheckerBuilder() *MockHealthCheckerBuilder {
	return &MockHealthCheckerBuilder{
		mock: &MockHealthChecker{
			status:     "healthy",
			details:    map[string]any{"formats_present": []string{"json", "xml", "csv"}},
			nextUpdate: time.Now().Add(12 * time.Hour),
		},
	}
}

func (b *MockHealthCheckerBuilder) WithStatus(status string) *MockHealthCheckerBuilder {
	b.mock.status = status
	return b
}

func (b *MockHealthCheckerBuilder) WithError(err error) *MockHealthCheckerBuilder {
	b.mock.err = err
	return b
}

func (b *MockHealthCheckerBuilder) Build() *MockHealthChecker {
	return b.mock
}

// ============================================================================
// HTTP TEST UTILITIES
// ============================================================================

// HTTPTestHelper provides utilities for HTTP handler testing
type HTTPTestHelper struct {
	t *testing.T
}

func NewHTTPTestHelper(t *testing.T) *HTTPTestHelper {
	return &HTTPTestHelper{t: t}
}

// ExecuteRequest executes an HTTP handler with given parameters
func (h *HTTPTestHelper) ExecuteRequest(handler http.HandlerFunc, method, path string, urlParams map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)

	if len(urlParams) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range urlParams {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// AssertJSONResponse asserts that response contains valid JSON with expected status
func (h *HTTPTestHelper) AssertJSONResponse(resp *httptest.ResponseRecorder, expectedStatus int, target any) {
	if resp.Code != expectedStatus {
		h.t.Errorf("Expected status %d, got %d", expectedStatus, resp.Code)
	}

	if ct := resp.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		h.t.Errorf("Expected JSON content type, got %q", ct)
	}

	bodyStr := resp.Body.String()
	if bodyStr == "" {
		h.t.Error("Response body should not be empty")
	}

	err := json.Unmarshal([]byte(bodyStr), target)
	if err != nil {
		h.t.Errorf("Response should be valid JSON, got error: %v", err)
	}
}

// AssertErrorResponse asserts that response contains an error with expected status
func (h *HTTPTestHelper) AssertErrorResponse(resp *httptest.ResponseRecorder, expectedStatus int) {
	if resp.Code != expectedStatus {
		h.t.Errorf("Expected status %d, got %d", expectedStatus, resp.Code)
	}

	var errorResp map[string]any
	err := json.Unmarshal(resp.Body.Bytes(), &errorResp)
	if err != nil {
		h.t.Errorf("Error response should be valid JSON, got error: %v", err)
	}

	if _, ok := errorResp["message"]; !ok {
		h.t.Error("Error response should have message field")
	}
	if _, ok := errorResp["code"]; !ok {
		h.t.Error("Error response should have code field")
	}
}

// ============================================================================
// MOCK IMPLEMENTATIONS
// ============================================================================

// MockDataStore implements interfaces.DataStore for testing
type MockDataStore struct {
	jsonSnapshot *entities.JSONSnapshot
	xmlSnapshot  *entities.XMLSnapshot
	csvSnapshot  *entities.CSVSnapshot
	lastUpdated  time.Time
	updating     bool
	startTime    time.Time

	// Method call tracking
	updateSnapshotCalled bool
	beginUpdateCalled    bool
	endUpdateCalled      bool
}

func (m *MockDataStore) GetJSONSnapshot() *entities.JSONSnapshot {
	return m.jsonSnapshot
}

func (m *MockDataStore) GetXMLSnapshot() *entities.XMLSnapshot {
	return m.xmlSnapshot
}

func (m *MockDataStore) GetCSVSnapshot() *entities.CSVSnapshot {
	return m.csvSnapshot
}

func (m *MockDataStore) GetLastUpdated() time.Time {
	return m.lastUpdated
}

func (m *MockDataStore) IsUpdating() bool {
	return m.updating
}

func (m *MockDataStore) GetServerStartTime() time.Time {
	return m.startTime
}

func (m *MockDataStore) UpdateSnapshot(snapshot *entities.DatasetSnapshot) {
	m.updateSnapshotCalled = true
	if snapshot == nil {
		return
	}
	if snapshot.JSON != nil {
		m.jsonSnapshot = snapshot.JSON
	}
	if snapshot.XML != nil {
		m.xmlSnapshot = snapshot.XML
	}
	if snapshot.CSV != nil {
		m.csvSnapshot = snapshot.CSV
	}
	m.lastUpdated = time.Now()
}

func (m *MockDataStore) BeginUpdate() bool {
	m.beginUpdateCalled = true
	m.updating = true
	return true
}

func (m *MockDataStore) EndUpdate() {
	m.endUpdateCalled = true
	m.updating = false
}

// MockHealthChecker implements interfaces.HealthChecker for testing
type MockHealthChecker struct {
	status     string
	details    map[string]any
	err        error
	nextUpdate time.Time
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, error) {
	return m.status, m.details, m.err
}

func (m *MockHealthChecker) CalculateNextUpdate() time.Time {
	return m.nextUpdate
}

// Compile-time interface checks for the mocks
var (
	_ interfaces.DataStore     = (*MockDataStore)(nil)
	_ interfaces.HealthChecker = (*MockHealthChecker)(nil)
)
