// Package handlers provides HTTP request handlers for the dataset sampler
// API endpoints. It implements the HTTPHandler interface with dependency
// injection.
package handlers

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/evdata/evdata-api/datafetcher/entities"
	"github.com/evdata/evdata-api/interfaces"
	"github.com/evdata/evdata-api/logging"
	"github.com/go-chi/chi/v5"
)

// Minimum response size to consider compression (1KB)
const compressionThreshold = 1024

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore interfaces.DataStore
	validator interfaces.SampleValidator
	health    interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.SampleValidator, health interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		dataStore: dataStore,
		validator: validator,
		health:    health,
	}
}

// ServeHTTP implements the http.Handler interface; routing is handled by chi
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Not implemented", http.StatusNotImplemented)
}

// RespondWithJSON writes a JSON response, gzip-compressed when the payload
// is large enough and the client accepts it.
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err, "payload_type", fmt.Sprintf("%T", payload))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))

	shouldCompress := len(data) >= compressionThreshold &&
		strings.Contains(strings.ToLower(r.Header.Get("Accept-Encoding")), "gzip")

	if shouldCompress {
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(code)
		gz := gzip.NewWriter(w)
		defer func() {
			if err := gz.Close(); err != nil {
				logging.Warn("Failed to close gzip writer", "error", err)
			}
		}()
		if _, err := gz.Write(data); err != nil {
			logging.Error("Failed to write compressed response", "error", err)
		}
		return
	}

	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Error("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, r *http.Request, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, r, code, errorResponse)
}

// samplesResponse is the payload of GET /samples
type samplesResponse struct {
	JSON        *entities.JSONSnapshot `json:"json"`
	XML         *entities.XMLSnapshot  `json:"xml"`
	CSV         *entities.CSVSnapshot  `json:"csv"`
	LastUpdated time.Time              `json:"last_updated"`
	Updating    bool                   `json:"updating"`
}

// ServeSamples serves the latest snapshot of every format
func (h *HTTPHandlerImpl) ServeSamples(w http.ResponseWriter, r *http.Request) {
	resp := samplesResponse{
		JSON:        h.dataStore.GetJSONSnapshot(),
		XML:         h.dataStore.GetXMLSnapshot(),
		CSV:         h.dataStore.GetCSVSnapshot(),
		LastUpdated: h.dataStore.GetLastUpdated(),
		Updating:    h.dataStore.IsUpdating(),
	}

	if resp.JSON == nil && resp.XML == nil && resp.CSV == nil {
		h.RespondWithError(w, r, http.StatusServiceUnavailable, "No samples available yet, try again shortly")
		return
	}

	h.RespondWithJSON(w, r, http.StatusOK, resp)
}

// ServeSampleByFormat serves the latest snapshot of one format
func (h *HTTPHandlerImpl) ServeSampleByFormat(w http.ResponseWriter, r *http.Request) {
	format, err := h.validator.ValidateFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var snapshot any
	switch format {
	case entities.FormatJSON:
		if s := h.dataStore.GetJSONSnapshot(); s != nil {
			snapshot = s
		}
	case entities.FormatXML:
		if s := h.dataStore.GetXMLSnapshot(); s != nil {
			snapshot = s
		}
	case entities.FormatCSV:
		if s := h.dataStore.GetCSVSnapshot(); s != nil {
			snapshot = s
		}
	}

	if snapshot == nil {
		h.RespondWithError(w, r, http.StatusNotFound,
			fmt.Sprintf("No %s sample available yet", format))
		return
	}

	h.RespondWithJSON(w, r, http.StatusOK, snapshot)
}

// ServeCSVStats serves the descriptive statistics of the first numeric CSV
// column
func (h *HTTPHandlerImpl) ServeCSVStats(w http.ResponseWriter, r *http.Request) {
	snapshot := h.dataStore.GetCSVSnapshot()
	if snapshot == nil {
		h.RespondWithError(w, r, http.StatusNotFound, "No csv sample available yet")
		return
	}
	if snapshot.Stats == nil {
		h.RespondWithError(w, r, http.StatusNotFound, "The loaded frame has no numeric column")
		return
	}

	h.RespondWithJSON(w, r, http.StatusOK, snapshot.Stats)
}

// ServeJSONDocument exports the full decoded JSON document
func (h *HTTPHandlerImpl) ServeJSONDocument(w http.ResponseWriter, r *http.Request) {
	snapshot := h.dataStore.GetJSONSnapshot()
	if snapshot == nil || snapshot.Document == nil {
		h.RespondWithError(w, r, http.StatusNotFound, "No json document available yet")
		return
	}

	h.RespondWithJSON(w, r, http.StatusOK, snapshot.Document)
}

// HealthCheck reports service health: which formats are populated, data age
// and basic process statistics
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, err := h.health.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := map[string]any{
		"status":          status,
		"details":         details,
		"uptime_seconds":  time.Since(h.dataStore.GetServerStartTime()).Seconds(),
		"memory_usage_mb": int(m.Alloc / 1024 / 1024),
		"next_update":     h.health.CalculateNextUpdate().Format(time.RFC3339),
		"updating":        h.dataStore.IsUpdating(),
	}

	code := http.StatusOK
	if err != nil {
		code = http.StatusServiceUnavailable
		response["error"] = err.Error()
	}

	h.RespondWithJSON(w, r, code, response)
}
