// Package testutil provides testing utilities for the movie catalog client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/movie-search/pkg/catalog"
)

// MockCatalogResponse defines a canned response for one search page.
type MockCatalogResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// SearchRequest records one search call received by the mock.
type SearchRequest struct {
	Query        string
	Page         int
	IncludeAdult string
	Language     string
}

// MockCatalog is a configurable mock catalog server for testing.
// Unless overridden, every query has one page of results.
type MockCatalog struct {
	server *httptest.Server
	mu     sync.RWMutex

	totalPages map[string]int
	overrides  map[string]MockCatalogResponse

	// Tracking
	RequestCount      int
	Requests          []SearchRequest
	LastRequestHeader http.Header
}

// NewMockCatalog creates a new mock catalog server.
func NewMockCatalog() *MockCatalog {
	mock := &MockCatalog{
		totalPages: make(map[string]int),
		overrides:  make(map[string]MockCatalogResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))

	return mock
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.Requests = nil
	m.LastRequestHeader = nil
}

// SetTotalPages configures how many pages query has.
func (m *MockCatalog) SetTotalPages(query string, totalPages int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalPages[query] = totalPages
}

// SetResponse overrides the response for one query and page.
func (m *MockCatalog) SetResponse(query string, page int, resp MockCatalogResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[overrideKey(query, page)] = resp
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCatalog) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetRequests returns a copy of the recorded search requests.
func (m *MockCatalog) GetRequests() []SearchRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SearchRequest, len(m.Requests))
	copy(out, m.Requests)
	return out
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockCatalog) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

func (m *MockCatalog) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	req := SearchRequest{
		Query:        q.Get("query"),
		Page:         page,
		IncludeAdult: q.Get("include_adult"),
		Language:     q.Get("language"),
	}

	m.mu.Lock()
	m.RequestCount++
	m.Requests = append(m.Requests, req)
	m.LastRequestHeader = r.Header.Clone()
	override, hasOverride := m.overrides[overrideKey(req.Query, req.Page)]
	total, hasTotal := m.totalPages[req.Query]
	m.mu.Unlock()

	if r.URL.Path != "/3/search/movie" {
		http.NotFound(w, r)
		return
	}

	if hasOverride {
		if override.Delay > 0 {
			time.Sleep(override.Delay)
		}
		w.Header().Set("Content-Type", "application/json;charset=utf-8")
		w.WriteHeader(override.StatusCode)
		if override.Body != "" {
			w.Write([]byte(override.Body))
		}
		return
	}

	if !hasTotal {
		total = 1
	}

	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(NewPage(req.Query, page, total, 2))
}

// NewPage builds a deterministic page with perPage movies.
func NewPage(query string, page, totalPages, perPage int) catalog.Page {
	results := make([]catalog.MovieSummary, 0, perPage)
	for i := 0; i < perPage; i++ {
		id := int64(page*1000 + i)
		poster := fmt.Sprintf("/poster-%d.jpg", id)
		released := catalog.NewDate(2000+i, time.January, 1+page%28)
		results = append(results, catalog.MovieSummary{
			ID:          id,
			Title:       fmt.Sprintf("%s %d-%d", query, page, i),
			Overview:    "Overview of " + query,
			PosterPath:  &poster,
			Popularity:  float64(10 * (i + 1)),
			ReleaseDate: &released,
		})
	}
	return catalog.Page{
		Number:       page,
		TotalPages:   totalPages,
		TotalResults: totalPages * perPage,
		Results:      results,
	}
}

// NewErrorResponse creates a canned non-success response.
func NewErrorResponse(status int) MockCatalogResponse {
	return MockCatalogResponse{
		StatusCode: status,
		Body:       fmt.Sprintf(`{"status_message":"%s","success":false}`, http.StatusText(status)),
	}
}

func overrideKey(query string, page int) string {
	return query + "#" + strconv.Itoa(page)
}
