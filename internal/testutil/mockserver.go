// Package testutil provides HTTP mock servers for the Jira and Azure DevOps APIs.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// RecordedRequest stores information about a request made to the mock server.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Headers  http.Header
	Body     []byte
}

// MockResponse represents a configured response for the mock server.
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Headers    map[string]string
}

// MockServer records every request and answers from configured responses,
// a route handler, or 404.
type MockServer struct {
	Server *httptest.Server
	mu     sync.RWMutex

	requests       []RecordedRequest
	responses      map[string]MockResponse // path -> response
	defaultHandler func(w http.ResponseWriter, r *http.Request, body []byte)

	// Error simulation
	authError   bool
	serverError bool

	// throttleCount requests get 429 before the server answers normally.
	throttleCount int
}

// NewMockServer creates and starts a mock server.
func NewMockServer() *MockServer {
	m := &MockServer{
		requests:  []RecordedRequest{},
		responses: make(map[string]MockResponse),
	}

	m.Server = httptest.NewServer(http.HandlerFunc(m.handleRequest))
	return m
}

func (m *MockServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
	}

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Headers:  r.Header.Clone(),
		Body:     body,
	})
	authError, serverError := m.authError, m.serverError
	throttled := false
	if m.throttleCount > 0 {
		m.throttleCount--
		throttled = true
	}
	resp, found := m.responses[r.URL.Path]
	handler := m.defaultHandler
	m.mu.Unlock()

	if authError {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	if throttled {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Rate limited"})
		return
	}

	if serverError {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	if found {
		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		writeJSON(w, status, resp.Body)
		return
	}

	if handler != nil {
		handler(w, r, body)
		return
	}

	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
}

// URL returns the mock server URL.
func (m *MockServer) URL() string {
	return m.Server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.Server.Close()
}

// SetResponse configures a response for a specific path.
func (m *MockServer) SetResponse(path string, statusCode int, body interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[path] = MockResponse{
		StatusCode: statusCode,
		Body:       body,
	}
}

// SetDefaultHandler sets a custom handler for unmatched requests.
func (m *MockServer) SetDefaultHandler(handler func(w http.ResponseWriter, r *http.Request, body []byte)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultHandler = handler
}

// SetAuthError enables/disables 401 Unauthorized responses.
func (m *MockServer) SetAuthError(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authError = enabled
}

// SetServerError enables/disables 500 Internal Server Error responses.
func (m *MockServer) SetServerError(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serverError = enabled
}

// SetThrottle makes the next n requests fail with 429 Too Many Requests.
func (m *MockServer) SetThrottle(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.throttleCount = n
}

// GetRequests returns all recorded requests.
func (m *MockServer) GetRequests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]RecordedRequest, len(m.requests))
	copy(result, m.requests)
	return result
}

// GetRequestCount returns the number of recorded requests.
func (m *MockServer) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// Reset clears all recorded requests, responses and error simulation.
func (m *MockServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = []RecordedRequest{}
	m.responses = make(map[string]MockResponse)
	m.authError = false
	m.serverError = false
	m.throttleCount = 0
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
