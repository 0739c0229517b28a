package testutil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/steveyegge/jira2ado/internal/jira"
)

// JiraMockServer serves /rest/api/2/search from an in-memory issue list,
// honouring startAt and maxResults.
type JiraMockServer struct {
	*MockServer
	issues []jira.Issue
}

// NewJiraMockServer creates a new Jira mock server.
func NewJiraMockServer() *JiraMockServer {
	m := &JiraMockServer{
		MockServer: NewMockServer(),
		issues:     []jira.Issue{},
	}
	m.SetDefaultHandler(m.handleJiraRequest)
	return m
}

// SetIssues replaces the issues served by search.
func (m *JiraMockServer) SetIssues(issues []jira.Issue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues = issues
}

// SearchRequests returns the recorded search requests in order.
func (m *JiraMockServer) SearchRequests() []RecordedRequest {
	var out []RecordedRequest
	for _, r := range m.GetRequests() {
		if r.Path == "/rest/api/2/search" {
			out = append(out, r)
		}
	}
	return out
}

func (m *JiraMockServer) handleJiraRequest(w http.ResponseWriter, r *http.Request, _ []byte) {
	if r.URL.Path == "/rest/api/2/search" && r.Method == http.MethodGet {
		m.handleSearch(w, r)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]interface{}{"errorMessages": []string{"Not found"}})
}

func (m *JiraMockServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startAt, _ := strconv.Atoi(q.Get("startAt"))
	maxResults, err := strconv.Atoi(q.Get("maxResults"))
	if err != nil || maxResults <= 0 {
		maxResults = 50
	}
	if !strings.Contains(q.Get("jql"), "ORDER BY Key") {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errorMessages": []string{"unordered search"}})
		return
	}

	m.mu.RLock()
	all := m.issues
	m.mu.RUnlock()

	page := []jira.Issue{}
	if startAt < len(all) {
		end := startAt + maxResults
		if end > len(all) {
			end = len(all)
		}
		page = all[startAt:end]
	}

	writeJSON(w, http.StatusOK, jira.SearchResult{
		StartAt:    startAt,
		MaxResults: maxResults,
		Total:      len(all),
		Issues:     page,
	})
}

// MakeJiraIssue creates a Jira issue for tests. An empty description is sent as null.
func MakeJiraIssue(key, issueType, summary, description, status string) jira.Issue {
	desc := json.RawMessage("null")
	if description != "" {
		desc, _ = json.Marshal(description)
	}
	return jira.Issue{
		ID:  strings.TrimLeft(key, "ABCDEFGHIJKLMNOPQRSTUVWXYZ-"),
		Key: key,
		Fields: jira.IssueFields{
			Summary:     summary,
			Description: desc,
			Status:      &jira.StatusField{Name: status},
			IssueType:   &jira.IssueTypeField{Name: issueType},
		},
	}
}
