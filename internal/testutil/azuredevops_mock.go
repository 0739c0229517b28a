package testutil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/steveyegge/jira2ado/internal/azuredevops"
)

// CreatedWorkItem records one create call received by the mock.
type CreatedWorkItem struct {
	ID           int
	Project      string
	WorkItemType string
	Ops          []azuredevops.PatchOperation
}

// UpdatedWorkItem records one update call received by the mock.
type UpdatedWorkItem struct {
	ID  int
	Ops []azuredevops.PatchOperation
}

// AzureDevOpsMockServer provides Azure DevOps work item create/update routes.
type AzureDevOpsMockServer struct {
	*MockServer
	nextWorkItemID int
	omitIDs        bool
	failCreateAt   map[int]int // create index -> HTTP status
	created        []CreatedWorkItem
	updated        []UpdatedWorkItem
}

// NewAzureDevOpsMockServer creates a new Azure DevOps mock server.
func NewAzureDevOpsMockServer() *AzureDevOpsMockServer {
	m := &AzureDevOpsMockServer{
		MockServer:     NewMockServer(),
		nextWorkItemID: 1000,
		failCreateAt:   map[int]int{},
	}
	m.SetDefaultHandler(m.handleADORequest)
	return m
}

// SetOmitIDs makes create responses succeed without an id.
func (m *AzureDevOpsMockServer) SetOmitIDs(omit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.omitIDs = omit
}

// FailCreate makes the create call with the given index answer status.
func (m *AzureDevOpsMockServer) FailCreate(index, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCreateAt[index] = status
}

// Created returns the create calls received so far.
func (m *AzureDevOpsMockServer) Created() []CreatedWorkItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]CreatedWorkItem(nil), m.created...)
}

// Updated returns the update calls received so far.
func (m *AzureDevOpsMockServer) Updated() []UpdatedWorkItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]UpdatedWorkItem(nil), m.updated...)
}

func (m *AzureDevOpsMockServer) handleADORequest(w http.ResponseWriter, r *http.Request, body []byte) {
	path := r.URL.Path
	idx := strings.Index(path, "/_apis/wit/workitems/")
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
		return
	}
	project := strings.Trim(path[:idx], "/")
	rest := path[idx+len("/_apis/wit/workitems/"):]

	if r.Header.Get("Content-Type") != "application/json-patch+json" {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"message": "expected json-patch"})
		return
	}

	var ops []azuredevops.PatchOperation
	if err := json.Unmarshal(body, &ops); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	switch {
	case r.Method == http.MethodPost && strings.HasPrefix(rest, "$"):
		m.handleCreate(w, project, strings.TrimPrefix(rest, "$"), ops)
	case r.Method == http.MethodPatch:
		id, err := strconv.Atoi(rest)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad id"})
			return
		}
		m.handleUpdate(w, id, ops)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}

func (m *AzureDevOpsMockServer) handleCreate(w http.ResponseWriter, project, workItemType string, ops []azuredevops.PatchOperation) {
	m.mu.Lock()
	index := len(m.created)
	if status, ok := m.failCreateAt[index]; ok {
		m.created = append(m.created, CreatedWorkItem{Project: project, WorkItemType: workItemType, Ops: ops})
		m.mu.Unlock()
		writeJSON(w, status, map[string]string{"message": "create rejected"})
		return
	}
	m.nextWorkItemID++
	id := m.nextWorkItemID
	if m.omitIDs {
		id = 0
	}
	m.created = append(m.created, CreatedWorkItem{ID: id, Project: project, WorkItemType: workItemType, Ops: ops})
	m.mu.Unlock()

	resp := map[string]interface{}{
		"rev":    1,
		"fields": fieldsFromOps(ops, workItemType, "New"),
	}
	if id != 0 {
		resp["id"] = id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (m *AzureDevOpsMockServer) handleUpdate(w http.ResponseWriter, id int, ops []azuredevops.PatchOperation) {
	m.mu.Lock()
	m.updated = append(m.updated, UpdatedWorkItem{ID: id, Ops: ops})
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":     id,
		"rev":    2,
		"fields": fieldsFromOps(ops, "", ""),
	})
}

func fieldsFromOps(ops []azuredevops.PatchOperation, workItemType, defaultState string) map[string]interface{} {
	fields := map[string]interface{}{}
	if workItemType != "" {
		fields["System.WorkItemType"] = workItemType
	}
	if defaultState != "" {
		fields["System.State"] = defaultState
	}
	for _, op := range ops {
		fields[strings.TrimPrefix(op.Path, "/fields/")] = op.Value
	}
	return fields
}
