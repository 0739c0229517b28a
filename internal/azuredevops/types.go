// Package azuredevops writes work items to Azure DevOps Boards over REST.
package azuredevops

import (
	"time"
)

// API constants
const (
	DefaultTimeout = 30 * time.Second
	APIVersion     = "7.0"

	// PATUsername is the fixed, non-secret user name sent with a PAT.
	PATUsername = "pat"

	contentTypeJSONPatch = "application/json-patch+json"
)

// WorkItem represents an Azure DevOps work item as returned by create and update.
type WorkItem struct {
	ID     int            `json:"id"`
	URL    string         `json:"url"`
	Fields WorkItemFields `json:"fields"`
}

// WorkItemFields contains the work item fields the migration reads back.
type WorkItemFields struct {
	Title        string `json:"System.Title"`
	State        string `json:"System.State"`
	WorkItemType string `json:"System.WorkItemType"`
	TeamProject  string `json:"System.TeamProject,omitempty"`
}

// PatchOperation is one JSON Patch operation on a work item. Value is always
// serialized so that an empty string is sent as "" rather than dropped.
type PatchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}
