package azuredevops

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/steveyegge/jira2ado/internal/debug"
	"github.com/steveyegge/jira2ado/internal/transport"
)

// Client provides methods to interact with the Azure DevOps REST API.
type Client struct {
	Organization string // Organization name or URL
	Project      string
	PAT          string // Personal Access Token
	BaseURL      string // Full base URL (derived from Organization)
	HTTPClient   *http.Client

	// RetryMaxElapsed enables retries of throttled requests when positive.
	RetryMaxElapsed time.Duration
}

// NewClient creates a new Azure DevOps client.
func NewClient(organization, project, pat string) *Client {
	// Handle both organization name and full URL
	baseURL := organization
	if !strings.HasPrefix(organization, "http") {
		baseURL = fmt.Sprintf("https://dev.azure.com/%s", organization)
	}

	return &Client{
		Organization: organization,
		Project:      project,
		PAT:          pat,
		BaseURL:      strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithEndpoint returns the client pointed at a different base URL.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.BaseURL = strings.TrimSuffix(endpoint, "/")
	return c
}

// doRequest performs an HTTP request with authentication.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, contentType string) ([]byte, error) {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	// Add API version to path
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	reqURL := c.BaseURL + path + separator + "api-version=" + APIVersion

	var respBody []byte
	err := transport.Do(ctx, c.RetryMaxElapsed, func() error {
		var reqBody io.Reader
		if data != nil {
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		auth := base64.StdEncoding.EncodeToString([]byte(PATUsername + ":" + c.PAT))
		req.Header.Set("Authorization", "Basic "+auth)
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		} else if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return transport.NewStatusError("azure devops", method, reqURL, resp.StatusCode, respBody)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return respBody, nil
}

// CreateWorkItem creates a work item of the given type in project.
// An empty project falls back to the client's project.
func (c *Client) CreateWorkItem(ctx context.Context, project, workItemType string, ops []PatchOperation) (*WorkItem, error) {
	if project == "" {
		project = c.Project
	}

	// Work item type must be URL encoded
	path := fmt.Sprintf("/%s/_apis/wit/workitems/$%s", url.PathEscape(project), url.PathEscape(workItemType))

	respBody, err := c.doRequest(ctx, http.MethodPost, path, ops, contentTypeJSONPatch)
	if err != nil {
		return nil, fmt.Errorf("failed to create work item: %w", err)
	}

	var workItem WorkItem
	if err := json.Unmarshal(respBody, &workItem); err != nil {
		return nil, fmt.Errorf("failed to parse create response: %w", err)
	}
	debug.Logf("azure devops: created %s %d in %s\n", workItemType, workItem.ID, project)

	return &workItem, nil
}

// UpdateWorkItem updates an existing work item.
func (c *Client) UpdateWorkItem(ctx context.Context, id int, ops []PatchOperation) (*WorkItem, error) {
	path := fmt.Sprintf("/_apis/wit/workitems/%d", id)
	if c.Project != "" {
		path = fmt.Sprintf("/%s/_apis/wit/workitems/%d", url.PathEscape(c.Project), id)
	}

	respBody, err := c.doRequest(ctx, http.MethodPatch, path, ops, contentTypeJSONPatch)
	if err != nil {
		return nil, fmt.Errorf("failed to update work item %d: %w", id, err)
	}

	var workItem WorkItem
	if err := json.Unmarshal(respBody, &workItem); err != nil {
		return nil, fmt.Errorf("failed to parse update response: %w", err)
	}

	return &workItem, nil
}

// BuildWorkItemURL returns the web URL for a work item.
func (c *Client) BuildWorkItemURL(id int) string {
	return fmt.Sprintf("%s/%s/_workitems/edit/%d", c.BaseURL, url.PathEscape(c.Project), id)
}
