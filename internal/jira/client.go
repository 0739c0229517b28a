// Package jira reads issues from a Jira Server or Cloud instance over REST v2.
package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/steveyegge/jira2ado/internal/debug"
	"github.com/steveyegge/jira2ado/internal/transport"
)

// DefaultTimeout bounds a single Jira request.
const DefaultTimeout = 30 * time.Second

// searchFields is the set of fields requested by searches.
const searchFields = "summary,description,status,issuetype"

// Client provides HTTP access to a Jira instance.
type Client struct {
	URL        string
	Username   string
	Password   string // Password or API token
	HTTPClient *http.Client

	// RetryMaxElapsed enables retries of throttled requests when positive.
	RetryMaxElapsed time.Duration
}

// NewClient creates a new Jira client.
func NewClient(url, username, password string) *Client {
	return &Client{
		URL:      strings.TrimSuffix(url, "/"),
		Username: username,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// SearchPage runs one page of a JQL search.
func (c *Client) SearchPage(ctx context.Context, jql string, startAt, maxResults int) (*SearchResult, error) {
	params := url.Values{
		"jql":        {jql},
		"fields":     {searchFields},
		"startAt":    {strconv.Itoa(startAt)},
		"maxResults": {strconv.Itoa(maxResults)},
	}
	apiURL := fmt.Sprintf("%s/rest/api/2/search?%s", c.URL, params.Encode())

	var body []byte
	err := transport.Do(ctx, c.RetryMaxElapsed, func() error {
		var err error
		body, err = c.doRequest(ctx, http.MethodGet, apiURL)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	debug.Logf("jira: search startAt=%d maxResults=%d returned %d of %d\n", startAt, maxResults, len(result.Issues), result.Total)

	return &result, nil
}

// doRequest executes an authenticated HTTP request and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, apiURL string) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("jira URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setAuth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "jira2ado/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, transport.NewStatusError("jira", method, apiURL, resp.StatusCode, respBody)
	}

	return respBody, nil
}

// setAuth uses Basic auth when a username is configured, Bearer otherwise
// (Jira Data Center personal access tokens).
func (c *Client) setAuth(req *http.Request) {
	if c.Username != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
		req.Header.Set("Authorization", "Basic "+auth)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.Password)
	}
}

// DescriptionToPlainText extracts plain text from a Jira description.
// REST v2 returns a plain string; v3 and some Cloud sites return ADF
// (Atlassian Document Format). null or missing yields "".
func DescriptionToPlainText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var doc struct {
		Type    string `json:"type"`
		Content []struct {
			Type    string `json:"type"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Type != "doc" {
		return string(raw)
	}

	// Extract text from ADF nodes
	var parts []string
	for _, block := range doc.Content {
		var line []string
		for _, inline := range block.Content {
			if inline.Text != "" {
				line = append(line, inline.Text)
			}
		}
		if len(line) > 0 {
			parts = append(parts, strings.Join(line, ""))
		}
	}

	return strings.Join(parts, "\n")
}
