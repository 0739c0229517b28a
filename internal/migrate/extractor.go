package migrate

import (
	"context"
	"fmt"
	"strings"
)

// PageFetcher returns one page of issues matching a JQL query.
type PageFetcher interface {
	FetchPage(ctx context.Context, jql string, startAt, maxResults int) ([]SourceIssue, error)
}

// Extractor pulls every issue of a project from Jira, one page at a time.
type Extractor struct {
	Pages PageFetcher

	// OnMessage receives progress narration (optional).
	OnMessage func(msg string)
}

// NewExtractor creates an extractor reading pages from pages.
func NewExtractor(pages PageFetcher) *Extractor {
	return &Extractor{Pages: pages}
}

// ProjectQuery returns the JQL selecting all issues of a project in key order.
func ProjectQuery(projectKey string) string {
	return fmt.Sprintf("PROJECT = '%s' ORDER BY Key", strings.ReplaceAll(projectKey, "'", `\'`))
}

// FetchAll returns every issue of projectKey ordered by key.
//
// The offset advances by pageSize after each page and the loop ends only on
// an empty page. A short page does not end it. This relies on the key
// ordering staying stable between requests; if Jira reorders results while
// paging, issues can be duplicated or missed.
//
// Any fetch error aborts the extraction and no partial result is returned.
func (e *Extractor) FetchAll(ctx context.Context, projectKey string, pageSize int) ([]SourceIssue, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	jql := ProjectQuery(projectKey)
	issues := []SourceIssue{}

	for offset := 0; ; offset += pageSize {
		e.msg("Querying JIRA issues at offset %d", offset)

		page, err := e.Pages.FetchPage(ctx, jql, offset, pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}

		e.msg("Found %d issues at offset %d", len(page), offset)

		if len(page) == 0 {
			return issues, nil
		}
		issues = append(issues, page...)
	}
}

func (e *Extractor) msg(format string, args ...interface{}) {
	if e.OnMessage != nil {
		e.OnMessage(fmt.Sprintf(format, args...))
	}
}
