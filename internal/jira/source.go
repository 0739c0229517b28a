package jira

import (
	"context"

	"github.com/steveyegge/jira2ado/internal/migrate"
)

// Source adapts a Client to migrate.PageFetcher.
type Source struct {
	Client *Client
}

// NewSource wraps client as a page source.
func NewSource(client *Client) *Source {
	return &Source{Client: client}
}

// FetchPage implements migrate.PageFetcher.
func (s *Source) FetchPage(ctx context.Context, jql string, startAt, maxResults int) ([]migrate.SourceIssue, error) {
	result, err := s.Client.SearchPage(ctx, jql, startAt, maxResults)
	if err != nil {
		return nil, err
	}

	issues := make([]migrate.SourceIssue, 0, len(result.Issues))
	for i := range result.Issues {
		issues = append(issues, ToSourceIssue(&result.Issues[i]))
	}
	return issues, nil
}

// ToSourceIssue flattens a Jira issue into the fields the migration reads.
func ToSourceIssue(ji *Issue) migrate.SourceIssue {
	issue := migrate.SourceIssue{
		Key:         ji.Key,
		Summary:     ji.Fields.Summary,
		Description: DescriptionToPlainText(ji.Fields.Description),
	}
	if ji.Fields.IssueType != nil {
		issue.TypeName = ji.Fields.IssueType.Name
	}
	if ji.Fields.Status != nil {
		issue.StatusName = ji.Fields.Status.Name
	}
	return issue
}
