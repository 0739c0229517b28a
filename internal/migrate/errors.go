package migrate

import (
	"errors"
	"fmt"
)

// Stage names the remote call a TransportError came from.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageCreate Stage = "create"
	StageUpdate Stage = "update"
)

// TransportError wraps a failed remote call with the stage and issue it belongs to.
type TransportError struct {
	Stage Stage
	Key   string // Jira issue key; empty for StageFetch
	Err   error
}

func (e *TransportError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s failed for JIRA issue %s: %v", e.Stage, e.Key, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CreationIntegrityError reports a create call that succeeded without
// returning a usable work item id.
type CreationIntegrityError struct {
	Key string
}

func (e *CreationIntegrityError) Error() string {
	return fmt.Sprintf("failed creating JIRA issue %s in Azure: no work item id returned", e.Key)
}

// ErrIssuesFailed is returned by Run when ContinueOnError let the run finish
// but at least one issue failed.
var ErrIssuesFailed = errors.New("one or more issues failed to migrate")
