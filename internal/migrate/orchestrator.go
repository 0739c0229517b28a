package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IssueSource yields every issue of a Jira project.
type IssueSource interface {
	FetchAll(ctx context.Context, projectKey string, pageSize int) ([]SourceIssue, error)
}

// WorkItemSink writes work items to Azure DevOps.
type WorkItemSink interface {
	// CreateWorkItem creates a work item and returns its id. An id of zero
	// or less means the destination did not report one.
	CreateWorkItem(ctx context.Context, doc FieldPatchDocument, project, workItemType string) (int, error)
	UpdateWorkItem(ctx context.Context, doc FieldPatchDocument, id int) error
}

// Options controls one migration run.
type Options struct {
	SourceProject      string        // Jira project key
	PageSize           int           // Jira page size, must be positive
	DestinationProject string        // Azure DevOps project name
	Delay              time.Duration // Pause after each created work item

	// ContinueOnError records failed issues and keeps going instead of
	// aborting the run at the first failure. Extraction failures always abort.
	ContinueOnError bool
}

// Orchestrator runs a migration: extract all issues, then create and update
// one work item per migratable issue, strictly in sequence.
type Orchestrator struct {
	Source  IssueSource
	Sink    WorkItemSink
	Options Options

	// Callbacks for UI feedback (optional).
	OnMessage func(msg string)
	OnWarning func(msg string)
	OnOutcome func(ctx context.Context, o Outcome)

	throttle *Throttle
	now      func() time.Time
}

// NewOrchestrator creates an orchestrator for the given source and sink.
func NewOrchestrator(source IssueSource, sink WorkItemSink, opts Options) *Orchestrator {
	return &Orchestrator{
		Source:   source,
		Sink:     sink,
		Options:  opts,
		throttle: NewThrottle(opts.Delay),
		now:      time.Now,
	}
}

// Run performs the migration and returns its report. The report is always
// non-nil. The error is non-nil when the run failed: extraction failed, an
// issue failed in abort mode, the context was cancelled, or (with
// ContinueOnError) any issue failed, in which case it wraps ErrIssuesFailed.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:              uuid.New().String(),
		SourceProject:      o.Options.SourceProject,
		DestinationProject: o.Options.DestinationProject,
		StartTime:          o.now().UTC(),
		Outcomes:           []Outcome{},
	}

	o.msg("Getting JIRA issues...")
	issues, err := o.Source.FetchAll(ctx, o.Options.SourceProject, o.Options.PageSize)
	if err != nil {
		err = &TransportError{Stage: StageFetch, Err: err}
		return o.abort(report, err), err
	}
	o.msg("Finished querying JIRA")
	report.Total = len(issues)

	o.msg("Starting Azure import...")
	for i, issue := range issues {
		if err := ctx.Err(); err != nil {
			return o.abort(report, err), err
		}

		outcome, err := o.migrateIssue(ctx, issue)
		report.add(outcome)
		if o.OnOutcome != nil {
			o.OnOutcome(ctx, outcome)
		}
		if err != nil {
			if !o.Options.ContinueOnError || ctx.Err() != nil {
				return o.abort(report, err), err
			}
			o.warn("Failed to import JIRA issue %s: %v", issue.Key, err)
			continue
		}

		// Pause the full delay after each created work item, before the next issue.
		if outcome.Status == StatusCreated && i < len(issues)-1 {
			if err := o.throttle.Wait(ctx); err != nil {
				return o.abort(report, err), err
			}
		}
	}
	o.msg("Finished Azure import!")

	report.EndTime = o.now().UTC()
	if report.Failed > 0 {
		err := fmt.Errorf("%w: %d of %d", ErrIssuesFailed, report.Failed, report.Total)
		report.Error = err.Error()
		return report, err
	}
	return report, nil
}

// migrateIssue moves one issue. A non-nil error always comes with a Failed outcome.
func (o *Orchestrator) migrateIssue(ctx context.Context, issue SourceIssue) (Outcome, error) {
	outcome := Outcome{SourceKey: issue.Key}

	o.msg("Starting import of JIRA issue %s...", issue.Key)

	dest := Classify(issue.TypeName)
	switch dest {
	case Bug:
		o.msg("Issue recognised as bug...")
	case GenericWorkItem:
		o.msg("Issue recognised as story...")
	default:
		outcome.Status = StatusSkipped
		outcome.Detail = fmt.Sprintf("issue type %q has no work item mapping", issue.TypeName)
		o.warn("Skipping JIRA issue %s: %s", issue.Key, outcome.Detail)
		return outcome, nil
	}
	outcome.DestinationType = dest.WorkItemTypeName()

	id, err := o.Sink.CreateWorkItem(ctx, BuildCreateDocument(issue, dest), o.Options.DestinationProject, dest.WorkItemTypeName())
	if err != nil {
		err = &TransportError{Stage: StageCreate, Key: issue.Key, Err: err}
		return failed(outcome, err), err
	}
	if id <= 0 {
		err := &CreationIntegrityError{Key: issue.Key}
		return failed(outcome, err), err
	}
	outcome.DestinationID = id
	o.msg("Work item created in Azure!")

	if state, ok := MapStatus(issue.StatusName); ok {
		o.msg("Status needs to be updated...")
		if err := o.Sink.UpdateWorkItem(ctx, BuildStateUpdateDocument(state), id); err != nil {
			err = &TransportError{Stage: StageUpdate, Key: issue.Key, Err: err}
			return failed(outcome, err), err
		}
		outcome.State = state
		o.msg("Azure work item status updated!")
	} else {
		outcome.Detail = fmt.Sprintf("status %q has no state mapping, left at default", issue.StatusName)
	}

	outcome.Status = StatusCreated
	o.msg("Imported JIRA issue %s!", issue.Key)
	return outcome, nil
}

func (o *Orchestrator) abort(report *Report, err error) *Report {
	report.Aborted = true
	report.Error = err.Error()
	report.EndTime = o.now().UTC()
	return report
}

func failed(outcome Outcome, err error) Outcome {
	outcome.Status = StatusFailed
	outcome.Detail = err.Error()
	return outcome
}

func (o *Orchestrator) msg(format string, args ...interface{}) {
	if o.OnMessage != nil {
		o.OnMessage(fmt.Sprintf(format, args...))
	}
}

func (o *Orchestrator) warn(format string, args ...interface{}) {
	if o.OnWarning != nil {
		o.OnWarning(fmt.Sprintf(format, args...))
	}
}
