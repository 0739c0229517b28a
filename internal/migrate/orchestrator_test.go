package migrate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeSource returns a fixed issue list or error.
type fakeSource struct {
	issues []SourceIssue
	err    error
	calls  int
}

func (f *fakeSource) FetchAll(ctx context.Context, projectKey string, pageSize int) ([]SourceIssue, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.issues, nil
}

type createCall struct {
	doc          FieldPatchDocument
	project      string
	workItemType string
}

type updateCall struct {
	doc FieldPatchDocument
	id  int
}

// mockSink records calls and hands out increasing ids.
type mockSink struct {
	nextID  int
	creates []createCall
	updates []updateCall

	// createID overrides the returned id per call index when set.
	createID  map[int]int
	createErr map[int]error
	updateErr map[int]error
}

func newMockSink() *mockSink {
	return &mockSink{nextID: 100}
}

func (m *mockSink) CreateWorkItem(ctx context.Context, doc FieldPatchDocument, project, workItemType string) (int, error) {
	idx := len(m.creates)
	m.creates = append(m.creates, createCall{doc: doc, project: project, workItemType: workItemType})
	if err := m.createErr[idx]; err != nil {
		return 0, err
	}
	if id, ok := m.createID[idx]; ok {
		return id, nil
	}
	m.nextID++
	return m.nextID, nil
}

func (m *mockSink) UpdateWorkItem(ctx context.Context, doc FieldPatchDocument, id int) error {
	idx := len(m.updates)
	m.updates = append(m.updates, updateCall{doc: doc, id: id})
	return m.updateErr[idx]
}

func testOptions() Options {
	return Options{SourceProject: "PROJ", PageSize: 50, DestinationProject: "Dest"}
}

func TestRun_BugAndEpic(t *testing.T) {
	source := &fakeSource{issues: []SourceIssue{
		{Key: "PROJ-1", TypeName: "Bug", Summary: "Broken", StatusName: "Resolved"},
		{Key: "PROJ-2", TypeName: "Epic", Summary: "Big thing", StatusName: "Done"},
	}}
	sink := newMockSink()

	var warnings []string
	o := NewOrchestrator(source, sink, testOptions())
	o.OnWarning = func(msg string) { warnings = append(warnings, msg) }

	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(sink.creates) != 1 {
		t.Fatalf("expected 1 create, got %d", len(sink.creates))
	}
	create := sink.creates[0]
	if create.workItemType != "Bug" || create.project != "Dest" {
		t.Errorf("create type/project = %q/%q", create.workItemType, create.project)
	}
	if create.doc[1].Path != FieldReproSteps {
		t.Errorf("expected repro steps field, got %q", create.doc[1].Path)
	}

	if len(sink.updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(sink.updates))
	}
	update := sink.updates[0]
	if update.id != 101 {
		t.Errorf("update id = %d, want 101", update.id)
	}
	if len(update.doc) != 1 || update.doc[0].Path != FieldState || update.doc[0].Value != "Resolved" {
		t.Errorf("unexpected update document %+v", update.doc)
	}

	if report.Total != 2 || report.Created != 1 || report.Skipped != 1 || report.Failed != 0 {
		t.Errorf("unexpected counts: %+v", report)
	}
	if !report.Success() {
		t.Error("expected successful report")
	}
	if got := report.Outcomes[1]; got.SourceKey != "PROJ-2" || got.Status != StatusSkipped {
		t.Errorf("expected PROJ-2 skipped, got %+v", got)
	}
	if got := report.Outcomes[0]; got.DestinationID != 101 || got.State != "Resolved" || got.DestinationType != "Bug" {
		t.Errorf("unexpected created outcome %+v", got)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "Epic") {
		t.Errorf("expected one warning naming Epic, got %q", warnings)
	}
	if report.RunID == "" {
		t.Error("expected a run id")
	}
}

func TestRun_MissingIDHaltsRun(t *testing.T) {
	source := &fakeSource{issues: []SourceIssue{
		{Key: "PROJ-1", TypeName: "Story", StatusName: "Done"},
		{Key: "PROJ-2", TypeName: "Bug", StatusName: "Done"},
		{Key: "PROJ-3", TypeName: "Task", StatusName: "Done"},
	}}
	sink := newMockSink()
	sink.createID = map[int]int{0: 0}

	report, err := NewOrchestrator(source, sink, testOptions()).Run(context.Background())

	var integrity *CreationIntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected CreationIntegrityError, got %v", err)
	}
	if integrity.Key != "PROJ-1" {
		t.Errorf("error key = %q, want PROJ-1", integrity.Key)
	}
	if len(sink.creates) != 1 {
		t.Errorf("expected processing to stop after 1 create, got %d", len(sink.creates))
	}
	if len(sink.updates) != 0 {
		t.Errorf("expected no updates, got %d", len(sink.updates))
	}
	if !report.Aborted || report.Failed != 1 || report.Pending() != 2 {
		t.Errorf("unexpected report: aborted=%v failed=%d pending=%d", report.Aborted, report.Failed, report.Pending())
	}
	if report.Success() {
		t.Error("report should not be successful")
	}
}

func TestRun_UnmappedStatusSkipsUpdate(t *testing.T) {
	source := &fakeSource{issues: []SourceIssue{
		{Key: "PROJ-1", TypeName: "Task", StatusName: "Blocked"},
	}}
	sink := newMockSink()

	report, err := NewOrchestrator(source, sink, testOptions()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sink.creates) != 1 {
		t.Errorf("expected 1 create, got %d", len(sink.creates))
	}
	if len(sink.updates) != 0 {
		t.Errorf("expected no update, got %d", len(sink.updates))
	}
	if sink.creates[0].workItemType != "User Story" {
		t.Errorf("expected User Story, got %q", sink.creates[0].workItemType)
	}
	if report.Outcomes[0].Status != StatusCreated || report.Outcomes[0].State != "" {
		t.Errorf("unexpected outcome %+v", report.Outcomes[0])
	}
}

func TestRun_ExtractionFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("jira API returned 401: nope")}
	sink := newMockSink()

	report, err := NewOrchestrator(source, sink, testOptions()).Run(context.Background())

	var terr *TransportError
	if !errors.As(err, &terr) || terr.Stage != StageFetch {
		t.Fatalf("expected fetch TransportError, got %v", err)
	}
	if len(sink.creates) != 0 {
		t.Errorf("expected no creates, got %d", len(sink.creates))
	}
	if !report.Aborted || report.Error == "" {
		t.Errorf("expected aborted report with error, got %+v", report)
	}
}

func TestRun_CreateFailureAbortsByDefault(t *testing.T) {
	source := &fakeSource{issues: []SourceIssue{
		{Key: "PROJ-1", TypeName: "Bug", StatusName: "Done"},
		{Key: "PROJ-2", TypeName: "Bug", StatusName: "Done"},
	}}
	sink := newMockSink()
	sink.createErr = map[int]error{0: errors.New("azure devops API returned 400: bad")}

	_, err := NewOrchestrator(source, sink, testOptions()).Run(context.Background())

	var terr *TransportError
	if !errors.As(err, &terr) || terr.Stage != StageCreate || terr.Key != "PROJ-1" {
		t.Fatalf("expected create TransportError for PROJ-1, got %v", err)
	}
	if len(sink.creates) != 1 {
		t.Errorf("expected 1 create, got %d", len(sink.creates))
	}
}

func TestRun_UpdateFailureAbortsByDefault(t *testing.T) {
	source := &fakeSource{issues: []SourceIssue{
		{Key: "PROJ-1", TypeName: "Bug", StatusName: "Done"},
		{Key: "PROJ-2", TypeName: "Bug", StatusName: "Done"},
	}}
	sink := newMockSink()
	sink.updateErr = map[int]error{0: errors.New("azure devops API returned 400: invalid state")}

	report, err := NewOrchestrator(source, sink, testOptions()).Run(context.Background())

	var terr *TransportError
	if !errors.As(err, &terr) || terr.Stage != StageUpdate {
		t.Fatalf("expected update TransportError, got %v", err)
	}
	if len(sink.creates) != 1 {
		t.Errorf("expected 1 create, got %d", len(sink.creates))
	}
	failed := report.Outcomes[0]
	if failed.Status != StatusFailed || failed.DestinationID != 101 {
		t.Errorf("expected failed outcome keeping the created id, got %+v", failed)
	}
}

func TestRun_ContinueOnError(t *testing.T) {
	source := &fakeSource{issues: []SourceIssue{
		{Key: "PROJ-1", TypeName: "Bug", StatusName: "Done"},
		{Key: "PROJ-2", TypeName: "Story", StatusName: "Done"},
		{Key: "PROJ-3", TypeName: "Task", StatusName: "Review"},
		{Key: "PROJ-4", TypeName: "Epic", StatusName: "Done"},
	}}
	sink := newMockSink()
	sink.createErr = map[int]error{0: errors.New("azure devops API returned 500: oops")}
	sink.createID = map[int]int{1: 0}

	opts := testOptions()
	opts.ContinueOnError = true

	var warnings []string
	o := NewOrchestrator(source, sink, opts)
	o.OnWarning = func(msg string) { warnings = append(warnings, msg) }

	report, err := o.Run(context.Background())
	if !errors.Is(err, ErrIssuesFailed) {
		t.Fatalf("expected ErrIssuesFailed, got %v", err)
	}
	if len(sink.creates) != 3 {
		t.Errorf("expected 3 creates, got %d", len(sink.creates))
	}
	if report.Created != 1 || report.Failed != 2 || report.Skipped != 1 {
		t.Errorf("unexpected counts created=%d failed=%d skipped=%d", report.Created, report.Failed, report.Skipped)
	}
	if report.Aborted {
		t.Error("run should not be marked aborted")
	}
	if len(report.Outcomes) != 4 {
		t.Errorf("expected 4 outcomes, got %d", len(report.Outcomes))
	}
	// Two failure warnings plus one skip warning.
	if len(warnings) != 3 {
		t.Errorf("expected 3 warnings, got %d: %q", len(warnings), warnings)
	}
}

func TestRun_CancelledContextStopsEvenWhenContinuing(t *testing.T) {
	source := &fakeSource{issues: []SourceIssue{
		{Key: "PROJ-1", TypeName: "Bug", StatusName: "Done"},
		{Key: "PROJ-2", TypeName: "Bug", StatusName: "Done"},
	}}
	sink := newMockSink()
	opts := testOptions()
	opts.ContinueOnError = true
	opts.Delay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	o := NewOrchestrator(source, sink, opts)
	o.OnOutcome = func(ctx context.Context, out Outcome) {
		if out.Status == StatusCreated {
			cancel()
		}
	}

	report, err := o.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sink.creates) != 1 {
		t.Errorf("expected 1 create, got %d", len(sink.creates))
	}
	if !report.Aborted {
		t.Error("expected aborted report")
	}
	if report.Pending() != 1 {
		t.Errorf("expected 1 pending issue, got %d", report.Pending())
	}
}

func TestRun_CancelledBeforeStartRecordsNothing(t *testing.T) {
	source := &fakeSource{issues: []SourceIssue{
		{Key: "PROJ-1", TypeName: "Bug", StatusName: "Done"},
		{Key: "PROJ-2", TypeName: "Story", StatusName: "Done"},
	}}
	sink := newMockSink()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := NewOrchestrator(source, sink, testOptions()).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sink.creates) != 0 {
		t.Errorf("expected no creates, got %d", len(sink.creates))
	}
	if len(report.Outcomes) != 0 || report.Failed != 0 {
		t.Errorf("cancelled issues must not be recorded: %+v", report.Outcomes)
	}
	if report.Pending() != 2 {
		t.Errorf("expected 2 pending issues, got %d", report.Pending())
	}
}

// timedSink stamps every call and makes creates slow.
type timedSink struct {
	*mockSink
	createLatency time.Duration
	createdAt     []time.Time
	updatedAt     []time.Time
}

func (s *timedSink) CreateWorkItem(ctx context.Context, doc FieldPatchDocument, project, workItemType string) (int, error) {
	s.createdAt = append(s.createdAt, time.Now())
	time.Sleep(s.createLatency)
	return s.mockSink.CreateWorkItem(ctx, doc, project, workItemType)
}

func (s *timedSink) UpdateWorkItem(ctx context.Context, doc FieldPatchDocument, id int) error {
	err := s.mockSink.UpdateWorkItem(ctx, doc, id)
	s.updatedAt = append(s.updatedAt, time.Now())
	return err
}

func TestRun_DelayFollowsEachCreatedIssue(t *testing.T) {
	source := &fakeSource{issues: []SourceIssue{
		{Key: "P-1", TypeName: "Bug", StatusName: "Done"},
		{Key: "P-2", TypeName: "Bug", StatusName: "Done"},
	}}
	delay := 50 * time.Millisecond
	sink := &timedSink{mockSink: newMockSink(), createLatency: 60 * time.Millisecond}
	opts := testOptions()
	opts.Delay = delay

	if _, err := NewOrchestrator(source, sink, opts).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sink.createdAt) != 2 || len(sink.updatedAt) != 2 {
		t.Fatalf("expected 2 creates and 2 updates, got %d and %d", len(sink.createdAt), len(sink.updatedAt))
	}
	// A slow create must not eat into the pause before the next issue.
	if gap := sink.createdAt[1].Sub(sink.updatedAt[0]); gap < delay {
		t.Errorf("gap between update of P-1 and create of P-2 = %v, want at least %v", gap, delay)
	}
}

func TestRun_NoDelayAfterSkippedOrLastIssue(t *testing.T) {
	source := &fakeSource{issues: []SourceIssue{
		{Key: "PROJ-1", TypeName: "Epic", StatusName: "Done"},
		{Key: "PROJ-2", TypeName: "Epic", StatusName: "Done"},
		{Key: "PROJ-3", TypeName: "Bug", StatusName: "Done"},
	}}
	opts := testOptions()
	opts.Delay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	report, err := NewOrchestrator(source, newMockSink(), opts).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Created != 1 || report.Skipped != 2 {
		t.Errorf("expected 1 created and 2 skipped, got %+v", report)
	}
}

func TestRun_Narration(t *testing.T) {
	source := &fakeSource{issues: []SourceIssue{
		{Key: "PROJ-1", TypeName: "Story", StatusName: "In Progress"},
	}}

	var messages []string
	o := NewOrchestrator(source, newMockSink(), testOptions())
	o.OnMessage = func(msg string) { messages = append(messages, msg) }

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{
		"Getting JIRA issues...",
		"Finished querying JIRA",
		"Starting Azure import...",
		"Starting import of JIRA issue PROJ-1...",
		"Issue recognised as story...",
		"Work item created in Azure!",
		"Status needs to be updated...",
		"Azure work item status updated!",
		"Imported JIRA issue PROJ-1!",
		"Finished Azure import!",
	}
	if strings.Join(messages, "\n") != strings.Join(want, "\n") {
		t.Errorf("messages:\n%s\nwant:\n%s", strings.Join(messages, "\n"), strings.Join(want, "\n"))
	}
}

func TestRun_OutcomeCallback(t *testing.T) {
	source := &fakeSource{issues: []SourceIssue{
		{Key: "PROJ-1", TypeName: "Story", StatusName: "Done"},
		{Key: "PROJ-2", TypeName: "Epic", StatusName: "Done"},
	}}

	var got []OutcomeStatus
	o := NewOrchestrator(source, newMockSink(), testOptions())
	o.OnOutcome = func(ctx context.Context, out Outcome) { got = append(got, out.Status) }

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(got) != 2 || got[0] != StatusCreated || got[1] != StatusSkipped {
		t.Errorf("unexpected outcome statuses %v", got)
	}
}
