package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/jira2ado/internal/migrate"
)

const migrateScopeName = "github.com/steveyegge/jira2ado/migrate"

// instruments holds the request counters shared by the wrapped fetcher and sink.
type instruments struct {
	tracer trace.Tracer
	reqs   metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

func newInstruments() *instruments {
	m := Meter(migrateScopeName)
	reqs, _ := m.Int64Counter("jira2ado.requests",
		metric.WithDescription("Total remote API requests issued"),
	)
	dur, _ := m.Float64Histogram("jira2ado.request.duration",
		metric.WithDescription("Remote API request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("jira2ado.request.errors",
		metric.WithDescription("Total remote API request errors"),
	)
	return &instruments{
		tracer: Tracer(migrateScopeName),
		reqs:   reqs,
		dur:    dur,
		errs:   errs,
	}
}

// op starts a span and counts a request for the named operation.
func (in *instruments) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("op", name)}, attrs...)
	ctx, span := in.tracer.Start(ctx, name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	in.reqs.Add(ctx, 1, metric.WithAttributes(attribute.String("op", name)))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (in *instruments) done(ctx context.Context, span trace.Span, name string, start time.Time, err error) {
	opAttr := metric.WithAttributes(attribute.String("op", name))
	in.dur.Record(ctx, float64(time.Since(start).Milliseconds()), opAttr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		in.errs.Add(ctx, 1, opAttr)
	}
	span.End()
}

// InstrumentedPages wraps a migrate.PageFetcher with a span per Jira search.
type InstrumentedPages struct {
	inner migrate.PageFetcher
	in    *instruments
}

// WrapPages returns p decorated with OTel instrumentation.
// When telemetry is disabled, p is returned as-is.
func WrapPages(p migrate.PageFetcher) migrate.PageFetcher {
	if !Enabled() {
		return p
	}
	return &InstrumentedPages{inner: p, in: newInstruments()}
}

func (p *InstrumentedPages) FetchPage(ctx context.Context, jql string, startAt, maxResults int) ([]migrate.SourceIssue, error) {
	const name = "jira.search"
	ctx, span, t := p.in.op(ctx, name,
		attribute.String("jira.jql", jql),
		attribute.Int("jira.start_at", startAt),
		attribute.Int("jira.max_results", maxResults),
	)
	issues, err := p.inner.FetchPage(ctx, jql, startAt, maxResults)
	if err == nil {
		span.SetAttributes(attribute.Int("jira.result.count", len(issues)))
	}
	p.in.done(ctx, span, name, t, err)
	return issues, err
}

// InstrumentedSink wraps a migrate.WorkItemSink with a span per Azure DevOps call.
type InstrumentedSink struct {
	inner migrate.WorkItemSink
	in    *instruments
}

// WrapSink returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is.
func WrapSink(s migrate.WorkItemSink) migrate.WorkItemSink {
	if !Enabled() {
		return s
	}
	return &InstrumentedSink{inner: s, in: newInstruments()}
}

func (s *InstrumentedSink) CreateWorkItem(ctx context.Context, doc migrate.FieldPatchDocument, project, workItemType string) (int, error) {
	const name = "ado.create_work_item"
	ctx, span, t := s.in.op(ctx, name,
		attribute.String("ado.project", project),
		attribute.String("ado.work_item_type", workItemType),
		attribute.Int("ado.patch.count", len(doc)),
	)
	id, err := s.inner.CreateWorkItem(ctx, doc, project, workItemType)
	if err == nil {
		span.SetAttributes(attribute.Int("ado.work_item.id", id))
	}
	s.in.done(ctx, span, name, t, err)
	return id, err
}

func (s *InstrumentedSink) UpdateWorkItem(ctx context.Context, doc migrate.FieldPatchDocument, id int) error {
	const name = "ado.update_work_item"
	ctx, span, t := s.in.op(ctx, name,
		attribute.Int("ado.work_item.id", id),
		attribute.Int("ado.patch.count", len(doc)),
	)
	err := s.inner.UpdateWorkItem(ctx, doc, id)
	s.in.done(ctx, span, name, t, err)
	return err
}

// OutcomeRecorder counts per-issue results in jira2ado.issues{status}.
// Its Record method matches migrate.Orchestrator.OnOutcome.
type OutcomeRecorder struct {
	issues metric.Int64Counter
}

// NewOutcomeRecorder returns a recorder bound to the global meter provider.
func NewOutcomeRecorder() *OutcomeRecorder {
	issues, _ := Meter(migrateScopeName).Int64Counter("jira2ado.issues",
		metric.WithDescription("Issues processed by outcome"),
	)
	return &OutcomeRecorder{issues: issues}
}

// Record adds one to the counter for o's status.
func (r *OutcomeRecorder) Record(ctx context.Context, o migrate.Outcome) {
	r.issues.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", string(o.Status)),
		attribute.String("destination.type", o.DestinationType),
	))
}
