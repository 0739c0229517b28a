package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/steveyegge/jira2ado/internal/migrate"
)

// OutcomeIcon returns the styled icon for an outcome status.
func OutcomeIcon(status migrate.OutcomeStatus) string {
	switch status {
	case migrate.StatusCreated:
		return RenderPassIcon()
	case migrate.StatusFailed:
		return RenderFailIcon()
	default:
		return RenderSkipIcon()
	}
}

// OutcomeLine formats one outcome as a single summary line.
func OutcomeLine(o migrate.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", OutcomeIcon(o.Status), o.SourceKey)
	switch o.Status {
	case migrate.StatusCreated:
		fmt.Fprintf(&b, " → %s #%d", o.DestinationType, o.DestinationID)
		if o.State != "" {
			fmt.Fprintf(&b, " (%s)", o.State)
		}
	case migrate.StatusSkipped:
		b.WriteString(RenderMuted(" skipped"))
	case migrate.StatusFailed:
		b.WriteString(" " + RenderFail(o.Detail))
	}
	return b.String()
}

// WriteSummary prints the end-of-run summary for r. Outcome lines are only
// listed when verbose is set or the issue failed.
func WriteSummary(w io.Writer, r *migrate.Report, verbose bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, RenderCategory("Migration summary"))
	fmt.Fprintln(w, RenderSeparator())
	for _, o := range r.Outcomes {
		if verbose || o.Status == migrate.StatusFailed {
			fmt.Fprintln(w, "  "+OutcomeLine(o))
		}
	}
	fmt.Fprintf(w, "  %s %s → %s\n", RenderMuted("projects:"), r.SourceProject, r.DestinationProject)
	fmt.Fprintf(w, "  %s %d  %s %d  %s %d  %s %d\n",
		RenderMuted("total"), r.Total,
		RenderPass("created"), r.Created,
		RenderMuted("skipped"), r.Skipped,
		RenderFail("failed"), r.Failed,
	)
	if pending := r.Pending(); pending > 0 {
		fmt.Fprintf(w, "  %s %d issue(s) not processed\n", RenderWarnIcon(), pending)
	}
	if r.Aborted {
		fmt.Fprintf(w, "  %s %s\n", RenderFailIcon(), RenderFail("aborted: "+r.Error))
	}
	if r.Success() {
		fmt.Fprintf(w, "  %s %s\n", RenderPassIcon(), RenderPass("done"))
	}
}
