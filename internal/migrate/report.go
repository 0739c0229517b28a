package migrate

import "time"

// OutcomeStatus is the terminal state of one issue.
type OutcomeStatus string

const (
	StatusCreated OutcomeStatus = "created"
	StatusSkipped OutcomeStatus = "skipped"
	StatusFailed  OutcomeStatus = "failed"
)

// Outcome records what happened to one Jira issue.
type Outcome struct {
	SourceKey       string        `json:"source_key" yaml:"source_key" toml:"source_key"`
	Status          OutcomeStatus `json:"status" yaml:"status" toml:"status"`
	DestinationType string        `json:"destination_type,omitempty" yaml:"destination_type,omitempty" toml:"destination_type,omitempty"`
	DestinationID   int           `json:"destination_id,omitempty" yaml:"destination_id,omitempty" toml:"destination_id,omitempty"`
	State           string        `json:"state,omitempty" yaml:"state,omitempty" toml:"state,omitempty"`
	Detail          string        `json:"detail,omitempty" yaml:"detail,omitempty" toml:"detail,omitempty"`
}

// Report summarizes one migration run.
type Report struct {
	RunID              string    `json:"run_id" yaml:"run_id" toml:"run_id"`
	SourceProject      string    `json:"source_project" yaml:"source_project" toml:"source_project"`
	DestinationProject string    `json:"destination_project" yaml:"destination_project" toml:"destination_project"`
	StartTime          time.Time `json:"start_time" yaml:"start_time" toml:"start_time"`
	EndTime            time.Time `json:"end_time" yaml:"end_time" toml:"end_time"`
	Total              int       `json:"total" yaml:"total" toml:"total"`
	Created            int       `json:"created" yaml:"created" toml:"created"`
	Skipped            int       `json:"skipped" yaml:"skipped" toml:"skipped"`
	Failed             int       `json:"failed" yaml:"failed" toml:"failed"`
	Aborted            bool      `json:"aborted" yaml:"aborted" toml:"aborted"`
	Error              string    `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
	Outcomes           []Outcome `json:"outcomes" yaml:"outcomes" toml:"outcomes"`
}

// Success reports whether every processed issue was created or skipped and
// the run was not cut short.
func (r *Report) Success() bool {
	return !r.Aborted && r.Failed == 0 && r.Error == ""
}

// Pending returns how many extracted issues were never processed.
func (r *Report) Pending() int {
	return r.Total - len(r.Outcomes)
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case StatusCreated:
		r.Created++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}
