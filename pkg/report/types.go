// Package report writes JSON run reports.
//
// Layout:
//   - report.json: index of every recorded run (mutex-protected, rewritten atomically)
//   - runs/run-<id>.json: one detail file per plan execution
package report

import "time"

// Version is the report schema version.
const Version = "1.0.0"

// Status represents the execution status of a run or a step.
type Status string

// Status values.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusWarned  Status = "warned"
	StatusAborted Status = "aborted"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	return s != StatusPending && s != StatusRunning
}

// ============================================================================
// INDEX (report.json)
// ============================================================================

// Index lists recorded runs, newest last.
type Index struct {
	Version     string     `json:"version"`
	UpdateSeq   uint64     `json:"updateSeq"`
	LastUpdated time.Time  `json:"lastUpdated"`
	Runs        []RunEntry `json:"runs"`
}

// RunEntry is the index line for one run.
type RunEntry struct {
	ID          string    `json:"id"`
	AppID       string    `json:"appId"`
	Method      string    `json:"method"`
	Status      Status    `json:"status"`
	Interrupted bool      `json:"interrupted,omitempty"`
	StartTime   time.Time `json:"startTime"`
	DurationMs  int64     `json:"durationMs"`
	Summary     Summary   `json:"summary"`
	DataFile    string    `json:"dataFile"` // relative to the report directory
}

// Summary contains step counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Warned  int `json:"warned"`
}

// ============================================================================
// RUN DETAIL (runs/run-<id>.json)
// ============================================================================

// Run is the detail report of one plan execution.
type Run struct {
	Version     string    `json:"version"`
	ID          string    `json:"id"`
	AppID       string    `json:"appId"`
	Method      string    `json:"method"`
	Status      Status    `json:"status"`
	Interrupted bool      `json:"interrupted,omitempty"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	DurationMs  int64     `json:"durationMs"`
	Summary     Summary   `json:"summary"`
	Steps       []Step    `json:"steps"`
	Error       string    `json:"error,omitempty"`
}

// Step is one executed plan step.
type Step struct {
	Index      int    `json:"index"`
	Action     string `json:"action"`
	Kind       string `json:"kind"`
	Status     Status `json:"status"`
	DurationMs int64  `json:"durationMs"`
	PaceMs     int64  `json:"paceMs,omitempty"`
	Node       string `json:"node,omitempty"`
	Query      string `json:"query,omitempty"`
	Error      *Error `json:"error,omitempty"`
}

// Error contains step error details.
type Error struct {
	Category string `json:"category"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
}
