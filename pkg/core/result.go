package core

import (
	"errors"
	"time"
)

// StepResult captures the outcome of executing a single plan step
type StepResult struct {
	// Identity
	Index  int    `json:"index"`  // 0-based position in plan
	Action string `json:"action"` // Raw action string from the plan
	Kind   string `json:"kind"`   // Normalized action kind

	// Status
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
	PaceAfter time.Duration `json:"paceAfter,omitempty"` // Pacing applied before the next step

	// Output
	Message string `json:"message,omitempty"` // Human-readable explanation
	Node    string `json:"node,omitempty"`    // Resolved target node
	Query   string `json:"query,omitempty"`   // Queries used for resolution

	// Error Details
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// SetError records err on the result using its category and code when it is
// an ExecutionError.
func (r *StepResult) SetError(err error) {
	if err == nil {
		return
	}
	r.Error = err.Error()
	var ee *ExecutionError
	if errors.As(err, &ee) {
		r.Category = ee.Category
		r.Code = ee.Code
	}
}

// RunResult captures the outcome of executing one plan
type RunResult struct {
	// Identity
	AppID  string `json:"appId"`
	Method string `json:"method"`

	// State
	State       RunState `json:"state"`
	Interrupted bool     `json:"interrupted,omitempty"` // A wait ended early on cancellation

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Steps []StepResult `json:"steps"`

	// Summary (computed)
	TotalSteps   int `json:"totalSteps"`
	PassedSteps  int `json:"passedSteps"`
	FailedSteps  int `json:"failedSteps"`
	SkippedSteps int `json:"skippedSteps"`
	WarnedSteps  int `json:"warnedSteps"`

	// Error info (if aborted)
	Error string `json:"error,omitempty"`
}

// ComputeSummary calculates step counts from the Steps slice
func (r *RunResult) ComputeSummary() {
	r.TotalSteps = len(r.Steps)
	r.PassedSteps = 0
	r.FailedSteps = 0
	r.SkippedSteps = 0
	r.WarnedSteps = 0

	for _, step := range r.Steps {
		switch step.Status {
		case StatusPassed:
			r.PassedSteps++
		case StatusFailed:
			r.FailedSteps++
		case StatusSkipped:
			r.SkippedSteps++
		case StatusWarned:
			r.WarnedSteps++
		}
	}
}

// Success returns true if the run completed and no step failed or was skipped
func (r *RunResult) Success() bool {
	if r.State != RunCompleted {
		return false
	}
	for _, step := range r.Steps {
		if !step.Status.IsSuccess() {
			return false
		}
	}
	return true
}
