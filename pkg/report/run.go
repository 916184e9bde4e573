package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/labcitrus/avagen-runner/pkg/core"
)

// FromResult converts an execution result into a run report with a fresh id.
func FromResult(result *core.RunResult) *Run {
	run := &Run{
		Version:     Version,
		ID:          uuid.NewString(),
		AppID:       result.AppID,
		Method:      result.Method,
		Status:      runStatus(result),
		Interrupted: result.Interrupted,
		StartTime:   result.StartTime,
		EndTime:     result.StartTime.Add(result.Duration),
		DurationMs:  result.Duration.Milliseconds(),
		Summary: Summary{
			Total:   result.TotalSteps,
			Passed:  result.PassedSteps,
			Failed:  result.FailedSteps,
			Skipped: result.SkippedSteps,
			Warned:  result.WarnedSteps,
		},
		Steps: make([]Step, 0, len(result.Steps)),
		Error: result.Error,
	}

	for _, sr := range result.Steps {
		step := Step{
			Index:      sr.Index,
			Action:     sr.Action,
			Kind:       sr.Kind,
			Status:     stepStatus(sr.Status),
			DurationMs: sr.Duration.Milliseconds(),
			PaceMs:     sr.PaceAfter.Milliseconds(),
			Node:       sr.Node,
			Query:      sr.Query,
		}
		if sr.Error != "" {
			step.Error = &Error{
				Category: sr.Category.String(),
				Code:     sr.Code,
				Message:  sr.Error,
			}
		}
		run.Steps = append(run.Steps, step)
	}
	return run
}

// Entry returns the index line for the run.
func (r *Run) Entry(dataFile string) RunEntry {
	return RunEntry{
		ID:          r.ID,
		AppID:       r.AppID,
		Method:      r.Method,
		Status:      r.Status,
		Interrupted: r.Interrupted,
		StartTime:   r.StartTime,
		DurationMs:  r.DurationMs,
		Summary:     r.Summary,
		DataFile:    dataFile,
	}
}

// Duration returns the run duration.
func (r *Run) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// runStatus: aborted runs are aborted; completed runs pass unless a step
// failed.
func runStatus(result *core.RunResult) Status {
	switch result.State {
	case core.RunAborted:
		return StatusAborted
	case core.RunCompleted:
		if result.FailedSteps > 0 {
			return StatusFailed
		}
		return StatusPassed
	case core.RunRunning:
		return StatusRunning
	}
	return StatusPending
}

func stepStatus(s core.StepStatus) Status {
	switch s {
	case core.StatusRunning:
		return StatusRunning
	case core.StatusPassed:
		return StatusPassed
	case core.StatusFailed:
		return StatusFailed
	case core.StatusSkipped:
		return StatusSkipped
	case core.StatusWarned:
		return StatusWarned
	}
	return StatusPending
}
