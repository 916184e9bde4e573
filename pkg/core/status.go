package core

// StepStatus represents the execution status of a step
type StepStatus int

const (
	StatusPending StepStatus = iota // Not yet started
	StatusRunning                   // Currently executing
	StatusPassed                    // Action performed
	StatusFailed                    // Platform reported the action failed
	StatusSkipped                   // No target node, unknown action or missing input
	StatusWarned                    // Performed, but a wait ended early
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	case StatusWarned:
		return "warned"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in reports.
func (s StepStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTerminal returns true if the status is a final state
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSkipped, StatusWarned:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status indicates success (passed or warned)
func (s StepStatus) IsSuccess() bool {
	return s == StatusPassed || s == StatusWarned
}

// RunState is the state of one plan execution.
type RunState int

const (
	RunIdle      RunState = iota // Created, no step started
	RunRunning                   // Executing steps
	RunCompleted                 // Every step was attempted
	RunAborted                   // Nil or empty plan, nothing executed
)

// String returns the string representation of RunState
func (s RunState) String() string {
	switch s {
	case RunIdle:
		return "idle"
	case RunRunning:
		return "running"
	case RunCompleted:
		return "completed"
	case RunAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in reports.
func (s RunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryParse                           // Query or matcher could not be understood
	ErrCategoryResolution                      // No node matched the step
	ErrCategoryAction                          // Platform primitive reported failure
	ErrCategoryStructural                      // Plan missing or empty
	ErrCategoryConfig                          // Invalid configuration, missing required field
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryParse:
		return "parse"
	case ErrCategoryResolution:
		return "resolution"
	case ErrCategoryAction:
		return "action"
	case ErrCategoryStructural:
		return "structural"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// MarshalText renders the category by name in reports.
func (c ErrorCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
