// Package executor runs action plans against a platform, one step at a time.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/labcitrus/avagen-runner/pkg/core"
	"github.com/labcitrus/avagen-runner/pkg/logger"
	"github.com/labcitrus/avagen-runner/pkg/plan"
	"github.com/labcitrus/avagen-runner/pkg/uitree"
)

// Config configures the executor.
type Config struct {
	Pacing  Pacing          // Inter-step delays (zero value = DefaultPacing)
	Sleeper Sleeper         // Suspension point (nil = RealSleeper)
	Logger  *zerolog.Logger // nil = logger.Component("executor")

	// Live progress callback
	OnStepComplete func(result core.StepResult)
}

// Executor interprets action plans. Steps run sequentially and a failed
// step never stops the plan. An Executor runs one plan at a time.
type Executor struct {
	platform core.Platform
	config   Config
	log      zerolog.Logger

	mu    sync.Mutex
	state core.RunState
}

// New creates a new Executor.
func New(platform core.Platform, cfg Config) *Executor {
	if cfg.Pacing == (Pacing{}) {
		cfg.Pacing = DefaultPacing()
	}
	if cfg.Sleeper == nil {
		cfg.Sleeper = RealSleeper{}
	}
	log := logger.Component("executor")
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Executor{
		platform: platform,
		config:   cfg,
		log:      log,
		state:    core.RunIdle,
	}
}

// State returns the state of the current or last run.
func (e *Executor) State() core.RunState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Executor) setState(s core.RunState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// ExecutePlan runs every step of p in order. A nil or empty plan aborts
// without any action or delay. Cancelling ctx only shortens waits: the
// interruption is recorded and the remaining steps still run.
func (e *Executor) ExecutePlan(ctx context.Context, appID string, p *plan.Plan) *core.RunResult {
	result := &core.RunResult{
		AppID:     appID,
		StartTime: time.Now(),
		State:     core.RunIdle,
	}
	e.setState(core.RunIdle)

	if p == nil {
		e.log.Warn().Str("app", appID).Msg("plan is nil")
		return e.abort(result, core.ErrNilPlan)
	}
	result.Method = p.MethodName
	if p.IsEmpty() {
		e.log.Warn().Str("app", appID).Str("method", p.MethodName).Msg("plan is empty")
		return e.abort(result, core.ErrEmptyPlan)
	}

	e.setState(core.RunRunning)
	result.State = core.RunRunning
	e.log.Info().Str("app", appID).Str("method", p.MethodName).Int("steps", len(p.Steps)).Msg("executing plan")

	for i, step := range p.Steps {
		sr := e.executeStep(ctx, i, step, result)

		if i < len(p.Steps)-1 {
			next := p.Steps[i+1].Kind()
			for _, d := range e.config.Pacing.After(step.Kind(), next) {
				sr.PaceAfter += d
				if err := e.config.Sleeper.Sleep(ctx, d); err != nil {
					e.markInterrupted(result, err)
				}
			}
		}

		result.Steps = append(result.Steps, sr)
		if e.config.OnStepComplete != nil {
			e.config.OnStepComplete(sr)
		}
	}

	result.State = core.RunCompleted
	result.Duration = time.Since(result.StartTime)
	result.ComputeSummary()
	e.setState(core.RunCompleted)

	e.log.Info().
		Str("method", p.MethodName).
		Int("passed", result.PassedSteps).
		Int("failed", result.FailedSteps).
		Int("skipped", result.SkippedSteps).
		Bool("interrupted", result.Interrupted).
		Dur("duration", result.Duration).
		Msg("plan completed")
	return result
}

func (e *Executor) abort(result *core.RunResult, err *core.ExecutionError) *core.RunResult {
	result.State = core.RunAborted
	result.Error = err.Error()
	result.Duration = time.Since(result.StartTime)
	e.setState(core.RunAborted)
	return result
}

func (e *Executor) markInterrupted(result *core.RunResult, err error) {
	if !result.Interrupted {
		e.log.Warn().Err(err).Msg("wait interrupted")
	}
	result.Interrupted = true
}

// executeStep performs one step and records its outcome. It never fails
// the plan.
func (e *Executor) executeStep(ctx context.Context, idx int, step plan.Step, run *core.RunResult) core.StepResult {
	kind := step.Kind()
	sr := core.StepResult{
		Index:     idx,
		Action:    step.ActionRaw,
		Kind:      string(kind),
		StartTime: time.Now(),
		Status:    core.StatusRunning,
	}
	log := e.log.With().Int("step", idx).Str("action", step.ActionRaw).Logger()
	log.Info().Str("kind", string(kind)).Msg("executing step")

	var node uitree.Node
	if kind.RequiresNode() {
		r := e.resolve(step)
		sr.Query = joinQueries(r.queries)
		if r.err != nil {
			log.Warn().Err(r.err).Str("source", r.source).Msg("no target node, skipping step")
			sr.Status = core.StatusSkipped
			sr.SetError(r.err)
			sr.Duration = time.Since(sr.StartTime)
			return sr
		}
		node = r.node
		sr.Node = uitree.Describe(node)
		log.Debug().Str("node", sr.Node).Int("checked", r.checked).Str("source", r.source).Msg("node resolved")
	}

	var err error
	switch kind {
	case plan.ActionSleep:
		d := e.config.Pacing.SleepFor(step)
		log.Debug().Dur("duration", d).Msg("sleep")
		if serr := e.config.Sleeper.Sleep(ctx, d); serr != nil {
			e.markInterrupted(run, serr)
			sr.Status = core.StatusWarned
			sr.SetError(core.ErrInterrupted.WithCause(serr))
			sr.Duration = time.Since(sr.StartTime)
			return sr
		}
	case plan.ActionClick:
		err = e.click(node)
	case plan.ActionInputText:
		if step.Text == nil {
			log.Warn().Msg("input step has no text, skipping")
			sr.Status = core.StatusSkipped
			sr.SetError(core.ErrMissingText)
			sr.Duration = time.Since(sr.StartTime)
			return sr
		}
		err = e.inputText(node, *step.Text)
	case plan.ActionScroll:
		err = e.scrollNode(node)
	case plan.ActionScrollDown:
		err = e.scrollDown()
	case plan.ActionSwipeLeft:
		err = e.swipeLeft()
	case plan.ActionSwipeRight:
		err = e.swipeRight()
	case plan.ActionGlobalBack:
		err = e.pressBack()
	default:
		log.Warn().Str("step", step.String()).Msg("unknown action, skipping")
		sr.Status = core.StatusSkipped
		sr.SetError(core.ErrUnknownAction.WithMessage("unknown action " + step.ActionRaw))
		sr.Duration = time.Since(sr.StartTime)
		return sr
	}

	sr.Duration = time.Since(sr.StartTime)
	if err != nil {
		log.Warn().Err(err).Msg("action failed")
		sr.Status = core.StatusFailed
		sr.SetError(err)
		return sr
	}
	sr.Status = core.StatusPassed
	return sr
}
