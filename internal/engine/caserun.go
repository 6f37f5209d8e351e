package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/henrycs/mockserver/internal/domain"
)

// CaseRun is one loaded script: its ordered steps plus the execution
// cursor. The cursor only ever moves forward, one step at a time, and
// only after the step under it has been executed. Runs are mutated
// exclusively by the Engine, which serializes access.
type CaseRun struct {
	name     string
	code     string
	steps    []domain.Step
	cursor   int // index into steps, -1 = unloaded
	executed bool
}

func newCaseRun(name, code string, steps []domain.Step) *CaseRun {
	return &CaseRun{
		name:   name,
		code:   code,
		steps:  steps,
		cursor: 0,
	}
}

// Name returns the generated case name.
func (r *CaseRun) Name() string { return r.name }

// Code returns the instrument code the run serves.
func (r *CaseRun) Code() string { return r.code }

func (r *CaseRun) current() domain.Step {
	return r.steps[r.cursor]
}

// finished reports whether the cursor sits on the last step and that
// step has been executed.
func (r *CaseRun) finished() bool {
	return r.cursor == len(r.steps)-1 && r.executed
}

// validate is the preflight gate every mutating operation passes
// through: the run must be loaded, not exhausted, and the current step
// must not have been consumed already. It has no side effects.
func (r *CaseRun) validate() error {
	if r.cursor == -1 {
		return fmt.Errorf("%w, %s", domain.ErrNotLoaded, r.code)
	}

	step := r.current()
	if r.finished() {
		return fmt.Errorf("%w, last stage, %s:%s", domain.ErrScriptExhausted, r.code, step.Stage)
	}
	if r.executed {
		return fmt.Errorf("%w: %s->%s: %s", domain.ErrStepAlreadyExecuted, r.code, step.Stage, step.Action)
	}
	return nil
}

// advance moves the cursor to the next step. It is a logged no-op when
// the run is unloaded or already at the last step, and refuses to move
// past a step that has not been executed yet.
func (r *CaseRun) advance(logger *zap.Logger) {
	if r.cursor == -1 {
		logger.Info("no case file loaded", zap.String("code", r.code))
		return
	}
	if r.cursor == len(r.steps)-1 {
		logger.Info("no more stages",
			zap.String("code", r.code),
			zap.String("stage", r.current().Stage),
		)
		return
	}
	if !r.executed {
		logger.Warn("current stage not executed, cannot proceed to next step",
			zap.String("code", r.code),
			zap.String("stage", r.current().Stage),
		)
		return
	}

	r.cursor++
	r.executed = false
}
