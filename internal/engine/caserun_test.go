package engine

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/henrycs/mockserver/internal/domain"
)

func twoStepRun() *CaseRun {
	steps := []domain.Step{
		{Stage: "s0", Action: domain.ActionEntrustUpdate},
		{Stage: "s1", Action: domain.ActionBuy},
	}
	return newCaseRun("case-1", "600001", steps)
}

func TestCaseRun_ValidatePreflight(t *testing.T) {
	run := twoStepRun()

	if err := run.validate(); err != nil {
		t.Errorf("fresh run validate: %v", err)
	}

	run.executed = true
	if err := run.validate(); !errors.Is(err, domain.ErrStepAlreadyExecuted) {
		t.Errorf("executed mid-script err = %v, want ErrStepAlreadyExecuted", err)
	}

	run.cursor = 1
	if err := run.validate(); !errors.Is(err, domain.ErrScriptExhausted) {
		t.Errorf("finished run err = %v, want ErrScriptExhausted", err)
	}

	run.cursor = -1
	if err := run.validate(); !errors.Is(err, domain.ErrNotLoaded) {
		t.Errorf("unloaded run err = %v, want ErrNotLoaded", err)
	}
}

func TestCaseRun_AdvanceRequiresExecuted(t *testing.T) {
	logger := zap.NewNop()
	run := twoStepRun()

	// Not executed yet: the cursor must not move.
	run.advance(logger)
	if run.cursor != 0 {
		t.Fatalf("cursor = %d after refused advance, want 0", run.cursor)
	}

	run.executed = true
	run.advance(logger)
	if run.cursor != 1 || run.executed {
		t.Fatalf("cursor = %d executed = %v, want 1/false", run.cursor, run.executed)
	}

	// Last step: advance is a no-op even when executed.
	run.executed = true
	run.advance(logger)
	if run.cursor != 1 {
		t.Fatalf("cursor = %d after last-step advance, want 1", run.cursor)
	}
	if !run.finished() {
		t.Error("finished() = false for executed last step")
	}
}
