package engine

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/henrycs/mockserver/internal/domain"
)

// Registry owns the concurrently loaded case runs, keyed by a
// generated case name. At most one active run may serve a given
// instrument code. The Registry carries no locking of its own: all
// access goes through the Engine, which serializes it.
type Registry struct {
	runs   map[string]*CaseRun
	logger *zap.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		runs:   make(map[string]*CaseRun),
		logger: logger,
	}
}

// Load creates a run for the given steps under a fresh case name.
// Runs that have played out their last step are evicted first; a
// remaining active run for the same instrument code rejects the load.
func (g *Registry) Load(steps []domain.Step) (*CaseRun, error) {
	if len(steps) == 0 {
		g.logger.Error("no content found in case file")
		return nil, domain.ErrEmptyScript
	}

	g.evictFinished()

	code := scriptCode(steps)
	for _, run := range g.runs {
		if run.code == code {
			g.logger.Warn("code already exists", zap.String("code", code))
			return nil, fmt.Errorf("%w, %s", domain.ErrDuplicateInstrument, code)
		}
	}

	run := newCaseRun(uuid.New().String(), code, steps)
	g.runs[run.name] = run
	return run, nil
}

// ByCode returns the run serving the given instrument code.
func (g *Registry) ByCode(code string) (*CaseRun, bool) {
	for _, run := range g.runs {
		if run.code == code {
			return run, true
		}
	}
	return nil, false
}

// ByEntrustID returns the run whose script expects the given entrust
// id in any step's parameters. Cancel requests resolve through this
// without naming the instrument.
func (g *Registry) ByEntrustID(id string) (*CaseRun, bool) {
	for _, run := range g.runs {
		for i := range run.steps {
			if run.steps[i].Params != nil && run.steps[i].Params.EntrustNo.Contains(id) {
				return run, true
			}
		}
	}
	return nil, false
}

// Single returns the only loaded run, if exactly one exists.
func (g *Registry) Single() (*CaseRun, bool) {
	if len(g.runs) != 1 {
		return nil, false
	}
	for _, run := range g.runs {
		return run, true
	}
	return nil, false
}

// Reset drops all runs.
func (g *Registry) Reset() {
	g.runs = make(map[string]*CaseRun)
}

func (g *Registry) evictFinished() {
	for name, run := range g.runs {
		if run.finished() {
			g.logger.Info("evicting finished case",
				zap.String("case", name),
				zap.String("code", run.code),
			)
			delete(g.runs, name)
		}
	}
}

// scriptCode derives the run's instrument code from the first
// record-bearing step.
func scriptCode(steps []domain.Step) string {
	for i := range steps {
		if code := steps[i].Code(); code != "" {
			return code
		}
	}
	return ""
}
