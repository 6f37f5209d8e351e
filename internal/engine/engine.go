package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/henrycs/mockserver/internal/domain"
	"github.com/henrycs/mockserver/internal/metrics"
	"github.com/henrycs/mockserver/internal/store"
)

// Step execution status strings reported to the client.
const (
	StatusToBeExecuted   = "to be executed"
	StatusActionExecuted = "action executed"
)

// priceTolerance is the relative tolerance used when matching limit
// prices, absorbing float round-trip noise.
const priceTolerance = 1e-5

// LoadResult reports the state of a freshly loaded script.
type LoadResult struct {
	Case   string        `json:"case"`
	Stage  string        `json:"stage"`
	Action domain.Action `json:"action"`
	Status string        `json:"status"`
}

// StepResult reports a non-trade step executed through Proceed.
type StepResult struct {
	Code   string        `json:"code"`
	Stage  string        `json:"stage"`
	Action domain.Action `json:"action"`
	Status string        `json:"status"`
}

// CurrentStep describes the step under a run's cursor.
type CurrentStep struct {
	Code     string        `json:"code"`
	Stage    string        `json:"stage"`
	Action   domain.Action `json:"action"`
	Executed bool          `json:"executed"`
}

// Engine drives case execution: it validates preconditions, matches
// incoming trade requests against the current scripted step, applies
// ledger mutations, and advances the cursor. A single mutex serializes
// every operation; no call observes a run or the ledger mid-mutation.
type Engine struct {
	mu       sync.Mutex
	registry *Registry
	ledger   *store.LedgerStore
	history  *store.HistoryStore
	logger   *zap.Logger
}

// New creates an Engine over the given registry, ledger, and history log.
func New(registry *Registry, ledger *store.LedgerStore, history *store.HistoryStore, logger *zap.Logger) *Engine {
	return &Engine{
		registry: registry,
		ledger:   ledger,
		history:  history,
		logger:   logger,
	}
}

// LoadCase registers a script and positions its cursor on step 0. A
// leading entrust_update step models a broker acknowledgement that
// needs no client action, so it is applied immediately and the cursor
// moves on.
func (e *Engine) LoadCase(steps []domain.Step) (LoadResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	run, err := e.registry.Load(steps)
	if err != nil {
		return LoadResult{}, e.reject(err)
	}
	metrics.CasesLoaded.Inc()

	step := run.current()
	res := LoadResult{
		Case:   run.name,
		Stage:  step.Stage,
		Action: step.Action,
		Status: StatusToBeExecuted,
	}

	if step.Action == domain.ActionEntrustUpdate {
		e.applyStep(run, step)
		run.advance(e.logger)
		res.Status = StatusActionExecuted
	}

	e.logger.Info("case loaded",
		zap.String("case", run.name),
		zap.String("code", run.code),
		zap.Int("steps", len(steps)),
		zap.String("status", res.Status),
	)
	return res, nil
}

// Proceed executes the current step of a run when it is a
// broker-initiated entrust update. Client-driven trade and cancel
// steps must come in through SubmitTrade / Cancel instead.
func (e *Engine) Proceed(code string) (StepResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	run, err := e.resolveRun(code)
	if err != nil {
		return StepResult{}, e.reject(err)
	}
	if err := run.validate(); err != nil {
		return StepResult{}, e.reject(err)
	}

	step := run.current()
	if step.Action != domain.ActionEntrustUpdate {
		return StepResult{}, e.reject(fmt.Errorf("%w, %s, %s, %s",
			domain.ErrActionMismatch, run.code, step.Stage, step.Action))
	}

	e.applyStep(run, step)
	run.advance(e.logger)

	return StepResult{
		Code:   run.code,
		Stage:  step.Stage,
		Action: step.Action,
		Status: StatusActionExecuted,
	}, nil
}

// Current returns the step under the cursor of the resolved run.
func (e *Engine) Current(code string) (CurrentStep, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	run, err := e.resolveRun(code)
	if err != nil {
		return CurrentStep{}, err
	}
	if run.cursor == -1 {
		return CurrentStep{}, fmt.Errorf("%w, %s", domain.ErrNotLoaded, run.code)
	}

	step := run.current()
	return CurrentStep{
		Code:     run.code,
		Stage:    step.Stage,
		Action:   step.Action,
		Executed: run.executed,
	}, nil
}

// SubmitTrade matches a client buy/sell request against the current
// step of the run serving the instrument. On a full match the step's
// synthetic records land in the ledger and its trade result is
// returned; on any mismatch nothing is mutated.
func (e *Engine) SubmitTrade(code string, price float64, volume int64, side domain.OrderSide, bid domain.BidType) (domain.RecordList, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	run, ok := e.registry.ByCode(code)
	if !ok {
		return domain.RecordList{}, e.reject(fmt.Errorf("%w %s", domain.ErrUnknownInstrument, code))
	}
	if err := run.validate(); err != nil {
		return domain.RecordList{}, e.reject(err)
	}

	step := run.current()
	if step.Action == "" {
		return domain.RecordList{}, e.reject(domain.ErrNoActionDefined)
	}
	if step.Params == nil && step.TradeResult.Len() == 0 {
		return domain.RecordList{}, e.reject(fmt.Errorf("%w, %s -> %s",
			domain.ErrMissingFixture, run.code, step.Stage))
	}

	want, known := domain.TradeAction(side, bid)
	if !known || step.Action != want {
		return domain.RecordList{}, e.reject(fmt.Errorf("%w, %s, %s, %s",
			domain.ErrActionMismatch, code, step.Stage, step.Action))
	}
	if step.Params == nil || step.TradeResult.Len() == 0 {
		return domain.RecordList{}, e.reject(fmt.Errorf("%w, %s -> %s",
			domain.ErrMissingFixture, run.code, step.Stage))
	}

	wantPrice, gotPrice := step.Params.Price, price
	if bid == domain.BidTypeMarket {
		// Market orders are price-neutral: both sides compare as 0.
		wantPrice, gotPrice = 0, 0
	}
	if step.Params.Code != code || step.Params.Volume != volume || !priceClose(gotPrice, wantPrice) {
		return domain.RecordList{}, e.reject(fmt.Errorf("%w, %s -> %s",
			domain.ErrParametersNotMatched, code, step.Stage))
	}

	e.applyStep(run, step)
	run.advance(e.logger)
	return step.TradeResult, nil
}

// CancelOne matches a single-entrust cancel request. The run is
// resolved by scanning scripts for the entrust id; the current step
// must expect exactly that one id.
func (e *Engine) CancelOne(entrustID string) (domain.RecordList, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	run, step, err := e.cancelStep(entrustID, domain.ActionCancelEntrust)
	if err != nil {
		return domain.RecordList{}, e.reject(err)
	}

	ids := step.Params.EntrustNo
	if ids == nil || ids.List || len(ids.IDs) != 1 || ids.IDs[0] != entrustID {
		return domain.RecordList{}, e.reject(fmt.Errorf("%w, %s -> %s",
			domain.ErrParametersNotMatched, run.code, step.Stage))
	}

	e.applyStep(run, step)
	run.advance(e.logger)
	return step.TradeResult, nil
}

// CancelMany matches a batch cancel request. The expected ids must
// equal the requested ids as sets, and the step's synthetic result
// must be a list; the response maps each entrust id to its record.
func (e *Engine) CancelMany(entrustIDs []string) (map[string]domain.OrderRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(entrustIDs) == 0 {
		return nil, e.reject(domain.ErrCaseNotFound)
	}

	run, step, err := e.cancelStep(entrustIDs[0], domain.ActionCancelEntrusts)
	if err != nil {
		return nil, e.reject(err)
	}

	ids := step.Params.EntrustNo
	if ids == nil || !ids.List || !ids.MatchesSet(entrustIDs) {
		return nil, e.reject(fmt.Errorf("%w, %s -> %s",
			domain.ErrParametersNotMatched, run.code, step.Stage))
	}
	if step.TradeResult.Single {
		return nil, e.reject(fmt.Errorf("%w: trade_result must be a list, %s -> %s",
			domain.ErrMissingFixture, run.code, step.Stage))
	}

	e.applyStep(run, step)
	run.advance(e.logger)

	out := make(map[string]domain.OrderRecord, step.TradeResult.Len())
	for _, rec := range step.TradeResult.Items {
		out[rec.EntrustNo] = rec
	}
	return out, nil
}

// cancelStep resolves and preflights the run for a cancel request and
// checks the current step against the wanted cancel action.
func (e *Engine) cancelStep(entrustID string, want domain.Action) (*CaseRun, domain.Step, error) {
	run, ok := e.registry.ByEntrustID(entrustID)
	if !ok {
		return nil, domain.Step{}, fmt.Errorf("%w %s", domain.ErrCaseNotFound, entrustID)
	}
	if err := run.validate(); err != nil {
		return nil, domain.Step{}, err
	}

	step := run.current()
	if step.Action == "" {
		return nil, domain.Step{}, domain.ErrNoActionDefined
	}
	if step.Params == nil || step.TradeResult.Len() == 0 {
		return nil, domain.Step{}, fmt.Errorf("%w, %s -> %s",
			domain.ErrMissingFixture, run.code, step.Stage)
	}
	if step.Action != want {
		return nil, domain.Step{}, fmt.Errorf("%w, %s, %s, %s",
			domain.ErrActionMismatch, run.code, step.Stage, step.Action)
	}
	return run, step, nil
}

// History returns the global execution log in execution order.
func (e *Engine) History() []store.HistoryEntry {
	return e.history.List()
}

// Reset drops all runs and history; with clearLedger it also empties
// the account ledger's entrusts, trades, and positions.
func (e *Engine) Reset(clearLedger bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.registry.Reset()
	e.history.Clear()
	if clearLedger {
		e.ledger.Clear()
	}
	metrics.Resets.Inc()
	e.logger.Info("execution data reset", zap.Bool("ledger_cleared", clearLedger))
}

// Balance returns the seeded account snapshot.
func (e *Engine) Balance() store.AccountInfo {
	return e.ledger.Account()
}

// Positions returns the reconstructed positions.
func (e *Engine) Positions() []store.Position {
	return e.ledger.Positions()
}

// TodayEntrusts returns the entrust map, filtered to ids when given.
func (e *Engine) TodayEntrusts(ids []string) map[string]domain.OrderRecord {
	return e.ledger.Entrusts(ids)
}

// TodayTrades returns the fill ledger keyed by entrust id.
func (e *Engine) TodayTrades() map[string]domain.OrderRecord {
	return e.ledger.Trades()
}

// applyStep lands every synthetic record of the step in the ledger, in
// list order, marks the step executed, and records it in the history log.
func (e *Engine) applyStep(run *CaseRun, step domain.Step) {
	for _, rec := range step.Records() {
		e.ledger.Apply(rec)
	}
	run.executed = true
	e.history.Append(store.HistoryEntry{
		Code:   run.code,
		Stage:  step.Stage,
		Action: step.Action,
	})
	metrics.StepsExecuted.WithLabelValues(string(step.Action)).Inc()
}

// resolveRun finds the run for a controller request: by code when one
// is given, otherwise the single loaded run.
func (e *Engine) resolveRun(code string) (*CaseRun, error) {
	if code != "" {
		if run, ok := e.registry.ByCode(code); ok {
			return run, nil
		}
		return nil, fmt.Errorf("%w, %s", domain.ErrNotLoaded, code)
	}
	if run, ok := e.registry.Single(); ok {
		return run, nil
	}
	return nil, domain.ErrNotLoaded
}

func (e *Engine) reject(err error) error {
	metrics.StepRejects.WithLabelValues(rejectReason(err)).Inc()
	return err
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyScript):
		return "empty_script"
	case errors.Is(err, domain.ErrDuplicateInstrument):
		return "duplicate_instrument"
	case errors.Is(err, domain.ErrNotLoaded):
		return "not_loaded"
	case errors.Is(err, domain.ErrScriptExhausted):
		return "script_exhausted"
	case errors.Is(err, domain.ErrStepAlreadyExecuted):
		return "step_already_executed"
	case errors.Is(err, domain.ErrUnknownInstrument):
		return "unknown_instrument"
	case errors.Is(err, domain.ErrNoActionDefined):
		return "no_action_defined"
	case errors.Is(err, domain.ErrMissingFixture):
		return "missing_fixture"
	case errors.Is(err, domain.ErrActionMismatch):
		return "action_mismatch"
	case errors.Is(err, domain.ErrParametersNotMatched):
		return "parameters_not_matched"
	case errors.Is(err, domain.ErrCaseNotFound):
		return "not_found"
	}
	return "other"
}

// priceClose compares prices with a relative tolerance, the same rule
// math.isclose applies: |a-b| <= tol * max(|a|, |b|).
func priceClose(a, b float64) bool {
	return math.Abs(a-b) <= priceTolerance*math.Max(math.Abs(a), math.Abs(b))
}
