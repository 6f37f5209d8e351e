// Package loader reads authored case scripts from disk and normalizes
// them into the typed step list the engine consumes.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/henrycs/mockserver/internal/domain"
)

// timeLayout matches the timestamp format authored broker records use.
const timeLayout = "2006-01-02 15:04:05.000000"

// Loader reads case files from a fixed directory.
type Loader struct {
	dir    string
	logger *zap.Logger
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string, logger *zap.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Read loads, validates, and normalizes the named case file. The name
// may be given with or without the .json extension. A malformed file
// fails here with the parse or shape error; nothing is committed.
func (l *Loader) Read(name string) ([]domain.Step, error) {
	base := filepath.Base(name)
	if filepath.Ext(base) == "" {
		base += ".json"
	}
	path := filepath.Join(l.dir, base)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file %s: %w", base, err)
	}

	var steps []domain.Step
	if err := json.Unmarshal(raw, &steps); err != nil {
		return nil, fmt.Errorf("parse case file %s: %w", base, err)
	}

	for i := range steps {
		if err := validateStep(&steps[i]); err != nil {
			return nil, fmt.Errorf("case file %s, step %d (%s): %w", base, i, steps[i].Stage, err)
		}
	}

	normalize(steps)
	l.logger.Info("case file read",
		zap.String("case", base),
		zap.Int("steps", len(steps)),
	)
	return steps, nil
}

// validateStep rejects at load time any step missing the fields its
// action needs at execution time.
func validateStep(s *domain.Step) error {
	if !s.Action.Valid() {
		return &domain.ValidationError{Message: fmt.Sprintf("unknown test_action %q", s.Action)}
	}

	switch {
	case s.Action == domain.ActionEntrustUpdate:
		if !s.HasFixture() {
			return &domain.ValidationError{Message: "entrust_update step carries no record"}
		}
	case s.Action.IsTrade():
		if s.Params == nil || s.Params.Code == "" || s.Params.Volume <= 0 {
			return &domain.ValidationError{Message: "trade step requires parameters with code and volume"}
		}
		if s.TradeResult.Len() == 0 {
			return &domain.ValidationError{Message: "trade step requires a trade_result"}
		}
	case s.Action == domain.ActionCancelEntrust:
		ids := entrustIDs(s)
		if ids == nil || ids.List || len(ids.IDs) != 1 {
			return &domain.ValidationError{Message: "cancel_entrust requires a single entrust_no"}
		}
		if s.TradeResult.Len() == 0 {
			return &domain.ValidationError{Message: "cancel_entrust requires a trade_result"}
		}
	case s.Action == domain.ActionCancelEntrusts:
		ids := entrustIDs(s)
		if ids == nil || !ids.List || len(ids.IDs) == 0 {
			return &domain.ValidationError{Message: "cancel_entrusts requires a list of entrust_no"}
		}
		if s.TradeResult.Single || s.TradeResult.Len() == 0 {
			return &domain.ValidationError{Message: "cancel_entrusts requires a list trade_result"}
		}
	}
	return nil
}

func entrustIDs(s *domain.Step) *domain.EntrustIDs {
	if s.Params == nil {
		return nil
	}
	return s.Params.EntrustNo
}

// normalize stamps every record with the load wall-clock time and, for
// a single-step trade script, mints fresh entrust ids so repeated
// loads of the same file do not collide in the ledger.
func normalize(steps []domain.Step) {
	now := time.Now().Format(timeLayout)

	if len(steps) == 1 && (steps[0].Action.IsTrade()) {
		for i := range steps[0].TradeResult.Items {
			steps[0].TradeResult.Items[i].EntrustNo = uuid.New().String()
			steps[0].TradeResult.Items[i].Eid = uuid.New().String()
		}
	}

	for i := range steps {
		stamp(steps[i].EntrustUpdate.Items, now)
		stamp(steps[i].TradeResult.Items, now)
	}
}

func stamp(records []domain.OrderRecord, now string) {
	for i := range records {
		records[i].Time = now
		records[i].RecvAt = now
	}
}

// CaseName strips the .json extension from a case file name.
func CaseName(file string) string {
	return strings.TrimSuffix(file, ".json")
}
