package domain

import "errors"

// Sentinel errors for engine-level error handling. All are non-fatal
// and reported synchronously; the handler layer maps them into the
// response envelope. Call sites wrap them with context via %w.
var (
	ErrEmptyScript          = errors.New("no content in case file")
	ErrDuplicateInstrument  = errors.New("duplicated code")
	ErrNotLoaded            = errors.New("no case file loaded")
	ErrScriptExhausted      = errors.New("no more stages")
	ErrStepAlreadyExecuted  = errors.New("current action already executed")
	ErrUnknownInstrument    = errors.New("invalid security")
	ErrNoActionDefined      = errors.New("no test_action defined in case stage")
	ErrMissingFixture       = errors.New("parameters and trade_result in trade operation not defined")
	ErrActionMismatch       = errors.New("action not matched")
	ErrParametersNotMatched = errors.New("parameters in trade operation not matched")
	ErrCaseNotFound         = errors.New("invalid entrust id")
)

// ValidationError represents a case-file shape failure detected at
// load time. Nothing is committed when one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
