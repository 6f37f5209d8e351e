package domain

// Action enumerates the scripted step kinds a case file may author.
type Action string

const (
	ActionEntrustUpdate  Action = "entrust_update"
	ActionBuy            Action = "buy"
	ActionSell           Action = "sell"
	ActionMarketBuy      Action = "market_buy"
	ActionMarketSell     Action = "market_sell"
	ActionCancelEntrust  Action = "cancel_entrust"
	ActionCancelEntrusts Action = "cancel_entrusts"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionEntrustUpdate, ActionBuy, ActionSell, ActionMarketBuy,
		ActionMarketSell, ActionCancelEntrust, ActionCancelEntrusts:
		return true
	}
	return false
}

// IsTrade reports whether a is a client-driven buy/sell action.
func (a Action) IsTrade() bool {
	switch a {
	case ActionBuy, ActionSell, ActionMarketBuy, ActionMarketSell:
		return true
	}
	return false
}

// IsCancel reports whether a is a cancellation action.
func (a Action) IsCancel() bool {
	return a == ActionCancelEntrust || a == ActionCancelEntrusts
}

type tradeKey struct {
	side OrderSide
	bid  BidType
}

// Side/bid-type compatibility table: a submitted trade only matches a
// step whose action agrees with both.
var tradeActions = map[tradeKey]Action{
	{OrderSideBuy, BidTypeLimit}:   ActionBuy,
	{OrderSideBuy, BidTypeMarket}:  ActionMarketBuy,
	{OrderSideSell, BidTypeLimit}:  ActionSell,
	{OrderSideSell, BidTypeMarket}: ActionMarketSell,
}

// TradeAction returns the step action required for the given order
// side and bid type. ok is false for unknown combinations.
func TradeAction(side OrderSide, bid BidType) (Action, bool) {
	a, ok := tradeActions[tradeKey{side, bid}]
	return a, ok
}

// ExpectedParams are the request parameters a trade or cancel step
// requires the client to submit before its synthetic result is released.
type ExpectedParams struct {
	Code      string      `json:"code,omitempty"`
	Price     float64     `json:"price,omitempty"`
	Volume    int64       `json:"volume,omitempty"`
	EntrustNo *EntrustIDs `json:"entrust_no,omitempty"`
}

// Step is one scripted broker interaction. Steps are authored in case
// files, normalized once at load time, and never mutated afterwards.
type Step struct {
	Stage         string          `json:"stage"`
	Action        Action          `json:"test_action"`
	Params        *ExpectedParams `json:"parameters,omitempty"`
	EntrustUpdate RecordList      `json:"entrust_update,omitempty"`
	TradeResult   RecordList      `json:"trade_result,omitempty"`
}

// Records returns every synthetic record on the step in application
// order: entrust updates first, then trade results.
func (s *Step) Records() []OrderRecord {
	out := make([]OrderRecord, 0, len(s.EntrustUpdate.Items)+len(s.TradeResult.Items))
	out = append(out, s.EntrustUpdate.Items...)
	out = append(out, s.TradeResult.Items...)
	return out
}

// HasFixture reports whether the step carries any synthetic record.
func (s *Step) HasFixture() bool {
	return s.EntrustUpdate.Len() > 0 || s.TradeResult.Len() > 0
}

// Code returns the instrument code of the first synthetic record on
// the step, or "" if the step carries none.
func (s *Step) Code() string {
	if s.EntrustUpdate.Len() > 0 {
		return s.EntrustUpdate.Items[0].Code
	}
	if s.TradeResult.Len() > 0 {
		return s.TradeResult.Items[0].Code
	}
	return ""
}
