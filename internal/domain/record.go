package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderSide indicates the direction of an order.
type OrderSide int

const (
	OrderSideBuy  OrderSide = 1
	OrderSideSell OrderSide = -1
)

// BidType distinguishes limit orders from market orders.
type BidType int

const (
	BidTypeLimit  BidType = 1
	BidTypeMarket BidType = 2
)

// OrderStatus represents the broker-side lifecycle state of an entrust.
type OrderStatus int

const (
	OrderStatusError       OrderStatus = -1
	OrderStatusReceived    OrderStatus = 0
	OrderStatusSubmitted   OrderStatus = 1
	OrderStatusPartialFill OrderStatus = 2
	OrderStatusFullFill    OrderStatus = 3
	OrderStatusCanceled    OrderStatus = 4
)

// IsFill reports whether the status represents an execution
// (partial or full) that belongs in the trade ledger.
func (s OrderStatus) IsFill() bool {
	return s == OrderStatusPartialFill || s == OrderStatusFullFill
}

// OrderRecord is one canned broker order snapshot, authored in a case
// file and replayed verbatim (save for load-time timestamp/id rewrites).
type OrderRecord struct {
	EntrustNo    string      `json:"entrust_no"`
	Eid          string      `json:"eid,omitempty"`
	Code         string      `json:"code"`
	Price        float64     `json:"price"`
	Volume       int64       `json:"volume"`
	OrderSide    OrderSide   `json:"order_side"`
	BidType      BidType     `json:"bid_type,omitempty"`
	Status       OrderStatus `json:"status"`
	Filled       int64       `json:"filled"`
	AveragePrice float64     `json:"average_price"`
	FilledAmount float64     `json:"filled_amount,omitempty"`
	Time         string      `json:"time"`
	RecvAt       string      `json:"recv_at"`
}

// RecordList holds the synthetic record(s) attached to a step. Case
// files may author either a single record object or an array of them;
// the original shape is remembered so responses round-trip unchanged.
type RecordList struct {
	Items []OrderRecord
	// Single is true when the JSON value was a bare object.
	Single bool
}

// Len returns the number of records in the list.
func (l RecordList) Len() int { return len(l.Items) }

// UnmarshalJSON accepts either a single order record or an array of
// order records.
func (l *RecordList) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = RecordList{}
		return nil
	}

	if trimmed[0] == '[' {
		var items []OrderRecord
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = RecordList{Items: items}
		return nil
	}

	var one OrderRecord
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return err
	}
	*l = RecordList{Items: []OrderRecord{one}, Single: true}
	return nil
}

// MarshalJSON writes back the shape the value was authored in: a bare
// object for single records, an array otherwise.
func (l RecordList) MarshalJSON() ([]byte, error) {
	if l.Single && len(l.Items) == 1 {
		return json.Marshal(l.Items[0])
	}
	if l.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Items)
}

// EntrustIDs holds the entrust id(s) named by a step's expected
// parameters: a single id for cancel_entrust, a list for
// cancel_entrusts. The authored shape is preserved because the two
// cancel operations accept exactly one of them.
type EntrustIDs struct {
	IDs []string
	// List is true when the JSON value was an array.
	List bool
}

// Contains reports whether id is among the expected entrust ids.
func (e *EntrustIDs) Contains(id string) bool {
	if e == nil {
		return false
	}
	for _, v := range e.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// MatchesSet reports whether the expected ids equal the given ids as
// sets, with the same cardinality.
func (e *EntrustIDs) MatchesSet(ids []string) bool {
	if e == nil || len(e.IDs) != len(ids) {
		return false
	}
	want := make(map[string]int, len(e.IDs))
	for _, v := range e.IDs {
		want[v]++
	}
	for _, v := range ids {
		if want[v] == 0 {
			return false
		}
		want[v]--
	}
	return true
}

// UnmarshalJSON accepts either a single string id or an array of ids.
func (e *EntrustIDs) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*e = EntrustIDs{}
		return nil
	}

	if trimmed[0] == '[' {
		var ids []string
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return err
		}
		*e = EntrustIDs{IDs: ids, List: true}
		return nil
	}

	var one string
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return fmt.Errorf("entrust_no must be a string or an array of strings: %w", err)
	}
	*e = EntrustIDs{IDs: []string{one}}
	return nil
}

// MarshalJSON writes a bare string for single ids and an array otherwise.
func (e EntrustIDs) MarshalJSON() ([]byte, error) {
	if !e.List && len(e.IDs) == 1 {
		return json.Marshal(e.IDs[0])
	}
	if e.IDs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e.IDs)
}
