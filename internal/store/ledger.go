package store

import (
	"sync"

	"github.com/google/btree"

	"github.com/henrycs/mockserver/internal/domain"
)

// AccountInfo is the seeded account snapshot returned by the balance
// query. It is fixed at process start and never recomputed.
type AccountInfo struct {
	Account   string  `json:"account"`
	Available float64 `json:"available"`
	PnL       float64 `json:"pnl"`
	Total     float64 `json:"total"`
	PPnL      float64 `json:"ppnl"`
}

// Position is the reconstructed holding for one instrument, derived
// purely from the trade ledger.
type Position struct {
	Account     string  `json:"account"`
	Code        string  `json:"code"`
	Shares      int64   `json:"shares"`
	Sellable    int64   `json:"sellable"`
	Price       float64 `json:"price"`
	MarketValue float64 `json:"market_value"`
	Amount      float64 `json:"amount"`
}

// tradeEntry pins an order record at its ledger-insertion position.
type tradeEntry struct {
	seq    uint64
	record domain.OrderRecord
}

func tradeLess(a, b tradeEntry) bool { return a.seq < b.seq }

// btree degree for the trade ledger; fixture-scale, low fan-out is fine.
const ledgerDegree = 8

// LedgerStore is the thread-safe account ledger: the latest record per
// entrust, the fill ledger, and per-instrument positions. Entrust and
// position maps are plain upsert maps; the fill ledger additionally
// keeps insertion order in a btree keyed by a monotonic sequence, so
// position reconstruction replays fills in the order they landed even
// though lookups stay keyed by entrust id. Re-upserting a known entrust
// id replaces the record but keeps its original position in the replay.
type LedgerStore struct {
	mu        sync.RWMutex
	account   AccountInfo
	entrusts  map[string]domain.OrderRecord
	tradeSeq  map[string]uint64 // entrust id → insertion sequence
	trades    *btree.BTreeG[tradeEntry]
	positions map[string]Position
	nextSeq   uint64
}

// NewLedgerStore creates a ledger seeded with the given account snapshot.
func NewLedgerStore(account AccountInfo) *LedgerStore {
	return &LedgerStore{
		account:   account,
		entrusts:  make(map[string]domain.OrderRecord),
		tradeSeq:  make(map[string]uint64),
		trades:    btree.NewG(ledgerDegree, tradeLess),
		positions: make(map[string]Position),
	}
}

// Account returns the seeded account snapshot.
func (s *LedgerStore) Account() AccountInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.account
}

// Apply upserts the record into the entrust map and, when the record
// is a partial or full fill, into the fill ledger, recomputing the
// affected instrument's position.
func (s *LedgerStore) Apply(rec domain.OrderRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entrusts[rec.EntrustNo] = rec

	if !rec.Status.IsFill() {
		return
	}

	seq, ok := s.tradeSeq[rec.EntrustNo]
	if !ok {
		seq = s.nextSeq
		s.nextSeq++
		s.tradeSeq[rec.EntrustNo] = seq
	}
	s.trades.ReplaceOrInsert(tradeEntry{seq: seq, record: rec})

	s.recomputeLocked(rec.Code)
}

// Recompute rebuilds the position for code from the full fill ledger.
// It is a pure function of ledger state: calling it again on an
// unchanged ledger yields the identical position.
func (s *LedgerStore) Recompute(code string) Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.recomputeLocked(code)
}

func (s *LedgerStore) recomputeLocked(code string) Position {
	pos := Position{Account: s.account.Account, Code: code}

	s.trades.Ascend(func(e tradeEntry) bool {
		rec := e.record
		if rec.Code != code {
			return true
		}
		// Unfilled records carry no executed volume; skip and keep scanning.
		if !rec.Status.IsFill() {
			return true
		}

		amount := float64(rec.Filled) * rec.AveragePrice
		if rec.OrderSide == domain.OrderSideBuy {
			pos.Shares += rec.Filled
			pos.Sellable += rec.Filled
			pos.Amount += amount
		} else {
			pos.Shares -= rec.Filled
			pos.Sellable -= rec.Filled
			pos.Amount -= amount
		}
		if pos.Shares == 0 {
			pos.Price = 0
		} else {
			pos.Price = pos.Amount / float64(pos.Shares)
		}
		pos.MarketValue = float64(pos.Shares) * pos.Price
		return true
	})

	s.positions[code] = pos
	return pos
}

// Entrusts returns a copy of the entrust map, filtered to ids when a
// non-empty filter is given.
func (s *LedgerStore) Entrusts(ids []string) map[string]domain.OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.OrderRecord)
	if len(ids) == 0 {
		for id, rec := range s.entrusts {
			out[id] = rec
		}
		return out
	}
	for _, id := range ids {
		if rec, ok := s.entrusts[id]; ok {
			out[id] = rec
		}
	}
	return out
}

// Trades returns a copy of the fill ledger keyed by entrust id.
func (s *LedgerStore) Trades() map[string]domain.OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.OrderRecord, s.trades.Len())
	s.trades.Ascend(func(e tradeEntry) bool {
		out[e.record.EntrustNo] = e.record
		return true
	})
	return out
}

// Positions returns the reconstructed positions as a list.
func (s *LedgerStore) Positions() []Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	return out
}

// Clear empties entrusts, trades, and positions. The seeded account
// snapshot survives for the life of the process.
func (s *LedgerStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entrusts = make(map[string]domain.OrderRecord)
	s.tradeSeq = make(map[string]uint64)
	s.trades = btree.NewG(ledgerDegree, tradeLess)
	s.positions = make(map[string]Position)
	s.nextSeq = 0
}
