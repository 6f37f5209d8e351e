package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/henrycs/mockserver/internal/domain"
	"github.com/henrycs/mockserver/internal/engine"
)

// TradeHandler serves the broker-facing trade endpoints the client
// under test calls as if this were a live trade server.
type TradeHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(eng *engine.Engine, logger *zap.Logger) *TradeHandler {
	return &TradeHandler{engine: eng, logger: logger}
}

// Balance handles GET /balance.
func (h *TradeHandler) Balance(w http.ResponseWriter, r *http.Request) {
	writeOK(w, h.engine.Balance())
}

// Positions handles GET /positions.
func (h *TradeHandler) Positions(w http.ResponseWriter, r *http.Request) {
	writeOK(w, h.engine.Positions())
}

// tradeRequest is the JSON request body for the four trade endpoints.
type tradeRequest struct {
	Security string  `json:"security"`
	Price    float64 `json:"price"`
	Volume   int64   `json:"volume"`
}

// Buy handles POST /buy.
func (h *TradeHandler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, domain.OrderSideBuy, domain.BidTypeLimit)
}

// Sell handles POST /sell.
func (h *TradeHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, domain.OrderSideSell, domain.BidTypeLimit)
}

// MarketBuy handles POST /market_buy.
func (h *TradeHandler) MarketBuy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, domain.OrderSideBuy, domain.BidTypeMarket)
}

// MarketSell handles POST /market_sell.
func (h *TradeHandler) MarketSell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, domain.OrderSideSell, domain.BidTypeMarket)
}

func (h *TradeHandler) trade(w http.ResponseWriter, r *http.Request, side domain.OrderSide, bid domain.BidType) {
	var req tradeRequest
	if err := parseJSON(r, &req); err != nil {
		writeFail(w, err.Error())
		return
	}
	h.logger.Info("trade request",
		zap.String("code", req.Security),
		zap.Float64("price", req.Price),
		zap.Int64("volume", req.Volume),
		zap.Int("side", int(side)),
		zap.Int("bid_type", int(bid)),
	)

	result, err := h.engine.SubmitTrade(req.Security, req.Price, req.Volume, side, bid)
	if err != nil {
		writeFail(w, err.Error())
		return
	}
	writeOK(w, result)
}

// cancelRequest is the JSON request body for the cancel endpoints;
// entrust_no is a single id for /cancel_entrust and a list for
// /cancel_entrusts.
type cancelRequest struct {
	EntrustNo *domain.EntrustIDs `json:"entrust_no"`
}

// CancelEntrust handles POST /cancel_entrust.
func (h *TradeHandler) CancelEntrust(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := parseJSON(r, &req); err != nil {
		writeFail(w, err.Error())
		return
	}
	if req.EntrustNo == nil || len(req.EntrustNo.IDs) == 0 {
		writeFail(w, "cancel_entrust: entrust_no required")
		return
	}
	if req.EntrustNo.List {
		writeFail(w, "cancel_entrust: only 1 entrust_no acceptable, no list permitted")
		return
	}

	result, err := h.engine.CancelOne(req.EntrustNo.IDs[0])
	if err != nil {
		writeFail(w, err.Error())
		return
	}
	writeOK(w, result)
}

// CancelEntrusts handles POST /cancel_entrusts.
func (h *TradeHandler) CancelEntrusts(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := parseJSON(r, &req); err != nil {
		writeFail(w, err.Error())
		return
	}
	if req.EntrustNo == nil || !req.EntrustNo.List {
		writeFail(w, "cancel_entrusts: entrust_no must be list")
		return
	}

	result, err := h.engine.CancelMany(req.EntrustNo.IDs)
	if err != nil {
		writeFail(w, err.Error())
		return
	}
	writeOK(w, result)
}

// entrustQueryRequest is the JSON request body for POST /today_entrusts.
type entrustQueryRequest struct {
	EntrustNo []string `json:"entrust_no"`
}

// TodayEntrusts handles POST /today_entrusts; with a non-empty
// entrust_no list only those entrusts are returned.
func (h *TradeHandler) TodayEntrusts(w http.ResponseWriter, r *http.Request) {
	var req entrustQueryRequest
	if err := parseJSON(r, &req); err != nil {
		writeFail(w, err.Error())
		return
	}
	writeOK(w, h.engine.TodayEntrusts(req.EntrustNo))
}

// TodayTrades handles POST /today_trades.
func (h *TradeHandler) TodayTrades(w http.ResponseWriter, r *http.Request) {
	writeOK(w, h.engine.TodayTrades())
}
