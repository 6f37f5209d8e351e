package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/henrycs/mockserver/internal/engine"
	"github.com/henrycs/mockserver/internal/loader"
)

// NewRouter creates a chi router with the controller routes, the
// authenticated trade-server routes, request logging, and the
// health/metrics endpoints.
func NewRouter(
	eng *engine.Engine,
	ld *loader.Loader,
	cat *loader.Catalog,
	accessToken string,
	accountID string,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	r.Use(requestLogging(logger))

	ctrl := NewControllerHandler(eng, ld, cat, logger)
	trade := NewTradeHandler(eng, logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Controller routes: drive the scripted cases, no auth.
	r.Route("/mock", func(r chi.Router) {
		r.Get("/", ctrl.Index)
		r.Get("/load/{case}", ctrl.Load)
		r.Post("/load", ctrl.LoadPost)
		r.Get("/proceed", ctrl.Proceed)
		r.Get("/current", ctrl.Current)
		r.Get("/history", ctrl.History)
		r.Get("/reset", ctrl.Reset)
		r.Get("/cases", ctrl.Cases)
	})

	// Trade-server routes: what the client under test calls.
	r.Group(func(r chi.Router) {
		r.Use(auth(accessToken, accountID))

		r.Get("/balance", trade.Balance)
		r.Get("/positions", trade.Positions)
		r.Post("/buy", trade.Buy)
		r.Post("/sell", trade.Sell)
		r.Post("/market_buy", trade.MarketBuy)
		r.Post("/market_sell", trade.MarketSell)
		r.Post("/cancel_entrust", trade.CancelEntrust)
		r.Post("/cancel_entrusts", trade.CancelEntrusts)
		r.Post("/today_entrusts", trade.TodayEntrusts)
		r.Post("/today_trades", trade.TodayTrades)
	})

	return r
}
