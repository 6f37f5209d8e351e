package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/henrycs/mockserver/internal/engine"
	"github.com/henrycs/mockserver/internal/loader"
)

// ControllerHandler serves the /mock control endpoints the test suite
// drives: loading scripts, advancing non-trade steps, and inspecting
// execution state.
type ControllerHandler struct {
	engine  *engine.Engine
	loader  *loader.Loader
	catalog *loader.Catalog
	logger  *zap.Logger
}

// NewControllerHandler creates a new ControllerHandler.
func NewControllerHandler(eng *engine.Engine, ld *loader.Loader, cat *loader.Catalog, logger *zap.Logger) *ControllerHandler {
	return &ControllerHandler{
		engine:  eng,
		loader:  ld,
		catalog: cat,
		logger:  logger,
	}
}

// Load handles GET /mock/load/{case}.
func (h *ControllerHandler) Load(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "case"))
	if err != nil || name == "" {
		writeFail(w, "No case file specified")
		return
	}
	h.loadCase(w, name)
}

// loadCaseRequest is the JSON request body for POST /mock/load.
type loadCaseRequest struct {
	Case string `json:"case"`
}

// LoadPost handles POST /mock/load.
func (h *ControllerHandler) LoadPost(w http.ResponseWriter, r *http.Request) {
	var req loadCaseRequest
	if err := parseJSON(r, &req); err != nil {
		writeFail(w, err.Error())
		return
	}
	if req.Case == "" {
		writeFail(w, "No case file specified")
		return
	}
	h.loadCase(w, req.Case)
}

func (h *ControllerHandler) loadCase(w http.ResponseWriter, name string) {
	steps, err := h.loader.Read(name)
	if err != nil {
		h.logger.Error("case load failed", zap.String("case", name), zap.Error(err))
		writeFail(w, err.Error())
		return
	}

	result, err := h.engine.LoadCase(steps)
	if err != nil {
		writeFail(w, err.Error())
		return
	}
	writeOK(w, result)
}

// Proceed handles GET /mock/proceed. An optional code query selects
// the run when several scripts are loaded.
func (h *ControllerHandler) Proceed(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Proceed(r.URL.Query().Get("code"))
	if err != nil {
		writeFail(w, err.Error())
		return
	}
	writeOK(w, result)
}

// Current handles GET /mock/current.
func (h *ControllerHandler) Current(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Current(r.URL.Query().Get("code"))
	if err != nil {
		writeFail(w, err.Error())
		return
	}
	writeOK(w, result)
}

// History handles GET /mock/history.
func (h *ControllerHandler) History(w http.ResponseWriter, r *http.Request) {
	writeOK(w, h.engine.History())
}

// Reset handles GET /mock/reset. With all=true the account ledger is
// cleared along with runs and history.
func (h *ControllerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("all")
	h.engine.Reset(all == "true" || all == "1")
	writeOK(w, map[string]string{"data": "all data cleared"})
}

// Cases handles GET /mock/cases, listing the loadable case files.
func (h *ControllerHandler) Cases(w http.ResponseWriter, r *http.Request) {
	writeOK(w, h.catalog.List())
}

// Index handles GET /mock/.
func (h *ControllerHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("load, proceed, current, history, reset, cases"))
}
