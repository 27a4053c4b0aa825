package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/azariak/PolymarketDataVisualizer/internal/address"
	"github.com/azariak/PolymarketDataVisualizer/internal/analytics"
	"github.com/azariak/PolymarketDataVisualizer/internal/export"
	"github.com/azariak/PolymarketDataVisualizer/internal/portfolio"
	"github.com/azariak/PolymarketDataVisualizer/internal/recent"
)

type PortfolioHandler struct {
	Session    *portfolio.Session
	Aggregator *portfolio.Aggregator
	Recent     recent.Store
	Exports    *export.Registry
	Options    analytics.Options
	Logger     *zap.Logger
}

type lookupRequest struct {
	Address string `json:"address"`
}

type lookupResponse struct {
	Address    string `json:"address"`
	Generation uint64 `json:"generation"`
}

func (h *PortfolioHandler) Register(r *gin.Engine) {
	api := r.Group("/api")
	api.POST("/lookup", h.lookup)
	api.GET("/recent", h.listRecent)

	current := api.Group("/current")
	current.GET("", h.current)
	current.DELETE("", h.reset)
	current.POST("/refresh", h.refresh)
	current.GET("/stream", h.stream)
	current.GET("/export/:format", h.exportCurrent)

	one := api.Group("/portfolio/:address")
	one.GET("", h.oneShot)
	one.GET("/export/:format", h.exportOneShot)
}

// @Summary Look up an address
// @Description Validates the address, replaces the current view and starts fetching in the background.
// @Tags portfolio
// @Accept json
// @Param body body lookupRequest true "address to view"
// @Success 202 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/lookup [post]
func (h *PortfolioHandler) lookup(c *gin.Context) {
	if h.Session == nil {
		Error(c, http.StatusInternalServerError, "session unavailable", nil)
		return
	}
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", map[string]any{"field": "address"})
		return
	}
	gen, err := h.Session.Lookup(c.Request.Context(), req.Address)
	if err != nil {
		if addressError(c, err) {
			return
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	addr, _ := address.Normalize(req.Address)
	Respond(c, http.StatusAccepted, lookupResponse{Address: addr, Generation: gen}, nil)
}

// @Summary Current view
// @Description The view model of the address being viewed. Sections still loading are empty.
// @Tags portfolio
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/current [get]
func (h *PortfolioHandler) current(c *gin.Context) {
	snap, ok := h.currentSnapshot(c)
	if !ok {
		return
	}
	Ok(c, analytics.BuildView(snap, h.Options), nil)
}

// @Summary Clear the current view
// @Tags portfolio
// @Success 200 {object} apiResponse
// @Router /api/current [delete]
func (h *PortfolioHandler) reset(c *gin.Context) {
	if h.Session == nil {
		Error(c, http.StatusInternalServerError, "session unavailable", nil)
		return
	}
	gen := h.Session.Reset()
	Ok(c, gin.H{"generation": gen}, nil)
}

// @Summary Refresh the current view
// @Tags portfolio
// @Success 202 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/current/refresh [post]
func (h *PortfolioHandler) refresh(c *gin.Context) {
	if h.Session == nil {
		Error(c, http.StatusInternalServerError, "session unavailable", nil)
		return
	}
	gen, err := h.Session.Refresh(c.Request.Context())
	if errors.Is(err, portfolio.ErrNoCurrent) {
		Error(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	snap, _ := h.Session.Current()
	Respond(c, http.StatusAccepted, lookupResponse{Address: snap.Address, Generation: gen}, nil)
}

// @Summary Export the current view
// @Tags export
// @Param format path string true "pdf or xlsx"
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 404 {object} apiResponse
// @Failure 501 {object} apiResponse
// @Router /api/current/export/{format} [get]
func (h *PortfolioHandler) exportCurrent(c *gin.Context) {
	exporter, ok := h.exporter(c)
	if !ok {
		return
	}
	snap, ok := h.currentSnapshot(c)
	if !ok {
		return
	}
	h.writeExport(c, exporter, analytics.BuildView(snap, h.Options))
}

// @Summary One-shot lookup
// @Description Fetches everything for the address and returns the complete view. The current view is left alone.
// @Tags portfolio
// @Param address path string true "wallet address"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Failure 502 {object} apiResponse
// @Router /api/portfolio/{address} [get]
func (h *PortfolioHandler) oneShot(c *gin.Context) {
	snap, ok := h.fetch(c)
	if !ok {
		return
	}
	Ok(c, analytics.BuildView(snap, h.Options), nil)
}

// @Summary One-shot export
// @Tags export
// @Param address path string true "wallet address"
// @Param format path string true "pdf or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} apiResponse
// @Failure 501 {object} apiResponse
// @Failure 502 {object} apiResponse
// @Router /api/portfolio/{address}/export/{format} [get]
func (h *PortfolioHandler) exportOneShot(c *gin.Context) {
	exporter, ok := h.exporter(c)
	if !ok {
		return
	}
	snap, ok := h.fetch(c)
	if !ok {
		return
	}
	h.writeExport(c, exporter, analytics.BuildView(snap, h.Options))
}

// @Summary Recently viewed addresses
// @Tags portfolio
// @Param limit query int false "at most this many entries"
// @Success 200 {object} apiResponse
// @Router /api/recent [get]
func (h *PortfolioHandler) listRecent(c *gin.Context) {
	if h.Recent == nil {
		Ok(c, []recent.Entry{}, map[string]any{"total": 0})
		return
	}
	items, err := h.Recent.List(c.Request.Context())
	if err != nil {
		h.logger().Warn("list recent addresses failed", zap.Error(err))
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total := len(items)
	if limit := intQuery(c, "limit", total); limit >= 0 && limit < total {
		items = items[:limit]
	}
	Ok(c, items, map[string]any{"total": total})
}

func (h *PortfolioHandler) currentSnapshot(c *gin.Context) (portfolio.Snapshot, bool) {
	if h.Session == nil {
		Error(c, http.StatusInternalServerError, "session unavailable", nil)
		return portfolio.Snapshot{}, false
	}
	snap, ok := h.Session.Current()
	if !ok {
		Error(c, http.StatusNotFound, portfolio.ErrNoCurrent.Error(), nil)
		return portfolio.Snapshot{}, false
	}
	return snap, true
}

func (h *PortfolioHandler) fetch(c *gin.Context) (portfolio.Snapshot, bool) {
	if h.Aggregator == nil {
		Error(c, http.StatusInternalServerError, "aggregator unavailable", nil)
		return portfolio.Snapshot{}, false
	}
	addr, err := address.Normalize(c.Param("address"))
	if err != nil {
		if !addressError(c, err) {
			Error(c, http.StatusBadRequest, err.Error(), nil)
		}
		return portfolio.Snapshot{}, false
	}
	snap, err := h.Aggregator.Run(c.Request.Context(), addr, 0, nil)
	if errors.Is(err, portfolio.ErrAllEndpointsFailed) {
		Error(c, http.StatusBadGateway, portfolio.LookupFailedMessage, nil)
		return portfolio.Snapshot{}, false
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return portfolio.Snapshot{}, false
	}
	return snap, true
}

func (h *PortfolioHandler) exporter(c *gin.Context) (export.Exporter, bool) {
	exporter, err := h.Exports.Get(c.Param("format"))
	if err != nil {
		Error(c, http.StatusNotImplemented, err.Error(), map[string]any{"formats": h.Exports.Formats()})
		return nil, false
	}
	return exporter, true
}

func (h *PortfolioHandler) writeExport(c *gin.Context, exporter export.Exporter, view analytics.View) {
	var buf bytes.Buffer
	if err := exporter.Write(&buf, view); err != nil {
		h.logger().Error("export failed", zap.String("format", string(exporter.Format())), zap.String("address", view.Address), zap.Error(err))
		Error(c, http.StatusInternalServerError, "export failed", nil)
		return
	}
	name := export.Filename(view.Address, exporter.Format())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, exporter.ContentType(), buf.Bytes())
}

func (h *PortfolioHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
