package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/webgis-dashboard/internal/middleware"
	"github.com/jengzang/webgis-dashboard/internal/models"
	"github.com/jengzang/webgis-dashboard/internal/service"
	"github.com/jengzang/webgis-dashboard/pkg/response"
)

// ViewHandler handles HTTP requests for the render surfaces
type ViewHandler struct {
	dashboard *service.DashboardService
}

// NewViewHandler creates a new view handler
func NewViewHandler(dashboard *service.DashboardService) *ViewHandler {
	return &ViewHandler{dashboard: dashboard}
}

// GetSingle handles GET /api/v1/views/single
func (h *ViewHandler) GetSingle(c *gin.Context) {
	s := middleware.CurrentSession(c)
	v := h.dashboard.Scene(c.Request.Context(), s.Controller.State()).Single()

	// One failed dataset still leaves a usable map
	if len(v.Errors) == 2 {
		response.Blocked(c, "Datasets failed to load", v)
		return
	}
	response.Success(c, v)
}

// GetDual handles GET /api/v1/views/dual
func (h *ViewHandler) GetDual(c *gin.Context) {
	s := middleware.CurrentSession(c)
	v := h.dashboard.Scene(c.Request.Context(), s.Controller.State()).Dual()

	if len(v.Errors) == 2 {
		response.Blocked(c, "Datasets failed to load", v)
		return
	}
	response.Success(c, v)
}

// GetStats handles GET /api/v1/views/stats
func (h *ViewHandler) GetStats(c *gin.Context) {
	v, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, v)
}

// GetChart handles GET /api/v1/views/stats/chart.png
func (h *ViewHandler) GetChart(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.dashboard.WriteChart(c.Request.Context(), &buf); err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// GetPoints handles GET /api/v1/points
func (h *ViewHandler) GetPoints(c *gin.Context) {
	var filter models.PointTableFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}

	s := middleware.CurrentSession(c)
	page, err := h.dashboard.Points(c.Request.Context(), s.Controller.State().Filter, filter.Page, filter.PageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, page)
}

// Pick handles GET /api/v1/pick
func (h *ViewHandler) Pick(c *gin.Context) {
	var filter models.PickFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "lon and lat are required", err)
		return
	}

	s := middleware.CurrentSession(c)
	res, err := h.dashboard.Pick(c.Request.Context(), s.Controller.State(), *filter.Lon, *filter.Lat)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, res)
}

