package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/webgis-dashboard/internal/middleware"
	"github.com/jengzang/webgis-dashboard/internal/render"
	"github.com/jengzang/webgis-dashboard/internal/service"
	"github.com/jengzang/webgis-dashboard/internal/view"
	"github.com/jengzang/webgis-dashboard/pkg/response"
)

// DatasetHandler handles HTTP requests for the loaded datasets
type DatasetHandler struct {
	dashboard *service.DashboardService
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(dashboard *service.DashboardService) *DatasetHandler {
	return &DatasetHandler{dashboard: dashboard}
}

// GetBrands handles GET /api/v1/brands
func (h *DatasetHandler) GetBrands(c *gin.Context) {
	filter := view.FilterState{Brand: view.AllBrands}
	if s := middleware.CurrentSession(c); s != nil {
		filter = s.Controller.State().Filter
	}
	response.Success(c, render.Brands(h.dashboard.Palette(), filter))
}

// GetDatasets handles GET /api/v1/datasets
func (h *DatasetHandler) GetDatasets(c *gin.Context) {
	response.Success(c, h.dashboard.Datasets(c.Request.Context()))
}

// Reload handles POST /api/v1/datasets/reload
func (h *DatasetHandler) Reload(c *gin.Context) {
	snap, err := h.dashboard.Reload(c.Request.Context())
	if err != nil {
		response.Blocked(c, "Reload failed, previous data kept", snap.Status())
		return
	}
	response.Success(c, snap.Status())
}
