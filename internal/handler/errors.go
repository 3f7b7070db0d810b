package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/webgis-dashboard/internal/chart"
	"github.com/jengzang/webgis-dashboard/internal/render"
	"github.com/jengzang/webgis-dashboard/internal/service"
	"github.com/jengzang/webgis-dashboard/internal/view"
	"github.com/jengzang/webgis-dashboard/pkg/response"
)

// writeError maps domain errors to HTTP responses
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case service.IsDataLoadError(err):
		response.Blocked(c, "Dataset failed to load", gin.H{"error": err.Error()})
	case errors.Is(err, view.ErrInvalidViewState),
		errors.Is(err, view.ErrUnknownBrand),
		errors.Is(err, service.ErrInvalidCoordinate):
		response.BadRequest(c, "Invalid request", err)
	case errors.Is(err, chart.ErrNoFont), errors.Is(err, chart.ErrMissingGlyph):
		response.Error(c, http.StatusServiceUnavailable, "Chart font unavailable", err)
	case errors.Is(err, render.ErrNoCountyColumn):
		response.Error(c, http.StatusUnprocessableEntity, "Statistics unavailable", err)
	default:
		response.InternalError(c, "Internal server error", err)
	}
}
