package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jengzang/webgis-dashboard/internal/chart"
	"github.com/jengzang/webgis-dashboard/internal/render"
	"github.com/jengzang/webgis-dashboard/internal/repository"
	"github.com/jengzang/webgis-dashboard/internal/service"
	"github.com/jengzang/webgis-dashboard/internal/view"
)

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	loadErr := &repository.DataLoadError{Dataset: repository.DatasetGrid, Source: "grid.csv", Err: repository.ErrUnreadable}
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"load failure", fmt.Errorf("wrapped: %w", loadErr), http.StatusServiceUnavailable},
		{"bad view", fmt.Errorf("%w: zoom", view.ErrInvalidViewState), http.StatusBadRequest},
		{"unknown brand", view.ErrUnknownBrand, http.StatusBadRequest},
		{"bad coordinate", service.ErrInvalidCoordinate, http.StatusBadRequest},
		{"no county", render.ErrNoCountyColumn, http.StatusUnprocessableEntity},
		{"no chart font", chart.ErrNoFont, http.StatusServiceUnavailable},
		{"missing glyph", fmt.Errorf("%w: %q", chart.ErrMissingGlyph, "福"), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			writeError(c, tc.err)
			assert.Equal(t, tc.code, w.Code)
			assert.Len(t, c.Errors, 1)
		})
	}
}
