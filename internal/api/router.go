package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jengzang/webgis-dashboard/internal/config"
	"github.com/jengzang/webgis-dashboard/internal/handler"
	"github.com/jengzang/webgis-dashboard/internal/metrics"
	"github.com/jengzang/webgis-dashboard/internal/middleware"
	"github.com/jengzang/webgis-dashboard/internal/service"
	"github.com/jengzang/webgis-dashboard/internal/session"
)

// Dependencies 路由依赖
type Dependencies struct {
	Config    *config.Config
	Dashboard *service.DashboardService
	Sessions  *session.Manager
	Metrics   *metrics.Metrics
	Limiter   *middleware.RateLimiter
}

// SetupRouter 设置路由
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Metrics))

	// CORS 中间件
	r.Use(cors.New(corsConfig(deps.Config.Server.CORSOrigins)))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "WebGIS dashboard API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	datasets := handler.NewDatasetHandler(deps.Dashboard)
	sessions := handler.NewSessionHandler(deps.Sessions)
	views := handler.NewViewHandler(deps.Dashboard)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(deps.Limiter))
	{
		api.GET("/datasets", datasets.GetDatasets)
		api.POST("/datasets/reload", datasets.Reload)
		api.POST("/session", sessions.Create)

		// 会话相关接口
		scoped := api.Group("")
		scoped.Use(middleware.Session(deps.Sessions))
		{
			scoped.GET("/brands", datasets.GetBrands)

			scoped.GET("/session", sessions.Get)
			scoped.PUT("/session/view", sessions.UpdateView)
			scoped.POST("/session/view/reset", sessions.ResetView)
			scoped.PUT("/session/filter", sessions.SetFilter)
			scoped.DELETE("/session/filter", sessions.ResetFilter)
			scoped.PUT("/session/layers", sessions.SetLayers)
			scoped.GET("/session/ws", sessions.Stream)

			scoped.GET("/views/single", views.GetSingle)
			scoped.GET("/views/dual", views.GetDual)
			scoped.GET("/points", views.GetPoints)
			scoped.GET("/pick", views.Pick)
		}

		api.GET("/views/stats", views.GetStats)
		api.GET("/views/stats/chart.png", views.GetChart)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.SessionHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.SessionHeader, middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
