package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/config"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/handler"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/middleware"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/observability"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/service"
)

// Services bundles what the router wires into handlers
type Services struct {
	Zones   *service.ZoneService
	Areas   *service.VisitedAreaService
	Metrics *observability.Collector
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc Services, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	if svc.Metrics != nil {
		r.Use(svc.Metrics.Middleware())
	}

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Map Mates API is running",
		})
	})
	if svc.Metrics != nil {
		r.GET("/metrics", gin.WrapH(svc.Metrics.Handler()))
	}

	locationHandler := handler.NewLocationHandler(svc.Zones, logger)
	zoneHandler := handler.NewZoneHandler(svc.Zones, logger)
	areaHandler := handler.NewVisitedAreaHandler(svc.Areas, logger)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateWindow))
	{
		// 位置上报
		locations := api.Group("/locations")
		{
			locations.POST("/add_location", locationHandler.AddLocation)
			locations.POST("/add_locations", locationHandler.AddLocations)
		}

		// 用户区域与足迹
		users := api.Group("/users/:id")
		{
			users.GET("/zones", zoneHandler.ListZones)
			users.GET("/visited-area", areaHandler.GetVisitedArea)
			users.GET("/visited-area.kml", areaHandler.GetVisitedAreaKML)
			users.POST("/visited-area/rebuild", areaHandler.Rebuild)
			users.POST("/visited-area/extend", areaHandler.Extend)
			users.POST("/visited-area/extend-route", areaHandler.ExtendRoute)
		}

		api.POST("/visited-area/preview", areaHandler.Preview)
	}

	return r
}
