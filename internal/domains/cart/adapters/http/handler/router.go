package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter mounts the cart API under /v1 with tracing, panic recovery and
// request logging.
func NewRouter(api *CartAPI, serviceName string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if serviceName != "" {
		router.Use(otelgin.Middleware(serviceName))
	}
	router.Use(requestLogger(api.logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1/cart", api.Session)
	v1.GET("", api.GetCart)
	v1.GET("/notifications", api.Notifications)
	v1.POST("/items/:productId", api.AddItem)
	v1.PUT("/items/:productId", api.SetQuantity)
	v1.DELETE("/items/:productId", api.RemoveItem)
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogAttrs(c.Request.Context(), slog.LevelInfo, "http request",
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)))
	}
}
