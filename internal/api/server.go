package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP surface for triggering and reading runs.
// store may be nil when no database is configured.
func NewRouter(exec RunExecutor, store RunStore, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{exec: exec, store: store, logger: logger.With("component", "api")}

	r := gin.New()
	r.Use(requestLogger(h.logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	{
		api.POST("/runs", h.CreateRun)
		api.GET("/runs/:id", h.GetRun)
	}

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}
