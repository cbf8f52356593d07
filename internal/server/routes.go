package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	s.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": s.cfg.ServiceName,
			"version": s.cfg.Version,
			"status":  "ok",
		})
	})

	// Simple probe for load balancers; no component checks.
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   s.cfg.ServiceName,
			"version":   s.cfg.Version,
		})
	})

	s.engine.GET("/api/health", func(c *gin.Context) {
		dbStatus := s.databaseStatus()

		status := "healthy"
		code := http.StatusOK
		if strings.HasPrefix(dbStatus, "error") {
			status = "unhealthy"
			code = http.StatusInternalServerError
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   s.cfg.ServiceName,
			"version":   s.cfg.Version,
			"uptime":    time.Since(s.startedAt).String(),
			"components": gin.H{
				"database":    dbStatus,
				"environment": environmentStatus(s.cfg.Environment),
			},
		})
	})

	s.engine.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     s.cfg.ServiceName,
			"status":      "operational",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"uptime":      time.Since(s.startedAt).String(),
			"environment": s.cfg.Environment,
			"system":      systemStatus(),
			"endpoints": gin.H{
				"health":  "/api/health",
				"status":  "/api/status",
				"metrics": "/metrics",
			},
		})
	})

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
