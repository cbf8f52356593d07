package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/magsasa-card/opsctl/internal/config"
	"github.com/magsasa-card/opsctl/internal/observability"
)

// Server is the platform health/status daemon. It exposes the endpoints the
// status checker polls, backed by real component checks.
type Server struct {
	cfg       config.ServerConfig
	engine    *gin.Engine
	startedAt time.Time
}

func New(cfg config.ServerConfig) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(observability.RequestLogger(log.Logger))
	engine.Use(observability.RequestMetricsMiddleware(cfg.ServiceName))
	engine.Use(cors.New(corsConfig(cfg.CorsOrigins)))

	s := &Server{
		cfg:       cfg,
		engine:    engine,
		startedAt: time.Now(),
	}
	s.registerRoutes()
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run() error {
	log.Info().
		Str("addr", s.cfg.Addr).
		Str("service", s.cfg.ServiceName).
		Str("version", s.cfg.Version).
		Msg("platformd listening")
	return s.engine.Run(s.cfg.Addr)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
