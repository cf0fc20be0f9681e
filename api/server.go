package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string // empty allows any origin
	Production     bool
}

// Server is the HTTP front of the pot service
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// NewServer builds the router and registers every route
func NewServer(cfg ServerConfig, handler *Handler, verifier *IdentityVerifier) *Server {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())
	engine.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	RegisterRoutes(engine, handler, verifier)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Event streams never go idle on their own
	srv.RegisterOnShutdown(handler.CloseStreams)

	return &Server{engine: engine, http: srv}
}

// RegisterRoutes wires the pot endpoints onto router
func RegisterRoutes(router *gin.Engine, handler *Handler, verifier *IdentityVerifier) {
	router.GET("/healthz", handler.Health)

	pots := router.Group("/api/pots")
	pots.Use(Identify(verifier))
	{
		pots.POST("", handler.CreatePot)
		pots.GET("", handler.ListVisiblePots)
		pots.GET("/mine", handler.ListMyPots)
		pots.GET("/denominations", handler.EntryPrices)
		pots.GET("/:id", handler.GetPot)
		pots.GET("/:id/events", handler.StreamPotEvents)
		pots.POST("/:id/contributions", handler.Contribute)
		pots.POST("/:id/draw", handler.ResolveByDraw)
		pots.POST("/:id/payout", handler.ResolveByPayout)
		pots.POST("/:id/publish", handler.MakePublic)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	log.WithField("addr", s.http.Addr).Info("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Access-Token")
	return cfg
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"caller":   callerFrom(c).String(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Warn("HTTP request")
		default:
			entry.Debug("HTTP request")
		}
	}
}
