// Package http implements the pantry daemon's HTTP surface (spec §6):
// /chat, /chat/confirm, /chat/stream/{session_id}, and the operational
// /session/* endpoints, wired over gin per the teacher's delivery layer.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pantry/internal/compose"
	"pantry/internal/config"
	"pantry/internal/executor"
	"pantry/internal/logging"
	"pantry/internal/planner"
	"pantry/internal/progressstream"
	"pantry/internal/sessionstore"
	"pantry/internal/toolregistry"
)

// Server wires every core component behind the HTTP transport.
type Server struct {
	cfg      *config.Config
	store    *sessionstore.Store
	registry *toolregistry.Registry
	planner  *planner.Planner
	composer *compose.Composer
	exec     *executor.Executor
	hub      *progressstream.Hub
	auth     AuthResolver
	logger   logging.Logger

	engine *gin.Engine
}

// New builds a Server and registers every route.
func New(cfg *config.Config, store *sessionstore.Store, registry *toolregistry.Registry, plnr *planner.Planner, composer *compose.Composer, hub *progressstream.Hub, auth AuthResolver) *Server {
	if auth == nil {
		auth = TokenIsUserResolver{}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	s := &Server{
		cfg:      cfg,
		store:    store,
		registry: registry,
		planner:  plnr,
		composer: composer,
		exec:     executor.New(registry, cfg.MaxConcurrentTasks),
		hub:      hub,
		auth:     auth,
		logger:   logging.NewNamed("HTTP"),
		engine:   engine,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	authed := s.engine.Group("/", s.authMiddleware)
	authed.POST("/chat", s.handleChat)
	authed.POST("/chat/confirm", s.handleConfirm)
	authed.GET("/chat/stream/:session_id", s.handleStream)
	authed.GET("/chat/stream/ws/:session_id", s.handleStreamWS)

	authed.GET("/session/status", s.handleSessionStatus)
	authed.POST("/session/clear", s.handleSessionClear)
	authed.POST("/session/clear-history", s.handleSessionClearHistory)
	authed.GET("/session/all", s.handleSessionAll)
	authed.POST("/session/clear-all", s.handleSessionClearAll)
}

// Handler exposes the underlying gin.Engine for tests and for binding
// to an http.Server elsewhere (e.g. with graceful shutdown).
func (s *Server) Handler() http.Handler { return s.engine }

// Run starts listening on addr, blocking until the server stops.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("listening on %s", addr)
	return srv.ListenAndServe()
}
