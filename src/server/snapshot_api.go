package server

import (
	"fmt"
	"net/http"
	"time"

	"bikeflow-observer/src/interfaces"
	"bikeflow-observer/src/logger"
	"bikeflow-observer/src/models"
	"bikeflow-observer/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// SnapshotAPIServer
//
// Read-only HTTP surface over the artifact the batch job publishes. Pull
// only: dashboards poll /api/snapshot; there is no push channel.
// -----------------------------------------------------------------------------

type SnapshotAPIServer struct {
	Config *models.MConfig
	Store  interfaces.IHistoryStore
	Logger *logger.Logger
	engine *gin.Engine
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewSnapshotAPIServer(cfg *models.MConfig, store interfaces.IHistoryStore, logger *logger.Logger) *SnapshotAPIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &SnapshotAPIServer{
		Config: cfg,
		Store:  store,
		Logger: logger,
		engine: gin.Default(),
	}

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *SnapshotAPIServer) setupRoutes() {
	s.engine.GET("/api/snapshot", s.getSnapshot)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/health", s.getHealth)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Handler exposes the router, mainly for tests.
func (s *SnapshotAPIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------

func (s *SnapshotAPIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting snapshot API on %s", addr)
	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *SnapshotAPIServer) getSnapshot(c *gin.Context) {
	snapshot, err := s.Store.LatestSnapshot()
	if err != nil {
		s.Logger.Error("Failed to load snapshot: %v", err)
		c.JSON(500, gin.H{"error": "snapshot unavailable"})
		return
	}
	if snapshot == nil {
		c.JSON(404, gin.H{"error": "no snapshot published yet"})
		return
	}

	c.JSON(200, snapshot)
}

// -----------------------------------------------------------------------------

func (s *SnapshotAPIServer) getConfig(c *gin.Context) {
	c.JSON(200, gin.H{
		"window":               s.Config.PublishWindow,
		"short_window_minutes": utils.ShortWindowMinutes,
		"retention_hours":      s.Config.Feed.RetentionHours,
	})
}

// -----------------------------------------------------------------------------

func (s *SnapshotAPIServer) getHealth(c *gin.Context) {
	snapshot, err := s.Store.LatestSnapshot()

	status := "ok"
	generatedAt := ""
	if err != nil || snapshot == nil {
		status = "no_snapshot"
	} else {
		generatedAt = snapshot.GeneratedAt
	}

	c.JSON(200, gin.H{
		"status":       status,
		"generated_at": generatedAt,
		"time":         time.Now().UTC().Format(time.RFC3339),
	})
}
