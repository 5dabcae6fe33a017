package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/transcribot/component"
	"github.com/kbukum/transcribot/jobs"
	"github.com/kbukum/transcribot/observability"
	"github.com/kbukum/transcribot/version"
)

// HealthChecker returns the health of the registered components.
type HealthChecker func(ctx context.Context) []component.Health

// JobSource exposes the poll loop state. *jobs.Poller implements it.
type JobSource interface {
	Stats() jobs.Stats
	Jobs() []jobs.Job
}

// Endpoints are the dependencies of the status routes. Nil fields leave
// their route out.
type Endpoints struct {
	ServiceName string
	Health      HealthChecker
	Jobs        JobSource
	Metrics     http.Handler
}

var startTime = time.Now()

// RegisterEndpoints mounts the status routes.
func (s *Server) RegisterEndpoints(e Endpoints) {
	s.engine.GET("/health", healthHandler(e))
	s.engine.GET("/ready", s.readyHandler(e))
	s.engine.GET("/version", versionHandler(e.ServiceName))
	if e.Jobs != nil {
		s.engine.GET("/v1/jobs", jobsHandler(e.Jobs))
	}
	if e.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(e.Metrics))
	}
}

func healthHandler(e Endpoints) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.NewServiceHealth(e.ServiceName, version.Get().Version)
		if e.Health != nil {
			for _, ch := range e.Health(c.Request.Context()) {
				sh.AddComponent(ch)
			}
		}
		httpStatus := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, sh)
	}
}

// readyHandler reports not_ready until MarkReady and while any component
// is unhealthy.
func (s *Server) readyHandler(e Endpoints) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.ready.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting", "service": e.ServiceName})
			return
		}
		status, httpStatus := "ready", http.StatusOK
		if e.Health != nil {
			for _, ch := range e.Health(c.Request.Context()) {
				if ch.Status == component.StatusUnhealthy {
					status, httpStatus = "not_ready", http.StatusServiceUnavailable
					break
				}
			}
		}
		c.JSON(httpStatus, gin.H{"status": status, "service": e.ServiceName})
	}
}

func versionHandler(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.Get()
		c.JSON(http.StatusOK, gin.H{
			"service":    serviceName,
			"version":    v.Version,
			"git_commit": v.GitCommit,
			"build_time": v.BuildTime,
			"go_version": v.GoVersion,
			"dirty":      v.Dirty,
			"uptime":     time.Since(startTime).Round(time.Second).String(),
		})
	}
}

type jobsResponse struct {
	Stats jobs.Stats `json:"stats"`
	Jobs  []jobs.Job `json:"jobs"`
}

func jobsHandler(src JobSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		RespondOK(c, jobsResponse{Stats: src.Stats(), Jobs: src.Jobs()})
	}
}
