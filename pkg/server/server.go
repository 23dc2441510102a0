package server

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clasificador/pkg/batch"
	"clasificador/pkg/classify"
	"clasificador/pkg/queue"
)

type Server struct {
	Echo     *echo.Echo
	Cascade  *classify.Cascade
	Registry *batch.Registry
	Results  *batch.MemorySink
	Queue    queue.Queue
	Gatherer prometheus.Gatherer
	Ctx      context.Context

	// JobsFile receives the job registry on shutdown when set.
	JobsFile string
}

func NewServer(ctx context.Context, cascade *classify.Cascade, registry *batch.Registry, results *batch.MemorySink, q queue.Queue) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:     e,
		Cascade:  cascade,
		Registry: registry,
		Results:  results,
		Queue:    q,
		Gatherer: prometheus.DefaultGatherer,
		Ctx:      ctx,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)
	s.Echo.GET("/metrics", func(c echo.Context) error {
		promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}).ServeHTTP(c.Response(), c.Request())
		return nil
	})

	api := s.Echo.Group("/api")
	api.POST("/classify", s.handlePostClassify)
	api.GET("/test", s.handleGetTest)

	api.POST("/jobs", s.handlePostJob)
	api.GET("/jobs", s.handleGetJobs)
	api.GET("/jobs/:id", s.handleGetJob)
	api.DELETE("/jobs/:id", s.handleDeleteJob)
	api.GET("/jobs/:id/results", s.handleGetResults)
	api.GET("/jobs/:id/events", s.handleGetEvents)
	api.POST("/jobs/:id/cancel", s.handlePostCancel)
}

func (s *Server) Start(addr string) error {
	log.Info("server listening", "addr", addr, "strategies", s.Cascade.Strategies())
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")

	shutDownErr := s.Echo.Shutdown(ctx)
	if s.Queue != nil {
		s.Queue.Stop()
	}

	var saveErr error
	if s.JobsFile != "" {
		saveErr = s.Registry.Save(s.JobsFile)
	}
	if shutDownErr != nil {
		return shutDownErr
	}
	return saveErr
}
