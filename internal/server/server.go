package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/kode4food/runq"
	"github.com/kode4food/runq/internal/engine"
	"github.com/kode4food/runq/pkg/api"
)

// Server implements the HTTP admin API
type Server struct {
	engine *engine.Engine
}

var (
	ErrInvalidJSON = errors.New("invalid JSON")
	ErrEngineBusy  = errors.New("engine did not respond")
)

// NewServer creates a new HTTP admin server
func NewServer(eng *engine.Engine) *Server {
	return &Server{engine: eng}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	router.GET("/health", s.handleHealth)

	router.GET("/queues", s.listQueues)
	router.GET("/queues/:queueID", s.getQueue)
	router.POST("/queues/:queueID/stop", s.stopQueue)

	router.GET("/deferred", s.listDeferred)
	router.DELETE("/deferred/:recordID", s.cancelDeferred)

	router.GET("/scripts", s.listScripts)
	router.POST("/scripts/:name/run", s.runScript)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	var res api.HealthResponse
	ok := s.do(c, func() {
		res = api.HealthResponse{
			Service:  runq.Name,
			Version:  runq.Version,
			Status:   api.HealthHealthy,
			Queues:   s.engine.Len(),
			Deferred: s.engine.Deferred().Len(),
		}
	})
	if ok {
		c.JSON(http.StatusOK, res)
	}
}

// do runs fn on the tick goroutine, answering the request itself when the
// engine cannot take the work
func (s *Server) do(c *gin.Context, fn func()) bool {
	err := s.engine.Do(c.Request.Context(), fn)
	if err == nil {
		return true
	}
	status := http.StatusServiceUnavailable
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %w", ErrEngineBusy, err)
		status = http.StatusGatewayTimeout
	}
	c.JSON(status, api.ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
	return false
}

func errorJSON(c *gin.Context, status int, err error) {
	c.JSON(status, api.ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
}
