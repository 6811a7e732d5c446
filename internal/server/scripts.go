package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/runq/internal/engine"
	"github.com/kode4food/runq/internal/engine/script"
	"github.com/kode4food/runq/pkg/api"
)

func (s *Server) listScripts(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Scripts().Names())
}

func (s *Server) runScript(c *gin.Context) {
	var req api.RunScriptRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest,
				fmt.Errorf("%w: %w", ErrInvalidJSON, err))
			return
		}
	}

	var info api.QueueInfo
	var err error
	if !s.do(c, func() {
		q, e := s.engine.Start(req.StartRequest(c.Param("name")))
		if e != nil {
			err = e
			return
		}
		info = q.Info()
	}) {
		return
	}

	switch {
	case err == nil:
		c.JSON(http.StatusCreated, api.QueueStartedResponse{Queue: info})
	case errors.Is(err, script.ErrScriptNotFound),
		errors.Is(err, script.ErrPathNotFound):
		errorJSON(c, http.StatusNotFound, err)
	case errors.Is(err, engine.ErrQueueExists):
		errorJSON(c, http.StatusConflict, err)
	default:
		errorJSON(c, http.StatusBadRequest, err)
	}
}
