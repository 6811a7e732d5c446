package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/runq/internal/engine/command"
	"github.com/kode4food/runq/pkg/api"
)

func (s *Server) listDeferred(c *gin.Context) {
	var runs []api.DeferredInfo
	if !s.do(c, func() {
		runs = s.engine.DeferredRuns()
	}) {
		return
	}
	c.JSON(http.StatusOK, api.DeferredListResponse{
		Deferred: runs,
		Count:    len(runs),
	})
}

func (s *Server) cancelDeferred(c *gin.Context) {
	id := c.Param("recordID")
	var removed bool
	if !s.do(c, func() {
		removed = s.engine.Deferred().Remove(id)
	}) {
		return
	}
	if !removed {
		errorJSON(c, http.StatusNotFound,
			fmt.Errorf("%w: %s", command.ErrDeferredNotFound, id))
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{
		Message: fmt.Sprintf("deferred run %s cancelled", id),
	})
}
