package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/runq/internal/engine"
	"github.com/kode4food/runq/pkg/api"
)

var ErrQueueBusy = errors.New("queue is running on a worker")

func (s *Server) listQueues(c *gin.Context) {
	var queues []api.QueueInfo
	if !s.do(c, func() {
		queues = s.engine.Queues()
	}) {
		return
	}
	c.JSON(http.StatusOK, api.QueuesListResponse{
		Queues: queues,
		Count:  len(queues),
	})
}

func (s *Server) getQueue(c *gin.Context) {
	id := api.QueueID(c.Param("queueID"))
	var info api.QueueInfo
	var found bool
	if !s.do(c, func() {
		if q, ok := s.engine.Queue(id); ok {
			info = q.Info()
			found = true
		}
	}) {
		return
	}
	if !found {
		errorJSON(c, http.StatusNotFound,
			fmt.Errorf("%w: %s", engine.ErrQueueNotFound, id))
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) stopQueue(c *gin.Context) {
	id := api.QueueID(c.Param("queueID"))
	var found, busy bool
	if !s.do(c, func() {
		q, ok := s.engine.Queue(id)
		if !ok {
			return
		}
		found = true
		if q.IsAsync() {
			busy = true
			return
		}
		q.Stop()
	}) {
		return
	}

	switch {
	case !found:
		errorJSON(c, http.StatusNotFound,
			fmt.Errorf("%w: %s", engine.ErrQueueNotFound, id))
	case busy:
		errorJSON(c, http.StatusConflict,
			fmt.Errorf("%w: %s", ErrQueueBusy, id))
	default:
		c.JSON(http.StatusOK, api.MessageResponse{
			Message: fmt.Sprintf("queue %s stopped", id),
		})
	}
}
