package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supportos/complaintstack/interfaces"
)

type PipelineHandler struct {
	pipeline interfaces.PipelineService
}

func NewPipelineHandler(pipeline interfaces.PipelineService) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline}
}

func (h *PipelineHandler) Status() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := h.pipeline.Status(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get pipeline status"})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
