package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/supportos/complaintstack/interfaces"
	"github.com/supportos/complaintstack/internal/enum"
	er "github.com/supportos/complaintstack/internal/errors"
	"github.com/supportos/complaintstack/internal/repository"
	"github.com/supportos/complaintstack/internal/tracing"
)

type ComplaintsHandler struct {
	repos    *repository.Repositories
	storage  interfaces.StorageService
	pipeline interfaces.PipelineService
}

func NewComplaintsHandler(repos *repository.Repositories, storage interfaces.StorageService, pipeline interfaces.PipelineService) *ComplaintsHandler {
	return &ComplaintsHandler{
		repos:    repos,
		storage:  storage,
		pipeline: pipeline,
	}
}

// List returns complaints matching the query filters, newest first.
func (h *ComplaintsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		filter, err := parseFilter(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		complaints, total, err := h.repos.ComplaintRepository.List(ctx, *filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list complaints"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"complaints": complaints,
			"total":      total,
			"limit":      filter.Limit,
			"offset":     filter.Offset,
		})
	}
}

func (h *ComplaintsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		complaint, err := h.repos.ComplaintRepository.GetByID(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, er.ErrComplaintNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "complaint not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get complaint"})
			return
		}

		c.JSON(http.StatusOK, complaint)
	}
}

// AttachmentURL returns a short-lived presigned download link for one
// stored attachment.
func (h *ComplaintsHandler) AttachmentURL() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span, ctx := tracing.StartTracerSpan(ctx, "ComplaintsHandler.AttachmentURL")
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagComplaint(span, c.Param("id"))

		attachment, err := h.repos.ComplaintRepository.GetAttachment(ctx, c.Param("id"), c.Param("attachmentId"))
		if err != nil {
			if errors.Is(err, er.ErrAttachmentNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "attachment not found"})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get attachment"})
			return
		}
		if attachment.StorageKey == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "attachment has no stored copy"})
			return
		}

		url, err := h.storage.PresignedURL(ctx, attachment.StorageKey, 0)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to presign attachment url"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"url":      url,
			"filename": attachment.Filename,
		})
	}
}

// Reprocess re-runs classification for a failed complaint.
func (h *ComplaintsHandler) Reprocess() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		err := h.pipeline.Reprocess(ctx, c.Param("id"))
		if err != nil {
			switch {
			case errors.Is(err, er.ErrComplaintNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "complaint not found"})
			case errors.Is(err, er.ErrComplaintNotFailed):
				c.JSON(http.StatusConflict, gin.H{"error": "complaint is not in failed state"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "reprocessed"})
	}
}

func parseFilter(c *gin.Context) (*interfaces.ComplaintFilter, error) {
	filter := &interfaces.ComplaintFilter{
		CustomerEmail: c.Query("customerEmail"),
		ContentHash:   c.Query("contentHash"),
	}

	if v := c.Query("status"); v != "" {
		status, ok := enum.DecodeComplaintStatus(v)
		if !ok {
			return nil, errors.Errorf("unknown status %q", v)
		}
		filter.Status = status
	}
	if v := c.Query("category"); v != "" {
		category, ok := enum.DecodeCategory(v)
		if !ok {
			return nil, errors.Errorf("unknown category %q", v)
		}
		filter.Category = category
	}
	if v := c.Query("priority"); v != "" {
		priority, ok := enum.DecodePriority(v)
		if !ok {
			return nil, errors.Errorf("unknown priority %q", v)
		}
		filter.Priority = priority
	}
	if v := c.Query("receivedAfter"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errors.Errorf("invalid receivedAfter %q, expected RFC3339", v)
		}
		filter.ReceivedAfter = &t
	}
	if v := c.Query("receivedUntil"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errors.Errorf("invalid receivedUntil %q, expected RFC3339", v)
		}
		filter.ReceivedUntil = &t
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return nil, errors.Errorf("invalid limit %q", v)
		}
		filter.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return nil, errors.Errorf("invalid offset %q", v)
		}
		filter.Offset = offset
	}

	return filter, nil
}
