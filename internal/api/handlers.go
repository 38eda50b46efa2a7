package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/infrastructure/storage"
	"ContentPipeline/internal/report"
)

// RunExecutor executes one pipeline run for a site.
type RunExecutor interface {
	Execute(ctx context.Context, siteURL string) (domain.Run, error)
}

// RunStore reads previously persisted runs.
type RunStore interface {
	LoadRun(ctx context.Context, runID string) (report.Document, error)
}

// Handler serves the run endpoints.
type Handler struct {
	exec   RunExecutor
	store  RunStore
	logger *slog.Logger
}

type createRunRequest struct {
	SiteURL string `json:"siteUrl" binding:"required"`
}

type runResponse struct {
	report.Document
	Warnings []string `json:"warnings,omitempty"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateRun runs the pipeline synchronously and returns the run document.
// Sink and cancellation errors are reported as warnings next to the results.
func (h *Handler) CreateRun(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if u, err := url.Parse(req.SiteURL); err != nil || u.Scheme == "" || u.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "siteUrl must be an absolute URL"})
		return
	}
	if h.exec == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline not configured"})
		return
	}

	run, err := h.exec.Execute(c.Request.Context(), req.SiteURL)
	if err != nil && len(run.Results) == 0 {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrFetchFailed) {
			status = http.StatusBadGateway
		}
		h.logger.Error("run failed", "site", req.SiteURL, "error", err)
		c.JSON(status, gin.H{"error": err.Error(), "runId": run.ID})
		return
	}

	resp := runResponse{Document: report.NewDocument(run)}
	if err != nil {
		resp.Warnings = []string{err.Error()}
	}
	c.JSON(http.StatusOK, resp)
}

// GetRun returns a stored run.
func (h *Handler) GetRun(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "run storage not configured"})
		return
	}

	doc, err := h.store.LoadRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("load run failed", "run", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}
	c.JSON(http.StatusOK, doc)
}
