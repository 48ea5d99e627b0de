package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/models"
)

const defaultRetentionDays = 90

// RunHandler serves the traversal run log.
type RunHandler struct {
	repo RunRepository
	log  *logrus.Logger
}

// NewRunHandler creates a RunHandler.
func NewRunHandler(repo RunRepository, log *logrus.Logger) *RunHandler {
	return &RunHandler{repo: repo, log: log}
}

// List handles GET /api/v1/runs.
func (h *RunHandler) List(c *gin.Context) {
	opts := models.RunQueryOpts{
		State:  c.Query("state"),
		Limit:  parseInt(c.Query("limit"), 50),
		Offset: parseOffset(c.Query("offset")),
	}

	if raw := c.Query("account"); raw != "" {
		id, err := models.ParseAccountID(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
			return
		}
		opts.Start = id
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid since format, use RFC3339")
			return
		}
		opts.Since = &t
	}

	runs, hasMore, err := h.repo.ListRuns(c.Request.Context(), opts)
	if err != nil {
		h.log.WithError(err).Error("failed to list runs")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to list runs")
		return
	}

	if runs == nil {
		runs = []models.RunRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     runs,
		"has_more": hasMore,
	})
}

// Purge handles DELETE /api/v1/runs.
func (h *RunHandler) Purge(c *gin.Context) {
	retentionDays := defaultRetentionDays
	if rd := c.Query("retention_days"); rd != "" {
		v, err := strconv.Atoi(rd)
		if err != nil || v < 1 {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "retention_days must be a positive integer")
			return
		}
		retentionDays = v
	}

	deleted, err := h.repo.PurgeRuns(c.Request.Context(), retentionDays)
	if err != nil {
		h.log.WithError(err).Error("failed to purge runs")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "failed to purge runs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted":        deleted,
		"retention_days": retentionDays,
	})
}
