// Package api provides the HTTP and WebSocket handlers of the graph builder.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/connector"
	"github.com/citadelrisk/graphbuilder/internal/db"
)

// HealthHandler serves health and catalogue endpoints.
type HealthHandler struct {
	db        HealthChecker
	catalog   *connector.Catalog
	log       *logrus.Logger
	version   string
	driver    string
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(checker HealthChecker, catalog *connector.Catalog, log *logrus.Logger, version, driver string) *HealthHandler {
	return &HealthHandler{
		db:        checker,
		catalog:   catalog,
		log:       log,
		version:   version,
		driver:    driver,
		startTime: time.Now(),
	}
}

type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Driver        string  `json:"driver"`
	Database      string  `json:"database"`
	SchemaVersion int64   `json:"schema_version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type connectorResponse struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	LabelLength int    `json:"label_length"`
}

// Liveness handles GET /api/v1/health.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		Driver:        h.driver,
		Database:      "connected",
		SchemaVersion: db.SchemaVersion(),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	// Best effort: liveness does not fail on a database outage.
	if err := h.db.HealthCheck(ctx); err != nil {
		resp.Database = "disconnected"
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /api/v1/ready.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{
		"database":   "ok",
		"connectors": "ok",
	}
	status := "ready"
	statusCode := http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		h.log.WithError(err).Error("readiness: database health check failed")
		checks["database"] = "error"
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	if len(h.catalog.Names()) == 0 {
		checks["connectors"] = "empty"
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, readinessResponse{Status: status, Checks: checks})
}

// Connectors handles GET /api/v1/connectors.
func (h *HealthHandler) Connectors(c *gin.Context) {
	names := h.catalog.Names()
	out := make([]connectorResponse, 0, len(names))

	for _, name := range names {
		t, _ := h.catalog.Get(name)
		out = append(out, connectorResponse{Name: string(t.Name), Color: t.Color, LabelLength: t.LabelLength})
	}

	c.JSON(http.StatusOK, gin.H{"data": out})
}
