package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/httputil"
	"github.com/citadelrisk/graphbuilder/internal/metrics"
	"github.com/citadelrisk/graphbuilder/internal/models"
	"github.com/citadelrisk/graphbuilder/internal/render"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest      = "invalid_request"
	ErrCodeNotFound            = "not_found"
	ErrCodeInternalError       = "internal_error"
	ErrCodeUnauthorized        = "unauthorized"
	ErrCodeRateLimited         = "rate_limited"
	ErrCodeLookupFailed        = "lookup_failed"
	ErrCodeRendererUnavailable = "renderer_unavailable"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// classify maps a traversal or render error to a status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeInvalidRequest
	case errors.Is(err, models.ErrLookupFailure):
		return http.StatusBadGateway, ErrCodeLookupFailed
	case errors.Is(err, render.ErrRendererUnavailable):
		return http.StatusServiceUnavailable, ErrCodeRendererUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// handleServiceError logs err and writes the matching error response.
// Internal failures are not echoed to the client.
func handleServiceError(c *gin.Context, log *logrus.Logger, err error) {
	status, code := classify(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("graph build failed")
		msg = "internal error"
	} else {
		log.WithError(err).Warn("graph build rejected")
	}

	respondError(c, status, code, msg)
}
