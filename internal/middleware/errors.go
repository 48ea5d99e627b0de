package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/citadelrisk/graphbuilder/internal/httputil"
	"github.com/citadelrisk/graphbuilder/internal/metrics"
)

func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}
