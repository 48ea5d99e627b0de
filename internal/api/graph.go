package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/middleware"
	"github.com/citadelrisk/graphbuilder/internal/models"
	"github.com/citadelrisk/graphbuilder/internal/render"
	"github.com/citadelrisk/graphbuilder/internal/service"
)

// Summary headers set on every successful graph response.
const (
	HeaderAccounts      = "X-Graph-Accounts"
	HeaderLayers        = "X-Graph-Layers"
	HeaderDepth         = "X-Graph-Depth"
	HeaderRelationships = "X-Graph-Relationships"
)

// GraphHandler serves link graph endpoints.
type GraphHandler struct {
	svc GraphBuilder
	log *logrus.Logger
}

// NewGraphHandler creates a GraphHandler.
func NewGraphHandler(svc GraphBuilder, log *logrus.Logger) *GraphHandler {
	return &GraphHandler{svc: svc, log: log}
}

// Build handles GET /api/v1/graph-builder/:account?format=svg|dot|json.
func (h *GraphHandler) Build(c *gin.Context) {
	start, ok := accountParam(c)
	if !ok {
		return
	}

	format, err := render.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	out, view, err := h.svc.Render(callerContext(c), start, format)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}

	setSummaryHeaders(c, view.Summary)
	c.Data(http.StatusOK, format.ContentType(), out)
}

func accountParam(c *gin.Context) (models.AccountID, bool) {
	id, err := models.ParseAccountID(c.Param("account"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return 0, false
	}

	return id, true
}

func setSummaryHeaders(c *gin.Context, s models.Summary) {
	c.Header(HeaderAccounts, strconv.Itoa(s.TotalAccounts))
	c.Header(HeaderLayers, strconv.Itoa(s.Layers))
	c.Header(HeaderDepth, strconv.Itoa(s.Depth))
	c.Header(HeaderRelationships, strconv.Itoa(s.Relationships))
}

// callerContext carries the authenticated caller into the service layer.
func callerContext(c *gin.Context) context.Context {
	return service.WithCaller(c.Request.Context(), c.GetString(middleware.CallerKey))
}
