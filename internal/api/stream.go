package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/engine"
	"github.com/citadelrisk/graphbuilder/internal/metrics"
	"github.com/citadelrisk/graphbuilder/internal/models"
)

const streamWriteTimeout = 5 * time.Second

// Stream message types.
const (
	MessageEvent  = "event"
	MessageResult = "result"
	MessageError  = "error"
)

// StreamMessage is one JSON frame on the progress stream.
type StreamMessage struct {
	Type    string            `json:"type"`
	Event   *engine.Event     `json:"event,omitempty"`
	Graph   *models.GraphView `json:"graph,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

// StreamHandler serves traversal progress over WebSocket.
type StreamHandler struct {
	appCtx      context.Context
	svc         GraphBuilder
	log         *logrus.Logger
	corsOrigins []string
}

// NewStreamHandler creates a StreamHandler. Streams end when appCtx is cancelled.
func NewStreamHandler(appCtx context.Context, svc GraphBuilder, log *logrus.Logger, corsOrigins []string) *StreamHandler {
	return &StreamHandler{appCtx: appCtx, svc: svc, log: log, corsOrigins: corsOrigins}
}

// Stream handles GET /api/v1/graph-builder/:account/stream. It sends one
// event frame per completed layer, then a result or error frame, then closes.
func (h *StreamHandler) Stream(c *gin.Context) {
	start, ok := accountParam(c)
	if !ok {
		return
	}

	// CORS origins double as WebSocket origin patterns; config rejects wildcards.
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns:       hostPatterns(h.corsOrigins),
		CompressionMode:      websocket.CompressionContextTakeover,
		CompressionThreshold: 128,
	})
	if err != nil {
		h.log.WithError(err).Error("websocket accept failed")
		return
	}
	defer conn.CloseNow() //nolint:errcheck // best effort after a clean close.

	metrics.StreamConnections.Inc()
	defer metrics.StreamConnections.Dec()

	// Cancelled when the client goes away or the server shuts down; the
	// traversal stops at the next layer boundary.
	ctx := conn.CloseRead(callerContext(c))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(h.appCtx, cancel)
	defer stop()

	log := h.log.WithField("start_account", start)

	send := func(msg StreamMessage) {
		wctx, wcancel := context.WithTimeout(ctx, streamWriteTimeout)
		defer wcancel()

		if err := wsjson.Write(wctx, conn, msg); err != nil {
			log.WithError(err).Debug("stream.write")
		}
	}

	view, err := h.svc.Build(ctx, start, func(ev engine.Event) {
		send(StreamMessage{Type: MessageEvent, Event: &ev})
	})
	if err != nil {
		status, code := classify(err)

		msg := err.Error()
		if status == http.StatusInternalServerError {
			log.WithError(err).Error("streamed graph build failed")
			msg = "internal error"
		}

		send(StreamMessage{Type: MessageError, Code: code, Message: msg})
		conn.Close(websocket.StatusNormalClosure, code) //nolint:errcheck // peer may be gone.

		return
	}

	send(StreamMessage{Type: MessageResult, Graph: view})
	conn.Close(websocket.StatusNormalClosure, "done") //nolint:errcheck // peer may be gone.
}

// hostPatterns strips schemes from origins: OriginPatterns match on host.
func hostPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))

	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
		}
	}

	return out
}
