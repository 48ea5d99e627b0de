package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Output formats accepted by Render.
const (
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// streamStatus maps stream error codes to the status the REST endpoint would use.
var streamStatus = map[string]int{
	"invalid_request":      http.StatusBadRequest,
	"lookup_failed":        http.StatusBadGateway,
	"renderer_unavailable": http.StatusServiceUnavailable,
	"internal_error":       http.StatusInternalServerError,
}

// GraphService builds link graphs.
type GraphService struct {
	c *Client
}

func graphPath(account int64) string {
	return "/api/v1/graph-builder/" + strconv.FormatInt(account, 10)
}

// Build traverses from account and returns the graph as JSON.
func (s *GraphService) Build(ctx context.Context, account int64) (*GraphView, error) {
	var view GraphView
	if err := s.c.get(ctx, graphPath(account), url.Values{"format": {FormatJSON}}, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Render traverses from account and returns the rendered graph in format
// (svg, dot or json) with the summary reported in response headers.
func (s *GraphService) Render(ctx context.Context, account int64, format string) ([]byte, *Summary, error) {
	body, h, err := s.c.raw(ctx, http.MethodGet, graphPath(account), url.Values{"format": {format}})
	if err != nil {
		return nil, nil, err
	}

	summary := &Summary{
		TotalAccounts: headerInt(h, "X-Graph-Accounts"),
		Layers:        headerInt(h, "X-Graph-Layers"),
		Depth:         headerInt(h, "X-Graph-Depth"),
		Relationships: headerInt(h, "X-Graph-Relationships"),
	}
	return body, summary, nil
}

func headerInt(h http.Header, key string) int {
	v, _ := strconv.Atoi(h.Get(key))
	return v
}

type streamMessage struct {
	Type    string          `json:"type"`
	Event   *Event          `json:"event,omitempty"`
	Graph   json.RawMessage `json:"graph,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Stream traverses from account over WebSocket, calling onEvent for every
// progress event, and returns the final graph. Cancelling ctx closes the
// stream; the server stops at the next layer boundary.
func (s *GraphService) Stream(ctx context.Context, account int64, onEvent func(Event)) (*GraphView, error) {
	h := http.Header{}
	s.c.authorize(h)

	conn, resp, err := websocket.Dial(ctx, s.c.baseURL+graphPath(account)+"/stream", &websocket.DialOptions{HTTPHeader: h})
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			return nil, &APIError{StatusCode: resp.StatusCode, Code: "handshake_failed", Message: err.Error()}
		}
		return nil, fmt.Errorf("dial stream: %w", err)
	}
	defer conn.CloseNow() //nolint:errcheck // best effort.

	for {
		var msg streamMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil, errors.New("stream closed without a result")
			}
			return nil, fmt.Errorf("read stream: %w", err)
		}

		switch msg.Type {
		case "event":
			if msg.Event != nil && onEvent != nil {
				onEvent(*msg.Event)
			}
		case "result":
			var view GraphView
			if err := json.Unmarshal(msg.Graph, &view); err != nil {
				return nil, fmt.Errorf("decode graph: %w", err)
			}
			conn.Close(websocket.StatusNormalClosure, "") //nolint:errcheck // server closes too.
			return &view, nil
		case "error":
			status, ok := streamStatus[msg.Code]
			if !ok {
				status = http.StatusInternalServerError
			}
			return nil, &APIError{StatusCode: status, Code: msg.Code, Message: msg.Message}
		}
	}
}
