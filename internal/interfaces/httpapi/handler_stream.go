package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/live-scores/internal/platform/pubsub"
	"github.com/riskibarqy/live-scores/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 512
)

// StreamLiveBoard streams the aggregate board topic as server-sent events.
func (h *Handler) StreamLiveBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StreamLiveBoard")
	defer span.End()

	h.serveSSE(ctx, w, usecase.TopicLiveBoard)
}

// StreamMatch streams one match's state updates as server-sent events.
func (h *Handler) StreamMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StreamMatch")
	defer span.End()

	req := matchRequest{MatchKey: strings.TrimSpace(r.PathValue("matchKey"))}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	h.serveSSE(ctx, w, req.MatchKey)
}

func (h *Handler) serveSSE(ctx context.Context, w http.ResponseWriter, topic string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: streaming is not supported by this connection", usecase.ErrDependencyUnavailable))
		return
	}

	sub := h.hub.Subscribe(topic)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if frame, ok := h.initialFrame(ctx, topic); ok {
		if err := writeSSEFrame(w, frame); err != nil {
			return
		}
	}
	flusher.Flush()

	keepAlive := time.NewTicker(h.cfg.KeepAlive)
	defer keepAlive.Stop()

	h.logger.DebugContext(ctx, "sse subscriber connected", "topic", topic, "subscription_id", sub.ID)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			return
		case frame := <-sub.Frames():
			if err := writeSSEFrame(w, frame); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// initialFrame gives a fresh subscriber the current state, since publishes before it joined are lost.
func (h *Handler) initialFrame(ctx context.Context, topic string) (pubsub.Frame, bool) {
	var (
		event   string
		payload any
	)
	if topic == usecase.TopicLiveBoard {
		board, err := h.matchService.BoardMatches(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "load initial board failed", "error", err)
			return pubsub.Frame{}, false
		}
		event, payload = usecase.EventLive, board
	} else {
		state, err := h.matchService.Match(ctx, topic)
		if err != nil {
			return pubsub.Frame{}, false
		}
		event, payload = usecase.EventState, state
	}

	data, err := sonic.Marshal(payload)
	if err != nil {
		return pubsub.Frame{}, false
	}
	return pubsub.Frame{Event: event, Data: data}, true
}

func writeSSEFrame(w http.ResponseWriter, frame pubsub.Frame) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("event: ")
	_, _ = buf.WriteString(frame.Event)
	_, _ = buf.WriteString("\ndata: ")
	_, _ = buf.Write(frame.Data)
	_, _ = buf.WriteString("\n\n")

	_, err := w.Write(buf.B)
	return err
}

type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// StreamWebSocket delivers the same frames as the SSE routes over a websocket.
func (h *Handler) StreamWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StreamWebSocket")
	defer span.End()

	req := subscribeRequest{Topic: strings.TrimSpace(r.URL.Query().Get("topic"))}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(req.Topic)
	defer sub.Close()

	closed := make(chan struct{})
	go h.wsReadPump(conn, closed)

	if frame, ok := h.initialFrame(ctx, req.Topic); ok {
		if err := writeWSFrame(conn, frame); err != nil {
			return
		}
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	h.logger.DebugContext(ctx, "websocket subscriber connected", "topic", req.Topic, "subscription_id", sub.ID, "client_ip", resolveClientIP(ctx, r))
	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case <-sub.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber too slow"))
			return
		case frame := <-sub.Frames():
			if err := writeWSFrame(conn, frame); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// wsReadPump drains control frames and reports when the peer goes away.
func (h *Handler) wsReadPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func writeWSFrame(conn *websocket.Conn, frame pubsub.Frame) error {
	data, err := sonic.Marshal(wsFrame{Event: frame.Event, Data: json.RawMessage(frame.Data)})
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
