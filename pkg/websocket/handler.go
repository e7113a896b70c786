package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	ws "github.com/coder/websocket"

	"github.com/getmockd/ersatz/internal/id"
	"github.com/getmockd/ersatz/pkg/logging"
	"github.com/getmockd/ersatz/pkg/requestlog"
)

// DefaultMaxMessageSize bounds inbound message size.
const DefaultMaxMessageSize int64 = 1 << 20

// Handler serves one Expectation over real WebSocket connections.
type Handler struct {
	exp            *Expectation
	log            *slog.Logger
	requestLog     requestlog.Logger
	onUnmatched    func(Snapshot, Message)
	maxMessageSize int64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.log = logging.OrNop(l) }
}

// WithRequestLog records each inbound message.
func WithRequestLog(l requestlog.Logger) HandlerOption {
	return func(h *Handler) { h.requestLog = l }
}

// WithUnmatchedHook is called with the current snapshot whenever an inbound
// message matches nothing.
func WithUnmatchedHook(fn func(Snapshot, Message)) HandlerOption {
	return func(h *Handler) { h.onUnmatched = fn }
}

// WithMaxMessageSize bounds inbound message size.
func WithMaxMessageSize(n int64) HandlerOption {
	return func(h *Handler) { h.maxMessageSize = n }
}

// NewHandler returns a handler for exp.
func NewHandler(exp *Expectation, opts ...HandlerOption) *Handler {
	h := &Handler{
		exp:            exp,
		log:            logging.Nop(),
		maxMessageSize: DefaultMaxMessageSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request and runs the conversation until the client
// disconnects or the request context ends.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{
		InsecureSkipVerify: true,
		CompressionMode:    ws.CompressionDisabled,
	})
	if err != nil {
		h.log.Warn("websocket upgrade failed", "path", h.exp.Path(), "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(h.maxMessageSize)

	connID := id.UUID()
	ctx := r.Context()
	h.log.Debug("websocket connected", "path", h.exp.Path(), "connectionID", connID, "remoteAddr", r.RemoteAddr)

	for _, m := range h.exp.Connect() {
		if err := write(ctx, conn, m); err != nil {
			h.log.Debug("websocket write failed", "connectionID", connID, "error", err)
			return
		}
	}

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			h.logClose(connID, err)
			return
		}
		msg := Message{Type: fromWire(typ), Payload: data}
		start := time.Now()

		reactions, ok := h.exp.FindMatch(msg)
		if !ok {
			h.log.Warn("unmatched websocket message",
				"path", h.exp.Path(), "connectionID", connID, "message", msg.String())
			if h.onUnmatched != nil {
				h.onUnmatched(h.exp.Snapshot(), msg)
			}
		}
		h.record(r, connID, msg, ok, len(reactions), start)

		for _, react := range reactions {
			if err := write(ctx, conn, react); err != nil {
				h.log.Debug("websocket write failed", "connectionID", connID, "error", err)
				return
			}
		}
	}
}

func (h *Handler) record(r *http.Request, connID string, msg Message, matched bool, reactions int, start time.Time) {
	if h.requestLog == nil {
		return
	}
	entry := &requestlog.Entry{
		Timestamp:  start,
		Protocol:   requestlog.ProtocolWebSocket,
		Method:     "MESSAGE",
		Path:       h.exp.Path(),
		Body:       requestlog.TruncateBody(msg.Payload),
		BodySize:   len(msg.Payload),
		RemoteAddr: r.RemoteAddr,
		DurationMs: int(time.Since(start).Milliseconds()),
		WebSocket: &requestlog.WebSocketMeta{
			ConnectionID: connID,
			MessageType:  msg.Type.String(),
			Matched:      matched,
			Reactions:    reactions,
		},
	}
	if matched {
		entry.MatchedID = h.exp.Path()
	}
	h.requestLog.Log(entry)
}

func (h *Handler) logClose(connID string, err error) {
	status := ws.CloseStatus(err)
	switch {
	case status == ws.StatusNormalClosure || status == ws.StatusGoingAway:
		h.log.Debug("websocket closed", "path", h.exp.Path(), "connectionID", connID, "status", int(status))
	case errors.Is(err, context.Canceled):
		h.log.Debug("websocket context ended", "path", h.exp.Path(), "connectionID", connID)
	default:
		h.log.Debug("websocket read failed", "path", h.exp.Path(), "connectionID", connID, "error", err)
	}
}

func write(ctx context.Context, conn *ws.Conn, m Message) error {
	return conn.Write(ctx, toWire(m.Type), m.Payload)
}

func fromWire(t ws.MessageType) MessageType {
	if t == ws.MessageBinary {
		return MessageBinary
	}
	return MessageText
}

func toWire(t MessageType) ws.MessageType {
	if t == MessageBinary {
		return ws.MessageBinary
	}
	return ws.MessageText
}
