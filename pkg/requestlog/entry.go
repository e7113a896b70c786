package requestlog

import "time"

// Protocol values.
const (
	ProtocolHTTP      = "http"
	ProtocolWebSocket = "websocket"
)

// Entry captures one request and the outcome of matching it.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// Protocol is ProtocolHTTP or ProtocolWebSocket.
	Protocol string `json:"protocol"`

	Method      string              `json:"method"`
	Path        string              `json:"path"`
	QueryString string              `json:"queryString,omitempty"`
	Headers     map[string][]string `json:"headers,omitempty"`

	// Body is the request body, truncated to MaxBodyLength.
	Body string `json:"body,omitempty"`

	// BodySize is the original body size in bytes.
	BodySize int `json:"bodySize"`

	RemoteAddr string `json:"remoteAddr,omitempty"`

	// MatchedID is the ID of the matching expectation, empty when unmatched.
	MatchedID string `json:"matchedID,omitempty"`

	ResponseStatus int `json:"responseStatus,omitempty"`
	DurationMs     int `json:"durationMs"`

	// Error holds the failure message for requests answered with a 500.
	Error string `json:"error,omitempty"`

	WebSocket *WebSocketMeta `json:"websocket,omitempty"`
}

// WebSocketMeta describes one inbound WebSocket message.
type WebSocketMeta struct {
	ConnectionID string `json:"connectionId"`
	MessageType  string `json:"messageType"`
	Matched      bool   `json:"matched"`
	Reactions    int    `json:"reactions"`
}

// MaxBodyLength bounds the body text kept per entry.
const MaxBodyLength = 10 * 1024

// TruncateBody returns body as text, cut to MaxBodyLength.
func TruncateBody(body []byte) string {
	if len(body) > MaxBodyLength {
		return string(body[:MaxBodyLength]) + "...(truncated)"
	}
	return string(body)
}
