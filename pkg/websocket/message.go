package websocket

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// MessageType represents the type of WebSocket message.
type MessageType int

const (
	// MessageText indicates a UTF-8 encoded text message.
	MessageText MessageType = 1
	// MessageBinary indicates a binary message.
	MessageBinary MessageType = 2
)

// String returns the string representation of the message type.
func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "text"
	case MessageBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// ParseMessageType parses "text" or "binary".
func ParseMessageType(s string) (MessageType, error) {
	switch s {
	case "text", "":
		return MessageText, nil
	case "binary":
		return MessageBinary, nil
	default:
		return 0, fmt.Errorf("unknown message type %q", s)
	}
}

// Message is a WebSocket frame payload and its type.
type Message struct {
	Type    MessageType
	Payload []byte
}

// Text returns a text message.
func Text(s string) Message {
	return Message{Type: MessageText, Payload: []byte(s)}
}

// Binary returns a binary message.
func Binary(b []byte) Message {
	return Message{Type: MessageBinary, Payload: b}
}

// Equal reports whether both messages have the same type and payload bytes.
func (m Message) Equal(o Message) bool {
	return m.Type == o.Type && bytes.Equal(m.Payload, o.Payload)
}

func (m Message) String() string {
	if m.Type == MessageText && utf8.Valid(m.Payload) {
		return fmt.Sprintf("text %q", m.Payload)
	}
	return fmt.Sprintf("%s [% x]", m.Type, m.Payload)
}
