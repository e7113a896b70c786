package websocket

import (
	"fmt"
	"strings"
)

// Snapshot is the observable state of an Expectation.
type Snapshot struct {
	Path        string
	Connected   bool
	Connections int
	Messages    []MessageState
}

// MessageState is the state of one expected inbound message.
type MessageState struct {
	Message     Message
	Occurrences string
	Count       int
	Satisfied   bool
}

// Snapshot captures the current state.
func (e *Expectation) Snapshot() Snapshot {
	e.mu.Lock()
	s := Snapshot{Path: e.path, Connected: e.connections > 0, Connections: e.connections}
	inbound := append([]*InboundMessage(nil), e.inbound...)
	e.mu.Unlock()

	for _, im := range inbound {
		im.mu.Lock()
		s.Messages = append(s.Messages, MessageState{
			Message:     im.message,
			Occurrences: im.occurrences.String(),
			Count:       im.count,
			Satisfied:   im.occurrences.Match(im.count),
		})
		im.mu.Unlock()
	}
	return s
}

// String renders the snapshot as plain text.
func (s Snapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "WebSocket expectation %s\n", s.Path)
	fmt.Fprintf(&b, "  (%s) connected (%d connections)\n", mark(s.Connected), s.Connections)
	for i, m := range s.Messages {
		fmt.Fprintf(&b, "  (%s) message %d: %s received %d time(s), expected %s\n",
			mark(m.Satisfied), i, m.Message, m.Count, m.Occurrences)
	}
	return b.String()
}

func mark(ok bool) string {
	if ok {
		return "+"
	}
	return "-"
}
