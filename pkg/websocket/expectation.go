package websocket

import (
	"sync"

	"github.com/getmockd/ersatz/pkg/matching"
)

// InboundMessage is a message a client is expected to send, with the
// reactions returned each time it arrives.
type InboundMessage struct {
	mu          sync.Mutex
	message     Message
	reactions   []Message
	occurrences matching.Matcher[int]
	count       int
}

// Reacts appends a reaction.
func (im *InboundMessage) Reacts(m Message) *InboundMessage {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.reactions = append(im.reactions, m)
	return im
}

// ReactsText appends a text reaction.
func (im *InboundMessage) ReactsText(s string) *InboundMessage {
	return im.Reacts(Text(s))
}

// ReactsBinary appends a binary reaction.
func (im *InboundMessage) ReactsBinary(b []byte) *InboundMessage {
	return im.Reacts(Binary(b))
}

// Occurs replaces the occurrence contract, which defaults to at least once.
func (im *InboundMessage) Occurs(m matching.Matcher[int]) *InboundMessage {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.occurrences = m
	return im
}

// Message returns the expected message.
func (im *InboundMessage) Message() Message {
	return im.message
}

// Count returns how many times the message arrived.
func (im *InboundMessage) Count() int {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.count
}

// Satisfied reports whether the occurrence contract holds.
func (im *InboundMessage) Satisfied() bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.occurrences.Match(im.count)
}

func (im *InboundMessage) mark() []Message {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.count++
	return append([]Message(nil), im.reactions...)
}

// Expectation holds the expected conversation on one WebSocket path.
type Expectation struct {
	path string

	mu          sync.Mutex
	connections int
	onConnect   []Message
	inbound     []*InboundMessage
}

// NewExpectation returns an expectation for path.
func NewExpectation(path string) *Expectation {
	return &Expectation{path: path}
}

// Path returns the expectation path.
func (e *Expectation) Path() string {
	return e.path
}

// Receives adds an expected inbound message.
func (e *Expectation) Receives(m Message) *InboundMessage {
	im := &InboundMessage{message: m, occurrences: matching.AtLeast(1)}
	e.mu.Lock()
	e.inbound = append(e.inbound, im)
	e.mu.Unlock()
	return im
}

// ReceivesText adds an expected inbound text message.
func (e *Expectation) ReceivesText(s string) *InboundMessage {
	return e.Receives(Text(s))
}

// ReceivesBinary adds an expected inbound binary message.
func (e *Expectation) ReceivesBinary(b []byte) *InboundMessage {
	return e.Receives(Binary(b))
}

// Sends adds a message pushed to every client as soon as it connects.
func (e *Expectation) Sends(m Message) *Expectation {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onConnect = append(e.onConnect, m)
	return e
}

// SendsText adds a text message pushed on connect.
func (e *Expectation) SendsText(s string) *Expectation {
	return e.Sends(Text(s))
}

// SendsBinary adds a binary message pushed on connect.
func (e *Expectation) SendsBinary(b []byte) *Expectation {
	return e.Sends(Binary(b))
}

// Connect records a connection and returns the messages to push to it.
func (e *Expectation) Connect() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connections++
	return append([]Message(nil), e.onConnect...)
}

// Connected reports whether any client connected.
func (e *Expectation) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connections > 0
}

// Connections returns how many clients connected.
func (e *Expectation) Connections() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connections
}

// FindMatch records an inbound message against the first expected message
// equal to it whose occurrence contract is not yet met, or against the
// first equal one when all are met, and returns its reactions. ok is false
// when no expected message is equal. Selection and counting happen under
// one lock, so concurrent connections never both fill the same slot.
func (e *Expectation) FindMatch(m Message) (reactions []Message, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var fallback *InboundMessage
	for _, im := range e.inbound {
		if !im.message.Equal(m) {
			continue
		}
		if !im.Satisfied() {
			return im.mark(), true
		}
		if fallback == nil {
			fallback = im
		}
	}
	if fallback == nil {
		return nil, false
	}
	return fallback.mark(), true
}

// Satisfied reports whether a client connected and every inbound
// message's occurrence contract holds.
func (e *Expectation) Satisfied() bool {
	if !e.Connected() {
		return false
	}
	e.mu.Lock()
	inbound := append([]*InboundMessage(nil), e.inbound...)
	e.mu.Unlock()
	for _, im := range inbound {
		if !im.Satisfied() {
			return false
		}
	}
	return true
}
