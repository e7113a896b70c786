package expect

import (
	"context"
	"sync"
	"time"

	"github.com/getmockd/ersatz/pkg/codec"
	"github.com/getmockd/ersatz/pkg/matching"
	"github.com/getmockd/ersatz/pkg/multipart"
	"github.com/getmockd/ersatz/pkg/request"
	"github.com/getmockd/ersatz/pkg/websocket"
)

// PollInterval is how often verification re-checks contracts.
const PollInterval = 50 * time.Millisecond

// DefaultVerifyTimeout is the timeout used by callers without one.
const DefaultVerifyTimeout = time.Second

// Expectations is the registry of HTTP and WebSocket expectations.
// Registration is meant to happen before requests arrive; matching may run
// from many goroutines.
type Expectations struct {
	mu         sync.RWMutex
	requests   []*Expectation
	websockets map[string]*websocket.Expectation
	wsOrder    []string

	decoders     *codec.Decoders
	encoders     *codec.Encoders
	requirements *Requirements
}

// Option configures an Expectations registry.
type Option func(*Expectations)

// WithDecoders replaces the global decoder registry.
func WithDecoders(d *codec.Decoders) Option {
	return func(e *Expectations) { e.decoders = d }
}

// WithEncoders replaces the global encoder registry.
func WithEncoders(enc *codec.Encoders) Option {
	return func(e *Expectations) { e.encoders = enc }
}

// WithRequirements shares a requirement set.
func WithRequirements(r *Requirements) Option {
	return func(e *Expectations) { e.requirements = r }
}

// DefaultDecoders returns the built-in decoders including multipart.
func DefaultDecoders() *codec.Decoders {
	d := codec.DefaultDecoders()
	multipart.RegisterDefaults(d, nil)
	return d
}

// DefaultEncoders returns the built-in encoders including multipart.
func DefaultEncoders() *codec.Encoders {
	enc := codec.DefaultEncoders()
	multipart.RegisterDefaults(nil, enc)
	return enc
}

// New returns an empty registry using the built-in codecs unless options
// say otherwise.
func New(opts ...Option) *Expectations {
	e := &Expectations{websockets: make(map[string]*websocket.Expectation)}
	for _, opt := range opts {
		opt(e)
	}
	if e.decoders == nil {
		e.decoders = DefaultDecoders()
	}
	if e.encoders == nil {
		e.encoders = DefaultEncoders()
	}
	if e.requirements == nil {
		e.requirements = NewRequirements()
	}
	return e
}

// Decoders returns the global decoder registry.
func (e *Expectations) Decoders() *codec.Decoders {
	return e.decoders
}

// Encoders returns the global encoder registry.
func (e *Expectations) Encoders() *codec.Encoders {
	return e.encoders
}

// Requirements returns the global requirements.
func (e *Expectations) Requirements() *Requirements {
	return e.requirements
}

// Register adds an expectation for method and a path matcher.
func (e *Expectations) Register(method request.Method, path matching.Matcher[string]) *Expectation {
	exp := newExpectation(method, path, e.decoders, e.encoders)
	e.mu.Lock()
	e.requests = append(e.requests, exp)
	e.mu.Unlock()
	return exp
}

// Remove unregisters exp and reports whether it was registered.
func (e *Expectations) Remove(exp *Expectation) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, r := range e.requests {
		if r == exp {
			e.requests = append(e.requests[:i:i], e.requests[i+1:]...)
			return true
		}
	}
	return false
}

// Expect adds an expectation for method and an exact path, or any path
// when path is "*".
func (e *Expectations) Expect(method request.Method, path string) *Expectation {
	return e.Register(method, pathMatcher(path))
}

// ANY expects any method on path.
func (e *Expectations) ANY(path string) *Expectation { return e.Expect(request.MethodAny, path) }

// GET expects a GET request on path.
func (e *Expectations) GET(path string) *Expectation { return e.Expect(request.MethodGet, path) }

// HEAD expects a HEAD request on path. Its responses carry no body.
func (e *Expectations) HEAD(path string) *Expectation { return e.Expect(request.MethodHead, path) }

// POST expects a POST request on path.
func (e *Expectations) POST(path string) *Expectation { return e.Expect(request.MethodPost, path) }

// PUT expects a PUT request on path.
func (e *Expectations) PUT(path string) *Expectation { return e.Expect(request.MethodPut, path) }

// DELETE expects a DELETE request on path.
func (e *Expectations) DELETE(path string) *Expectation { return e.Expect(request.MethodDelete, path) }

// PATCH expects a PATCH request on path.
func (e *Expectations) PATCH(path string) *Expectation { return e.Expect(request.MethodPatch, path) }

// OPTIONS expects an OPTIONS request on path.
func (e *Expectations) OPTIONS(path string) *Expectation {
	return e.Expect(request.MethodOptions, path)
}

// TRACE expects a TRACE request on path.
func (e *Expectations) TRACE(path string) *Expectation { return e.Expect(request.MethodTrace, path) }

// WebSocket adds a WebSocket expectation for path, replacing any previous
// one for the same path.
func (e *Expectations) WebSocket(path string) *websocket.Expectation {
	ws := websocket.NewExpectation(path)
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.websockets[path]; !exists {
		e.wsOrder = append(e.wsOrder, path)
	}
	e.websockets[path] = ws
	return ws
}

// FindWebSocket returns the WebSocket expectation for path.
func (e *Expectations) FindWebSocket(path string) (*websocket.Expectation, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ws, ok := e.websockets[path]
	return ws, ok
}

// Requests returns the HTTP expectations in registration order.
func (e *Expectations) Requests() []*Expectation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*Expectation(nil), e.requests...)
}

// WebSockets returns the WebSocket expectations in registration order.
func (e *Expectations) WebSockets() []*websocket.Expectation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*websocket.Expectation, 0, len(e.wsOrder))
	for _, path := range e.wsOrder {
		out = append(out, e.websockets[path])
	}
	return out
}

// FindMatch returns the first expectation, in registration order, that
// accepts req. It does not count the match; see Expectation.Claim.
func (e *Expectations) FindMatch(req *request.ClientRequest) (*Expectation, bool) {
	for _, exp := range e.Requests() {
		if exp.Match(req) {
			return exp, true
		}
	}
	return nil, false
}

// Clear removes all HTTP and WebSocket expectations and requirements.
// Codec registries are kept.
func (e *Expectations) Clear() {
	e.requirements.Clear()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = nil
	e.websockets = make(map[string]*websocket.Expectation)
	e.wsOrder = nil
}

// Verify waits up to timeout for every call-count contract and WebSocket
// expectation to hold, checking them in registration order. It returns a
// *VerificationError for the first one still unmet at the deadline.
func (e *Expectations) Verify(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.VerifyContext(ctx)
}

// VerifyContext is Verify bounded by ctx instead of a timeout.
func (e *Expectations) VerifyContext(ctx context.Context) error {
	for _, exp := range e.Requests() {
		if !waitFor(ctx, exp.Satisfied) {
			return &VerificationError{
				Expectation: exp.String(),
				Expected:    exp.contract(),
				Calls:       exp.Calls(),
			}
		}
	}
	for _, ws := range e.WebSockets() {
		if !waitFor(ctx, ws.Satisfied) {
			snapshot := ws.Snapshot()
			return &VerificationError{
				Expectation: "WebSocket " + ws.Path(),
				Detail:      snapshot.String(),
			}
		}
	}
	return nil
}

// Verified is Verify reporting only success.
func (e *Expectations) Verified(timeout time.Duration) bool {
	return e.Verify(timeout) == nil
}

func waitFor(ctx context.Context, cond func() bool) bool {
	if cond() {
		return true
	}
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return cond()
		case <-ticker.C:
			if cond() {
				return true
			}
		}
	}
}
