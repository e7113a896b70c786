package testing

import (
	"log/slog"
	"strings"
	"sync/atomic"
	stdtesting "testing"
	"time"

	"github.com/getmockd/ersatz/pkg/expect"
	"github.com/getmockd/ersatz/pkg/requestlog"
	"github.com/getmockd/ersatz/pkg/server"
)

// DefaultVerifyTimeout bounds AssertVerified.
const DefaultVerifyTimeout = expect.DefaultVerifyTimeout

// Server is a started server bound to a test.
type Server struct {
	*server.Server
	t stdtesting.TB
}

// New starts a server with opts and closes it when t ends. Server logs go
// to the test log.
func New(t stdtesting.TB, opts ...server.Option) *Server {
	t.Helper()

	w := &testWriter{t: t}
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
	opts = append([]server.Option{server.WithLogger(log)}, opts...)

	srv := server.New(opts...)
	if err := srv.Start(); err != nil {
		t.Fatalf("starting ersatz server: %v", err)
	}
	t.Cleanup(func() {
		if err := srv.Close(); err != nil {
			t.Errorf("closing ersatz server: %v", err)
		}
		w.done.Store(true)
	})
	return &Server{Server: srv, t: t}
}

// AssertVerified fails the test unless every expectation's call contract
// holds within DefaultVerifyTimeout.
func (s *Server) AssertVerified() {
	s.t.Helper()
	s.AssertVerifiedWithin(DefaultVerifyTimeout)
}

// AssertVerifiedWithin is AssertVerified with an explicit timeout.
func (s *Server) AssertVerifiedWithin(timeout time.Duration) {
	s.t.Helper()
	if err := s.Verify(timeout); err != nil {
		s.t.Errorf("%v", err)
	}
}

// AssertCalled fails the test unless some request to method and path was
// served.
func (s *Server) AssertCalled(method, path string) {
	s.t.Helper()
	if len(s.Requests(method, path)) == 0 {
		s.t.Errorf("expected %s %s to be called\nreceived:\n%s", method, path, s.received())
	}
}

// AssertCalledTimes fails the test unless exactly n requests to method and
// path were served.
func (s *Server) AssertCalledTimes(method, path string, n int) {
	s.t.Helper()
	if got := len(s.Requests(method, path)); got != n {
		s.t.Errorf("expected %s %s to be called %d time(s), was called %d time(s)", method, path, n, got)
	}
}

// AssertNotCalled fails the test if any request to method and path was
// served.
func (s *Server) AssertNotCalled(method, path string) {
	s.t.Helper()
	if got := len(s.Requests(method, path)); got > 0 {
		s.t.Errorf("expected %s %s not to be called, was called %d time(s)", method, path, got)
	}
}

// AssertNoUnmatched fails the test if any HTTP request matched nothing.
func (s *Server) AssertNoUnmatched() {
	s.t.Helper()
	for _, e := range s.entries(&requestlog.Filter{Protocol: requestlog.ProtocolHTTP, Unmatched: true}) {
		s.t.Errorf("unmatched request: %s %s", e.Method, e.Path)
	}
}

// Requests returns the served requests to method and path, oldest first.
// An empty method matches any method.
func (s *Server) Requests(method, path string) []*RecordedRequest {
	var out []*RecordedRequest
	for _, e := range s.entries(&requestlog.Filter{Protocol: requestlog.ProtocolHTTP, Method: method}) {
		if e.Path == path {
			out = append(out, newRecordedRequest(e))
		}
	}
	return out
}

// AllRequests returns every served HTTP request, oldest first.
func (s *Server) AllRequests() []*RecordedRequest {
	entries := s.entries(&requestlog.Filter{Protocol: requestlog.ProtocolHTTP})
	out := make([]*RecordedRequest, len(entries))
	for i, e := range entries {
		out[i] = newRecordedRequest(e)
	}
	return out
}

// Reset clears expectations, requirements and recorded requests.
func (s *Server) Reset() {
	s.Clear()
	if store := s.RequestLog(); store != nil {
		store.Clear()
	}
}

func (s *Server) entries(f *requestlog.Filter) []*requestlog.Entry {
	store := s.RequestLog()
	if store == nil {
		return nil
	}
	return store.List(f)
}

func (s *Server) received() string {
	var b strings.Builder
	for _, r := range s.AllRequests() {
		b.WriteString("  ")
		b.WriteString(r.Method)
		b.WriteString(" ")
		b.WriteString(r.Path)
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "  (none)\n"
	}
	return b.String()
}

// testWriter forwards to the test log until the test is done; hijacked
// WebSocket connections can outlive it.
type testWriter struct {
	t    stdtesting.TB
	done atomic.Bool
}

func (w *testWriter) Write(p []byte) (int, error) {
	if !w.done.Load() {
		w.t.Log(strings.TrimRight(string(p), "\n"))
	}
	return len(p), nil
}
