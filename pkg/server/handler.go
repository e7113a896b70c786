package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/ersatz/pkg/chunked"
	"github.com/getmockd/ersatz/pkg/expect"
	"github.com/getmockd/ersatz/pkg/mimetype"
	"github.com/getmockd/ersatz/pkg/request"
	"github.com/getmockd/ersatz/pkg/requestlog"
	"github.com/getmockd/ersatz/pkg/websocket"
)

// ServeHTTP dispatches WebSocket upgrades to their expectation and matches
// everything else against the HTTP expectations.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if isUpgrade(r) {
		if exp, ok := s.FindWebSocket(r.URL.Path); ok {
			s.serveWebSocket(w, r, exp)
			return
		}
	}

	start := time.Now()
	rw := &responseWriter{ResponseWriter: w}
	entry := &requestlog.Entry{
		Timestamp:   start,
		Protocol:    requestlog.ProtocolHTTP,
		Method:      r.Method,
		Path:        r.URL.Path,
		QueryString: r.URL.RawQuery,
		Headers:     r.Header.Clone(),
		RemoteAddr:  r.RemoteAddr,
	}
	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler {
				panic(v)
			}
			err := fmt.Errorf("panic: %v", v)
			s.log.Error("recovered from panic", "request", r.Method+" "+r.URL.Path, "error", err, "stack", string(debug.Stack()))
			s.fail(rw, entry, err)
		}
		entry.ResponseStatus = rw.Status()
		entry.DurationMs = int(time.Since(start).Milliseconds())
		s.requestLog.Log(entry)
	}()

	s.serveHTTP(rw, r, entry)
}

func (s *Server) serveHTTP(w *responseWriter, r *http.Request, entry *requestlog.Entry) {
	req, err := request.FromHTTP(r, s.opts.maxBodySize)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, request.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		entry.Error = err.Error()
		s.log.Warn("rejected request", "request", r.Method+" "+r.URL.Path, "error", err)
		http.Error(w, err.Error(), status)
		return
	}
	entry.Body = requestlog.TruncateBody(req.Body)
	entry.BodySize = len(req.Body)
	s.log.Debug("request", "request", req.String(), "contentType", req.ContentType, "bodySize", len(req.Body))

	var (
		exp *expect.Expectation
		ok  bool
	)
	if s.Requirements().Check(req) {
		exp, ok = s.FindMatch(req)
	}
	if !ok {
		s.unmatched(w, req)
		return
	}
	entry.MatchedID = exp.ID()

	resp := exp.Claim()
	exp.Notify(req)
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		s.log.Debug("response", "request", req.String(), "status", http.StatusNoContent)
		return
	}

	out, err := resp.Render()
	if err != nil {
		s.fail(w, entry, fmt.Errorf("rendering response for %s: %w", exp, err))
		return
	}
	if !sleep(r.Context(), out.Delay) {
		return
	}
	if out.ForwardTo != nil {
		s.forward(w, r, req, out.ForwardTo)
		return
	}
	s.write(w, r, req, out)
}

func (s *Server) write(w *responseWriter, r *http.Request, req *request.ClientRequest, out *expect.Rendered) {
	header := w.Header()
	for name, values := range out.Headers {
		header[name] = append(header[name], values...)
	}
	for _, c := range out.Cookies {
		http.SetCookie(w, c)
	}
	if out.Chunks == nil && len(out.Body) > 0 && header.Get("Content-Length") == "" {
		header.Set("Content-Length", strconv.Itoa(len(out.Body)))
	}
	w.WriteHeader(out.Status)

	if out.Chunks != nil {
		if err := chunked.Write(r.Context(), w, out.Chunks, out.ChunkDelay); err != nil {
			s.log.Debug("chunked write stopped", "request", req.String(), "error", err)
		}
	} else if len(out.Body) > 0 && req.Method != request.MethodHead {
		if _, err := w.Write(out.Body); err != nil {
			s.log.Debug("write failed", "request", req.String(), "error", err)
		}
	}
	s.logResponse(req, out)
}

func (s *Server) logResponse(req *request.ClientRequest, out *expect.Rendered) {
	if !s.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	attrs := []any{"request", req.String(), "status", out.Status}
	if s.opts.logResponseContent && mimetype.IsTextual(out.Headers.Get("Content-Type")) {
		attrs = append(attrs, "body", string(out.Body))
	} else {
		attrs = append(attrs, "bodySize", len(out.Body))
	}
	if out.Chunks != nil {
		attrs = append(attrs, "chunks", len(out.Chunks))
	}
	s.log.Debug("response", attrs...)
}

func (s *Server) unmatched(w http.ResponseWriter, req *request.ClientRequest) {
	report := s.NewUnmatchedReport(req).String()
	s.log.Warn("unmatched request", "request", req.String(), "report", report)
	if s.opts.reportToConsole {
		fmt.Fprintln(s.opts.console, report)
	}
	http.Error(w, "no expectation matched "+req.String(), http.StatusNotFound)
}

func (s *Server) fail(w *responseWriter, entry *requestlog.Entry, err error) {
	entry.Error = err.Error()
	s.log.Error("request failed", "request", entry.Method+" "+entry.Path, "error", err)
	if w.wroteHeader {
		return
	}
	w.Header().Del("Content-Length")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request, exp *websocket.Expectation) {
	opts := []websocket.HandlerOption{
		websocket.WithLogger(s.log),
		websocket.WithRequestLog(s.requestLog),
		websocket.WithUnmatchedHook(func(snap websocket.Snapshot, msg websocket.Message) {
			if s.opts.reportToConsole {
				fmt.Fprintf(s.opts.console, "# Unmatched WebSocket Message\n\n%s\n\n%s\n", msg, snap)
			}
		}),
	}
	if s.opts.maxMessageSize > 0 {
		opts = append(opts, websocket.WithMaxMessageSize(s.opts.maxMessageSize))
	}
	websocket.NewHandler(exp, opts...).ServeHTTP(w, r)
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// sleep waits d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
