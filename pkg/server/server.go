package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/getmockd/ersatz/pkg/expect"
	"github.com/getmockd/ersatz/pkg/logging"
	"github.com/getmockd/ersatz/pkg/requestlog"
	certs "github.com/getmockd/ersatz/pkg/tls"
)

// ErrAlreadyRunning is returned by Start on a running server.
var ErrAlreadyRunning = errors.New("server is already running")

// ErrNotRunning is returned by accessors that need a listener.
var ErrNotRunning = errors.New("server is not running")

const shutdownTimeout = 5 * time.Second

// Server serves the embedded expectation registry.
type Server struct {
	*expect.Expectations

	opts       options
	log        *slog.Logger
	requestLog requestlog.Logger
	store      *requestlog.MemoryStore

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	cert       *certs.Certificate
	running    bool
	done       chan struct{}
}

// New returns a stopped server.
func New(opts ...Option) *Server {
	o := options{host: DefaultHost, log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.console == nil {
		o.console = os.Stdout
	}

	exps := o.expectations
	if exps == nil {
		exps = expect.New()
	}
	exps.Decoders().Merge(o.decoders)
	exps.Encoders().Merge(o.encoders)

	s := &Server{
		Expectations: exps,
		opts:         o,
		log:          o.log,
		requestLog:   o.requestLog,
	}
	if s.requestLog == nil {
		s.store = requestlog.NewMemoryStore(DefaultRequestLogSize)
		s.requestLog = s.store
	}
	return s
}

// Start listens and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.opts.host, strconv.Itoa(s.opts.port)))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.opts.port, err)
	}

	var handler http.Handler = s
	srv := &http.Server{ReadHeaderTimeout: 10 * time.Second}

	if s.opts.https {
		cert := s.opts.cert
		if cert == nil {
			cert, err = certs.Generate(certs.DefaultConfig())
			if err != nil {
				_ = ln.Close()
				return fmt.Errorf("generating certificate: %w", err)
			}
		}
		s.cert = cert
		srv.TLSConfig = cert.ServerConfig()
	} else if s.opts.h2c {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	srv.Handler = handler

	s.httpServer = srv
	s.listener = ln
	s.done = make(chan struct{})
	s.running = true

	go s.serve(srv, ln, s.done)

	s.log.Info("server started", "url", s.urlLocked(), "https", s.opts.https, "h2c", s.opts.h2c && !s.opts.https)
	return nil
}

func (s *Server) serve(srv *http.Server, ln net.Listener, done chan struct{}) {
	defer close(done)

	var err error
	if srv.TLSConfig != nil {
		err = srv.ServeTLS(ln, "", "")
	} else {
		err = srv.Serve(ln)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("server error", "error", err)
	}
}

// Close shuts the server down, waiting briefly for in-flight requests.
// Expectations stay registered.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	srv, done := s.httpServer, s.done
	s.running = false
	s.mu.Unlock()

	err := srv.Shutdown(ctx)
	if err != nil {
		_ = srv.Close()
		err = fmt.Errorf("shutting down: %w", err)
	}
	<-done
	s.log.Info("server stopped")
	return err
}

// Running reports whether the server is serving.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Port returns the bound port, or 0 when stopped.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portLocked()
}

func (s *Server) portLocked() int {
	if !s.running {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// URL returns the base URL, such as http://127.0.0.1:38211, or "" when
// stopped.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urlLocked()
}

func (s *Server) urlLocked() string {
	if !s.running {
		return ""
	}
	scheme := "http"
	if s.opts.https {
		scheme = "https"
	}
	host := s.opts.host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, strconv.Itoa(s.portLocked())))
}

// WebSocketURL returns the ws:// or wss:// URL for path.
func (s *Server) WebSocketURL(path string) string {
	base := s.URL()
	if base == "" {
		return ""
	}
	return "ws" + base[len("http"):] + path
}

// Certificate returns the certificate served over HTTPS, nil otherwise.
func (s *Server) Certificate() *certs.Certificate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cert
}

// Client returns an HTTP client that trusts the server's certificate.
func (s *Server) Client() *http.Client {
	cert := s.Certificate()
	if cert == nil {
		return &http.Client{Timeout: 30 * time.Second}
	}
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig:   &tls.Config{RootCAs: cert.Pool(), MinVersion: tls.VersionTLS12},
			ForceAttemptHTTP2: true,
		},
	}
}

// RequestLog returns the default request history, nil when WithRequestLog
// replaced it.
func (s *Server) RequestLog() *requestlog.MemoryStore {
	return s.store
}

// Logger returns the operational logger.
func (s *Server) Logger() *slog.Logger {
	return s.log
}
