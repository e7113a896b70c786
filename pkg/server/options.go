package server

import (
	"io"
	"log/slog"
	"reflect"

	"github.com/getmockd/ersatz/pkg/codec"
	"github.com/getmockd/ersatz/pkg/expect"
	"github.com/getmockd/ersatz/pkg/logging"
	"github.com/getmockd/ersatz/pkg/requestlog"
	certs "github.com/getmockd/ersatz/pkg/tls"
)

// DefaultHost is the interface listened on unless WithHost says otherwise.
const DefaultHost = "127.0.0.1"

// DefaultRequestLogSize bounds the default in-memory request log.
const DefaultRequestLogSize = 1000

type options struct {
	host               string
	port               int
	https              bool
	cert               *certs.Certificate
	h2c                bool
	log                *slog.Logger
	reportToConsole    bool
	console            io.Writer
	logResponseContent bool
	maxBodySize        int64
	maxMessageSize     int64
	decoders           *codec.Decoders
	encoders           *codec.Encoders
	expectations       *expect.Expectations
	requestLog         requestlog.Logger
}

// Option configures a Server.
type Option func(*options)

// WithHost sets the listen interface. Use "" or "0.0.0.0" for all.
func WithHost(host string) Option {
	return func(o *options) { o.host = host }
}

// WithPort sets the listen port. Zero picks a free one.
func WithPort(port int) Option {
	return func(o *options) { o.port = port }
}

// WithHTTPS serves TLS with a freshly generated self-signed certificate.
func WithHTTPS() Option {
	return func(o *options) { o.https = true }
}

// WithCertificate serves TLS with cert.
func WithCertificate(cert *certs.Certificate) Option {
	return func(o *options) {
		o.https = true
		o.cert = cert
	}
}

// WithH2C accepts HTTP/2 without TLS in addition to HTTP/1.1. Ignored when
// serving HTTPS, which negotiates HTTP/2 through ALPN.
func WithH2C() Option {
	return func(o *options) { o.h2c = true }
}

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = logging.OrNop(log) }
}

// WithReportToConsole also prints unmatched reports to w, os.Stdout when w
// is nil.
func WithReportToConsole(w io.Writer) Option {
	return func(o *options) {
		o.reportToConsole = true
		o.console = w
	}
}

// WithLogResponseContent logs text-like response bodies instead of their
// size.
func WithLogResponseContent() Option {
	return func(o *options) { o.logResponseContent = true }
}

// WithMaxBodySize bounds request bodies. Larger requests get a 413.
func WithMaxBodySize(n int64) Option {
	return func(o *options) { o.maxBodySize = n }
}

// WithMaxMessageSize bounds inbound WebSocket messages.
func WithMaxMessageSize(n int64) Option {
	return func(o *options) { o.maxMessageSize = n }
}

// WithDecoder registers a server-wide request body decoder.
func WithDecoder(contentType string, fn codec.DecoderFunc) Option {
	return func(o *options) {
		if o.decoders == nil {
			o.decoders = codec.NewDecoders()
		}
		o.decoders.Register(contentType, fn)
	}
}

// WithEncoder registers a server-wide response body encoder. A nil typ
// accepts any value.
func WithEncoder(contentType string, typ reflect.Type, fn codec.EncoderFunc) Option {
	return func(o *options) {
		if o.encoders == nil {
			o.encoders = codec.NewEncoders()
		}
		o.encoders.Register(contentType, typ, fn)
	}
}

// WithExpectations serves an existing registry. Decoders and encoders given
// through options are merged into its registries.
func WithExpectations(e *expect.Expectations) Option {
	return func(o *options) { o.expectations = e }
}

// WithRequestLog records served requests in l instead of the default
// in-memory store.
func WithRequestLog(l requestlog.Logger) Option {
	return func(o *options) { o.requestLog = l }
}
