package expect

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/ersatz/pkg/chunked"
	"github.com/getmockd/ersatz/pkg/codec"
	"github.com/getmockd/ersatz/pkg/mimetype"
	"github.com/getmockd/ersatz/pkg/multipart"
	"github.com/getmockd/ersatz/pkg/request"
)

// Rendered is a response ready to be written by a transport.
type Rendered struct {
	Status  int
	Headers http.Header
	Cookies []*http.Cookie
	Body    []byte

	// Chunks is set when the body is streamed in pieces, ChunkDelay apart.
	Chunks     [][]byte
	ChunkDelay time.Duration

	// Delay is applied before anything is written.
	Delay time.Duration

	// ForwardTo asks the transport to relay the request there and return
	// the upstream response instead.
	ForwardTo *url.URL
}

// Response is one scripted response variant.
type Response struct {
	code        int
	headers     http.Header
	cookies     map[string]request.Cookie
	cookieOrder []string
	body        any
	hasBody     bool
	delay       time.Duration
	chunking    *chunked.Config
	forward     *url.URL
	empty       bool

	encoders       *codec.Encoders
	globalEncoders *codec.Encoders

	mu      sync.Mutex
	content []byte
	cached  bool
}

func newResponse(globalEncoders *codec.Encoders, empty bool) *Response {
	return &Response{
		code:           http.StatusOK,
		headers:        http.Header{},
		cookies:        make(map[string]request.Cookie),
		encoders:       codec.NewEncoders(),
		globalEncoders: globalEncoders,
		empty:          empty,
	}
}

// Code sets the status code.
func (r *Response) Code(code int) *Response {
	r.code = code
	return r
}

// Header appends values to the named header.
func (r *Response) Header(name string, values ...string) *Response {
	for _, v := range values {
		r.headers.Add(name, v)
	}
	r.invalidate()
	return r
}

// Headers appends every header in h.
func (r *Response) Headers(h map[string][]string) *Response {
	for name, values := range h {
		r.Header(name, values...)
	}
	return r
}

// ContentType replaces the Content-Type header.
func (r *Response) ContentType(contentType string) *Response {
	r.headers.Set("Content-Type", contentType)
	r.invalidate()
	return r
}

// Cookie sets a cookie with only a value.
func (r *Response) Cookie(name, value string) *Response {
	return r.CookieRecord(name, request.Cookie{Value: value})
}

// CookieRecord sets a cookie with all its attributes.
func (r *Response) CookieRecord(name string, c request.Cookie) *Response {
	if _, exists := r.cookies[name]; !exists {
		r.cookieOrder = append(r.cookieOrder, name)
	}
	r.cookies[name] = c
	return r
}

// Body sets the body. Byte slices and strings are sent as they are unless
// an encoder is registered for them; other values go through the encoder
// chain using the Content-Type header. Multipart content is encoded at
// render time and, unless a Content-Type is set explicitly, sent with its
// boundary-carrying type.
func (r *Response) Body(content any) *Response {
	r.body = content
	r.hasBody = true
	r.invalidate()
	return r
}

// BodyAs sets the body and the Content-Type header.
func (r *Response) BodyAs(content any, contentType string) *Response {
	r.Body(content)
	return r.ContentType(contentType)
}

// Encoder registers an encoder used only by this response, ahead of the
// server-wide encoders.
func (r *Response) Encoder(contentType string, typ reflect.Type, fn codec.EncoderFunc) *Response {
	r.encoders.Register(contentType, typ, fn)
	r.invalidate()
	return r
}

// Encoders merges a registry into this response's encoders.
func (r *Response) Encoders(e *codec.Encoders) *Response {
	r.encoders.Merge(e)
	r.invalidate()
	return r
}

// Delay waits d before the response is written.
func (r *Response) Delay(d time.Duration) *Response {
	r.delay = d
	return r
}

// Chunked streams the body in chunks pieces, delay apart. Fewer than one
// chunk means chunked.DefaultChunks.
func (r *Response) Chunked(chunks int, delay time.Duration) *Response {
	if chunks < 1 {
		chunks = chunked.DefaultChunks
	}
	r.chunking = &chunked.Config{Chunks: chunks, Delay: delay}
	return r
}

// StatusCode returns the configured status code.
func (r *Response) StatusCode() int {
	return r.code
}

// ContentTypeValue returns the Content-Type header values joined with
// commas, or text/plain when none is set.
func (r *Response) ContentTypeValue() string {
	if v := r.headers.Values("Content-Type"); len(v) > 0 {
		return strings.Join(v, ",")
	}
	return mimetype.TextPlain
}

func (r *Response) invalidate() {
	r.mu.Lock()
	r.cached = false
	r.content = nil
	r.mu.Unlock()
}

// Content returns the encoded body. The result is computed once and
// reused, so readers passed as bodies are consumed only once.
func (r *Response) Content() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cached {
		return r.content, nil
	}
	// Multipart content may change after Body, so it is never cached.
	if mc, ok := r.body.(*multipart.ResponseContent); ok && mc != nil {
		return mc.Encode(r.encoders, r.globalEncoders)
	}

	content, err := r.encode()
	if err != nil {
		return nil, err
	}
	r.content, r.cached = content, true
	return content, nil
}

func (r *Response) encode() ([]byte, error) {
	if !r.hasBody || r.body == nil {
		return nil, nil
	}
	contentType := r.ContentTypeValue()
	chain := codec.NewEncoderChain(r.encoders, r.globalEncoders)
	if fn := chain.Resolve(contentType, reflect.TypeOf(r.body)); fn != nil {
		out, err := fn(r.body, contentType)
		if err != nil {
			return nil, fmt.Errorf("encoding %s body: %w", contentType, err)
		}
		return out, nil
	}

	switch b := r.body.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, &codec.UnsupportedError{ContentType: contentType, Type: reflect.TypeOf(r.body)}
	}
}

// Render produces the transport-ready response.
func (r *Response) Render() (*Rendered, error) {
	out := &Rendered{
		Status:  r.code,
		Headers: r.headers.Clone(),
		Delay:   r.delay,
	}
	if r.forward != nil {
		out.ForwardTo = r.forward
		return out, nil
	}
	for _, name := range r.cookieOrder {
		out.Cookies = append(out.Cookies, r.cookies[name].HTTPCookie(name))
	}

	if r.empty {
		return out, nil
	}
	if mc, ok := r.body.(*multipart.ResponseContent); ok && mc != nil && out.Headers.Get("Content-Type") == "" {
		out.Headers.Set("Content-Type", mc.ContentType())
	}
	content, err := r.Content()
	if err != nil {
		return nil, err
	}
	out.Body = content
	if r.chunking != nil && len(content) > 0 {
		out.Chunks = chunked.Split(content, r.chunking.Chunks)
		out.ChunkDelay = r.chunking.Delay
	}
	return out, nil
}
