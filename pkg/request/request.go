package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/getmockd/ersatz/pkg/mimetype"
)

// DefaultMaxBodySize bounds how much of a request body FromHTTP reads.
const DefaultMaxBodySize int64 = 10 << 20

// ErrBodyTooLarge is returned by FromHTTP when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("request body too large")

// ClientRequest is a read-only snapshot of an inbound request.
type ClientRequest struct {
	Method            Method
	Path              string
	Protocol          string
	Scheme            string
	Headers           http.Header
	Query             url.Values
	BodyParams        url.Values
	Cookies           map[string]Cookie
	Body              []byte
	ContentLength     int64
	ContentType       string
	CharacterEncoding string
}

// FromHTTP builds a ClientRequest from r, reading at most maxBody bytes of
// its body (DefaultMaxBodySize when maxBody <= 0). The body of r is
// consumed.
func FromHTTP(r *http.Request, maxBody int64) (*ClientRequest, error) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}

	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		if int64(len(data)) > maxBody {
			return nil, ErrBodyTooLarge
		}
		if len(data) > 0 {
			body = data
		}
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	contentType := r.Header.Get("Content-Type")
	cr := &ClientRequest{
		Method:            Method(strings.ToUpper(r.Method)),
		Path:              r.URL.Path,
		Protocol:          r.Proto,
		Scheme:            scheme,
		Headers:           r.Header.Clone(),
		Query:             r.URL.Query(),
		BodyParams:        url.Values{},
		Cookies:           make(map[string]Cookie),
		Body:              body,
		ContentLength:     r.ContentLength,
		ContentType:       contentType,
		CharacterEncoding: mimetype.Charset(contentType),
	}
	if cr.Headers == nil {
		cr.Headers = http.Header{}
	}
	if cr.ContentLength < 0 {
		cr.ContentLength = int64(len(body))
	}

	if body != nil && mimetype.Matches(mimetype.ApplicationURLForm, contentType) {
		// ParseQuery returns what it could parse alongside the first error.
		params, _ := url.ParseQuery(string(body))
		cr.BodyParams = params
	}

	for _, c := range r.Cookies() {
		cr.Cookies[c.Name] = Cookie{
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			MaxAge:   c.MaxAge,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
	}

	return cr, nil
}

// HeaderValues returns the values of every header whose name equals name
// case-insensitively, in the order the headers are stored.
func (r *ClientRequest) HeaderValues(name string) []string {
	var values []string
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			values = append(values, v...)
		}
	}
	return values
}

// Header returns the first value of the named header, or "".
func (r *ClientRequest) Header(name string) string {
	if v := r.HeaderValues(name); len(v) > 0 {
		return v[0]
	}
	return ""
}

// BodyReader returns a reader over the captured body.
func (r *ClientRequest) BodyReader() io.Reader {
	return bytes.NewReader(r.Body)
}

// String renders the request line, used in reports.
func (r *ClientRequest) String() string {
	var b strings.Builder
	b.WriteString(string(r.Method))
	b.WriteByte(' ')
	b.WriteString(r.Path)
	if q := r.Query.Encode(); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	return b.String()
}
