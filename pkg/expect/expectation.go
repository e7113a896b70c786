package expect

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/getmockd/ersatz/internal/id"
	"github.com/getmockd/ersatz/pkg/codec"
	"github.com/getmockd/ersatz/pkg/matching"
	"github.com/getmockd/ersatz/pkg/request"
)

// Expectation is an HTTP request expectation with its scripted responses.
type Expectation struct {
	id     string
	method request.Method
	path   matching.Matcher[string]

	matchers       []matching.Predicate
	decoders       *codec.Decoders
	decoderChain   *codec.DecoderChain
	globalEncoders *codec.Encoders
	err            error

	mu        sync.Mutex
	responses []*Response
	listeners []func(*request.ClientRequest)
	calls     matching.Matcher[int]
	count     int
}

func newExpectation(method request.Method, path matching.Matcher[string], globalDecoders *codec.Decoders, globalEncoders *codec.Encoders) *Expectation {
	local := codec.NewDecoders()
	return &Expectation{
		id:             id.UUID(),
		method:         method,
		path:           path,
		matchers:       []matching.Predicate{matching.Method(method), matching.PathMatching(path)},
		decoders:       local,
		decoderChain:   codec.NewDecoderChain(local, globalDecoders),
		globalEncoders: globalEncoders,
		calls:          matching.Anything[int](),
	}
}

// ID returns the generated identifier.
func (e *Expectation) ID() string {
	return e.id
}

// Method returns the expected method.
func (e *Expectation) Method() request.Method {
	return e.method
}

// Err returns the first configuration error, such as an invalid forward
// URL or expression.
func (e *Expectation) Err() error {
	return e.err
}

func (e *Expectation) setError(err error) {
	if e.err == nil {
		e.err = err
	}
}

// Matcher adds request predicates.
func (e *Expectation) Matcher(preds ...matching.Predicate) *Expectation {
	e.matchers = append(e.matchers, preds...)
	return e
}

// Matching adds an expr-lang predicate; see matching.Expr.
func (e *Expectation) Matching(expression string) *Expectation {
	p, err := matching.Expr(expression)
	if err != nil {
		e.setError(err)
		return e
	}
	return e.Matcher(p)
}

// Secure requires HTTPS when secure is true and plain HTTP otherwise.
func (e *Expectation) Secure(secure bool) *Expectation {
	return e.Matcher(matching.Secure(secure))
}

// Header requires the named header to carry value.
func (e *Expectation) Header(name, value string) *Expectation {
	return e.Matcher(matching.HeaderValue(name, value))
}

// HeaderMatching requires the named header's values to satisfy m.
func (e *Expectation) HeaderMatching(name string, m matching.Matcher[[]string]) *Expectation {
	return e.Matcher(matching.Header(name, m))
}

// HeaderExists requires the named header.
func (e *Expectation) HeaderExists(name string) *Expectation {
	return e.Matcher(matching.HeaderExists(name))
}

// HeaderAbsent forbids the named header.
func (e *Expectation) HeaderAbsent(name string) *Expectation {
	return e.Matcher(matching.HeaderAbsent(name))
}

// Query requires the named query parameter to carry every value. Without
// values the parameter must appear without one, as in "?flag".
func (e *Expectation) Query(name string, values ...string) *Expectation {
	if len(values) == 0 {
		return e.Matcher(matching.QueryValue(name, ""))
	}
	return e.Matcher(matching.Query(name, matching.HasValues(values...)))
}

// QueryMatching requires the named query parameter's values to satisfy m.
func (e *Expectation) QueryMatching(name string, m matching.Matcher[[]string]) *Expectation {
	return e.Matcher(matching.Query(name, m))
}

// QueryExists requires the named query parameter.
func (e *Expectation) QueryExists(name string) *Expectation {
	return e.Matcher(matching.QueryExists(name))
}

// QueryAbsent forbids the named query parameter.
func (e *Expectation) QueryAbsent(name string) *Expectation {
	return e.Matcher(matching.QueryAbsent(name))
}

// Param requires the named form body parameter to carry every value. Without
// values the parameter must be present with an empty value.
func (e *Expectation) Param(name string, values ...string) *Expectation {
	if len(values) == 0 {
		return e.Matcher(matching.ParamValue(name, ""))
	}
	return e.Matcher(matching.Param(name, matching.HasValues(values...)))
}

// ParamMatching requires the named body parameter's values to satisfy m.
func (e *Expectation) ParamMatching(name string, m matching.Matcher[[]string]) *Expectation {
	return e.Matcher(matching.Param(name, m))
}

// Cookie requires the named cookie to have value.
func (e *Expectation) Cookie(name, value string) *Expectation {
	return e.Matcher(matching.CookieValue(name, value))
}

// CookieMatching requires the named cookie to satisfy m.
func (e *Expectation) CookieMatching(name string, m matching.Matcher[request.Cookie]) *Expectation {
	return e.Matcher(matching.Cookie(name, m))
}

// CookieExists requires the named cookie.
func (e *Expectation) CookieExists(name string) *Expectation {
	return e.Matcher(matching.CookieExists(name))
}

// CookieAbsent forbids the named cookie.
func (e *Expectation) CookieAbsent(name string) *Expectation {
	return e.Matcher(matching.CookieAbsent(name))
}

// NoCookies forbids cookies altogether.
func (e *Expectation) NoCookies() *Expectation {
	return e.Matcher(matching.NoCookies())
}

// BasicAuth requires HTTP Basic credentials.
func (e *Expectation) BasicAuth(user, password string) *Expectation {
	return e.Matcher(matching.BasicAuth(user, password))
}

// Body requires a request of contentType whose decoded body satisfies m.
// Decoders registered with Decoder take precedence over the registry's.
func (e *Expectation) Body(contentType string, m matching.Matcher[any]) *Expectation {
	return e.Matcher(matching.Body(e.decoderChain, contentType, m))
}

// BodyEquals requires the decoded body to equal want.
func (e *Expectation) BodyEquals(contentType string, want any) *Expectation {
	return e.Body(contentType, matching.DeepEqual(want))
}

// Decoder registers a decoder used only by this expectation.
func (e *Expectation) Decoder(contentType string, fn codec.DecoderFunc) *Expectation {
	e.decoders.Register(contentType, fn)
	return e
}

// Listener registers fn to run after each matched request.
func (e *Expectation) Listener(fn func(*request.ClientRequest)) *Expectation {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
	return e
}

// Called sets the call-count contract checked by verification.
func (e *Expectation) Called(m matching.Matcher[int]) *Expectation {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = m
	return e
}

// Responds appends a response variant and returns it for configuration.
func (e *Expectation) Responds() *Response {
	r := newResponse(e.globalEncoders, e.method == request.MethodHead)
	e.mu.Lock()
	e.responses = append(e.responses, r)
	e.mu.Unlock()
	return r
}

// Responder appends a response variant configured by fn.
func (e *Expectation) Responder(fn func(*Response)) *Expectation {
	fn(e.Responds())
	return e
}

// Forward appends a response variant that relays the request to target.
func (e *Expectation) Forward(target string) *Expectation {
	u, err := url.Parse(target)
	if err == nil && (u.Scheme == "" || u.Host == "") {
		err = errors.New("missing scheme or host")
	}
	if err != nil {
		e.setError(fmt.Errorf("invalid forward target %q: %w", target, err))
		return e
	}
	r := e.Responds()
	r.forward = u
	return e
}

// Match reports whether every predicate accepts req. An expectation with
// a configuration error matches nothing.
func (e *Expectation) Match(req *request.ClientRequest) bool {
	if e.err != nil {
		return false
	}
	for _, m := range e.matchers {
		if !m.Match(req) {
			return false
		}
	}
	return true
}

// Evaluate tests every predicate against req for reporting.
func (e *Expectation) Evaluate(req *request.ClientRequest) []MatcherResult {
	results := make([]MatcherResult, 0, len(e.matchers)+1)
	if e.err != nil {
		results = append(results, MatcherResult{Description: "configuration error: " + e.err.Error()})
	}
	for _, m := range e.matchers {
		results = append(results, MatcherResult{Description: m.String(), Matched: m.Match(req)})
	}
	return results
}

// Claim counts one matched request and returns the response variant for
// it: the k-th match gets responses[min(k, n-1)]. It returns nil when no
// responses are configured. Counting and cursor movement happen together
// so concurrent requests each get a distinct position.
func (e *Expectation) Claim() *Response {
	e.mu.Lock()
	defer e.mu.Unlock()
	k := e.count
	e.count++
	if len(e.responses) == 0 {
		return nil
	}
	return e.responses[min(k, len(e.responses)-1)]
}

// Notify runs the listeners for a matched request.
func (e *Expectation) Notify(req *request.ClientRequest) {
	e.mu.Lock()
	listeners := append([]func(*request.ClientRequest){}, e.listeners...)
	e.mu.Unlock()
	for _, fn := range listeners {
		fn(req)
	}
}

// Calls returns how many requests matched so far.
func (e *Expectation) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// Satisfied reports whether the call-count contract holds now.
func (e *Expectation) Satisfied() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls.Match(e.count)
}

func (e *Expectation) contract() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls.String()
}

func (e *Expectation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.method, e.path)
	if extra := len(e.matchers) - 2; extra > 0 {
		fmt.Fprintf(&b, " (+%d predicate(s))", extra)
	}
	return b.String()
}
