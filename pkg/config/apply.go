package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/getmockd/ersatz/pkg/codec"
	"github.com/getmockd/ersatz/pkg/expect"
	"github.com/getmockd/ersatz/pkg/matching"
	"github.com/getmockd/ersatz/pkg/request"
	"github.com/getmockd/ersatz/pkg/websocket"
)

// Apply registers c's requirements and expectations on e, in file order.
// Entries that fail to build are left out of e and their errors joined.
func Apply(c *Collection, e *expect.Expectations) error {
	var errs []error
	for i, r := range c.Requirements {
		if err := applyRequirement(e.Requirements(), r); err != nil {
			errs = append(errs, fmt.Errorf("requirements[%d]: %w", i, err))
		}
	}
	for i := range c.Expectations {
		if err := applyExpectation(e, &c.Expectations[i]); err != nil {
			errs = append(errs, fmt.Errorf("expectations[%d] %s: %w", i, c.Expectations[i].Name, err))
		}
	}
	for i, ws := range c.WebSockets {
		if err := applyWebSocket(e, ws); err != nil {
			errs = append(errs, fmt.Errorf("websockets[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func applyRequirement(rs *expect.Requirements, cfg RequirementConfig) error {
	var when matching.Predicate
	if cfg.When != "" {
		p, err := matching.Expr(cfg.When)
		if err != nil {
			return err
		}
		when = p
	}

	r := rs.Path(request.ParseMethod(cfg.Method), cfg.Path)
	for _, name := range sortedKeys(cfg.Headers) {
		r.Matcher(headerPredicate(name, cfg.Headers[name]))
	}
	for _, name := range sortedKeys(cfg.Query) {
		r.Matcher(queryPredicate(name, cfg.Query[name]))
	}
	if cfg.Secure != nil {
		r.Secure(*cfg.Secure)
	}
	if when != nil {
		r.Matcher(when)
	}
	return nil
}

func applyExpectation(e *expect.Expectations, cfg *ExpectationConfig) error {
	req := &cfg.Request
	path, err := pathMatcher(req)
	if err != nil {
		return err
	}
	var body matching.Matcher[any]
	if req.Body != nil {
		if body, err = bodyMatcher(req.Body); err != nil {
			return err
		}
	}

	exp := e.Register(request.ParseMethod(req.Method), path)

	for _, name := range sortedKeys(req.Headers) {
		exp.Matcher(headerPredicate(name, req.Headers[name]))
	}
	for _, name := range sortedKeys(req.Query) {
		exp.Matcher(queryPredicate(name, req.Query[name]))
	}
	for _, name := range sortedKeys(req.Params) {
		exp.Param(name, req.Params[name]...)
	}
	for _, name := range sortedKeys(req.Cookies) {
		exp.Cookie(name, req.Cookies[name])
	}
	if req.Secure != nil {
		exp.Secure(*req.Secure)
	}
	if req.BasicAuth != nil {
		exp.BasicAuth(req.BasicAuth.User, req.BasicAuth.Password)
	}
	if req.When != "" {
		exp.Matching(req.When)
	}
	if body != nil {
		exp.Body(req.Body.ContentType, body)
	}
	if m := callsMatcher(cfg.Calls); m != nil {
		exp.Called(m)
	}

	for _, rc := range cfg.Responses {
		if rc.Forward != "" {
			exp.Forward(rc.Forward)
			continue
		}
		applyResponse(exp.Responds(), rc)
	}
	if err := exp.Err(); err != nil {
		e.Remove(exp)
		return err
	}
	return nil
}

func applyResponse(r *expect.Response, cfg ResponseConfig) {
	if cfg.Status != 0 {
		r.Code(cfg.Status)
	}
	for _, name := range sortedKeys(cfg.Headers) {
		r.Header(name, cfg.Headers[name]...)
	}
	for _, name := range sortedKeys(cfg.Cookies) {
		r.Cookie(name, cfg.Cookies[name])
	}
	if cfg.ContentType != "" {
		r.ContentType(cfg.ContentType)
	}
	switch {
	case cfg.BodyFile != "":
		r.Body(codec.File(cfg.BodyFile))
	case cfg.Body != nil:
		r.Body(cfg.Body)
	}
	if cfg.Delay > 0 {
		r.Delay(cfg.Delay.Std())
	}
	if cfg.Chunked != nil {
		r.Chunked(cfg.Chunked.Chunks, cfg.Chunked.Delay.Std())
	}
}

func applyWebSocket(e *expect.Expectations, cfg WebSocketConfig) error {
	ws := e.WebSocket(cfg.Path)
	for _, mc := range cfg.Sends {
		m, err := message(mc)
		if err != nil {
			return err
		}
		ws.Sends(m)
	}
	for _, in := range cfg.Receives {
		m, err := message(in.MessageConfig)
		if err != nil {
			return err
		}
		im := ws.Receives(m)
		for _, rc := range in.Reacts {
			react, err := message(rc)
			if err != nil {
				return err
			}
			im.Reacts(react)
		}
		if c := callsMatcher(in.Calls); c != nil {
			im.Occurs(c)
		}
	}
	return nil
}

func pathMatcher(r *RequestConfig) (matching.Matcher[string], error) {
	switch {
	case r.PathPrefix != "":
		return matching.StartsWith(r.PathPrefix), nil
	case r.PathGlob != "":
		return matching.Glob(r.PathGlob), nil
	case r.PathRegex != "":
		re, err := regexp.Compile(r.PathRegex)
		if err != nil {
			return nil, fmt.Errorf("pathRegex: %w", err)
		}
		return matching.Regex(re), nil
	case r.Path == "*":
		return matching.Anything[string](), nil
	default:
		return matching.Equal(r.Path), nil
	}
}

func headerPredicate(name string, values []string) matching.Predicate {
	if len(values) == 0 {
		return matching.HeaderExists(name)
	}
	return matching.Header(name, matching.HasValues(values...))
}

func queryPredicate(name string, values []string) matching.Predicate {
	if len(values) == 0 {
		return matching.QueryValue(name, "")
	}
	return matching.Query(name, matching.HasValues(values...))
}

func bodyMatcher(b *BodyConfig) (matching.Matcher[any], error) {
	var ms []matching.Matcher[any]
	if b.Equals != nil {
		if s, ok := b.Equals.(string); ok {
			ms = append(ms, matching.AsString(matching.Equal(s)))
		} else {
			want, err := normalize(b.Equals)
			if err != nil {
				return nil, fmt.Errorf("body.equals: %w", err)
			}
			ms = append(ms, matching.DeepEqual(want))
		}
	}
	if b.Contains != "" {
		ms = append(ms, matching.AsString(matching.Contains(b.Contains)))
	}
	for _, path := range sortedKeys(b.JSONPath) {
		want, err := normalize(b.JSONPath[path])
		if err != nil {
			return nil, fmt.Errorf("body.jsonPath %s: %w", path, err)
		}
		ms = append(ms, matching.JSONPath(path, want))
	}
	if b.JSONSchema != "" {
		m, err := matching.JSONSchema(b.JSONSchema)
		if err != nil {
			return nil, fmt.Errorf("body.jsonSchema: %w", err)
		}
		ms = append(ms, m)
	}
	for _, path := range sortedKeys(b.XPath) {
		ms = append(ms, matching.XPath(path, b.XPath[path]))
	}
	if len(ms) == 0 {
		return matching.Anything[any](), nil
	}
	return matching.AllOf(ms...), nil
}

// normalize gives v the shape the JSON decoder produces, so integers from
// YAML compare equal to decoded float64 values.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func callsMatcher(c *CallsConfig) matching.Matcher[int] {
	switch {
	case c == nil:
		return nil
	case c.Exactly != nil:
		return matching.Times(*c.Exactly)
	case c.AtLeast != nil && c.AtMost != nil:
		return matching.Between(*c.AtLeast, *c.AtMost)
	case c.AtLeast != nil:
		return matching.AtLeast(*c.AtLeast)
	case c.AtMost != nil:
		return matching.AtMost(*c.AtMost)
	}
	return nil
}

func message(m MessageConfig) (websocket.Message, error) {
	if m.Text != nil {
		return websocket.Text(*m.Text), nil
	}
	if m.Binary != nil {
		data, err := base64.StdEncoding.DecodeString(*m.Binary)
		if err != nil {
			return websocket.Message{}, fmt.Errorf("binary message: %w", err)
		}
		return websocket.Binary(data), nil
	}
	return websocket.Message{}, errors.New("message has neither text nor binary")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
