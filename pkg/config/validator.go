package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/getmockd/ersatz/pkg/matching"
	"github.com/getmockd/ersatz/pkg/request"
)

// ValidationError locates one problem in a collection.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

type validator struct {
	errs []error
}

func (v *validator) add(field, format string, args ...any) {
	v.errs = append(v.errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate reports every problem found, joined. Expressions, regular
// expressions and schemas are compiled to check them.
func (c *Collection) Validate() error {
	v := &validator{}
	if c.Version != "" && c.Version != Version {
		v.add("version", "unsupported version %q, want %q", c.Version, Version)
	}
	for i, r := range c.Requirements {
		field := fmt.Sprintf("requirements[%d]", i)
		v.method(field+".method", r.Method)
		if r.Path == "" {
			v.add(field+".path", "is required")
		}
		v.when(field+".when", r.When)
	}
	for i := range c.Expectations {
		v.expectation(fmt.Sprintf("expectations[%d]", i), &c.Expectations[i])
	}
	seen := map[string]bool{}
	for i, ws := range c.WebSockets {
		field := fmt.Sprintf("websockets[%d]", i)
		switch {
		case !strings.HasPrefix(ws.Path, "/"):
			v.add(field+".path", "must start with /")
		case seen[ws.Path]:
			v.add(field+".path", "duplicate path %q", ws.Path)
		}
		seen[ws.Path] = true
		for j, m := range ws.Sends {
			v.message(fmt.Sprintf("%s.sends[%d]", field, j), m)
		}
		for j, in := range ws.Receives {
			inField := fmt.Sprintf("%s.receives[%d]", field, j)
			v.message(inField, in.MessageConfig)
			for k, m := range in.Reacts {
				v.message(fmt.Sprintf("%s.reacts[%d]", inField, k), m)
			}
			v.calls(inField+".calls", in.Calls)
		}
	}
	return errors.Join(v.errs...)
}

func (v *validator) expectation(field string, e *ExpectationConfig) {
	r := &e.Request
	v.method(field+".request.method", r.Method)

	paths := 0
	for _, p := range []string{r.Path, r.PathPrefix, r.PathGlob, r.PathRegex} {
		if p != "" {
			paths++
		}
	}
	if paths != 1 {
		v.add(field+".request", "exactly one of path, pathPrefix, pathGlob and pathRegex is required")
	}
	if r.PathRegex != "" {
		if _, err := regexp.Compile(r.PathRegex); err != nil {
			v.add(field+".request.pathRegex", "%v", err)
		}
	}
	v.when(field+".request.when", r.When)

	if b := r.Body; b != nil {
		if b.ContentType == "" {
			v.add(field+".request.body.contentType", "is required")
		}
		if b.JSONSchema != "" {
			if _, err := matching.JSONSchema(b.JSONSchema); err != nil {
				v.add(field+".request.body.jsonSchema", "%v", err)
			}
		}
	}

	v.calls(field+".calls", e.Calls)
	for i, resp := range e.Responses {
		rf := fmt.Sprintf("%s.responses[%d]", field, i)
		if resp.Status != 0 && (resp.Status < 100 || resp.Status > 599) {
			v.add(rf+".status", "%d is not a valid status code", resp.Status)
		}
		if resp.Body != nil && resp.BodyFile != "" {
			v.add(rf, "body and bodyFile are mutually exclusive")
		}
		if resp.Delay < 0 {
			v.add(rf+".delay", "must not be negative")
		}
		if resp.Forward != "" {
			u, err := url.Parse(resp.Forward)
			if err != nil || u.Scheme == "" || u.Host == "" {
				v.add(rf+".forward", "invalid URL %q", resp.Forward)
			}
		}
	}
}

func (v *validator) method(field, m string) {
	if m == "" {
		return
	}
	switch request.ParseMethod(m) {
	case request.MethodAny, request.MethodGet, request.MethodHead, request.MethodPost, request.MethodPut,
		request.MethodDelete, request.MethodPatch, request.MethodOptions, request.MethodTrace:
	default:
		v.add(field, "unknown method %q", m)
	}
}

func (v *validator) when(field, expression string) {
	if expression == "" {
		return
	}
	if _, err := matching.Expr(expression); err != nil {
		v.add(field, "%v", err)
	}
}

func (v *validator) calls(field string, c *CallsConfig) {
	if c == nil {
		return
	}
	if c.Exactly != nil && (c.AtLeast != nil || c.AtMost != nil) {
		v.add(field, "exactly cannot be combined with atLeast or atMost")
	}
	for name, n := range map[string]*int{"exactly": c.Exactly, "atLeast": c.AtLeast, "atMost": c.AtMost} {
		if n != nil && *n < 0 {
			v.add(field+"."+name, "must not be negative")
		}
	}
	if c.AtLeast != nil && c.AtMost != nil && *c.AtLeast > *c.AtMost {
		v.add(field, "atLeast %d exceeds atMost %d", *c.AtLeast, *c.AtMost)
	}
}

func (v *validator) message(field string, m MessageConfig) {
	switch {
	case (m.Text == nil) == (m.Binary == nil):
		v.add(field, "exactly one of text and binary is required")
	case m.Binary != nil:
		if _, err := base64.StdEncoding.DecodeString(*m.Binary); err != nil {
			v.add(field+".binary", "invalid base64: %v", err)
		}
	}
}
