package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the only supported file format version.
const Version = "1"

// Collection is the content of one or more expectation files.
type Collection struct {
	Version      string              `json:"version" yaml:"version"`
	Name         string              `json:"name,omitempty" yaml:"name,omitempty"`
	Requirements []RequirementConfig `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	Expectations []ExpectationConfig `json:"expectations,omitempty" yaml:"expectations,omitempty"`
	WebSockets   []WebSocketConfig   `json:"websockets,omitempty" yaml:"websockets,omitempty"`

	// Sources lists the files merged into this collection.
	Sources []string `json:"-" yaml:"-"`
}

// RequirementConfig is a rule every request to Method and Path must satisfy.
type RequirementConfig struct {
	Method  string              `json:"method,omitempty" yaml:"method,omitempty"`
	Path    string              `json:"path" yaml:"path"`
	Headers map[string][]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Query   map[string][]string `json:"query,omitempty" yaml:"query,omitempty"`
	Secure  *bool               `json:"secure,omitempty" yaml:"secure,omitempty"`
	When    string              `json:"when,omitempty" yaml:"when,omitempty"`
}

// ExpectationConfig declares one HTTP expectation.
type ExpectationConfig struct {
	Name      string           `json:"name,omitempty" yaml:"name,omitempty"`
	Request   RequestConfig    `json:"request" yaml:"request"`
	Calls     *CallsConfig     `json:"calls,omitempty" yaml:"calls,omitempty"`
	Responses []ResponseConfig `json:"responses,omitempty" yaml:"responses,omitempty"`
}

// RequestConfig describes the requests an expectation accepts. Exactly one
// of Path, PathPrefix, PathGlob and PathRegex is set.
type RequestConfig struct {
	Method     string              `json:"method,omitempty" yaml:"method,omitempty"`
	Path       string              `json:"path,omitempty" yaml:"path,omitempty"`
	PathPrefix string              `json:"pathPrefix,omitempty" yaml:"pathPrefix,omitempty"`
	PathGlob   string              `json:"pathGlob,omitempty" yaml:"pathGlob,omitempty"`
	PathRegex  string              `json:"pathRegex,omitempty" yaml:"pathRegex,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Query      map[string][]string `json:"query,omitempty" yaml:"query,omitempty"`
	Params     map[string][]string `json:"params,omitempty" yaml:"params,omitempty"`
	Cookies    map[string]string   `json:"cookies,omitempty" yaml:"cookies,omitempty"`
	Secure     *bool               `json:"secure,omitempty" yaml:"secure,omitempty"`
	BasicAuth  *BasicAuthConfig    `json:"basicAuth,omitempty" yaml:"basicAuth,omitempty"`
	Body       *BodyConfig         `json:"body,omitempty" yaml:"body,omitempty"`

	// When is an expr-lang expression over the request; see matching.Expr.
	When string `json:"when,omitempty" yaml:"when,omitempty"`
}

// BasicAuthConfig holds HTTP Basic credentials.
type BasicAuthConfig struct {
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
}

// BodyConfig matches the decoded request body. Every set field must hold.
type BodyConfig struct {
	ContentType string            `json:"contentType" yaml:"contentType"`
	Equals      any               `json:"equals,omitempty" yaml:"equals,omitempty"`
	Contains    string            `json:"contains,omitempty" yaml:"contains,omitempty"`
	JSONPath    map[string]any    `json:"jsonPath,omitempty" yaml:"jsonPath,omitempty"`
	JSONSchema  string            `json:"jsonSchema,omitempty" yaml:"jsonSchema,omitempty"`
	XPath       map[string]string `json:"xpath,omitempty" yaml:"xpath,omitempty"`
}

// CallsConfig is the call-count contract. At most one of Exactly and the
// AtLeast/AtMost bounds is used.
type CallsConfig struct {
	Exactly *int `json:"exactly,omitempty" yaml:"exactly,omitempty"`
	AtLeast *int `json:"atLeast,omitempty" yaml:"atLeast,omitempty"`
	AtMost  *int `json:"atMost,omitempty" yaml:"atMost,omitempty"`
}

// ResponseConfig is one response variant.
type ResponseConfig struct {
	Status      int                 `json:"status,omitempty" yaml:"status,omitempty"`
	Headers     map[string][]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Cookies     map[string]string   `json:"cookies,omitempty" yaml:"cookies,omitempty"`
	ContentType string              `json:"contentType,omitempty" yaml:"contentType,omitempty"`

	// Body is sent as is when it is a string, and encoded for ContentType
	// otherwise.
	Body any `json:"body,omitempty" yaml:"body,omitempty"`
	// BodyFile names a file sent as the body, relative to the config file.
	BodyFile string `json:"bodyFile,omitempty" yaml:"bodyFile,omitempty"`

	Delay   Duration       `json:"delay,omitempty" yaml:"delay,omitempty"`
	Chunked *ChunkedConfig `json:"chunked,omitempty" yaml:"chunked,omitempty"`

	// Forward relays matching requests to this URL instead.
	Forward string `json:"forward,omitempty" yaml:"forward,omitempty"`
}

// ChunkedConfig streams the body in Chunks pieces, Delay apart.
type ChunkedConfig struct {
	Chunks int      `json:"chunks,omitempty" yaml:"chunks,omitempty"`
	Delay  Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// WebSocketConfig declares one WebSocket expectation.
type WebSocketConfig struct {
	Path     string                 `json:"path" yaml:"path"`
	Sends    []MessageConfig        `json:"sends,omitempty" yaml:"sends,omitempty"`
	Receives []InboundMessageConfig `json:"receives,omitempty" yaml:"receives,omitempty"`
}

// MessageConfig is a text or base64-encoded binary message.
type MessageConfig struct {
	Text   *string `json:"text,omitempty" yaml:"text,omitempty"`
	Binary *string `json:"binary,omitempty" yaml:"binary,omitempty"`
}

// InboundMessageConfig is an expected client message with its reactions.
type InboundMessageConfig struct {
	MessageConfig `json:",inline" yaml:",inline"`
	Reacts        []MessageConfig `json:"reacts,omitempty" yaml:"reacts,omitempty"`
	Calls         *CallsConfig    `json:"calls,omitempty" yaml:"calls,omitempty"`
}

// Duration is a time.Duration written as "150ms" or a number of
// milliseconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return d.set(v)
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v any) error {
	switch t := v.(type) {
	case nil:
		*d = 0
	case string:
		parsed, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", t, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(t * float64(time.Millisecond)))
	case int:
		*d = Duration(time.Duration(t) * time.Millisecond)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}
