package request

import "strings"

// Method is an HTTP request method. MethodAny matches every method.
type Method string

// Supported methods.
const (
	MethodAny     Method = "*"
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

// ParseMethod normalizes s to a Method. "ANY" and "*" both yield MethodAny.
func ParseMethod(s string) Method {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "ANY" || s == "*" || s == "" {
		return MethodAny
	}
	return Method(s)
}

// Accepts reports whether a request issued with method other satisfies m,
// treating MethodAny on either side as a wildcard.
func (m Method) Accepts(other Method) bool {
	return m == MethodAny || other == MethodAny || m == other
}

func (m Method) String() string {
	if m == MethodAny {
		return "ANY"
	}
	return string(m)
}
