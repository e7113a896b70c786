package matching

import (
	"fmt"

	"github.com/getmockd/ersatz/pkg/request"
)

// Predicate tests an inbound request.
type Predicate = Matcher[*request.ClientRequest]

// Request adapts fn into a Predicate described by desc.
func Request(desc string, fn func(*request.ClientRequest) bool) Predicate {
	return Func(desc, fn)
}

// Method matches requests whose method is accepted by m. MethodAny on
// either side matches.
func Method(m request.Method) Predicate {
	return Request(fmt.Sprintf("method is %s", m), func(r *request.ClientRequest) bool {
		return m.Accepts(r.Method)
	})
}

// Path matches the request path exactly, or any path when path is "*".
func Path(path string) Predicate {
	if path == "*" {
		return PathMatching(Anything[string]())
	}
	return PathMatching(Equal(path))
}

// PathMatching matches the request path with m.
func PathMatching(m Matcher[string]) Predicate {
	return Request("path "+m.String(), func(r *request.ClientRequest) bool {
		return m.Match(r.Path)
	})
}

// PathPrefix matches paths starting with prefix.
func PathPrefix(prefix string) Predicate {
	return PathMatching(StartsWith(prefix))
}

// PathGlob matches paths against a doublestar pattern such as "/api/**".
func PathGlob(pattern string) Predicate {
	return PathMatching(Glob(pattern))
}

// Secure matches requests received over HTTPS when secure is true, and over
// plain HTTP otherwise.
func Secure(secure bool) Predicate {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return Request("scheme is "+scheme, func(r *request.ClientRequest) bool {
		return r.Scheme == scheme
	})
}

// Protocol matches the request protocol, e.g. "HTTP/1.1".
func Protocol(m Matcher[string]) Predicate {
	return Request("protocol "+m.String(), func(r *request.ClientRequest) bool {
		return m.Match(r.Protocol)
	})
}
