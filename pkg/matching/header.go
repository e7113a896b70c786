package matching

import (
	"fmt"
	"strings"

	"github.com/getmockd/ersatz/pkg/request"
)

// Header matches when some header whose name equals name ignoring case has a
// value collection m accepts. Each header entry is tested on its own, so two
// Header predicates on one name may be satisfied by different values.
func Header(name string, m Matcher[[]string]) Predicate {
	return Request(fmt.Sprintf("header %q %s", name, m), func(r *request.ClientRequest) bool {
		for k, v := range r.Headers {
			if strings.EqualFold(k, name) && m.Match(v) {
				return true
			}
		}
		return false
	})
}

// HeaderValue matches when the named header carries value.
func HeaderValue(name, value string) Predicate {
	return Header(name, HasValue(value))
}

// HeaderExists matches when the named header is present.
func HeaderExists(name string) Predicate {
	return Request(fmt.Sprintf("header %q exists", name), func(r *request.ClientRequest) bool {
		for k := range r.Headers {
			if strings.EqualFold(k, name) {
				return true
			}
		}
		return false
	})
}

// HeaderAbsent matches when the named header is not present.
func HeaderAbsent(name string) Predicate {
	exists := HeaderExists(name)
	return Request(fmt.Sprintf("header %q does not exist", name), func(r *request.ClientRequest) bool {
		return !exists.Match(r)
	})
}

// ContentType matches the request content type with m.
func ContentType(m Matcher[string]) Predicate {
	return Request("content-type "+m.String(), func(r *request.ClientRequest) bool {
		return m.Match(r.ContentType)
	})
}
