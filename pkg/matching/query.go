package matching

import (
	"fmt"
	"net/url"

	"github.com/getmockd/ersatz/pkg/request"
)

// Query matches when the named query parameter has a value collection m
// accepts. A parameter given without a value ("?flag") has the value "".
func Query(name string, m Matcher[[]string]) Predicate {
	return Request(fmt.Sprintf("query %q %s", name, m), func(r *request.ClientRequest) bool {
		return matchParam(r.Query, name, m)
	})
}

// QueryValue matches when the named query parameter carries value.
func QueryValue(name, value string) Predicate {
	return Query(name, HasValue(value))
}

// QueryExists matches when the named query parameter is present.
func QueryExists(name string) Predicate {
	return Request(fmt.Sprintf("query %q exists", name), func(r *request.ClientRequest) bool {
		_, ok := r.Query[name]
		return ok
	})
}

// QueryAbsent matches when the named query parameter is not present.
func QueryAbsent(name string) Predicate {
	return Request(fmt.Sprintf("query %q does not exist", name), func(r *request.ClientRequest) bool {
		_, ok := r.Query[name]
		return !ok
	})
}

// Param matches when the named form body parameter has a value collection m
// accepts.
func Param(name string, m Matcher[[]string]) Predicate {
	return Request(fmt.Sprintf("param %q %s", name, m), func(r *request.ClientRequest) bool {
		return matchParam(r.BodyParams, name, m)
	})
}

// ParamValue matches when the named body parameter carries value.
func ParamValue(name, value string) Predicate {
	return Param(name, HasValue(value))
}

func matchParam(values url.Values, name string, m Matcher[[]string]) bool {
	v, ok := values[name]
	return ok && m.Match(v)
}
