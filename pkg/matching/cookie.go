package matching

import (
	"fmt"
	"strings"

	"github.com/getmockd/ersatz/pkg/request"
)

// CookieMatcher matches cookie records field by field. Unset fields are not
// checked.
type CookieMatcher struct {
	checks []Matcher[request.Cookie]
}

// NewCookieMatcher returns a matcher accepting any cookie.
func NewCookieMatcher() *CookieMatcher {
	return &CookieMatcher{}
}

func (c *CookieMatcher) field(name string, get func(request.Cookie) string, m Matcher[string]) *CookieMatcher {
	c.checks = append(c.checks, Func(name+" "+m.String(), func(v request.Cookie) bool {
		return m.Match(get(v))
	}))
	return c
}

func (c *CookieMatcher) intField(name string, get func(request.Cookie) int, m Matcher[int]) *CookieMatcher {
	c.checks = append(c.checks, Func(name+" "+m.String(), func(v request.Cookie) bool {
		return m.Match(get(v))
	}))
	return c
}

func (c *CookieMatcher) boolField(name string, get func(request.Cookie) bool, want bool) *CookieMatcher {
	c.checks = append(c.checks, Func(fmt.Sprintf("%s is %t", name, want), func(v request.Cookie) bool {
		return get(v) == want
	}))
	return c
}

// Value checks the cookie value.
func (c *CookieMatcher) Value(m Matcher[string]) *CookieMatcher {
	return c.field("value", func(v request.Cookie) string { return v.Value }, m)
}

// Domain checks the cookie domain.
func (c *CookieMatcher) Domain(m Matcher[string]) *CookieMatcher {
	return c.field("domain", func(v request.Cookie) string { return v.Domain }, m)
}

// Path checks the cookie path.
func (c *CookieMatcher) Path(m Matcher[string]) *CookieMatcher {
	return c.field("path", func(v request.Cookie) string { return v.Path }, m)
}

// Comment checks the cookie comment.
func (c *CookieMatcher) Comment(m Matcher[string]) *CookieMatcher {
	return c.field("comment", func(v request.Cookie) string { return v.Comment }, m)
}

// Version checks the cookie version.
func (c *CookieMatcher) Version(m Matcher[int]) *CookieMatcher {
	return c.intField("version", func(v request.Cookie) int { return v.Version }, m)
}

// MaxAge checks the cookie max-age.
func (c *CookieMatcher) MaxAge(m Matcher[int]) *CookieMatcher {
	return c.intField("max-age", func(v request.Cookie) int { return v.MaxAge }, m)
}

// HTTPOnly checks the http-only flag.
func (c *CookieMatcher) HTTPOnly(want bool) *CookieMatcher {
	return c.boolField("http-only", func(v request.Cookie) bool { return v.HTTPOnly }, want)
}

// Secure checks the secure flag.
func (c *CookieMatcher) Secure(want bool) *CookieMatcher {
	return c.boolField("secure", func(v request.Cookie) bool { return v.Secure }, want)
}

// Match implements Matcher.
func (c *CookieMatcher) Match(v request.Cookie) bool {
	for _, m := range c.checks {
		if !m.Match(v) {
			return false
		}
	}
	return true
}

func (c *CookieMatcher) String() string {
	if len(c.checks) == 0 {
		return "any cookie"
	}
	parts := make([]string, len(c.checks))
	for i, m := range c.checks {
		parts[i] = m.String()
	}
	return "cookie (" + strings.Join(parts, ", ") + ")"
}

// Cookie matches when the named cookie is present and m accepts it.
func Cookie(name string, m Matcher[request.Cookie]) Predicate {
	return Request(fmt.Sprintf("cookie %q %s", name, m), func(r *request.ClientRequest) bool {
		c, ok := r.Cookies[name]
		return ok && m.Match(c)
	})
}

// CookieValue matches when the named cookie has value.
func CookieValue(name, value string) Predicate {
	return Cookie(name, NewCookieMatcher().Value(Equal(value)))
}

// CookieExists matches when the named cookie is present.
func CookieExists(name string) Predicate {
	return Request(fmt.Sprintf("cookie %q exists", name), func(r *request.ClientRequest) bool {
		_, ok := r.Cookies[name]
		return ok
	})
}

// CookieAbsent matches when the named cookie is not present.
func CookieAbsent(name string) Predicate {
	return Request(fmt.Sprintf("cookie %q does not exist", name), func(r *request.ClientRequest) bool {
		_, ok := r.Cookies[name]
		return !ok
	})
}

// NoCookies matches requests without cookies.
func NoCookies() Predicate {
	return Request("no cookies", func(r *request.ClientRequest) bool {
		return len(r.Cookies) == 0
	})
}
