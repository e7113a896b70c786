package matching

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// EqualFold matches strings equal to want ignoring case.
func EqualFold(want string) Matcher[string] {
	return Func(fmt.Sprintf("equal ignoring case to %q", want), func(v string) bool {
		return strings.EqualFold(v, want)
	})
}

// StartsWith matches strings with the given prefix.
func StartsWith(prefix string) Matcher[string] {
	return Func(fmt.Sprintf("starts with %q", prefix), func(v string) bool {
		return strings.HasPrefix(v, prefix)
	})
}

// EndsWith matches strings with the given suffix.
func EndsWith(suffix string) Matcher[string] {
	return Func(fmt.Sprintf("ends with %q", suffix), func(v string) bool {
		return strings.HasSuffix(v, suffix)
	})
}

// Contains matches strings containing sub.
func Contains(sub string) Matcher[string] {
	return Func(fmt.Sprintf("contains %q", sub), func(v string) bool {
		return strings.Contains(v, sub)
	})
}

// Regex matches strings re matches.
func Regex(re *regexp.Regexp) Matcher[string] {
	return Func(fmt.Sprintf("matches /%s/", re), re.MatchString)
}

// MustRegex compiles pattern and panics when it is invalid.
func MustRegex(pattern string) Matcher[string] {
	return Regex(regexp.MustCompile(pattern))
}

// Glob matches slash-separated strings against a doublestar pattern, where
// "*" spans one segment and "**" any number of segments. An invalid pattern
// matches nothing.
func Glob(pattern string) Matcher[string] {
	return Func(fmt.Sprintf("matches glob %q", pattern), func(v string) bool {
		ok, err := doublestar.Match(pattern, v)
		return err == nil && ok
	})
}

// Wildcard matches with a simple '*' pattern: "abc*" prefix, "*abc" suffix,
// "*abc*" contains, and exact otherwise.
func Wildcard(pattern string) Matcher[string] {
	var m Matcher[string]
	switch {
	case !strings.Contains(pattern, "*"):
		m = Equal(pattern)
	case pattern == "*":
		m = Anything[string]()
	case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
		m = Contains(strings.Trim(pattern, "*"))
	case strings.HasSuffix(pattern, "*"):
		m = StartsWith(strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*"):
		m = EndsWith(strings.TrimPrefix(pattern, "*"))
	default:
		prefix, suffix, _ := strings.Cut(pattern, "*")
		m = AllOf(StartsWith(prefix), EndsWith(suffix))
	}
	return m
}
