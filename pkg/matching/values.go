package matching

import (
	"fmt"
	"strings"
)

// HasItem matches collections with at least one element m matches.
func HasItem(m Matcher[string]) Matcher[[]string] {
	return Func("has item "+m.String(), func(values []string) bool {
		for _, v := range values {
			if m.Match(v) {
				return true
			}
		}
		return false
	})
}

// HasValue matches collections containing value.
func HasValue(value string) Matcher[[]string] {
	return HasItem(Equal(value))
}

// HasValues matches collections containing every one of values, in any
// order. Extra elements are allowed.
func HasValues(values ...string) Matcher[[]string] {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return Func("has values ["+strings.Join(quoted, ", ")+"]", func(actual []string) bool {
		for _, want := range values {
			found := false
			for _, v := range actual {
				if v == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	})
}

// Empty matches empty collections.
func Empty() Matcher[[]string] {
	return Func("empty", func(values []string) bool { return len(values) == 0 })
}
