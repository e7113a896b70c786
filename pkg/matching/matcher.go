package matching

import (
	"fmt"
	"reflect"
	"strings"
)

// Matcher tests a value of type T.
type Matcher[T any] interface {
	Match(v T) bool
	String() string
}

type funcMatcher[T any] struct {
	desc string
	fn   func(T) bool
}

func (m funcMatcher[T]) Match(v T) bool { return m.fn(v) }
func (m funcMatcher[T]) String() string { return m.desc }

// Func adapts fn into a Matcher described by desc.
func Func[T any](desc string, fn func(T) bool) Matcher[T] {
	return funcMatcher[T]{desc: desc, fn: fn}
}

// Anything matches every value.
func Anything[T any]() Matcher[T] {
	return Func("anything", func(T) bool { return true })
}

// Equal matches values equal to want.
func Equal[T comparable](want T) Matcher[T] {
	return Func(fmt.Sprintf("equal to %v", describeValue(want)), func(v T) bool { return v == want })
}

// DeepEqual matches values reflect.DeepEqual to want. When want has an
// Equal method taking one argument and returning bool, it decides instead.
func DeepEqual[T any](want T) Matcher[T] {
	return Func(fmt.Sprintf("equal to %v", describeValue(want)), func(v T) bool {
		if eq, ok := equalByMethod(want, v); ok {
			return eq
		}
		return reflect.DeepEqual(v, want)
	})
}

func equalByMethod(want, v any) (equal, ok bool) {
	wv := reflect.ValueOf(want)
	if !wv.IsValid() {
		return false, false
	}
	method := wv.MethodByName("Equal")
	if !method.IsValid() {
		return false, false
	}
	mt := method.Type()
	if mt.NumIn() != 1 || mt.NumOut() != 1 || mt.Out(0).Kind() != reflect.Bool {
		return false, false
	}

	arg := reflect.ValueOf(v)
	switch {
	case !arg.IsValid():
		arg = reflect.Zero(mt.In(0))
	case !arg.Type().AssignableTo(mt.In(0)):
		return false, true
	}
	return method.Call([]reflect.Value{arg})[0].Bool(), true
}

// Not inverts m.
func Not[T any](m Matcher[T]) Matcher[T] {
	return Func("not "+m.String(), func(v T) bool { return !m.Match(v) })
}

// AllOf matches when every matcher matches. An empty AllOf matches anything.
func AllOf[T any](ms ...Matcher[T]) Matcher[T] {
	return Func(joinDescriptions("all of", ms), func(v T) bool {
		for _, m := range ms {
			if !m.Match(v) {
				return false
			}
		}
		return true
	})
}

// AnyOf matches when at least one matcher matches.
func AnyOf[T any](ms ...Matcher[T]) Matcher[T] {
	return Func(joinDescriptions("any of", ms), func(v T) bool {
		for _, m := range ms {
			if m.Match(v) {
				return true
			}
		}
		return false
	})
}

func joinDescriptions[T any](prefix string, ms []Matcher[T]) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.String()
	}
	return prefix + " (" + strings.Join(parts, ", ") + ")"
}

func describeValue(v any) string {
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("%q", t)
	case []byte:
		return fmt.Sprintf("%q", t)
	default:
		return fmt.Sprintf("%v", v)
	}
}
