package matching

import (
	"fmt"
	"reflect"

	"github.com/ohler55/ojg/jp"
)

// Exists is an expected JSONPath value that only checks for presence.
type Exists bool

// JSONPath matches decoded JSON values where the expression yields a value
// equal to expected. Numbers compare by value regardless of Go type. When
// expected is an Exists the path only has to be present (or absent).
func JSONPath(path string, expected any) Matcher[any] {
	expr, err := jp.ParseString(path)
	desc := fmt.Sprintf("JSONPath %s equal to %v", path, describeValue(expected))
	if exists, ok := expected.(Exists); ok {
		desc = fmt.Sprintf("JSONPath %s exists=%t", path, bool(exists))
	}
	return Func(desc, func(data any) bool {
		if err != nil {
			return false
		}
		results := expr.Get(data)

		if exists, ok := expected.(Exists); ok {
			return (len(results) > 0) == bool(exists)
		}
		for _, result := range results {
			if valuesEqual(result, expected) {
				return true
			}
		}
		return false
	})
}

// valuesEqual compares decoded values, treating all numeric types alike.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if reflect.DeepEqual(actual, expected) {
		return true
	}

	a, aok := toFloat64(actual)
	e, eok := toFloat64(expected)
	if aok && eok {
		return a == e
	}
	return false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
