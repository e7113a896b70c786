package matching

import "fmt"

// Call-count contracts for expectations and occurrence contracts for
// WebSocket messages.

// Times matches exactly n.
func Times(n int) Matcher[int] {
	return Func(fmt.Sprintf("exactly %d", n), func(v int) bool { return v == n })
}

// Once matches exactly one.
func Once() Matcher[int] {
	return Times(1)
}

// Never matches zero.
func Never() Matcher[int] {
	return Times(0)
}

// AtLeast matches values >= n.
func AtLeast(n int) Matcher[int] {
	return Func(fmt.Sprintf("at least %d", n), func(v int) bool { return v >= n })
}

// AtMost matches values <= n.
func AtMost(n int) Matcher[int] {
	return Func(fmt.Sprintf("at most %d", n), func(v int) bool { return v <= n })
}

// Between matches values in [lo, hi].
func Between(lo, hi int) Matcher[int] {
	return Func(fmt.Sprintf("between %d and %d", lo, hi), func(v int) bool { return v >= lo && v <= hi })
}
