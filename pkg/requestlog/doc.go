// Package requestlog records the requests a server received, which
// expectation matched them, and what was sent back, so tests can inspect
// traffic after the fact. It is separate from operational logging, which
// uses log/slog.
//
//	store := requestlog.NewMemoryStore(1000)
//	store.Log(&requestlog.Entry{Protocol: requestlog.ProtocolHTTP, Method: "GET", Path: "/users"})
//	entries := store.List(&requestlog.Filter{Method: "GET"})
//
// This is a leaf package so any component can log to it.
package requestlog
