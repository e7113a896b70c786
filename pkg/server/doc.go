// Package server serves an expect.Expectations registry over HTTP, HTTPS,
// h2c and WebSocket.
//
// A Server embeds its registry, so expectations are declared on it
// directly:
//
//	srv := server.New()
//	srv.GET("/users/1").Responds().BodyAs(`{"id":1}`, "application/json")
//	if err := srv.Start(); err != nil { ... }
//	defer srv.Close()
//
// Unmatched requests get a 404 and a report describing how each
// expectation fared is logged at Warn level.
package server
