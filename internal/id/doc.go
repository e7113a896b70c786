// Package id provides identifier generation for ersatz.
//
//   - UUID: random UUID v4 for expectations and WebSocket connections
//   - Short: 16-character hex IDs for request log entries
//   - Alphanumeric: configurable-length strings, used for multipart boundaries
//
// All randomness comes from crypto/rand.
package id
