// Package request defines ClientRequest, the immutable view of an inbound
// HTTP request that matchers and listeners evaluate. The transport builds
// one per request with FromHTTP; tests may build them directly.
package request
