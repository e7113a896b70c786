// Package multipart models multipart request and response bodies.
//
// RequestContent is what the multipart decoder produces from an inbound body:
// parts keyed by field name, each value decoded through the request decoder
// chain. ResponseContent is an ordered list of parts rendered to the wire by
// Encode, each part value serialized by the first encoder found in the
// content's local registry or in the registries passed to Encode.
package multipart
