// Package mimetype parses content types and matches them against patterns
// such as "text/*" or "application/json".
package mimetype

import (
	"mime"
	"strings"
)

// Common content types.
const (
	TextPlain          = "text/plain"
	TextHTML           = "text/html"
	TextXML            = "text/xml"
	TextJSON           = "text/json"
	ApplicationJSON    = "application/json"
	ApplicationXML     = "application/xml"
	ApplicationYAML    = "application/yaml"
	ApplicationURLForm = "application/x-www-form-urlencoded"
	ApplicationOctet   = "application/octet-stream"
	ApplicationProto   = "application/x-protobuf"
	MultipartFormData  = "multipart/form-data"
	MultipartMixed     = "multipart/mixed"
	ImagePNG           = "image/png"
	ImageJPEG          = "image/jpeg"
)

// MimeType is a parsed media type.
type MimeType struct {
	Type    string
	Subtype string
	Params  map[string]string
}

// Parse splits a content-type value into primary type, subtype and parameters.
// Values that mime.ParseMediaType rejects are split leniently on '/' and ';'
// so that matching never fails on malformed parameters. ok is false only when
// no primary type can be found.
func Parse(s string) (MimeType, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MimeType{}, false
	}

	base, params, err := mime.ParseMediaType(s)
	if err != nil {
		base, _, _ = strings.Cut(s, ";")
		base = strings.ToLower(strings.TrimSpace(base))
		params = nil
	}

	primary, sub, _ := strings.Cut(base, "/")
	if primary == "" {
		return MimeType{}, false
	}
	return MimeType{Type: primary, Subtype: sub, Params: params}, true
}

// String renders the type without parameters.
func (m MimeType) String() string {
	if m.Subtype == "" {
		return m.Type
	}
	return m.Type + "/" + m.Subtype
}

// Match reports whether m and other denote compatible media types. Primary
// types must be equal and subtypes equal unless either side is "*". A "*"
// primary type on either side matches any primary type. Parameters are
// ignored.
func (m MimeType) Match(other MimeType) bool {
	if m.Type != "*" && other.Type != "*" && m.Type != other.Type {
		return false
	}
	return m.Subtype == "*" || other.Subtype == "*" || m.Subtype == other.Subtype
}

// Matches reports whether contentType matches pattern.
func Matches(pattern, contentType string) bool {
	p, ok := Parse(pattern)
	if !ok {
		return false
	}
	c, ok := Parse(contentType)
	if !ok {
		return false
	}
	return p.Match(c)
}

// Charset returns the charset parameter of contentType, or "".
func Charset(contentType string) string {
	m, ok := Parse(contentType)
	if !ok {
		return ""
	}
	return m.Params["charset"]
}

// Base returns contentType without parameters, lowercased.
func Base(contentType string) string {
	m, ok := Parse(contentType)
	if !ok {
		return ""
	}
	return m.String()
}

// IsTextual reports whether content of this type is readable as text.
// Used to decide whether a body is logged verbatim.
func IsTextual(contentType string) bool {
	m, ok := Parse(contentType)
	if !ok {
		return false
	}
	if m.Type == "text" {
		return true
	}
	for _, suffix := range []string{"json", "xml", "javascript", "yaml", "x-www-form-urlencoded"} {
		if m.Subtype == suffix || strings.HasSuffix(m.Subtype, "+"+suffix) {
			return true
		}
	}
	return false
}
