package multipart

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/getmockd/ersatz/internal/id"
	"github.com/getmockd/ersatz/pkg/codec"
	"github.com/getmockd/ersatz/pkg/mimetype"
)

// BoundaryLength is the length of generated boundaries.
const BoundaryLength = 18

// ErrMissingEncoder is returned by Encode when a part has no encoder.
var ErrMissingEncoder = fmt.Errorf("multipart part encoding: %w", codec.ErrUnsupportedContentType)

// ResponseContent is an ordered multipart response body. Parts with the
// same field name are all kept.
type ResponseContent struct {
	boundary string
	parts    []Part
	encoders *codec.Encoders
}

// NewResponseContent returns empty content with a random boundary.
func NewResponseContent() *ResponseContent {
	return &ResponseContent{
		boundary: id.Alphanumeric(BoundaryLength),
		encoders: codec.NewEncoders(),
	}
}

// WithBoundary replaces the generated boundary.
func (c *ResponseContent) WithBoundary(boundary string) *ResponseContent {
	c.boundary = boundary
	return c
}

// Boundary returns the boundary in use.
func (c *ResponseContent) Boundary() string {
	return c.boundary
}

// ContentType returns the multipart/mixed content type carrying the boundary.
func (c *ResponseContent) ContentType() string {
	return mimetype.MultipartMixed + "; boundary=" + c.boundary
}

// Encoder registers a part encoder consulted before any injected encoders.
func (c *ResponseContent) Encoder(contentType string, typ reflect.Type, fn codec.EncoderFunc) *ResponseContent {
	c.encoders.Register(contentType, typ, fn)
	return c
}

// Encoders merges a registry into the local encoders.
func (c *ResponseContent) Encoders(e *codec.Encoders) *ResponseContent {
	c.encoders.Merge(e)
	return c
}

// Field appends a text/plain part.
func (c *ResponseContent) Field(name, value string) *ResponseContent {
	return c.Part(name, mimetype.TextPlain, value)
}

// Part appends a part without a file name.
func (c *ResponseContent) Part(name, contentType string, value any) *ResponseContent {
	return c.add(Part{FieldName: name, ContentType: contentType, Value: value})
}

// PartWithEncoding appends a part with a transfer encoding header.
func (c *ResponseContent) PartWithEncoding(name, contentType, transferEncoding string, value any) *ResponseContent {
	return c.add(Part{FieldName: name, ContentType: contentType, TransferEncoding: transferEncoding, Value: value})
}

// FilePart appends a part with a file name.
func (c *ResponseContent) FilePart(name, fileName, contentType string, value any) *ResponseContent {
	return c.add(Part{FieldName: name, FileName: fileName, ContentType: contentType, Value: value})
}

// FilePartWithEncoding appends a part with a file name and transfer encoding.
func (c *ResponseContent) FilePartWithEncoding(name, fileName, contentType, transferEncoding string, value any) *ResponseContent {
	return c.add(Part{
		FieldName:        name,
		FileName:         fileName,
		ContentType:      contentType,
		TransferEncoding: transferEncoding,
		Value:            value,
	})
}

func (c *ResponseContent) add(p Part) *ResponseContent {
	c.parts = append(c.parts, p)
	return c
}

// Parts returns a copy of the parts in insertion order.
func (c *ResponseContent) Parts() []Part {
	return append([]Part(nil), c.parts...)
}

// Encode renders the body. Each part value is serialized by the first
// encoder found in the local registry, then in injected in order. Nothing is
// returned when any part lacks an encoder.
func (c *ResponseContent) Encode(injected ...*codec.Encoders) ([]byte, error) {
	chain := codec.NewEncoderChain(append([]*codec.Encoders{c.encoders}, injected...)...)

	var buf bytes.Buffer
	for _, p := range c.parts {
		fn := chain.Resolve(p.ContentType, reflect.TypeOf(p.Value))
		if fn == nil {
			typ := reflect.TypeOf(p.Value)
			if typ == nil {
				typ = reflect.TypeFor[any]()
			}
			return nil, fmt.Errorf("%w: %w", ErrMissingEncoder, &codec.UnsupportedError{ContentType: p.ContentType, Type: typ})
		}
		data, err := fn(p.Value, p.ContentType)
		if err != nil {
			return nil, fmt.Errorf("encoding part %q: %w", p.FieldName, err)
		}

		fmt.Fprintf(&buf, "--%s\r\n", c.boundary)
		fmt.Fprintf(&buf, "Content-Disposition: form-data; name=\"%s\"", escapeQuotes(p.FieldName))
		if p.FileName != "" {
			fmt.Fprintf(&buf, "; filename=\"%s\"", escapeQuotes(p.FileName))
		}
		buf.WriteString("\r\n")
		if p.TransferEncoding != "" {
			fmt.Fprintf(&buf, "Content-Transfer-Encoding: %s\r\n", p.TransferEncoding)
		}
		fmt.Fprintf(&buf, "Content-Type: %s\r\n\r\n", p.ContentType)
		buf.Write(data)
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s--\r\n", c.boundary)

	return buf.Bytes(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// EncoderFor returns a codec.EncoderFunc for *ResponseContent values that
// serializes parts with enc after the content's local encoders.
func EncoderFor(enc *codec.Encoders) codec.EncoderFunc {
	return func(v any, _ string) ([]byte, error) {
		content, ok := v.(*ResponseContent)
		if !ok {
			return nil, errors.New("multipart encoder: value is not *ResponseContent")
		}
		return content.Encode(enc)
	}
}

// RegisterDefaults adds the multipart decoder and encoder to the registries.
func RegisterDefaults(decoders *codec.Decoders, encoders *codec.Encoders) {
	if decoders != nil {
		decoders.Register(mimetype.MultipartFormData, Decode)
		decoders.Register(mimetype.MultipartMixed, Decode)
	}
	if encoders != nil {
		encoders.Register("multipart/*", reflect.TypeFor[*ResponseContent](), EncoderFor(encoders))
	}
}
