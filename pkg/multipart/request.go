package multipart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/getmockd/ersatz/pkg/codec"
	"github.com/getmockd/ersatz/pkg/mimetype"
)

// ErrNoBoundary is returned when a multipart content type has no boundary.
var ErrNoBoundary = errors.New("multipart content type has no boundary")

// RequestContent holds the parts of a multipart request keyed by field name.
// Adding a part for an existing field replaces it.
type RequestContent struct {
	parts map[string]Part
	order []string
}

// NewRequestContent returns empty content, typically used to build the
// expected value for a body matcher.
func NewRequestContent() *RequestContent {
	return &RequestContent{parts: make(map[string]Part)}
}

// Field adds a text/plain part.
func (c *RequestContent) Field(name, value string) *RequestContent {
	return c.Part(name, mimetype.TextPlain, value)
}

// Part adds a part without a file name.
func (c *RequestContent) Part(name, contentType string, value any) *RequestContent {
	return c.put(Part{FieldName: name, ContentType: contentType, Value: value})
}

// FilePart adds a part with a file name.
func (c *RequestContent) FilePart(name, fileName, contentType string, value any) *RequestContent {
	return c.put(Part{FieldName: name, FileName: fileName, ContentType: contentType, Value: value})
}

// FilePartWithEncoding adds a part with a file name and transfer encoding.
func (c *RequestContent) FilePartWithEncoding(name, fileName, contentType, transferEncoding string, value any) *RequestContent {
	return c.put(Part{
		FieldName:        name,
		FileName:         fileName,
		ContentType:      contentType,
		TransferEncoding: transferEncoding,
		Value:            value,
	})
}

func (c *RequestContent) put(p Part) *RequestContent {
	if _, exists := c.parts[p.FieldName]; !exists {
		c.order = append(c.order, p.FieldName)
	}
	c.parts[p.FieldName] = p
	return c
}

// Get returns the part for a field.
func (c *RequestContent) Get(name string) (Part, bool) {
	p, ok := c.parts[name]
	return p, ok
}

// Parts returns the parts in the order their fields first appeared.
func (c *RequestContent) Parts() []Part {
	out := make([]Part, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.parts[name])
	}
	return out
}

// Len returns the number of fields.
func (c *RequestContent) Len() int {
	return len(c.parts)
}

// Equal reports whether both contents hold equal parts for the same fields.
// Field order is not significant.
func (c *RequestContent) Equal(other *RequestContent) bool {
	if c == nil || other == nil {
		return c == other
	}
	if len(c.parts) != len(other.parts) {
		return false
	}
	for name, p := range c.parts {
		o, ok := other.parts[name]
		if !ok || !p.equal(o) {
			return false
		}
	}
	return true
}

func (c *RequestContent) String() string {
	var b strings.Builder
	b.WriteString("RequestContent[")
	for i, p := range c.Parts() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString("]")
	return b.String()
}

// Decode is a codec.DecoderFunc parsing a multipart body into a
// *RequestContent. Each part value is decoded through the chain of the
// decoding context by the part's content type (text/plain when absent);
// parts no decoder accepts keep their raw bytes.
func Decode(content []byte, dc *codec.DecodingContext) (any, error) {
	if dc == nil {
		return nil, ErrNoBoundary
	}
	_, params, err := mime.ParseMediaType(dc.ContentType)
	if err != nil {
		return nil, fmt.Errorf("parsing multipart content type: %w", err)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, ErrNoBoundary
	}

	result := NewRequestContent()
	reader := multipart.NewReader(bytes.NewReader(content), boundary)
	for {
		part, err := reader.NextRawPart()
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading multipart part: %w", err)
		}

		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, fmt.Errorf("reading part %q: %w", part.FormName(), err)
		}

		contentType := part.Header.Get("Content-Type")
		if contentType == "" {
			contentType = mimetype.TextPlain
		}

		var value any = data
		if dc.Chain != nil {
			if fn := dc.Chain.Resolve(contentType); fn != nil {
				value, err = fn(data, &codec.DecodingContext{
					ContentLength:     int64(len(data)),
					ContentType:       contentType,
					CharacterEncoding: mimetype.Charset(contentType),
					Chain:             dc.Chain,
				})
				if err != nil {
					return nil, fmt.Errorf("decoding part %q: %w", part.FormName(), err)
				}
			}
		}

		result.put(Part{
			FieldName:        part.FormName(),
			FileName:         part.FileName(),
			ContentType:      contentType,
			TransferEncoding: part.Header.Get("Content-Transfer-Encoding"),
			Value:            value,
		})
	}
}
