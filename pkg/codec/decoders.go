package codec

import (
	"strings"
	"sync"

	"github.com/getmockd/ersatz/pkg/mimetype"
)

// DecodingContext describes the content handed to a DecoderFunc. Chain lets
// composite decoders such as multipart decode nested content.
type DecodingContext struct {
	ContentLength     int64
	ContentType       string
	CharacterEncoding string
	Chain             *DecoderChain
}

// DecoderFunc converts raw body bytes into a value a matcher can test.
type DecoderFunc func(content []byte, dc *DecodingContext) (any, error)

type decoderEntry struct {
	pattern string
	fn      DecoderFunc
}

// Decoders is an ordered content-type pattern to DecoderFunc registry.
// It is safe for concurrent use.
type Decoders struct {
	mu      sync.RWMutex
	entries []decoderEntry
}

// NewDecoders returns an empty registry.
func NewDecoders() *Decoders {
	return &Decoders{}
}

// Register maps pattern to fn. A previous entry with the identical pattern
// string is replaced in place; otherwise fn is appended.
func (d *Decoders) Register(pattern string, fn DecoderFunc) *Decoders {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.entries {
		if d.entries[i].pattern == pattern {
			d.entries[i].fn = fn
			return d
		}
	}
	d.entries = append(d.entries, decoderEntry{pattern: pattern, fn: fn})
	return d
}

// Find returns the decoder registered for contentType or nil. When several
// patterns match, one whose pattern equals the bare content type wins, and
// otherwise the earliest registration.
func (d *Decoders) Find(contentType string) DecoderFunc {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	base := mimetype.Base(contentType)
	var first DecoderFunc
	for _, e := range d.entries {
		if !mimetype.Matches(e.pattern, contentType) {
			continue
		}
		if strings.EqualFold(e.pattern, base) {
			return e.fn
		}
		if first == nil {
			first = e.fn
		}
	}
	return first
}

// Len returns the number of registered patterns.
func (d *Decoders) Len() int {
	if d == nil {
		return 0
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Merge registers every entry of other into d, in order.
func (d *Decoders) Merge(other *Decoders) *Decoders {
	if other == nil || other == d {
		return d
	}
	other.mu.RLock()
	entries := append([]decoderEntry(nil), other.entries...)
	other.mu.RUnlock()

	for _, e := range entries {
		d.Register(e.pattern, e.fn)
	}
	return d
}

// DecoderChain resolves decoders from an ordered list of registries.
type DecoderChain struct {
	registries []*Decoders
}

// NewDecoderChain builds a chain consulting registries in order. Nil
// registries are skipped.
func NewDecoderChain(registries ...*Decoders) *DecoderChain {
	c := &DecoderChain{}
	for _, r := range registries {
		if r != nil {
			c.registries = append(c.registries, r)
		}
	}
	return c
}

// Resolve returns the first decoder any registry yields for contentType.
func (c *DecoderChain) Resolve(contentType string) DecoderFunc {
	if c == nil {
		return nil
	}
	for _, r := range c.registries {
		if fn := r.Find(contentType); fn != nil {
			return fn
		}
	}
	return nil
}

// Decode resolves a decoder for dc.ContentType and applies it. When dc.Chain
// is nil it is set to c so nested decoding uses the same registries.
func (c *DecoderChain) Decode(content []byte, dc *DecodingContext) (any, error) {
	if dc == nil {
		dc = &DecodingContext{}
	}
	fn := c.Resolve(dc.ContentType)
	if fn == nil {
		return nil, &UnsupportedError{ContentType: dc.ContentType}
	}
	if dc.Chain == nil {
		dc.Chain = c
	}
	return fn(content, dc)
}
